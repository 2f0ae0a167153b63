// Package event defines the normalized event envelope published to broadcast
// groups, the typed payloads for every wire event, and the domain emitters
// that translate entity changes into envelopes and choose target groups.
package event

import (
	"encoding/json"
	"time"

	"github.com/AmrendraTheCoder/go-backend-sub000/errors"
)

// Envelope is the unit published to a broadcast group. The payload is always
// a self-contained snapshot: receivers apply it independently of any event
// they may have missed, which is what makes the no-replay reconnect model
// workable.
type Envelope struct {
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope builds an envelope for a typed payload, stamping publish time
func NewEnvelope(t Type, payload any) (*Envelope, error) {
	if !t.Known() {
		return nil, errors.Validationf("unknown event type %q", t)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Envelope", "NewEnvelope", "marshal payload")
	}
	return &Envelope{
		Type:      t,
		Timestamp: time.Now().UTC(),
		Payload:   data,
	}, nil
}

// Encode marshals the envelope for the wire
func (e *Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Envelope", "Encode", "marshal envelope")
	}
	return data, nil
}

// Decode parses a wire frame into an envelope. Frames whose type is not a
// known event type are rejected so control frames never leak into event
// handlers.
func Decode(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.Validationf("malformed envelope: %v", err)
	}
	if !e.Type.Known() {
		return nil, errors.Validationf("unknown event type %q", e.Type)
	}
	return &e, nil
}

// DecodePayload returns the typed payload for the envelope's event type.
// The switch is exhaustive over the wire event set.
func (e *Envelope) DecodePayload() (any, error) {
	var (
		v   any
		err error
	)
	switch e.Type {
	case TypeJobCreated:
		v, err = decodeAs[JobCreated](e.Payload)
	case TypeJobStatusUpdated:
		v, err = decodeAs[JobStatusUpdated](e.Payload)
	case TypeJobProgressUpdated:
		v, err = decodeAs[JobProgressUpdated](e.Payload)
	case TypeInventoryUpdated:
		v, err = decodeAs[InventoryUpdated](e.Payload)
	case TypeStockAlert:
		v, err = decodeAs[StockAlert](e.Payload)
	case TypeMachineStatusUpdated:
		v, err = decodeAs[MachineStatusUpdated](e.Payload)
	case TypeQualityCheckAdded:
		v, err = decodeAs[QualityCheckAdded](e.Payload)
	case TypeNotification:
		v, err = decodeAs[Notification](e.Payload)
	case TypeBatchUpdate:
		v, err = decodeAs[BatchUpdate](e.Payload)
	default:
		return nil, errors.Validationf("unknown event type %q", e.Type)
	}
	return v, err
}

func decodeAs[T any](data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Validationf("malformed %T payload: %v", v, err)
	}
	return v, nil
}
