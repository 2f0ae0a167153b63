package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeEncodeDecode(t *testing.T) {
	env, err := NewEnvelope(TypeJobCreated, JobCreated{
		ID:       "job-1",
		Title:    "Business cards",
		Status:   "pending",
		Priority: "high",
		Machine:  "Machine 1",
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), env.Timestamp, time.Second)

	data, err := env.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeJobCreated, decoded.Type)

	payload, err := decoded.DecodePayload()
	require.NoError(t, err)
	jc, ok := payload.(JobCreated)
	require.True(t, ok)
	assert.Equal(t, "job-1", jc.ID)
	assert.Equal(t, "Business cards", jc.Title)
}

func TestEnvelopeWireShape(t *testing.T) {
	env, err := NewEnvelope(TypeNotification, Notification{
		Message: "Shift change in 10 minutes",
		Kind:    NotificationInfo,
	})
	require.NoError(t, err)

	data, err := env.Encode()
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Contains(t, wire, "type")
	assert.Contains(t, wire, "timestamp")
	assert.Contains(t, wire, "payload")

	var typ string
	require.NoError(t, json.Unmarshal(wire["type"], &typ))
	assert.Equal(t, "notification", typ)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"mystery-event","timestamp":"2026-01-01T00:00:00Z","payload":{}}`))
	assert.Error(t, err)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewEnvelopeRejectsUnknownType(t *testing.T) {
	_, err := NewEnvelope(Type("made-up"), struct{}{})
	assert.Error(t, err)
}

func TestDecodePayloadBatch(t *testing.T) {
	entry, err := BatchEntryFor(TypeJobProgressUpdated, JobProgressUpdated{
		ID: "job-2", ProgressPercentage: 40,
	})
	require.NoError(t, err)

	env, err := NewEnvelope(TypeBatchUpdate, BatchUpdate{Count: 1, Events: []BatchEntry{entry}})
	require.NoError(t, err)

	data, err := env.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	payload, err := decoded.DecodePayload()
	require.NoError(t, err)
	batch, ok := payload.(BatchUpdate)
	require.True(t, ok)
	require.Len(t, batch.Events, 1)
	assert.Equal(t, TypeJobProgressUpdated, batch.Events[0].Type)
}
