package realtime

import (
	"encoding/json"
	"errors"
)

// Control frame types exchanged alongside event envelopes. Client-to-server
// frames request membership changes or liveness checks; server-to-client
// frames acknowledge them. Event envelopes (see the event package) share the
// same outer "type" discriminator, so one read loop dispatches both.
const (
	// Client -> server
	ControlJoinRoom       = "join-room"
	ControlLeaveRoom      = "leave-room"
	ControlSubscribeJob   = "subscribe-job-updates"
	ControlUnsubscribeJob = "unsubscribe-job-updates"
	ControlPing           = "ping"

	// Server -> client
	ControlRoomJoined          = "room-joined"
	ControlRoomJoinDenied      = "room-join-denied"
	ControlRoomLeft            = "room-left"
	ControlPong                = "pong"
	ControlConnectionConfirmed = "connection-confirmed"
)

// ControlFrame is the wire shape of a control message in either direction.
// Unused fields are omitted.
type ControlFrame struct {
	Type            string   `json:"type"`
	Room            string   `json:"room,omitempty"`
	JobID           string   `json:"jobId,omitempty"`
	Reason          string   `json:"reason,omitempty"`
	UserID          string   `json:"userId,omitempty"`
	Role            string   `json:"role,omitempty"`
	AvailableGroups []string `json:"availableGroups,omitempty"`
}

// Encode marshals the frame for the wire
func (f ControlFrame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// decodeControl parses an inbound frame, rejecting anything without a type
func decodeControl(data []byte) (ControlFrame, error) {
	var f ControlFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return ControlFrame{}, err
	}
	if f.Type == "" {
		return ControlFrame{}, errMissingType
	}
	return f, nil
}

var errMissingType = errors.New("control frame missing type")

// IsControlType reports whether a wire type string is a control frame type
func IsControlType(t string) bool {
	switch t {
	case ControlJoinRoom, ControlLeaveRoom, ControlSubscribeJob,
		ControlUnsubscribeJob, ControlPing, ControlRoomJoined,
		ControlRoomJoinDenied, ControlRoomLeft, ControlPong,
		ControlConnectionConfirmed:
		return true
	}
	return false
}
