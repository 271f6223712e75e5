package collab

import (
	"encoding/json"

	"github.com/fraction12/wireflow/internal/bridge"
	"github.com/fraction12/wireflow/internal/document"
)

type Message struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	FrameID     string     `json:"frameId,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"
	TypeNotice         = "notice"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync    = "doc.sync"
	TypeDocChanged = "doc.changed"

	// Operations
	TypeOpSubmit = "op.submit"
	TypeOpAck    = "op.ack"
	TypeOpNack   = "op.nack"
)

// WelcomePayload is sent once per connection, before anything else.
type WelcomePayload struct {
	ClientID string                  `json:"clientId"`
	Revision uint64                  `json:"revision"`
	Document *document.DocumentState `json:"document"`
}

// OperationSubmitPayload is the payload for op.submit messages. RequestID
// is chosen by the client and echoed in the ack or nack.
type OperationSubmitPayload struct {
	RequestID string           `json:"requestId"`
	Operation bridge.Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages.
type OperationAckPayload struct {
	RequestID string        `json:"requestId"`
	Result    bridge.Result `json:"result"`
}

// OperationNackPayload is the payload for op.nack messages.
type OperationNackPayload struct {
	RequestID string `json:"requestId"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

// DocChangedPayload carries the full document after a committed change.
type DocChangedPayload struct {
	Revision uint64                  `json:"revision"`
	Document *document.DocumentState `json:"document"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func newMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Payload: data}, nil
}
