package types

import (
	"time"
)

// Envelope type tags exchanged over the WebSocket connection.
// Clients send "join" and "message"; the server sends "history",
// "message", "system" and "error".
const (
	EnvelopeTypeJoin    = "join"
	EnvelopeTypeMessage = "message"
	EnvelopeTypeHistory = "history"
	EnvelopeTypeSystem  = "system"
	EnvelopeTypeError   = "error"
)

// ChatMessage is a persisted chat message. The timestamp is assigned by the
// store at persistence time; a message is immutable once persisted.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// InboundEnvelope is the union of the client-to-server envelope variants.
// Exactly one tag applies per envelope; which fields are meaningful depends
// on Type ("join" carries Username, "message" carries Message).
type InboundEnvelope struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// HistoryEnvelope delivers recent chat history to a newly joined client,
// oldest message first.
type HistoryEnvelope struct {
	Type     string        `json:"type"`
	Messages []ChatMessage `json:"messages"`
}

// BroadcastEnvelope carries a persisted chat message to every live client,
// including the sender.
type BroadcastEnvelope struct {
	Type      string    `json:"type"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemEnvelope announces join/leave events.
type SystemEnvelope struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEnvelope reports a problem back to the offending client only.
type ErrorEnvelope struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewHistoryEnvelope wraps messages (oldest first) in a history envelope.
func NewHistoryEnvelope(messages []ChatMessage) *HistoryEnvelope {
	if messages == nil {
		messages = []ChatMessage{}
	}
	return &HistoryEnvelope{
		Type:     EnvelopeTypeHistory,
		Messages: messages,
	}
}

// NewBroadcastEnvelope builds the fan-out form of a persisted message,
// carrying the identity, body and timestamp exactly as stored.
func NewBroadcastEnvelope(message ChatMessage) *BroadcastEnvelope {
	return &BroadcastEnvelope{
		Type:      EnvelopeTypeMessage,
		Username:  message.Username,
		Message:   message.Message,
		Timestamp: message.Timestamp,
	}
}

// NewSystemEnvelope builds a system announcement stamped with the current time.
func NewSystemEnvelope(text string) *SystemEnvelope {
	return &SystemEnvelope{
		Type:      EnvelopeTypeSystem,
		Message:   text,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorEnvelope builds an error report for a single client.
func NewErrorEnvelope(text string) *ErrorEnvelope {
	return &ErrorEnvelope{
		Type:    EnvelopeTypeError,
		Message: text,
	}
}
