package websocket

import "encoding/json"

// Inbound frame actions. A connection starts unauthenticated; every action
// other than ActionConnect is dropped until a connect frame binds an
// identity.
const (
	ActionConnect     = "connect"
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionMessage     = "message"
	ActionTyping      = "typing"
)

// InboundFrame is one JSON frame read from a client connection.
type InboundFrame struct {
	Action         string `json:"action"`
	Token          string `json:"token,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	Content        string `json:"content,omitempty"`
	IsTyping       bool   `json:"isTyping,omitempty"`
}

// TypingEvent is broadcast to a conversation's typing sub-topic. It is
// never persisted.
type TypingEvent struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	IsTyping bool   `json:"isTyping"`
}

// envelope wraps payloads on the redis wire so a hub can skip frames it
// published itself; local subscribers already got them directly.
type envelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}
