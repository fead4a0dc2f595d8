package model

import "fmt"

// WebSocketMessageType is the tag of a [WebSocketMessage].
type WebSocketMessageType int

const (
	// WebSocketMessageText is a text message.
	WebSocketMessageText = WebSocketMessageType(iota + 1)

	// WebSocketMessageBinary is a binary message.
	WebSocketMessageBinary
)

// String implements fmt.Stringer.
func (t WebSocketMessageType) String() string {
	switch t {
	case WebSocketMessageText:
		return "text"
	case WebSocketMessageBinary:
		return "binary"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// WebSocketMessage is a decoded WebSocket message. When Type is
// [WebSocketMessageText] only Text is meaningful, when Type is
// [WebSocketMessageBinary] only Data is meaningful.
type WebSocketMessage struct {
	Type WebSocketMessageType
	Text string
	Data []byte
}

// NewWebSocketTextMessage constructs a text [WebSocketMessage].
func NewWebSocketTextMessage(text string) WebSocketMessage {
	return WebSocketMessage{Type: WebSocketMessageText, Text: text}
}

// NewWebSocketBinaryMessage constructs a binary [WebSocketMessage].
func NewWebSocketBinaryMessage(data []byte) WebSocketMessage {
	return WebSocketMessage{Type: WebSocketMessageBinary, Data: data}
}

// Size returns the message payload size in bytes.
func (m WebSocketMessage) Size() int {
	if m.Type == WebSocketMessageText {
		return len(m.Text)
	}
	return len(m.Data)
}
