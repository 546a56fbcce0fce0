// Package irisfast talks to the Iris chat gateway: fasthttp for outgoing
// replies and a websocket for the inbound message stream.
package irisfast

// Message is one inbound chat event from the gateway.
type Message struct {
	Msg    string  `json:"msg"`
	Room   string  `json:"room"`
	Sender *string `json:"sender,omitempty"`
	// Attachment carries a media reference when the message has one,
	// e.g. the screenshot opening a match report.
	Attachment string `json:"attachment,omitempty"`
}

// SenderID returns the sender id or "" when the gateway omitted it.
func (m *Message) SenderID() string {
	if m == nil || m.Sender == nil {
		return ""
	}
	return *m.Sender
}

// ReplyRequest is the outgoing frame for both HTTP and websocket egress.
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

// WebSocketState is the connection lifecycle of the inbound stream.
type WebSocketState int

const (
	WSStateDisconnected WebSocketState = iota
	WSStateConnecting
	WSStateConnected
	WSStateReconnecting
	WSStateFailed
)

func (s WebSocketState) String() string {
	switch s {
	case WSStateConnecting:
		return "connecting"
	case WSStateConnected:
		return "connected"
	case WSStateReconnecting:
		return "reconnecting"
	case WSStateFailed:
		return "failed"
	}
	return "disconnected"
}
