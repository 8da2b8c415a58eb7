package webchat

import (
	"encoding/json"
	"fmt"

	"github.com/soyeahso/shopdesk/internal/domain"
)

// Frame kinds exchanged over the socket.
const (
	KindHello = "hello" // server → client, carries the assigned user ID
	KindText  = "text"  // client → server
	KindImage = "image" // client → server, stands in for a photo upload
	KindReply = "reply" // server → client
	KindError = "error" // server → client
)

// Frame is the envelope for every WebSocket message.
type Frame struct {
	Kind     string            `json:"kind"`
	UserID   string            `json:"userId,omitempty"`
	Text     string            `json:"text,omitempty"`
	Messages []json.RawMessage `json:"messages,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// encodeMessage flattens an outbound message into a JSON object tagged
// with its kind, e.g. {"kind":"text","text":"...","quickReplies":[...]}.
func encodeMessage(m domain.OutboundMessage) (json.RawMessage, error) {
	var v any
	switch msg := m.(type) {
	case domain.PlainText:
		v = struct {
			Kind domain.MessageKind `json:"kind"`
			domain.PlainText
		}{msg.Kind(), msg}
	case domain.SummaryCard:
		v = struct {
			Kind domain.MessageKind `json:"kind"`
			domain.SummaryCard
		}{msg.Kind(), msg}
	case domain.LocationCard:
		v = struct {
			Kind domain.MessageKind `json:"kind"`
			domain.BusinessInfo
		}{msg.Kind(), msg.BusinessInfo}
	default:
		return nil, fmt.Errorf("unsupported message kind %q", m.Kind())
	}
	return json.Marshal(v)
}

// replyFrame builds the frame carrying a reply's messages.
func replyFrame(msgs []domain.OutboundMessage) (Frame, error) {
	f := Frame{Kind: KindReply, Messages: make([]json.RawMessage, 0, len(msgs))}
	for _, m := range msgs {
		raw, err := encodeMessage(m)
		if err != nil {
			return Frame{}, err
		}
		f.Messages = append(f.Messages, raw)
	}
	return f, nil
}
