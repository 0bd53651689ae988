package session

import (
	"context"
	"fmt"
)

// Message types accepted on the command channel.
const (
	MessageGetSelections      = "getSelections"
	MessageClearAllSelections = "clearAllSelections"
)

// Message is an inbound command.
type Message struct {
	Type string `json:"type"`
}

// Response answers a Message. Selections is set for getSelections, and is
// an empty list rather than nil when nothing is selected.
type Response struct {
	Selections []string `json:"selections"`
	OK         bool     `json:"ok"`
	Error      string   `json:"error,omitempty"`
}

// Handle answers msg. It must run on the session's loop.
func (s *Session) Handle(msg Message) Response {
	switch msg.Type {
	case MessageGetSelections:
		texts := s.store.Texts()
		if texts == nil {
			texts = []string{}
		}
		return Response{Selections: texts, OK: true}
	case MessageClearAllSelections:
		s.ClearAll()
		return Response{OK: true}
	default:
		return Response{Error: fmt.Sprintf("unknown message type %q", msg.Type)}
	}
}

// Dispatch runs Handle on the loop and waits for the answer.
func (s *Session) Dispatch(ctx context.Context, msg Message) (Response, error) {
	var resp Response
	if err := s.loop.Call(ctx, func() { resp = s.Handle(msg) }); err != nil {
		return Response{}, err
	}
	return resp, nil
}
