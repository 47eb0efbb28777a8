package server

import (
	"context"

	"github.com/gorilla/websocket"
)

// Wire envelopes. The server pushes assistant text and an explicit
// prompt marker; the client answers prompts with {"text": ...}.
type outbound struct {
	Type string `json:"type"` // "assistant" or "prompt"
	Text string `json:"text,omitempty"`
}

type inbound struct {
	Text string `json:"text"`
}

// socketIO adapts one WebSocket connection to the agent's HumanIO.
type socketIO struct {
	conn    *websocket.Conn
	dropped bool
}

func (s *socketIO) Notify(ctx context.Context, text string) error {
	return s.conn.WriteJSON(outbound{Type: "assistant", Text: text})
}

func (s *socketIO) PromptAndWait(ctx context.Context) (string, error) {
	if err := s.conn.WriteJSON(outbound{Type: "prompt"}); err != nil {
		s.dropped = true
		return "", err
	}
	var in inbound
	if err := s.conn.ReadJSON(&in); err != nil {
		s.dropped = true
		return "", err
	}
	return in.Text, nil
}
