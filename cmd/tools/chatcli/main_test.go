package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/zhouzirui/pinkchat/backend/internal/model/persona"
	"github.com/zhouzirui/pinkchat/backend/internal/service/chat"
	"github.com/zhouzirui/pinkchat/backend/internal/service/endpoint"
)

type scriptedEndpoint struct {
	sessions []string
}

func (s *scriptedEndpoint) Send(_ context.Context, req endpoint.Request) (*endpoint.Response, error) {
	sid := "<nil>"
	if req.SessionID != nil {
		sid = *req.SessionID
	}
	s.sessions = append(s.sessions, sid)
	return &endpoint.Response{Response: `{"response":"Pourquoi ?","character":"Dreyfus"}`, SessionID: "s1"}, nil
}

func TestRunConversationLoop(t *testing.T) {
	ep := &scriptedEndpoint{}
	personas := persona.NewMemoryStore(persona.Seed())
	conv := chat.NewConversation("cli", ep, personas, chat.LocalizedTexts("fr", "http://localhost:8000/chat"))

	var out bytes.Buffer
	run(context.Background(), conv, personas, strings.NewReader("Salut\n\n/reset\nEncore\n/quit\nignored\n"), &out)

	text := out.String()
	if strings.Count(text, "[Assistant] Bonjour") != 2 {
		t.Fatalf("expected welcome printed twice, got:\n%s", text)
	}
	if strings.Count(text, "[Inspecteur Dreyfus] Pourquoi ?") != 2 {
		t.Fatalf("expected two inspector replies, got:\n%s", text)
	}
	if len(ep.sessions) != 2 || ep.sessions[0] != "<nil>" || ep.sessions[1] != "<nil>" {
		t.Fatalf("expected fresh sessions after reset, got %v", ep.sessions)
	}
}
