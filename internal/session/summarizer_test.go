package session

import (
	"context"
	"strings"
	"testing"

	"github.com/oskhen/revue/internal/engine"
)

type fixedModel struct {
	reply    string
	lastUser string
}

func (m *fixedModel) Invoke(ctx context.Context, system string, messages []engine.Message) (engine.Reply, error) {
	if len(messages) > 0 {
		m.lastUser = messages[len(messages)-1].Content
	}
	return engine.Reply{Content: m.reply}, nil
}

func TestGenerateTitle(t *testing.T) {
	model := &fixedModel{reply: "  Fix Login Bug  \n"}
	s := NewSummarizer(model)

	history := []engine.Message{
		{Role: engine.RoleUser, Content: "fix the login bug in auth.go"},
		{Role: engine.RoleAssistant, Content: "coder", Agent: "supervisor"},
	}
	title, err := s.GenerateTitle(context.Background(), history)
	if err != nil {
		t.Fatalf("GenerateTitle: %v", err)
	}
	if title != "Fix Login Bug" {
		t.Errorf("title = %q, want trimmed reply", title)
	}
	if !strings.Contains(model.lastUser, "fix the login bug in auth.go") {
		t.Error("history not rendered into prompt")
	}
	if !strings.Contains(model.lastUser, "[supervisor]") {
		t.Error("agent name not used as the message label")
	}
}

func TestGenerateTitleEmptyHistory(t *testing.T) {
	s := NewSummarizer(&fixedModel{reply: "unused"})
	title, err := s.GenerateTitle(context.Background(), nil)
	if err != nil {
		t.Fatalf("GenerateTitle: %v", err)
	}
	if title != "New Session" {
		t.Errorf("title = %q", title)
	}
}

func TestGenerateSummaryEmptyHistory(t *testing.T) {
	s := NewSummarizer(&fixedModel{reply: "unused"})
	summary, err := s.GenerateSummary(context.Background(), nil)
	if err != nil {
		t.Fatalf("GenerateSummary: %v", err)
	}
	if summary != "" {
		t.Errorf("summary = %q, want empty without model call", summary)
	}
}
