package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/oskhen/revue/internal/engine"
)

// Summarizer produces titles and carry-over summaries for stored
// sessions via the model collaborator.
type Summarizer struct {
	model engine.ModelClient
}

// NewSummarizer creates a session summarizer.
func NewSummarizer(model engine.ModelClient) *Summarizer {
	return &Summarizer{model: model}
}

// GenerateTitle generates a short 3-5 word title for the session.
func (s *Summarizer) GenerateTitle(ctx context.Context, history []engine.Message) (string, error) {
	if len(history) == 0 {
		return "New Session", nil
	}

	system := "Generate a short, concise title (3-5 words) for this session based on the user's intent and work done. Do not use quotes or punctuation."

	// The first few messages carry the intent.
	limit := 10
	if len(history) < limit {
		limit = len(history)
	}

	msgs := []engine.Message{{
		Role:    engine.RoleUser,
		Content: fmt.Sprintf("History:\n%s\n\nGenerate Title:", renderHistory(history[:limit])),
	}}

	reply, err := s.model.Invoke(ctx, system, msgs)
	if err != nil {
		return "", fmt.Errorf("failed to generate title: %w", err)
	}
	return strings.TrimSpace(reply.Content), nil
}

// GenerateSummary generates a carry-over summary for the next session.
func (s *Summarizer) GenerateSummary(ctx context.Context, history []engine.Message) (string, error) {
	if len(history) == 0 {
		return "", nil
	}

	system := "You represent the memory of an AI code review assistant. Summarize the session history to preserve context for a future session. Focus on: decisions made, files modified, review verdicts, unresolved errors, and next steps. Be concise."

	msgs := []engine.Message{{
		Role:    engine.RoleUser,
		Content: "Summarize this session:\n\n" + renderHistory(history),
	}}

	reply, err := s.model.Invoke(ctx, system, msgs)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	return strings.TrimSpace(reply.Content), nil
}

// renderHistory flattens messages to prompt text.
func renderHistory(history []engine.Message) string {
	var b strings.Builder
	for _, msg := range history {
		role := string(msg.Role)
		if msg.Agent != "" {
			role = msg.Agent
		}
		fmt.Fprintf(&b, "[%s] %s\n", role, msg.Content)
	}
	return b.String()
}
