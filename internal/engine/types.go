package engine

import (
	"context"
	"fmt"
)

// MessageRole represents the role of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// Message is the provider-agnostic chat message passed around the engine.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
	// Agent records which node produced the message, when known.
	Agent string `json:"agent,omitempty"`
}

// Validate checks if the Message is valid.
func (m Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
	return nil
}

// Reply is a normalized result of one model call.
type Reply struct {
	Content string
	Usage   Usage
}

// Usage holds token accounting returned by providers.
type Usage struct {
	Prompt     int
	Completion int
	Total      int
}

// ModelClient abstracts the chosen SDK (OpenAI, Anthropic, etc.).
// Invoke sends the system prompt plus the conversation and returns the
// assistant reply. Implementations may fail or exceed the caller's deadline.
type ModelClient interface {
	Invoke(ctx context.Context, system string, messages []Message) (Reply, error)
}
