// Package providers adapts vendor SDKs to the engine's ModelClient
// interface. Each adapter converts the engine's provider-agnostic
// messages to the vendor wire format and normalizes the reply.
package providers

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/oskhen/revue/internal/engine"
)

// AnthropicClient implements engine.ModelClient over the Anthropic SDK.
type AnthropicClient struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewAnthropicClient creates an Anthropic-backed model client.
func NewAnthropicClient(apiKey, model string, maxTokens int, temperature float32) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicClient{
		client:      anthropic.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// Invoke implements engine.ModelClient.
func (c *AnthropicClient) Invoke(ctx context.Context, system string, messages []engine.Message) (engine.Reply, error) {
	msgs := make([]anthropic.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case engine.RoleAssistant:
			msgs = append(msgs, anthropic.Message{
				Role:    anthropic.RoleAssistant,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(msg.Content)},
			})
		default:
			// User, tool-result and stray system messages all travel as
			// user turns; the real system prompt goes in the request field.
			msgs = append(msgs, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(msg.Content)},
			})
		}
	}

	temperature := c.temperature
	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		Messages:    msgs,
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
	}
	if system != "" {
		req.MultiSystem = []anthropic.MessageSystemPart{{Type: "text", Text: system}}
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return engine.Reply{}, fmt.Errorf("anthropic call failed: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			content += *block.Text
		}
	}

	return engine.Reply{
		Content: content,
		Usage: engine.Usage{
			Prompt:     resp.Usage.InputTokens,
			Completion: resp.Usage.OutputTokens,
			Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}
