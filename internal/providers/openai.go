package providers

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/oskhen/revue/internal/engine"
)

// OpenAIClient implements engine.ModelClient over the OpenAI SDK. A
// custom base URL supports OpenAI-compatible endpoints.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIClient creates an OpenAI-backed model client.
func NewOpenAIClient(apiKey, model, baseURL string, maxTokens int, temperature float32) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// Invoke implements engine.ModelClient.
func (c *OpenAIClient) Invoke(ctx context.Context, system string, messages []engine.Message) (engine.Reply, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == engine.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		content := msg.Content
		if content == "" {
			// The SDK serializes empty content as null, which the API
			// rejects.
			content = " "
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: content})
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}
	if c.temperature > 0 {
		temperature := c.temperature
		req.Temperature = &temperature
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return engine.Reply{}, fmt.Errorf("openai call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return engine.Reply{}, fmt.Errorf("empty response from openai")
	}

	return engine.Reply{
		Content: resp.Choices[0].Message.Content,
		Usage: engine.Usage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
	}, nil
}
