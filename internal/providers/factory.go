package providers

import (
	"fmt"

	"github.com/oskhen/revue/internal/config"
	"github.com/oskhen/revue/internal/engine"
)

// defaultModels maps each provider to the model used when none is
// configured.
var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-sonnet-20241022",
	"deepseek":  "deepseek-chat",
	"groq":      "llama-3.1-70b-versatile",
	"ollama":    "llama3.1",
}

// openAICompatibleBases maps OpenAI-compatible providers to their
// default endpoints.
var openAICompatibleBases = map[string]string{
	"deepseek": "https://api.deepseek.com/v1",
	"groq":     "https://api.groq.com/openai/v1",
	"ollama":   "http://localhost:11434/v1",
}

// NewModelClient builds the model client selected by the settings.
func NewModelClient(s config.Settings) (engine.ModelClient, error) {
	model := s.Model
	if model == "" {
		model = defaultModels[s.Provider]
	}

	switch s.Provider {
	case "anthropic":
		return NewAnthropicClient(s.APIKey, model, s.MaxTokens, s.Temperature)

	case "openai":
		return NewOpenAIClient(s.APIKey, model, s.BaseURL, s.MaxTokens, s.Temperature)

	case "deepseek", "groq", "ollama":
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = openAICompatibleBases[s.Provider]
		}
		apiKey := s.APIKey
		if apiKey == "" && s.Provider == "ollama" {
			// Local server; the key is a placeholder.
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, model, baseURL, s.MaxTokens, s.Temperature)

	default:
		return nil, fmt.Errorf("unknown LLM provider %q (supported: openai, anthropic, deepseek, groq, ollama)", s.Provider)
	}
}
