// Package config loads runtime settings from the environment and the
// user's persistent preferences file.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings is the full runtime configuration, resolved once at startup.
type Settings struct {
	// Model provider.
	Provider      string
	Model         string
	APIKey        string
	BaseURL       string
	MaxTokens     int
	Temperature   float32
	MaxIterations int

	// HTTP surface.
	ListenAddr string

	// Rate limiting.
	RateLimitPerMinute int
	RateLimitBurst     int

	// Circuit breakers.
	BreakerFailureThreshold int
	BreakerSuccessThreshold int
	BreakerTimeout          time.Duration
	BreakerCallTimeout      time.Duration

	// Session persistence.
	SessionDBPath string
	SessionTTL    time.Duration

	// Workspace and tools.
	WorkspaceRoot     string
	IndexPath         string
	AllowedExtensions []string
	MaxFileSizeMB     int
	CommandTimeout    time.Duration

	// Sandbox.
	SandboxEnabled bool
	SandboxImage   string
}

// Load resolves settings from environment variables, applying defaults
// for anything unset.
func Load() Settings {
	workspace := getEnvOrDefault("REVUE_WORKSPACE", ".")

	return Settings{
		Provider:      getEnvOrDefault("LLM_PROVIDER", "openai"),
		Model:         os.Getenv("LLM_MODEL"),
		APIKey:        os.Getenv("LLM_API_KEY"),
		BaseURL:       os.Getenv("LLM_BASE_URL"),
		MaxTokens:     getEnvInt("LLM_MAX_TOKENS", 4096),
		Temperature:   float32(getEnvFloat("LLM_TEMPERATURE", 0.1)),
		MaxIterations: getEnvInt("REVUE_MAX_ITERATIONS", 25),

		ListenAddr: getEnvOrDefault("REVUE_LISTEN_ADDR", ":8000"),

		RateLimitPerMinute: getEnvInt("REVUE_RATE_LIMIT_RPM", 60),
		RateLimitBurst:     getEnvInt("REVUE_RATE_LIMIT_BURST", 10),

		BreakerFailureThreshold: getEnvInt("REVUE_BREAKER_FAILURES", 5),
		BreakerSuccessThreshold: getEnvInt("REVUE_BREAKER_SUCCESSES", 2),
		BreakerTimeout:          getEnvDuration("REVUE_BREAKER_TIMEOUT", 30*time.Second),
		BreakerCallTimeout:      getEnvDuration("REVUE_BREAKER_CALL_TIMEOUT", 10*time.Second),

		SessionDBPath: getEnvOrDefault("REVUE_SESSION_DB", ".revue/sessions.db"),
		SessionTTL:    getEnvDuration("REVUE_SESSION_TTL", time.Hour),

		WorkspaceRoot: workspace,
		IndexPath:     getEnvOrDefault("REVUE_INDEX_PATH", ".revue/search.bleve"),
		AllowedExtensions: getEnvList("REVUE_ALLOWED_EXTENSIONS",
			[]string{".py", ".js", ".ts", ".go", ".java", ".cpp", ".c", ".h", ".md", ".txt", ".json", ".yaml", ".yml", ".toml", ".sh", ".html", ".css"}),
		MaxFileSizeMB:  getEnvInt("REVUE_MAX_FILE_SIZE_MB", 10),
		CommandTimeout: getEnvDuration("REVUE_COMMAND_TIMEOUT", 30*time.Second),

		SandboxEnabled: getEnvBool("REVUE_SANDBOX_ENABLED", false),
		SandboxImage:   getEnvOrDefault("REVUE_SANDBOX_IMAGE", "python:3.11-slim"),
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
