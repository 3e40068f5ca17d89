package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Preferences holds the user's persistent provider choices, kept
// outside the environment so they survive shell sessions.
type Preferences struct {
	Provider string `json:"provider,omitempty"` // openai, anthropic, deepseek, ...
	APIKey   string `json:"api_key,omitempty"`
	Model    string `json:"model,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// Manager handles loading and saving the preferences file.
type Manager struct {
	configDir string
}

// NewManager creates a preferences manager rooted in the user config
// directory.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return &Manager{configDir: filepath.Join(configDir, "revue")}, nil
}

// Path returns the absolute path to the preferences file.
func (m *Manager) Path() string {
	return filepath.Join(m.configDir, "config.json")
}

// Load reads the preferences from disk. A missing file yields empty
// preferences and no error.
func (m *Manager) Load() (*Preferences, error) {
	path := m.Path()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Preferences{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var prefs Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}
	return &prefs, nil
}

// Save writes the preferences with owner-only permissions; the file
// carries an API key.
func (m *Manager) Save(prefs *Preferences) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Apply overlays the preferences onto the settings, filling only what
// the environment left unset.
func (p *Preferences) Apply(s *Settings) {
	if s.APIKey == "" && p.APIKey != "" {
		s.APIKey = p.APIKey
	}
	if p.Provider != "" && os.Getenv("LLM_PROVIDER") == "" {
		s.Provider = p.Provider
	}
	if s.Model == "" && p.Model != "" {
		s.Model = p.Model
	}
	if s.BaseURL == "" && p.BaseURL != "" {
		s.BaseURL = p.BaseURL
	}
}
