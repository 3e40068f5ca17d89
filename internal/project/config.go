// Package project handles per-repository configuration stored in the
// .revue directory: settings plus custom review rules injected into
// agent context.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// RevueDir is the per-repository configuration directory.
	RevueDir = ".revue"
	// ConfigFile holds the project settings.
	ConfigFile = "config.json"
	// RulesFile holds free-text custom review rules.
	RulesFile = "rules"
)

// Config holds per-repository settings.
type Config struct {
	// WatchEnabled controls whether the search index follows filesystem
	// changes for this repository.
	WatchEnabled bool `json:"watch_enabled"`
}

func configPath(repoRoot string) string {
	return filepath.Join(repoRoot, RevueDir, ConfigFile)
}

func rulesPath(repoRoot string) string {
	return filepath.Join(repoRoot, RevueDir, RulesFile)
}

// ConfigExists reports whether the repository has a config file.
func ConfigExists(repoRoot string) bool {
	_, err := os.Stat(configPath(repoRoot))
	return !os.IsNotExist(err)
}

// LoadConfig reads the repository configuration. A missing file is not
// an error; it returns nil.
func LoadConfig(repoRoot string) (*Config, error) {
	path := configPath(repoRoot)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse project config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the repository configuration, creating the .revue
// directory as needed.
func SaveConfig(repoRoot string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Join(repoRoot, RevueDir), 0755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", RevueDir, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project config: %w", err)
	}
	if err := os.WriteFile(configPath(repoRoot), data, 0644); err != nil {
		return fmt.Errorf("failed to write project config: %w", err)
	}
	return nil
}

// LoadRules reads the custom review rules, if any. These are appended
// verbatim to the context given to the agents.
func LoadRules(repoRoot string) (string, error) {
	path := rulesPath(repoRoot)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read rules file: %w", err)
	}
	return string(data), nil
}
