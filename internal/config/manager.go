// Package config persists the user's provider and loop preferences.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the user's persistent configuration preferences. Loop knobs
// left at zero fall back to the built-in defaults.
type Config struct {
	LLMProvider string `json:"llm_provider,omitempty"` // openai, anthropic, gemini, etc.
	APIKey      string `json:"api_key,omitempty"`      // API key for the selected provider
	Model       string `json:"model,omitempty"`        // Default model name
	BaseURL     string `json:"base_url,omitempty"`     // Optional override for API base URL

	AttemptLimit         int     `json:"attempt_limit,omitempty"`         // Max produce attempts per run
	SufficiencyThreshold float64 `json:"sufficiency_threshold,omitempty"` // Score needed to stop early
	NeutralScore         float64 `json:"neutral_score,omitempty"`         // Substitute score when the scorer fails
	CallTimeoutSeconds   int     `json:"call_timeout_seconds,omitempty"`  // Per-collaborator-call timeout

	CorpusRoot string `json:"corpus_root,omitempty"` // Local document corpus, if any
}

// Manager handles loading and saving the configuration.
type Manager struct {
	configDir string
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return &Manager{
		configDir: filepath.Join(configDir, "agentic-ai"),
	}, nil
}

// GetConfigPath returns the absolute path to the config.json file.
func (m *Manager) GetConfigPath() string {
	return filepath.Join(m.configDir, "config.json")
}

// DataDir returns the directory for run databases and other state.
func (m *Manager) DataDir() string {
	return m.configDir
}

// Load reads the configuration from disk. A missing file returns an empty
// Config and no error.
func (m *Manager) Load() (*Config, error) {
	path := m.GetConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to disk with restricted permissions; the
// file may hold an API key.
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.GetConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Exists checks if the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.GetConfigPath())
	return !os.IsNotExist(err)
}
