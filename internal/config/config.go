// Package config holds all dinerd configuration, stored as YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all dinerd configuration.
type Config struct {
	Name string `yaml:"name"`

	// Restaurant dataset
	Dataset DatasetConfig `yaml:"dataset"`

	// Additional-requirement rules
	Rules RulesConfig `yaml:"rules"`

	// Dialog-act classifier backend
	Classifier ClassifierConfig `yaml:"classifier"`

	// Conversation policy flags
	Dialog DialogConfig `yaml:"dialog"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DatasetConfig locates the restaurant table.
type DatasetConfig struct {
	// CSVPath is the source CSV ingested at startup.
	CSVPath string `yaml:"csv_path"`
	// DatabasePath is the SQLite file; ":memory:" keeps it ephemeral.
	DatabasePath string `yaml:"database_path"`
}

// RulesConfig locates the requirement rule file.
type RulesConfig struct {
	Path string `yaml:"path"`
	// HotReload re-reads the rule file when it changes on disk.
	HotReload bool `yaml:"hot_reload"`
}

// ClassifierConfig selects the dialog-act classifier backend.
type ClassifierConfig struct {
	Provider string `yaml:"provider"` // keyword, genai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// DialogConfig carries the per-conversation policy flags.
type DialogConfig struct {
	AllowFeedback         bool `yaml:"allow_feedback"`
	AllowPreferenceChange bool `yaml:"allow_preference_change"`
	ResponseDelay         bool `yaml:"response_delay"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the defaults for a fresh checkout.
func DefaultConfig() Config {
	return Config{
		Name: "dinerd",
		Dataset: DatasetConfig{
			CSVPath:      "data/restaurant_info.csv",
			DatabasePath: ":memory:",
		},
		Rules: RulesConfig{
			Path:      "data/requirement_rules.json",
			HotReload: false,
		},
		Classifier: ClassifierConfig{
			Provider: "keyword",
			Model:    "gemini-2.0-flash",
		},
		Dialog: DialogConfig{
			AllowFeedback:         true,
			AllowPreferenceChange: true,
			ResponseDelay:         false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a config file and applies environment overrides. A missing
// file yields the defaults, still env-overridden, so a bare checkout runs.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (c Config) Save(path string) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets the environment win over the file for secrets.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Classifier.APIKey = key
	}
	if provider := os.Getenv("DINERD_CLASSIFIER"); provider != "" {
		c.Classifier.Provider = provider
	}
}

// Validate checks the fields the startup path depends on.
func (c Config) Validate() error {
	if c.Dataset.CSVPath == "" && c.Dataset.DatabasePath == ":memory:" {
		return fmt.Errorf("dataset: an in-memory database needs a csv_path to ingest")
	}
	if c.Rules.Path == "" {
		return fmt.Errorf("rules: path is required")
	}
	switch c.Classifier.Provider {
	case "keyword":
	case "genai":
		if c.Classifier.APIKey == "" {
			return fmt.Errorf("classifier: the genai provider needs an api_key (or GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("classifier: unknown provider %q", c.Classifier.Provider)
	}
	return nil
}
