package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Classifier.Provider != "keyword" {
		t.Errorf("default provider = %q, want keyword", cfg.Classifier.Provider)
	}
	if !cfg.Dialog.AllowFeedback {
		t.Error("feedback should default on")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "dinerd.yaml")

	cfg := DefaultConfig()
	cfg.Dataset.DatabasePath = "dinerd.db"
	cfg.Dialog.ResponseDelay = true
	cfg.Logging.Level = "debug"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Dataset.DatabasePath != "dinerd.db" {
		t.Errorf("database_path = %q", loaded.Dataset.DatabasePath)
	}
	if !loaded.Dialog.ResponseDelay {
		t.Error("response_delay lost in round trip")
	}
	if loaded.Logging.Level != "debug" {
		t.Errorf("logging level = %q", loaded.Logging.Level)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dinerd.yaml")
	cfg := DefaultConfig()
	cfg.Classifier.APIKey = "from-file"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	os.Setenv("GEMINI_API_KEY", "from-env")
	defer os.Unsetenv("GEMINI_API_KEY")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Classifier.APIKey != "from-env" {
		t.Errorf("api key = %q, want env value", loaded.Classifier.APIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate, got %v", err)
	}

	cfg.Classifier.Provider = "genai"
	cfg.Classifier.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Error("genai without an api key must fail validation")
	}

	cfg = DefaultConfig()
	cfg.Classifier.Provider = "oracle"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown provider must fail validation")
	}

	cfg = DefaultConfig()
	cfg.Rules.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty rules path must fail validation")
	}
}
