package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Timeouts.Discovery != 2*time.Minute {
		t.Errorf("Discovery timeout = %v, want 2m", cfg.Timeouts.Discovery)
	}
	if cfg.Timeouts.Document != 20*time.Minute {
		t.Errorf("Document deadline = %v, want 20m", cfg.Timeouts.Document)
	}
	if cfg.Thresholds.LowConfidence != 0.5 {
		t.Errorf("LowConfidence = %v, want 0.5", cfg.Thresholds.LowConfidence)
	}
	if cfg.Thresholds.MinFields != 1 {
		t.Errorf("MinFields = %d, want 1", cfg.Thresholds.MinFields)
	}
	if cfg.Thresholds.MinAgentFraction != 0.5 {
		t.Errorf("MinAgentFraction = %v, want 0.5", cfg.Thresholds.MinAgentFraction)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Output.Format)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
anthropic:
  api_key: sk-ant-test-key
model:
  extraction: claude-sonnet-4-20250514
timeouts:
  extraction: 90s
thresholds:
  low_confidence: 0.7
  min_fields: 3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.Anthropic.APIKey != "sk-ant-test-key" {
		t.Errorf("APIKey = %q", cfg.Anthropic.APIKey)
	}
	if cfg.Model.Extraction != "claude-sonnet-4-20250514" {
		t.Errorf("Model.Extraction = %q", cfg.Model.Extraction)
	}
	if cfg.Timeouts.Extraction != 90*time.Second {
		t.Errorf("Extraction timeout = %v, want 90s", cfg.Timeouts.Extraction)
	}
	if cfg.Thresholds.LowConfidence != 0.7 {
		t.Errorf("LowConfidence = %v, want 0.7", cfg.Thresholds.LowConfidence)
	}
	if cfg.Thresholds.MinFields != 3 {
		t.Errorf("MinFields = %d, want 3", cfg.Thresholds.MinFields)
	}
	// Unset values fall back to defaults.
	if cfg.Timeouts.Discovery != 2*time.Minute {
		t.Errorf("Discovery timeout = %v, want default 2m", cfg.Timeouts.Discovery)
	}
}

func TestLoadFromPath_MissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	// Point the user config dir at an empty tempdir so only defaults and the
	// environment are in play.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FIELDLINE_OUTPUT_FORMAT", "yaml")
	t.Setenv("FIELDLINE_THRESHOLDS_MIN_FIELDS", "4")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env-test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Output.Format != "yaml" {
		t.Errorf("Output.Format = %q, want yaml from FIELDLINE_OUTPUT_FORMAT", cfg.Output.Format)
	}
	if cfg.Thresholds.MinFields != 4 {
		t.Errorf("MinFields = %d, want 4 from FIELDLINE_THRESHOLDS_MIN_FIELDS", cfg.Thresholds.MinFields)
	}
	if cfg.Anthropic.APIKey != "sk-ant-env-test-key" {
		t.Errorf("APIKey = %q, want value from ANTHROPIC_API_KEY", cfg.Anthropic.APIKey)
	}
}
