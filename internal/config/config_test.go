package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Defaults.MaxTurnSeconds != 35 {
		t.Errorf("unexpected default seconds: %d", cfg.Defaults.MaxTurnSeconds)
	}
	if cfg.Defaults.MaxTurnTokens != 900 {
		t.Errorf("unexpected default tokens: %d", cfg.Defaults.MaxTurnTokens)
	}
	if cfg.Server.Port != 8184 {
		t.Errorf("unexpected default port: %d", cfg.Server.Port)
	}

	for _, name := range []string{"local", "claude-cli", "codex-cli", "gemini-cli", "openai"} {
		if _, ok := cfg.Providers[name]; !ok {
			t.Errorf("missing default provider %s", name)
		}
	}
}

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Defaults.MaxTurnSeconds != 35 {
		t.Errorf("defaults not applied: %d", cfg.Defaults.MaxTurnSeconds)
	}
	if cfg.Home == "" {
		t.Error("home should default")
	}
}

func TestLoadFromMergesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
defaults:
  max_turn_seconds: 60
providers:
  claude-cli:
    enabled: false
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Defaults.MaxTurnSeconds != 60 {
		t.Errorf("file value not applied: %d", cfg.Defaults.MaxTurnSeconds)
	}
	if cfg.Defaults.MaxTurnTokens != 900 {
		t.Errorf("unset value should keep default: %d", cfg.Defaults.MaxTurnTokens)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port not applied: %d", cfg.Server.Port)
	}

	claude := cfg.Providers["claude-cli"]
	if claude.Enabled {
		t.Error("claude-cli should be disabled")
	}
	if claude.Command != "claude" {
		t.Errorf("per-provider gap not filled: %q", claude.Command)
	}
	if _, ok := cfg.Providers["codex-cli"]; !ok {
		t.Error("unmentioned providers should be merged in")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Server.Port = 9191
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Server.Port != 9191 {
		t.Errorf("round trip lost port: %d", loaded.Server.Port)
	}
}

func TestWritebackType(t *testing.T) {
	cfg := Default()

	tests := []struct {
		requested  string
		outputType string
		want       string
	}{
		{"decision", "writing", "decision"},
		{"worklog", "decision", "worklog"},
		{"", "decision", "decision"},
		{"", "architecture", "worklog"},
		{"", "planning", "worklog"},
		{"essay", "decision", "decision"},
		{"essay", "unknown-type", "worklog"},
	}

	for _, tt := range tests {
		if got := cfg.WritebackType(tt.requested, tt.outputType); got != tt.want {
			t.Errorf("WritebackType(%q, %q) = %s, want %s", tt.requested, tt.outputType, got, tt.want)
		}
	}
}
