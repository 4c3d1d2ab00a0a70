package provider

import (
	"context"
	"strings"
	"testing"

	"github.com/alienxp03/arbiter/internal/config"
	"github.com/alienxp03/arbiter/internal/core"
)

func TestRegistryResolvesAliases(t *testing.T) {
	registry := FromConfig(config.Default())

	tests := []struct {
		input     string
		canonical string
		warning   string
	}{
		{"claude", "claude-cli", ""},
		{"claude-cli", "claude-cli", ""},
		{"codex", "codex-cli", ""},
		{"gemini", "gemini-cli", ""},
		{"OpenAI", "openai", ""},
		{"  local ", "local", ""},
		{"", "local", ""},
		{"mystery-model", "local", core.WarnProviderUnknownFallback},
	}

	for _, tt := range tests {
		p, canonical, warning := registry.Resolve(tt.input)
		if p == nil {
			t.Fatalf("Resolve(%q) returned nil provider", tt.input)
		}
		if canonical != tt.canonical {
			t.Errorf("Resolve(%q) canonical = %s, want %s", tt.input, canonical, tt.canonical)
		}
		if warning != tt.warning {
			t.Errorf("Resolve(%q) warning = %s, want %s", tt.input, warning, tt.warning)
		}
	}
}

func TestRegistryDisabledFallsBackToLocal(t *testing.T) {
	cfg := config.Default()
	claude := cfg.Providers["claude-cli"]
	claude.Enabled = false
	cfg.Providers["claude-cli"] = claude

	registry := FromConfig(cfg)
	p, canonical, warning := registry.Resolve("claude")
	if canonical != "local" {
		t.Errorf("expected local fallback, got %s", canonical)
	}
	if warning != core.WarnProviderDisabled {
		t.Errorf("expected disabled warning, got %s", warning)
	}
	if p.Name() != "local" {
		t.Errorf("expected local provider, got %s", p.Name())
	}
}

func TestLocalProviderDeterministic(t *testing.T) {
	p := NewLocalProvider()
	req := InvokeRequest{
		Role:    core.RoleProponent,
		Round:   core.Round1,
		Problem: "Adopt feature flags?",
	}

	first, err := p.Invoke(context.Background(), req)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	second, err := p.Invoke(context.Background(), req)
	if err != nil {
		t.Fatalf("second Invoke failed: %v", err)
	}
	if first != second {
		t.Error("local provider must be deterministic for identical requests")
	}
	if !strings.Contains(first, "Claim:") || !strings.Contains(first, "Rationale:") || !strings.Contains(first, "Risks:") {
		t.Errorf("response missing structured shape:\n%s", first)
	}
}

func TestLocalProviderRoundShapes(t *testing.T) {
	p := NewLocalProvider()

	round2, err := p.Invoke(context.Background(), InvokeRequest{
		Role:       core.RoleCritic,
		Round:      core.Round2,
		TargetRole: core.RoleProponent,
		Problem:    "problem",
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(round2, string(core.RoleProponent)) {
		t.Errorf("round-2 response should mention its target:\n%s", round2)
	}

	round3, err := p.Invoke(context.Background(), InvokeRequest{
		Role:    core.RoleSynthesizer,
		Round:   core.Round3,
		Problem: "problem",
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !strings.Contains(round3, "revised position") {
		t.Errorf("round-3 response should be a revision:\n%s", round3)
	}
}

func TestLocalProviderCancelledContext(t *testing.T) {
	p := NewLocalProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Invoke(ctx, InvokeRequest{Role: core.RoleJudge, Round: core.Round1})
	invokeErr, ok := err.(*InvokeError)
	if !ok {
		t.Fatalf("expected InvokeError, got %v", err)
	}
	if invokeErr.Code != core.ErrCodeProviderTimeout {
		t.Errorf("unexpected code: %s", invokeErr.Code)
	}
}

func TestDefaultModel(t *testing.T) {
	cfg := config.Default()

	if got := DefaultModel(cfg, "claude"); got != "claude" {
		t.Errorf("alias should resolve config model, got %s", got)
	}
	if got := DefaultModel(cfg, "openai"); got != "gpt-4.1-mini" {
		t.Errorf("unexpected openai model: %s", got)
	}
	if got := DefaultModel(cfg, "unknown"); got != "local-heuristic-v1" {
		t.Errorf("unknown provider should fall back, got %s", got)
	}
}
