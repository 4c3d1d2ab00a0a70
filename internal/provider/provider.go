// Package provider contains model provider abstractions and adapters.
package provider

import (
	"context"
	"strings"
	"sync"

	"github.com/alienxp03/arbiter/internal/config"
	"github.com/alienxp03/arbiter/internal/core"
)

// InvokeRequest carries one turn's invocation parameters. Prompt is
// the fully rendered text sent to external providers; the structured
// fields let the local heuristic stay deterministic without parsing
// its own prompt back.
type InvokeRequest struct {
	Role        core.Role
	Round       core.Round
	TargetRole  core.Role
	Problem     string
	Constraints []string
	Prompt      string
	Model       string
	MaxSeconds  int
	MaxTokens   int
}

// Provider defines the interface for debate model providers. Invoke
// returns the raw response text, or an *InvokeError describing a
// structured participant failure. Implementations must respect the
// request timeout and never hang past it.
type Provider interface {
	// Name returns the provider's identifier.
	Name() string

	// Type returns builtin, cli, or api.
	Type() string

	// Invoke sends a prompt and returns the response text.
	Invoke(ctx context.Context, req InvokeRequest) (string, error)

	// Available reports whether the provider can be called at all.
	Available() bool
}

// Registry manages the closed set of known providers. Unknown or
// disabled provider labels normalize to the local heuristic at this
// boundary so call sites never dispatch on raw strings.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	disabled  map[string]bool
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		disabled:  make(map[string]bool),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// MarkDisabled records a configured-but-disabled provider so that
// normalization can distinguish it from an unknown label.
func (r *Registry) MarkDisabled(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled[strings.ToLower(strings.TrimSpace(name))] = true
}

// Resolve normalizes a provider label to a registered provider. It
// returns the provider, the canonical name, and a warning code when
// the label had to fall back to the local heuristic.
func (r *Registry) Resolve(name string) (Provider, string, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	canonical := canonicalName(name)
	if canonical == "" {
		return r.providers["local"], "local", ""
	}

	if p, ok := r.providers[canonical]; ok {
		return p, canonical, ""
	}
	if r.disabled[canonical] {
		return r.providers["local"], "local", core.WarnProviderDisabled
	}
	return r.providers["local"], "local", core.WarnProviderUnknownFallback
}

// Get retrieves a provider by exact canonical name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[canonicalName(name)]
	return p, ok
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// canonicalName lowercases, trims, and resolves historical aliases.
func canonicalName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "codex":
		return "codex-cli"
	case "claude":
		return "claude-cli"
	case "gemini":
		return "gemini-cli"
	}
	return normalized
}

// FromConfig builds a registry with all enabled providers from config.
// The local heuristic is always registered, enabled or not, because it
// is the fallback for every other label.
func FromConfig(cfg *config.Config) *Registry {
	r := NewRegistry()
	r.Register(NewLocalProvider())

	for name, pc := range cfg.Providers {
		canonical := canonicalName(name)
		if canonical == "local" {
			continue
		}
		if !pc.Enabled {
			r.MarkDisabled(canonical)
			continue
		}
		switch pc.Type {
		case config.TypeCLI:
			r.Register(NewCLIProvider(canonical, pc))
		case config.TypeAPI:
			r.Register(NewOpenAIProvider(canonical, pc))
		}
	}

	return r
}

// DefaultModel returns the configured default model for a canonical
// provider name, falling back to the local heuristic's model.
func DefaultModel(cfg *config.Config, name string) string {
	if pc, ok := cfg.Providers[canonicalName(name)]; ok && pc.DefaultModel != "" {
		return pc.DefaultModel
	}
	return "local-heuristic-v1"
}
