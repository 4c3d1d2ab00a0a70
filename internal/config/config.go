// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderType distinguishes how a provider is invoked.
const (
	TypeBuiltin = "builtin"
	TypeCLI     = "cli"
	TypeAPI     = "api"
)

// Config represents the application configuration.
type Config struct {
	Defaults  DefaultsConfig            `yaml:"defaults"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Writeback WritebackConfig           `yaml:"writeback,omitempty"`
	Server    ServerConfig              `yaml:"server,omitempty"`
	Home      string                    `yaml:"home,omitempty"`
}

// DefaultsConfig holds default run settings.
type DefaultsConfig struct {
	MaxTurnSeconds int `yaml:"max_turn_seconds"`
	MaxTurnTokens  int `yaml:"max_turn_tokens"`
}

// ProviderConfig holds provider-specific settings.
type ProviderConfig struct {
	Type         string        `yaml:"type"`
	Command      string        `yaml:"command,omitempty"`
	Args         []string      `yaml:"args,omitempty"`
	BaseURL      string        `yaml:"base_url,omitempty"`
	APIKeyEnv    string        `yaml:"api_key_env,omitempty"`
	DefaultModel string        `yaml:"default_model,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	Enabled      bool          `yaml:"enabled"`
}

// WritebackConfig controls how completed packets map to record types.
type WritebackConfig struct {
	// TypeByOutput maps a run output type to a writeback record type.
	// Missing entries fall back to "worklog".
	TypeByOutput map[string]string `yaml:"type_by_output,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			MaxTurnSeconds: 35,
			MaxTurnTokens:  900,
		},
		Providers: map[string]ProviderConfig{
			"local": {
				Type:         TypeBuiltin,
				DefaultModel: "local-heuristic-v1",
				Enabled:      true,
			},
			"claude-cli": {
				Type:         TypeCLI,
				Command:      "claude",
				Args:         []string{"--print", "--output-format", "json"},
				DefaultModel: "claude",
				Timeout:      2 * time.Minute,
				Enabled:      true,
			},
			"codex-cli": {
				Type:         TypeCLI,
				Command:      "codex",
				Args:         []string{"exec", "--json"},
				DefaultModel: "codex",
				Timeout:      2 * time.Minute,
				Enabled:      true,
			},
			"gemini-cli": {
				Type:         TypeCLI,
				Command:      "gemini",
				Args:         []string{"--output-format", "json"},
				DefaultModel: "gemini",
				Timeout:      2 * time.Minute,
				Enabled:      true,
			},
			"openai": {
				Type:         TypeAPI,
				BaseURL:      "https://api.openai.com/v1",
				APIKeyEnv:    "OPENAI_API_KEY",
				DefaultModel: "gpt-4.1-mini",
				Timeout:      2 * time.Minute,
				Enabled:      true,
			},
		},
		Writeback: WritebackConfig{
			TypeByOutput: map[string]string{
				"decision":     "decision",
				"writing":      "worklog",
				"architecture": "worklog",
				"planning":     "worklog",
				"evaluation":   "worklog",
			},
		},
		Server: ServerConfig{
			Port: 8184,
		},
	}
}

// DefaultHome returns the default arbiter home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".arbiter"
	}
	return filepath.Join(home, ".arbiter")
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DefaultHome(), "config.yaml")
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path, merging the file
// over built-in defaults. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Merge defaults for providers the file does not mention, and fill
	// per-provider gaps so a partial block stays usable.
	defaults := Default()
	if cfg.Providers == nil {
		cfg.Providers = defaults.Providers
	} else {
		for name, def := range defaults.Providers {
			existing, ok := cfg.Providers[name]
			if !ok {
				cfg.Providers[name] = def
				continue
			}
			if existing.Type == "" {
				existing.Type = def.Type
			}
			if existing.Command == "" {
				existing.Command = def.Command
			}
			if existing.DefaultModel == "" {
				existing.DefaultModel = def.DefaultModel
			}
			if existing.Timeout == 0 {
				existing.Timeout = def.Timeout
			}
			cfg.Providers[name] = existing
		}
	}

	if cfg.Writeback.TypeByOutput == nil {
		cfg.Writeback.TypeByOutput = defaults.Writeback.TypeByOutput
	}
	if cfg.Defaults.MaxTurnSeconds == 0 {
		cfg.Defaults.MaxTurnSeconds = defaults.Defaults.MaxTurnSeconds
	}
	if cfg.Defaults.MaxTurnTokens == 0 {
		cfg.Defaults.MaxTurnTokens = defaults.Defaults.MaxTurnTokens
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Home == "" {
		cfg.Home = DefaultHome()
	}

	return cfg, nil
}

// Save writes the configuration to a path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// WritebackType resolves the record type for a completed run. An
// explicitly requested type wins when it is a known record type;
// otherwise the output type mapping applies, defaulting to "worklog".
func (c *Config) WritebackType(requested, outputType string) string {
	if requested == "decision" || requested == "worklog" {
		return requested
	}
	if mapped, ok := c.Writeback.TypeByOutput[outputType]; ok && mapped != "" {
		return mapped
	}
	return "worklog"
}
