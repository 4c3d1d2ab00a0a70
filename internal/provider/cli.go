package provider

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/alienxp03/arbiter/internal/config"
	"github.com/alienxp03/arbiter/internal/core"
)

// CLIProvider invokes a local AI CLI (claude, codex, gemini) with the
// prompt as the final argument. The per-turn timeout terminates the
// subprocess; a timed-out call is reported as a timeout failure, not
// a hang.
type CLIProvider struct {
	name       string
	command    string
	args       []string
	defaultMod string
	maxTimeout time.Duration
}

// NewCLIProvider creates a CLI provider from config.
func NewCLIProvider(name string, cfg config.ProviderConfig) *CLIProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &CLIProvider{
		name:       name,
		command:    cfg.Command,
		args:       cfg.Args,
		defaultMod: cfg.DefaultModel,
		maxTimeout: timeout,
	}
}

// Name returns the provider identifier.
func (p *CLIProvider) Name() string { return p.name }

// Type returns the provider type.
func (p *CLIProvider) Type() string { return config.TypeCLI }

// Available checks if the CLI is installed.
func (p *CLIProvider) Available() bool {
	_, err := exec.LookPath(p.command)
	return err == nil
}

// Invoke runs the CLI with the rendered prompt and parses its output.
func (p *CLIProvider) Invoke(ctx context.Context, req InvokeRequest) (string, error) {
	timeout := p.maxTimeout
	if req.MaxSeconds > 0 {
		timeout = time.Duration(req.MaxSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string(nil), p.args...)
	if flag := p.modelFlag(req.Model); flag != "" {
		args = append(args, "--model", flag)
	}
	args = append(args, req.Prompt)

	cmd := exec.CommandContext(ctx, p.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &InvokeError{
				Provider: p.name,
				Code:     core.ErrCodeProviderTimeout,
				Message:  "command timed out after " + timeout.String(),
				Err:      ctx.Err(),
			}
		}
		message := "command failed"
		if summary := summarizeStream(stderr.String()); summary != "" {
			message = summary
		}
		return "", &InvokeError{
			Provider: p.name,
			Code:     core.ErrCodeProviderExec,
			Message:  message,
			Err:      err,
		}
	}

	text := ExtractText(stdout.String())
	if text == "" {
		return "", &InvokeError{
			Provider: p.name,
			Code:     core.ErrCodeProviderEmpty,
			Message:  "provider returned no output",
		}
	}
	return text, nil
}

// modelFlag decides whether an explicit --model argument is needed.
// "auto", "default", and the provider's own alias mean the CLI should
// pick its configured model.
func (p *CLIProvider) modelFlag(model string) string {
	trimmed := strings.TrimSpace(model)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	if lower == "auto" || lower == "default" || lower == strings.ToLower(p.defaultMod) {
		return ""
	}
	return trimmed
}

// summarizeStream condenses multi-line CLI noise into one diagnostic
// line, keeping the head and tail of long streams.
func summarizeStream(stream string) string {
	var lines []string
	for _, line := range strings.Split(stream, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return ""
	}
	if len(lines) <= 8 {
		return strings.Join(lines, " | ")
	}

	summary := append([]string(nil), lines[:4]...)
	summary = append(summary, "...")
	summary = append(summary, lines[len(lines)-4:]...)
	return strings.Join(summary, " | ")
}
