package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/alienxp03/arbiter/internal/config"
	"github.com/alienxp03/arbiter/internal/core"
)

// LocalProvider is a deterministic heuristic that never calls out of
// process. It is the default participant and the fallback for unknown
// provider labels, so a run always completes offline.
type LocalProvider struct{}

// NewLocalProvider creates the local heuristic provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

// Name returns the provider identifier.
func (p *LocalProvider) Name() string { return "local" }

// Type returns the provider type.
func (p *LocalProvider) Type() string { return config.TypeBuiltin }

// Available always returns true.
func (p *LocalProvider) Available() bool { return true }

// Invoke generates a deterministic response in the Claim/Rationale/
// Risks shape the turn parser expects. Output depends only on the
// request fields, which keeps replayed and repeated runs stable.
func (p *LocalProvider) Invoke(ctx context.Context, req InvokeRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &InvokeError{Provider: "local", Code: core.ErrCodeProviderTimeout, Message: "context cancelled", Err: err}
	}

	focus := core.SummarizeLine(req.Problem, 80)
	constraints := "no explicit constraints"
	if len(req.Constraints) > 0 {
		constraints = strings.Join(req.Constraints, "; ")
	}

	switch req.Round {
	case core.Round1:
		return fmt.Sprintf(
			"Claim: %s perspective recommends a practical path for %s.\nRationale: Prioritize local-first traceability and fast operator control under %s.\nRisks: hidden assumptions may survive without explicit cross-check.",
			req.Role, focus, constraints), nil
	case core.Round2:
		target := string(req.TargetRole)
		if target == "" {
			target = "peer"
		}
		return fmt.Sprintf(
			"Claim: %s challenges %s on evidence depth.\nRationale: Ask for concrete trade-offs, not generic statements.\nRisks: without challenge quality, consensus may converge too early.",
			req.Role, target), nil
	default:
		return fmt.Sprintf(
			"Claim: %s revised position keeps local-first execution and adds guardrails.\nRationale: Revision incorporates cross-examination feedback on %s.\nRisks: operational overhead increases if writeback contracts are not automated.",
			req.Role, focus), nil
	}
}
