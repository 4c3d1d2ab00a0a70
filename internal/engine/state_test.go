package engine

import (
	"errors"
	"testing"

	"github.com/alienxp03/arbiter/internal/core"
)

func TestAdvanceFollowsProtocolOrder(t *testing.T) {
	order := []core.State{
		core.StateIntake,
		core.StateRound1,
		core.StateRound2,
		core.StateRound3,
		core.StateConsensus,
		core.StateJudge,
		core.StatePacketize,
		core.StateWriteback,
	}

	var state core.State
	for _, next := range order {
		if err := advance(&state, next); err != nil {
			t.Fatalf("legal transition to %s rejected: %v", next, err)
		}
	}
}

func TestAdvanceRejectsSkips(t *testing.T) {
	tests := []struct {
		name    string
		current core.State
		next    core.State
	}{
		{"skip rounds", core.StateIntake, core.StateConsensus},
		{"backwards", core.StateJudge, core.StateRound1},
		{"repeat", core.StateRound2, core.StateRound2},
		{"past terminal", core.StateWriteback, core.StateIntake},
		{"start mid-protocol", "", core.StateRound1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := tt.current
			err := advance(&state, tt.next)
			var coded *core.CodedError
			if !errors.As(err, &coded) || coded.Code != core.ErrCodeState {
				t.Fatalf("expected %s, got %v", core.ErrCodeState, err)
			}
			if state != tt.current {
				t.Errorf("state mutated on rejected transition: %s", state)
			}
		})
	}
}

func TestNormalizeDefaultsAndWarnings(t *testing.T) {
	eng, _ := newTestEngine(t)

	normalized, err := eng.normalize(core.Request{
		Problem:    "  normalize me  ",
		OutputType: "Decision",
		Participants: []core.ParticipantConfig{
			{Role: "proponent", ModelProvider: "claude"},
			{Role: "navigator", ModelProvider: "local"},
			{Role: "Critic", ModelProvider: "no-such-provider"},
		},
		MaxTurnSeconds: 1,
		MaxTurnTokens:  100000,
	})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if normalized.Problem != "normalize me" {
		t.Errorf("problem not trimmed: %q", normalized.Problem)
	}
	if normalized.OutputType != core.OutputDecision {
		t.Errorf("output type not normalized: %s", normalized.OutputType)
	}
	if normalized.MaxTurnSeconds != 5 {
		t.Errorf("seconds not clamped to minimum: %d", normalized.MaxTurnSeconds)
	}
	if normalized.MaxTurnTokens != 4096 {
		t.Errorf("tokens not clamped to maximum: %d", normalized.MaxTurnTokens)
	}

	byRole := make(map[core.Role]core.Participant)
	for _, item := range normalized.Participants {
		byRole[item.Role] = item
	}
	if len(byRole) != 5 {
		t.Fatalf("expected all 5 roles, got %d", len(byRole))
	}
	// "claude" is an alias; the registry has no claude-cli here so it
	// falls back to local.
	if byRole[core.RoleProponent].ModelProvider != "local" {
		t.Errorf("unexpected proponent provider: %s", byRole[core.RoleProponent].ModelProvider)
	}

	wantWarnings := map[string]bool{
		core.WarnUnknownRoleIgnored:      false,
		core.WarnProviderNormalized:      false,
		core.WarnProviderUnknownFallback: false,
	}
	for _, code := range normalized.WarningCodes {
		if _, ok := wantWarnings[code]; ok {
			wantWarnings[code] = true
		}
	}
	for code, seen := range wantWarnings {
		if !seen {
			t.Errorf("expected warning %s in %v", code, normalized.WarningCodes)
		}
	}
}

func TestNormalizeRejectsBadOutputType(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.normalize(core.Request{Problem: "p", OutputType: "poetry"})
	var coded *core.CodedError
	if !errors.As(err, &coded) || coded.Code != core.ErrCodeInput {
		t.Fatalf("expected %s, got %v", core.ErrCodeInput, err)
	}
}

func TestRunGuardSingleSlot(t *testing.T) {
	g := newRunGuard()
	if !g.tryAcquire() {
		t.Fatal("fresh guard should acquire")
	}
	if g.tryAcquire() {
		t.Fatal("held guard should reject")
	}
	g.release()
	if !g.tryAcquire() {
		t.Fatal("released guard should acquire again")
	}
	g.release()
}
