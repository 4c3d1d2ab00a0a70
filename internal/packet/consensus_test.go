package packet

import (
	"testing"

	"github.com/alienxp03/arbiter/internal/core"
)

func okTurn(role core.Role, round core.Round, claim string, risks ...string) core.Turn {
	return core.Turn{
		Role:   role,
		Round:  round,
		Status: core.TurnOK,
		Claim:  claim,
		Risks:  risks,
	}
}

func failedTurn(role core.Role, round core.Round, message string) core.Turn {
	return core.Turn{
		Role:         role,
		Round:        round,
		Status:       core.TurnFailed,
		ErrorCode:    core.ErrCodeProviderTimeout,
		ErrorMessage: message,
	}
}

func TestBuildConsensusAllSucceeded(t *testing.T) {
	rounds := []core.RoundArtifact{
		{Round: core.Round1, Turns: []core.Turn{
			okTurn(core.RoleProponent, core.Round1, "Ship it"),
			okTurn(core.RoleCritic, core.Round1, "Ship carefully"),
		}},
	}

	consensus := BuildConsensus(rounds, nil)
	if consensus.ConsensusScore != 1.0 {
		t.Errorf("expected score 1.0, got %v", consensus.ConsensusScore)
	}
	if consensus.ConfidenceScore != 1.0 {
		t.Errorf("expected confidence 1.0, got %v", consensus.ConfidenceScore)
	}
	if len(consensus.KeyAgreements) != 2 {
		t.Errorf("expected 2 agreements, got %v", consensus.KeyAgreements)
	}
	if len(consensus.KeyDisagreements) != 1 || consensus.KeyDisagreements[0] != "No major disagreement captured." {
		t.Errorf("expected fallback disagreement, got %v", consensus.KeyDisagreements)
	}
}

func TestBuildConsensusDocksConfidencePerFailure(t *testing.T) {
	rounds := []core.RoundArtifact{
		{Round: core.Round1, Turns: []core.Turn{
			okTurn(core.RoleProponent, core.Round1, "a"),
			okTurn(core.RoleCritic, core.Round1, "b"),
			okTurn(core.RoleAnalyst, core.Round1, "c"),
			failedTurn(core.RoleSynthesizer, core.Round1, "timed out"),
			failedTurn(core.RoleJudge, core.Round1, "timed out"),
		}},
	}

	consensus := BuildConsensus(rounds, []string{core.ErrCodeProviderTimeout})
	if consensus.ConsensusScore != 0.6 {
		t.Errorf("expected score 0.6, got %v", consensus.ConsensusScore)
	}
	// 0.6 - 2*0.03
	if consensus.ConfidenceScore != 0.54 {
		t.Errorf("expected confidence 0.54, got %v", consensus.ConfidenceScore)
	}

	foundCode := false
	for _, item := range consensus.KeyDisagreements {
		if item == "Observed warning/error code: "+core.ErrCodeProviderTimeout {
			foundCode = true
		}
	}
	if !foundCode {
		t.Errorf("expected error code line in disagreements, got %v", consensus.KeyDisagreements)
	}
}

func TestBuildConsensusClampsToZero(t *testing.T) {
	var turns []core.Turn
	for _, role := range core.Roles() {
		turns = append(turns, failedTurn(role, core.Round1, "down"))
	}
	consensus := BuildConsensus([]core.RoundArtifact{{Round: core.Round1, Turns: turns}}, nil)

	if consensus.ConsensusScore != 0 {
		t.Errorf("expected score 0, got %v", consensus.ConsensusScore)
	}
	if consensus.ConfidenceScore != 0 {
		t.Errorf("expected confidence clamped to 0, got %v", consensus.ConfidenceScore)
	}
	if len(consensus.KeyAgreements) != 1 {
		t.Errorf("expected fallback agreement, got %v", consensus.KeyAgreements)
	}
}

func TestBuildConsensusCriticRisksAsDisagreements(t *testing.T) {
	rounds := []core.RoundArtifact{
		{Round: core.Round1, Turns: []core.Turn{
			okTurn(core.RoleProponent, core.Round1, "go"),
			okTurn(core.RoleCritic, core.Round1, "wait", "rollout risk", "budget risk"),
		}},
	}

	consensus := BuildConsensus(rounds, nil)
	if len(consensus.KeyDisagreements) != 2 {
		t.Fatalf("expected critic risks as disagreements, got %v", consensus.KeyDisagreements)
	}
	if consensus.KeyDisagreements[0] != "rollout risk" {
		t.Errorf("unexpected disagreement: %v", consensus.KeyDisagreements)
	}
}
