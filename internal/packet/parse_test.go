package packet

import (
	"testing"

	"github.com/alienxp03/arbiter/internal/core"
)

func TestExtractClaim(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"labeled claim",
			"Claim: Adopt incremental rollout.\nRationale: safer.\nRisks:\n- none",
			"Adopt incremental rollout.",
		},
		{
			"multiline claim",
			"Claim: Adopt incremental rollout\nacross both regions.\nRationale: safer.",
			"Adopt incremental rollout across both regions.",
		},
		{
			"bulleted claim",
			"- Claim: Ship the v2 API.\n- Rationale: demand exists.",
			"Ship the v2 API.",
		},
		{
			"no label falls back to first line",
			"We should ship the v2 API.\nBecause customers asked.",
			"We should ship the v2 API.",
		},
		{
			"leading blank lines",
			"\n\n  Final stance here.\n",
			"Final stance here.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractClaim(tt.text); got != tt.want {
				t.Errorf("ExtractClaim() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractRisks(t *testing.T) {
	text := "Claim: go.\nRisks:\n- migration risk during cutover\n- rollback is a blocker\nUnrelated line."
	risks := ExtractRisks(text)

	if len(risks) != 3 {
		t.Fatalf("expected 3 risk lines, got %v", risks)
	}
	if risks[1] != "migration risk during cutover" {
		t.Errorf("unexpected risk: %q", risks[1])
	}
}

func TestExtractRisksFallback(t *testing.T) {
	risks := ExtractRisks("All clear, nothing to report.")
	if len(risks) != 1 {
		t.Fatalf("expected synthesized fallback, got %v", risks)
	}
	if risks[0] != "Potential risk: All clear, nothing to report." {
		t.Errorf("unexpected fallback: %q", risks[0])
	}
}

func TestFindTurnSkipsFailures(t *testing.T) {
	rounds := []core.RoundArtifact{
		{Round: core.Round1, Turns: []core.Turn{
			failedTurn(core.RoleCritic, core.Round1, "down"),
			okTurn(core.RoleCritic, core.Round1, "recovered"),
		}},
	}

	turn := FindTurn(rounds, core.Round1, core.RoleCritic)
	if turn == nil || turn.Claim != "recovered" {
		t.Fatalf("expected the successful turn, got %+v", turn)
	}
	if FindTurn(rounds, core.Round2, core.RoleCritic) != nil {
		t.Error("expected nil for a round with no turns")
	}
}
