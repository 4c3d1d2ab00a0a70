package packet

import (
	"fmt"
	"math"

	"github.com/alienxp03/arbiter/internal/core"
)

// BuildConsensus derives consensus and confidence scores from turn
// outcomes. The consensus score is the proportion of successful turns;
// confidence is docked 0.03 per failed turn. Agreements come from
// successful claims, disagreements from failure messages and the
// Critic's risks.
func BuildConsensus(rounds []core.RoundArtifact, errorCodes []string) core.Consensus {
	totalTurns := 0
	okTurns := 0
	for _, round := range rounds {
		totalTurns += len(round.Turns)
		for _, turn := range round.Turns {
			if turn.Status == core.TurnOK {
				okTurns++
			}
		}
	}
	failureCount := totalTurns - okTurns

	baseScore := 0.0
	if totalTurns > 0 {
		baseScore = float64(okTurns) / float64(totalTurns)
	}
	confidence := baseScore - float64(failureCount)*0.03
	confidence = math.Min(math.Max(confidence, 0), 1)

	var agreements []string
	for _, round := range rounds {
		for _, turn := range round.Turns {
			if turn.Status == core.TurnOK && len(agreements) < 6 {
				agreements = append(agreements, core.SummarizeLine(turn.Claim, 120))
			}
		}
	}
	agreements = core.DedupNonEmpty(agreements)

	var disagreements []string
	for _, round := range rounds {
		for _, turn := range round.Turns {
			if turn.ErrorMessage != "" {
				disagreements = append(disagreements, core.SummarizeLine(turn.ErrorMessage, 120))
			}
		}
	}
	if len(disagreements) == 0 {
		for _, round := range rounds {
			for _, turn := range round.Turns {
				if turn.Role == core.RoleCritic && len(disagreements) < 4 {
					disagreements = append(disagreements, turn.Risks...)
				}
			}
		}
		if len(disagreements) > 4 {
			disagreements = disagreements[:4]
		}
	}
	for _, code := range errorCodes {
		disagreements = append(disagreements, fmt.Sprintf("Observed warning/error code: %s", code))
	}

	if len(agreements) == 0 {
		agreements = []string{"Participants aligned on delivering an executable local-first packet."}
	}
	disagreements = core.DedupNonEmpty(disagreements)
	if len(disagreements) == 0 {
		disagreements = []string{"No major disagreement captured."}
	}

	return core.Consensus{
		ConsensusScore:   roundScore(baseScore),
		ConfidenceScore:  roundScore(confidence),
		KeyAgreements:    agreements,
		KeyDisagreements: disagreements,
	}
}

// roundScore clamps to [0,1] and rounds to 3 decimals so packet JSON
// is stable across replays.
func roundScore(value float64) float64 {
	clamped := math.Min(math.Max(value, 0), 1)
	return math.Round(clamped*1000) / 1000
}
