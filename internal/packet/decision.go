package packet

import (
	"fmt"
	"strings"
	"time"

	"github.com/alienxp03/arbiter/internal/core"
)

// BuildDecision reduces round-3 evidence into the judged outcome. The
// Synthesizer's final claim is preferred, then the Proponent's; the
// Critic's claims become the rejected alternatives.
func BuildDecision(req *core.NormalizedRequest, rounds []core.RoundArtifact) core.Decision {
	selected := ""
	if turn := FindTurn(rounds, core.Round3, core.RoleSynthesizer); turn != nil {
		selected = strings.TrimSpace(turn.Claim)
	}
	if selected == "" {
		if turn := FindTurn(rounds, core.Round3, core.RoleProponent); turn != nil {
			selected = strings.TrimSpace(turn.Claim)
		}
	}
	if selected == "" {
		selected = fmt.Sprintf("Adopt a constrained %s execution path.", req.OutputType)
	}

	var why []string
	if turn := FindTurn(rounds, core.Round3, core.RoleSynthesizer); turn != nil {
		why = append(why, core.SummarizeLine(turn.Rationale, 180))
	}
	if turn := FindTurn(rounds, core.Round3, core.RoleAnalyst); turn != nil {
		why = append(why, core.SummarizeLine(turn.Rationale, 180))
	}
	why = append(why, "Chosen for replayability, explicit risk handling, and direct actionability.")
	why = core.DedupNonEmpty(why)

	var criticClaims []string
	for _, round := range rounds {
		for _, turn := range round.Turns {
			if turn.Role == core.RoleCritic && len(criticClaims) < 2 {
				criticClaims = append(criticClaims, core.SummarizeLine(turn.Claim, 120))
			}
		}
	}
	criticClaims = core.DedupNonEmpty(criticClaims)

	rejected := make([]core.RejectedOption, 0, len(criticClaims))
	for i, option := range criticClaims {
		rejected = append(rejected, core.RejectedOption{
			Option: option,
			Reason: fmt.Sprintf("Rejected by judge due to unresolved trade-offs (#%d).", i+1),
		})
	}

	return core.Decision{
		SelectedOption:  selected,
		WhySelected:     why,
		RejectedOptions: rejected,
	}
}

// BuildRisks aggregates risk lines from all turns, classifies their
// severity, and attaches a replay-oriented mitigation. At most five
// risks survive; a risk-free packet is never produced.
func BuildRisks(rounds []core.RoundArtifact) []core.Risk {
	var raw []string
	for _, round := range rounds {
		for _, turn := range round.Turns {
			raw = append(raw, turn.Risks...)
		}
	}
	if len(raw) == 0 {
		raw = []string{
			"Consensus quality may drop when provider failures cluster.",
			"Writeback trace could break if local storage is unavailable.",
		}
	}

	deduped := core.DedupNonEmpty(raw)
	if len(deduped) > 5 {
		deduped = deduped[:5]
	}

	risks := make([]core.Risk, 0, len(deduped))
	for _, risk := range deduped {
		risks = append(risks, core.Risk{
			Risk:       risk,
			Severity:   ClassifySeverity(risk),
			Mitigation: "Track via run replay and add explicit check for: " + core.SummarizeLine(risk, 80),
		})
	}
	return risks
}

// ClassifySeverity maps a risk line to high, medium, or low using the
// same keyword heuristic across runs.
func ClassifySeverity(risk string) string {
	lower := strings.ToLower(risk)
	switch {
	case strings.Contains(lower, "security"),
		strings.Contains(lower, "data loss"),
		strings.Contains(lower, "outage"),
		strings.Contains(lower, "blocking"),
		strings.Contains(lower, "critical"):
		return "high"
	case strings.Contains(lower, "latency"),
		strings.Contains(lower, "cost"),
		strings.Contains(lower, "quality"),
		strings.Contains(lower, "stability"):
		return "medium"
	default:
		return "low"
	}
}

// BuildActions produces the ordered action list: execute the decision,
// mitigate the top risk, then audit via replay.
func BuildActions(outputType core.OutputType, decision core.Decision, risks []core.Risk, now time.Time) []core.Action {
	riskFocus := "No critical risk recorded"
	if len(risks) > 0 {
		riskFocus = core.SummarizeLine(risks[0].Risk, 100)
	}

	return []core.Action{
		{
			ID:     "A1",
			Action: fmt.Sprintf("Execute selected option for %s: %s", outputType, core.SummarizeLine(decision.SelectedOption, 110)),
			Owner:  "me",
			Due:    dueAfterDays(now, 1),
		},
		{
			ID:     "A2",
			Action: "Mitigate primary risk: " + riskFocus,
			Owner:  "me",
			Due:    dueAfterDays(now, 3),
		},
		{
			ID:     "A3",
			Action: "Review execution result and run replay audit.",
			Owner:  "me",
			Due:    dueAfterDays(now, 7),
		},
	}
}

func dueAfterDays(now time.Time, days int) string {
	return now.AddDate(0, 0, days).Format("2006-01-02")
}
