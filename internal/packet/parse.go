// Package packet reduces round artifacts into the canonical Final
// Packet. Every builder in this package is a pure transform over
// in-memory turns with no I/O, so the heuristics are testable in
// isolation from orchestration.
package packet

import (
	"strings"

	"github.com/alienxp03/arbiter/internal/core"
)

var claimLabels = []string{"claim:", "claim"}

var stopLabels = []string{
	"rationale:", "rationale",
	"reason:", "reason",
	"why:", "why",
	"risks:", "risks",
	"risk:", "risk",
}

func trimBulletPrefix(value string) string {
	return strings.TrimLeft(value, "-* \t")
}

// ExtractClaim pulls the claim paragraph out of a provider response in
// the "Claim: ... Rationale: ... Risks: ..." shape. It falls back to
// the first non-empty line when no claim label is present.
func ExtractClaim(text string) string {
	var parts []string
	collecting := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if collecting {
				break
			}
			continue
		}

		normalized := trimBulletPrefix(line)
		lower := strings.ToLower(normalized)

		if !collecting {
			for _, label := range claimLabels {
				if strings.HasPrefix(lower, label) {
					collecting = true
					if tail := strings.TrimSpace(normalized[len(label):]); tail != "" {
						parts = append(parts, tail)
					}
					break
				}
			}
			continue
		}

		stopped := false
		for _, label := range stopLabels {
			if strings.HasPrefix(lower, label) {
				stopped = true
				break
			}
		}
		if stopped {
			break
		}
		parts = append(parts, normalized)
	}

	claim := strings.TrimSpace(strings.Join(parts, " "))
	if claim != "" {
		return claim
	}
	return firstNonEmptyLine(text)
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = stripClaimLabel(strings.TrimSpace(line))
		if line != "" {
			return line
		}
	}
	return ""
}

func stripClaimLabel(value string) string {
	normalized := trimBulletPrefix(value)
	lower := strings.ToLower(normalized)
	for _, label := range claimLabels {
		if strings.HasPrefix(lower, label) {
			return strings.TrimSpace(normalized[len(label):])
		}
	}
	return normalized
}

// ExtractRisks collects risk-flavored lines from a provider response.
// When nothing matches, a single fallback risk is synthesized from the
// response so the packet never ends up risk-free by accident.
func ExtractRisks(text string) []string {
	var risks []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "risk") ||
			strings.Contains(lower, "blocker") ||
			strings.Contains(lower, "issue") ||
			strings.Contains(lower, "failure") {
			risks = append(risks, strings.TrimSpace(trimBulletPrefix(line)))
		}
	}

	if len(risks) == 0 {
		if fallback := core.SummarizeLine(text, 130); fallback != "" {
			risks = append(risks, "Potential risk: "+fallback)
		}
	}
	return core.DedupNonEmpty(risks)
}

// FindTurn returns the first successful turn for a role in a round.
func FindTurn(rounds []core.RoundArtifact, round core.Round, role core.Role) *core.Turn {
	for i := range rounds {
		if rounds[i].Round != round {
			continue
		}
		for j := range rounds[i].Turns {
			turn := &rounds[i].Turns[j]
			if turn.Role == role && turn.Status == core.TurnOK {
				return turn
			}
		}
	}
	return nil
}
