package engine

import (
	"fmt"
	"strings"

	"github.com/alienxp03/arbiter/internal/core"
)

// round2Target fixes which role each participant cross-examines in
// round-2. Every role targets a different role, which guarantees the
// challenge invariant by construction.
var round2Target = map[core.Role]core.Role{
	core.RoleProponent:   core.RoleCritic,
	core.RoleCritic:      core.RoleProponent,
	core.RoleAnalyst:     core.RoleProponent,
	core.RoleSynthesizer: core.RoleCritic,
	core.RoleJudge:       core.RoleSynthesizer,
}

// buildPrompt renders the provider prompt for one turn. Prior-round
// claims are folded in as one-line context so round-2 references
// round-1 positions and round-3 references the cross-examination.
func buildPrompt(participant core.Participant, round core.Round, targetRole core.Role, req *core.NormalizedRequest, previousRounds []core.RoundArtifact) string {
	constraints := "- none"
	if len(req.Constraints) > 0 {
		var lines []string
		for _, item := range req.Constraints {
			lines = append(lines, "- "+item)
		}
		constraints = strings.Join(lines, "\n")
	}

	var context []string
	for _, artifact := range previousRounds {
		for _, turn := range artifact.Turns {
			if turn.Status == core.TurnOK {
				context = append(context, fmt.Sprintf("%s / %s: %s",
					artifact.Round, turn.Role, core.SummarizeLine(turn.Claim, 120)))
			}
		}
	}
	priorContext := "none"
	if len(context) > 0 {
		priorContext = strings.Join(context, "\n")
	}

	var instruction string
	switch round {
	case core.Round1:
		instruction = "Provide opening position with claim, rationale, and key risks."
	case core.Round2:
		instruction = "Challenge another role's position with concrete questions and weak points."
	default:
		instruction = "Revise your position based on cross-examination and provide final stance."
	}

	target := "-"
	if targetRole != "" {
		target = string(targetRole)
	}

	return fmt.Sprintf(
		"You are role %s. Problem: %s\nOutput type: %s\nConstraints:\n%s\nTarget role: %s\nRound instruction: %s\nPrior context:\n%s\n\nReturn concise markdown in this shape:\nClaim: ...\nRationale: ...\nRisks: ...",
		participant.Role, req.Problem, req.OutputType, constraints, target, instruction, priorContext)
}
