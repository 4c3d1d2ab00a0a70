package engine

import (
	"strings"

	"github.com/alienxp03/arbiter/internal/core"
	"github.com/alienxp03/arbiter/internal/provider"
)

func clampInt(value, def, min, max int) int {
	if value == 0 {
		return def
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// normalize validates and defaults a run request. A run whose problem
// is empty after trimming never starts: no run ID is allocated and no
// artifact directory is created.
func (e *Engine) normalize(req core.Request) (*core.NormalizedRequest, error) {
	problem := strings.TrimSpace(req.Problem)
	if problem == "" {
		return nil, core.NewError(core.ErrCodeInput, "problem cannot be empty")
	}

	outputType, ok := core.ParseOutputType(req.OutputType)
	if !ok {
		return nil, core.NewError(core.ErrCodeInput,
			"outputType must be one of: decision|writing|architecture|planning|evaluation")
	}

	var warningCodes []string
	provided := make(map[core.Role]core.Participant)
	for _, pc := range req.Participants {
		role, ok := core.ParseRole(pc.Role)
		if !ok {
			if strings.TrimSpace(pc.Role) != "" {
				warningCodes = append(warningCodes, core.WarnUnknownRoleIgnored)
			}
			continue
		}

		prov, canonical, warning := e.registry.Resolve(pc.ModelProvider)
		input := strings.ToLower(strings.TrimSpace(pc.ModelProvider))
		if input != "" && input != canonical {
			warningCodes = append(warningCodes, core.WarnProviderNormalized)
		}
		if warning != "" {
			warningCodes = append(warningCodes, warning)
		}

		model := strings.TrimSpace(pc.ModelName)
		if model == "" {
			model = provider.DefaultModel(e.cfg, canonical)
		}
		provided[role] = core.Participant{
			Role:          role,
			ModelProvider: canonical,
			ProviderType:  prov.Type(),
			ModelName:     model,
		}
	}

	var participants [5]core.Participant
	for i, role := range core.Roles() {
		if item, ok := provided[role]; ok {
			participants[i] = item
			continue
		}
		local, _, _ := e.registry.Resolve("local")
		participants[i] = core.Participant{
			Role:          role,
			ModelProvider: "local",
			ProviderType:  local.Type(),
			ModelName:     provider.DefaultModel(e.cfg, "local"),
		}
	}

	constraints := core.DedupNonEmpty(req.Constraints)

	return &core.NormalizedRequest{
		Problem:             problem,
		Constraints:         constraints,
		OutputType:          outputType,
		Participants:        participants,
		MaxTurnSeconds:      clampInt(req.MaxTurnSeconds, 35, 5, 120),
		MaxTurnTokens:       clampInt(req.MaxTurnTokens, 900, 128, 4096),
		WritebackRecordType: strings.TrimSpace(req.WritebackRecordType),
		WarningCodes:        core.DedupNonEmpty(warningCodes),
	}, nil
}
