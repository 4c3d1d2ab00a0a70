package packet

import (
	"strings"
	"time"

	"github.com/alienxp03/arbiter/internal/core"
)

// Validate enforces the Final Packet schema. Any violation is a
// structural failure: Packetize aborts and the packet never reaches
// the writeback or the artifact store under its final name.
func Validate(packet *core.FinalPacket) error {
	if strings.TrimSpace(packet.RunID) == "" {
		return core.NewError(core.ErrCodePacket, "runId is required")
	}
	if strings.TrimSpace(packet.Problem) == "" {
		return core.NewError(core.ErrCodePacket, "problem is required")
	}
	if _, ok := core.ParseOutputType(packet.OutputType); !ok {
		return core.NewError(core.ErrCodePacket, "outputType must be one of: decision|writing|architecture|planning|evaluation")
	}

	if len(packet.Participants) != len(core.Roles()) {
		return core.NewError(core.ErrCodePacket, "participants must contain exactly 5 fixed roles")
	}
	seen := make(map[core.Role]bool, len(packet.Participants))
	for _, participant := range packet.Participants {
		role, ok := core.ParseRole(participant.Role)
		if !ok {
			return core.NewError(core.ErrCodePacket, "participant role contains invalid value")
		}
		seen[role] = true
		if strings.TrimSpace(participant.ModelProvider) == "" || strings.TrimSpace(participant.ModelName) == "" {
			return core.NewError(core.ErrCodePacket, "participant provider/model cannot be empty")
		}
	}
	if len(seen) != len(core.Roles()) {
		return core.NewError(core.ErrCodePacket, "participant roles must be unique and complete")
	}

	if packet.Consensus.ConsensusScore < 0 || packet.Consensus.ConsensusScore > 1 ||
		packet.Consensus.ConfidenceScore < 0 || packet.Consensus.ConfidenceScore > 1 {
		return core.NewError(core.ErrCodePacket, "consensus/confidence score must be in [0,1]")
	}

	if strings.TrimSpace(packet.Decision.SelectedOption) == "" {
		return core.NewError(core.ErrCodePacket, "decision.selectedOption is required")
	}

	if len(packet.Risks) == 0 {
		return core.NewError(core.ErrCodePacket, "risks cannot be empty")
	}
	for _, risk := range packet.Risks {
		switch risk.Severity {
		case "high", "medium", "low":
		default:
			return core.NewError(core.ErrCodePacket, "risk severity must be high|medium|low")
		}
	}

	if len(packet.NextActions) == 0 {
		return core.NewError(core.ErrCodePacket, "nextActions cannot be empty")
	}
	for _, action := range packet.NextActions {
		if strings.TrimSpace(action.ID) == "" ||
			strings.TrimSpace(action.Action) == "" ||
			strings.TrimSpace(action.Owner) == "" {
			return core.NewError(core.ErrCodePacket, "nextActions contain invalid fields")
		}
		if _, err := time.Parse("2006-01-02", strings.TrimSpace(action.Due)); err != nil {
			return core.NewError(core.ErrCodePacket, "nextActions contain invalid due date")
		}
	}

	expectedRefs := []string{string(core.Round1), string(core.Round2), string(core.Round3)}
	if len(packet.Trace.RoundRefs) != len(expectedRefs) {
		return core.NewError(core.ErrCodePacket, "trace.roundRefs must contain exactly round-1, round-2, round-3")
	}
	for i, ref := range packet.Trace.RoundRefs {
		if ref != expectedRefs[i] {
			return core.NewError(core.ErrCodePacket, "trace.roundRefs must contain exactly round-1, round-2, round-3")
		}
	}

	if strings.TrimSpace(packet.Timestamps.StartedAt) == "" || strings.TrimSpace(packet.Timestamps.FinishedAt) == "" {
		return core.NewError(core.ErrCodePacket, "timestamps.startedAt/finishedAt are required")
	}
	started, err1 := time.Parse(time.RFC3339, packet.Timestamps.StartedAt)
	finished, err2 := time.Parse(time.RFC3339, packet.Timestamps.FinishedAt)
	if err1 == nil && err2 == nil && finished.Before(started) {
		return core.NewError(core.ErrCodePacket, "timestamps.finishedAt precedes startedAt")
	}

	return nil
}
