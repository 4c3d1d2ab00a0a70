package engine

import (
	"fmt"

	"github.com/alienxp03/arbiter/internal/core"
)

// successor is the fixed transition table of the debate state machine.
// No skipping, no cycles: each state has exactly one legal successor.
var successor = map[core.State]core.State{
	"":                  core.StateIntake,
	core.StateIntake:    core.StateRound1,
	core.StateRound1:    core.StateRound2,
	core.StateRound2:    core.StateRound3,
	core.StateRound3:    core.StateConsensus,
	core.StateConsensus: core.StateJudge,
	core.StateJudge:     core.StatePacketize,
	core.StatePacketize: core.StateWriteback,
}

// advance moves the run to next after checking transition legality.
// An out-of-order call is rejected without mutating state.
func advance(current *core.State, next core.State) error {
	if expected, ok := successor[*current]; !ok || expected != next {
		return core.NewError(core.ErrCodeState,
			fmt.Sprintf("invalid transition: %q -> %q", *current, next))
	}
	*current = next
	return nil
}
