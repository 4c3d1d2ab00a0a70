package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alienxp03/arbiter/internal/artifact"
	"github.com/alienxp03/arbiter/internal/core"
	"github.com/alienxp03/arbiter/internal/records"
)

// ReplayResult reconstructs a past run from its artifacts without
// invoking any provider.
type ReplayResult struct {
	RunID       string                 `json:"runId"`
	Request     map[string]any         `json:"request,omitempty"`
	Rounds      []core.RoundArtifact   `json:"rounds"`
	Consensus   *core.Consensus        `json:"consensus,omitempty"`
	FinalPacket *core.FinalPacket      `json:"finalPacket,omitempty"`
	Writeback   *records.Record        `json:"writeback,omitempty"`
	Consistency core.ReplayConsistency `json:"consistency"`
}

// Replay loads every artifact of a run and cross-checks the file tree
// against the index. Missing files are reported as issues rather than
// errors; only a run directory that does not exist at all fails.
func (e *Engine) Replay(runID string) (*ReplayResult, error) {
	if !e.store.RunExists(runID) {
		return nil, core.NewError(core.ErrCodeNotFound, fmt.Sprintf("run not found: %s", runID))
	}

	result := &ReplayResult{RunID: runID}
	filesComplete := true
	var issues []string

	var request map[string]any
	if err := e.store.ReadJSON(e.store.RequestPath(runID), &request); err != nil {
		filesComplete = false
		issues = append(issues, describeReadIssue("request.json", err))
	} else {
		result.Request = request
	}

	for _, round := range core.Rounds() {
		var roundArtifact core.RoundArtifact
		if err := e.store.ReadJSON(e.store.RoundPath(runID, round), &roundArtifact); err != nil {
			filesComplete = false
			issues = append(issues, describeReadIssue(string(round)+".json", err))
			continue
		}
		result.Rounds = append(result.Rounds, roundArtifact)
	}

	var consensus core.Consensus
	if err := e.store.ReadJSON(e.store.ConsensusPath(runID), &consensus); err != nil {
		filesComplete = false
		issues = append(issues, describeReadIssue("consensus.json", err))
	} else {
		result.Consensus = &consensus
	}

	var finalPacket core.FinalPacket
	if err := e.store.ReadJSON(e.store.FinalPacketPath(runID), &finalPacket); err != nil {
		filesComplete = false
		issues = append(issues, describeReadIssue("final-packet.json", err))
	} else {
		result.FinalPacket = &finalPacket
		for _, ref := range finalPacket.Trace.EvidenceRefs {
			if path, ok := strings.CutPrefix(ref, "writeback:"); ok {
				record, err := e.records.LoadByPath(path)
				if err != nil {
					issues = append(issues, fmt.Sprintf("writeback record unreadable: %v", err))
					continue
				}
				result.Writeback = &record
			}
		}
	}

	indexed := false
	turnCount, err := e.idx.CountTurns(runID)
	if err != nil {
		issues = append(issues, fmt.Sprintf("index unavailable for turn check: %v", err))
	} else if turnCount > 0 {
		indexed = true
		fileTurns := 0
		for _, round := range result.Rounds {
			fileTurns += len(round.Turns)
		}
		if fileTurns != turnCount {
			issues = append(issues, fmt.Sprintf(
				"turn count mismatch: %d in artifacts, %d indexed", fileTurns, turnCount))
		}
	} else {
		issues = append(issues, "run has no indexed turns")
	}

	actionCount, err := e.idx.CountActions(runID)
	if err != nil {
		issues = append(issues, fmt.Sprintf("index unavailable for action check: %v", err))
	} else if result.FinalPacket != nil && len(result.FinalPacket.NextActions) != actionCount {
		issues = append(issues, fmt.Sprintf(
			"action count mismatch: %d in packet, %d indexed",
			len(result.FinalPacket.NextActions), actionCount))
	}

	result.Consistency = core.ReplayConsistency{
		FilesComplete: filesComplete,
		Indexed:       indexed,
		Issues:        issues,
	}

	slog.Info("Replayed debate run", "run_id", runID,
		"files_complete", filesComplete, "indexed", indexed, "issues", len(issues))
	return result, nil
}

func describeReadIssue(name string, err error) string {
	if errors.Is(err, artifact.ErrMissing) {
		return "missing artifact: " + name
	}
	return fmt.Sprintf("unreadable artifact %s: %v", name, err)
}
