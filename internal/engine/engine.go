// Package engine orchestrates debate runs through the fixed
// Intake -> Round1 -> Round2 -> Round3 -> Consensus -> Judge ->
// Packetize -> Writeback state machine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/alienxp03/arbiter/internal/artifact"
	"github.com/alienxp03/arbiter/internal/config"
	"github.com/alienxp03/arbiter/internal/core"
	"github.com/alienxp03/arbiter/internal/export"
	"github.com/alienxp03/arbiter/internal/index"
	"github.com/alienxp03/arbiter/internal/packet"
	"github.com/alienxp03/arbiter/internal/provider"
	"github.com/alienxp03/arbiter/internal/records"
)

// Engine drives debate runs end to end. The artifact store is the
// source of truth; the index and the record store are written last.
type Engine struct {
	cfg      *config.Config
	store    *artifact.Store
	idx      *index.SQLiteIndex
	registry *provider.Registry
	records  *records.Store
	guard    *runGuard
	now      func() time.Time
}

// New creates a debate engine.
func New(cfg *config.Config, store *artifact.Store, idx *index.SQLiteIndex, registry *provider.Registry, recordStore *records.Store) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    store,
		idx:      idx,
		registry: registry,
		records:  recordStore,
		guard:    newRunGuard(),
		now:      time.Now,
	}
}

// requestArtifact is the durable form of a normalized request.
type requestArtifact struct {
	RunID          string             `json:"runId"`
	Problem        string             `json:"problem"`
	Constraints    []string           `json:"constraints"`
	OutputType     string             `json:"outputType"`
	Participants   []core.Participant `json:"participants"`
	MaxTurnSeconds int                `json:"maxTurnSeconds"`
	MaxTurnTokens  int                `json:"maxTurnTokens"`
	Warnings       []string           `json:"warnings"`
	StartedAt      string             `json:"startedAt"`
}

// failureArtifact records an all-turns-failed run for manual recovery.
type failureArtifact struct {
	RunID         string   `json:"runId"`
	ArtifactsRoot string   `json:"artifactsRoot"`
	TotalTurns    int      `json:"totalTurns"`
	OkTurns       int      `json:"okTurns"`
	ErrorCodes    []string `json:"errorCodes"`
}

// Run executes one debate. Participant failures degrade the run but
// never abort it; structural failures abort with a coded error and no
// authoritative packet. Concurrent calls while a run is in flight are
// rejected, and the guard is released on every exit path.
func (e *Engine) Run(ctx context.Context, req core.Request) (*core.Response, error) {
	if !e.guard.tryAcquire() {
		return nil, core.NewError(core.ErrCodeBusy, "another debate run is already in progress")
	}
	defer e.guard.release()

	normalized, err := e.normalize(req)
	if err != nil {
		return nil, err
	}

	runID := core.NewRunIDAt(e.now())
	slog.Info("Starting debate run", "run_id", runID, "output_type", normalized.OutputType)
	startedAt := e.now().Format(time.RFC3339)
	errorCodes := append([]string(nil), normalized.WarningCodes...)
	degraded := false

	var state core.State
	if err := advance(&state, core.StateIntake); err != nil {
		return nil, err
	}

	if err := e.store.EnsureRunDir(runID); err != nil {
		return nil, core.WrapError(core.ErrCodeStorage, "failed to create run directory", err)
	}
	requestPath := e.store.RequestPath(runID)
	err = e.store.WriteJSON(requestPath, requestArtifact{
		RunID:          runID,
		Problem:        normalized.Problem,
		Constraints:    normalized.Constraints,
		OutputType:     string(normalized.OutputType),
		Participants:   normalized.Participants[:],
		MaxTurnSeconds: normalized.MaxTurnSeconds,
		MaxTurnTokens:  normalized.MaxTurnTokens,
		Warnings:       normalized.WarningCodes,
		StartedAt:      startedAt,
	})
	if err != nil {
		return nil, core.WrapError(core.ErrCodeStorage, "failed to persist request artifact", err)
	}

	var rounds []core.RoundArtifact
	for _, round := range core.Rounds() {
		var next core.State
		switch round {
		case core.Round1:
			next = core.StateRound1
		case core.Round2:
			next = core.StateRound2
		default:
			next = core.StateRound3
		}
		if err := advance(&state, next); err != nil {
			return nil, err
		}

		roundArtifact := e.executeRound(ctx, round, normalized, rounds)
		for _, turn := range roundArtifact.Turns {
			if turn.Status != core.TurnOK {
				degraded = true
				if turn.ErrorCode != "" {
					errorCodes = append(errorCodes, turn.ErrorCode)
				}
			}
		}

		if err := e.store.WriteJSON(e.store.RoundPath(runID, round), roundArtifact); err != nil {
			return nil, core.WrapError(core.ErrCodeStorage, "failed to persist round artifact", err)
		}
		rounds = append(rounds, roundArtifact)
	}

	totalTurns, okTurns := 0, 0
	for _, round := range rounds {
		totalTurns += len(round.Turns)
		for _, turn := range round.Turns {
			if turn.Status == core.TurnOK {
				okTurns++
			}
		}
	}
	if totalTurns > 0 && okTurns == 0 {
		uniqueCodes := core.DedupNonEmpty(errorCodes)
		if err := e.store.WriteJSON(e.store.FailurePath(runID), failureArtifact{
			RunID:         runID,
			ArtifactsRoot: e.store.RunDir(runID),
			TotalTurns:    totalTurns,
			OkTurns:       okTurns,
			ErrorCodes:    uniqueCodes,
		}); err != nil {
			slog.Error("Failed to persist failure artifact", "run_id", runID, "error", err)
		}
		return nil, core.NewError(core.ErrCodeAllTurnsFailed,
			fmt.Sprintf("all debate turns failed; run=%s, artifacts at %s", runID, e.store.RunDir(runID)))
	}

	if err := advance(&state, core.StateConsensus); err != nil {
		return nil, err
	}
	consensus := packet.BuildConsensus(rounds, core.DedupNonEmpty(errorCodes))
	if err := e.store.WriteJSON(e.store.ConsensusPath(runID), consensus); err != nil {
		return nil, core.WrapError(core.ErrCodeStorage, "failed to persist consensus artifact", err)
	}

	if err := advance(&state, core.StateJudge); err != nil {
		return nil, err
	}
	decision := packet.BuildDecision(normalized, rounds)
	risks := packet.BuildRisks(rounds)
	actions := packet.BuildActions(normalized.OutputType, decision, risks, e.now())

	if err := advance(&state, core.StatePacketize); err != nil {
		return nil, err
	}
	participants := make([]core.PacketParticipant, 0, len(normalized.Participants))
	for _, item := range normalized.Participants {
		participants = append(participants, core.PacketParticipant{
			Role:          string(item.Role),
			ModelProvider: item.ModelProvider,
			ModelName:     item.ModelName,
		})
	}

	finalPacket := core.FinalPacket{
		RunID:        runID,
		Mode:         core.Mode,
		Problem:      normalized.Problem,
		Constraints:  normalized.Constraints,
		OutputType:   string(normalized.OutputType),
		Participants: participants,
		Consensus:    consensus,
		Decision:     decision,
		Risks:        risks,
		NextActions:  actions,
		Trace: core.Trace{
			RoundRefs: []string{string(core.Round1), string(core.Round2), string(core.Round3)},
			EvidenceRefs: []string{
				requestPath,
				e.store.ConsensusPath(runID),
			},
		},
		Timestamps: core.Timestamps{
			StartedAt:  startedAt,
			FinishedAt: e.now().Format(time.RFC3339),
		},
	}
	if err := packet.Validate(&finalPacket); err != nil {
		return nil, err
	}

	packetPath := e.store.FinalPacketPath(runID)
	markdownPath := e.store.FinalPacketMarkdownPath(runID)
	if err := e.store.WriteJSON(packetPath, finalPacket); err != nil {
		return nil, core.WrapError(core.ErrCodeStorage, "failed to persist final packet", err)
	}
	if err := artifact.WriteAtomic(markdownPath, []byte(export.Markdown(&finalPacket))); err != nil {
		return nil, core.WrapError(core.ErrCodeStorage, "failed to persist final packet markdown", err)
	}

	if err := advance(&state, core.StateWriteback); err != nil {
		return nil, err
	}
	recordType := e.cfg.WritebackType(normalized.WritebackRecordType, string(normalized.OutputType))
	record, err := e.records.Writeback(recordType, &finalPacket)
	if err != nil {
		// Round artifacts and the packet remain for manual recovery.
		return nil, err
	}

	finalPacket.Trace.EvidenceRefs = append(finalPacket.Trace.EvidenceRefs, "writeback:"+record.JSONPath)
	finalPacket.Timestamps.FinishedAt = e.now().Format(time.RFC3339)
	if err := packet.Validate(&finalPacket); err != nil {
		return nil, err
	}
	if err := e.store.WriteJSON(packetPath, finalPacket); err != nil {
		return nil, core.WrapError(core.ErrCodeStorage, "failed to persist final packet", err)
	}
	if err := artifact.WriteAtomic(markdownPath, []byte(export.Markdown(&finalPacket))); err != nil {
		return nil, core.WrapError(core.ErrCodeStorage, "failed to persist final packet markdown", err)
	}

	if err := e.idx.UpsertRun(&finalPacket, rounds, degraded, e.store.RunDir(runID), record.JSONPath); err != nil {
		return nil, core.WrapError(core.ErrCodeStorage, "failed to index run", err)
	}

	slog.Info("Debate run complete", "run_id", runID, "degraded", degraded,
		"consensus", finalPacket.Consensus.ConsensusScore)

	return &core.Response{
		RunID:             runID,
		Mode:              core.Mode,
		State:             state,
		Degraded:          degraded,
		FinalPacket:       finalPacket,
		ArtifactsRoot:     e.store.RunDir(runID),
		WritebackJSONPath: record.JSONPath,
		ErrorCodes:        core.DedupNonEmpty(errorCodes),
	}, nil
}

// executeRound invokes all five roles concurrently and collects every
// result before returning. The phase never advances on partial data:
// each goroutine writes its own slot and the WaitGroup joins them all.
func (e *Engine) executeRound(ctx context.Context, round core.Round, req *core.NormalizedRequest, previousRounds []core.RoundArtifact) core.RoundArtifact {
	startedAt := e.now().Format(time.RFC3339)
	turns := make([]core.Turn, len(req.Participants))

	var wg sync.WaitGroup
	for i, participant := range req.Participants {
		wg.Add(1)
		go func(slot int, participant core.Participant) {
			defer wg.Done()
			turns[slot] = e.executeTurn(ctx, participant, round, req, previousRounds)
		}(i, participant)
	}
	wg.Wait()

	return core.RoundArtifact{
		Round:      round,
		Turns:      turns,
		StartedAt:  startedAt,
		FinishedAt: e.now().Format(time.RFC3339),
	}
}

// executeTurn runs one provider call and converts the outcome into an
// immutable Turn. Failures of any kind, including panics inside a
// provider adapter, become failed turns rather than crossing the
// engine boundary.
func (e *Engine) executeTurn(ctx context.Context, participant core.Participant, round core.Round, req *core.NormalizedRequest, previousRounds []core.RoundArtifact) (turn core.Turn) {
	startedAt := e.now().Format(time.RFC3339)
	timer := time.Now()

	var targetRole core.Role
	if round == core.Round2 {
		targetRole = round2Target[participant.Role]
	}

	turn = core.Turn{
		Role:          participant.Role,
		Round:         round,
		ModelProvider: participant.ModelProvider,
		ModelName:     participant.ModelName,
		TargetRole:    string(targetRole),
		StartedAt:     startedAt,
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Provider panicked", "provider", participant.ModelProvider,
				"role", participant.Role, "panic", r, "stack", string(debug.Stack()))
			turn.Status = core.TurnFailed
			turn.Claim = ""
			turn.Rationale = ""
			turn.Risks = nil
			turn.Challenges = nil
			turn.Revisions = nil
			turn.ErrorCode = core.ErrCodeProviderExec
			turn.ErrorMessage = fmt.Sprintf("provider panicked: %v", r)
			turn.DurationMs = time.Since(timer).Milliseconds()
			turn.FinishedAt = e.now().Format(time.RFC3339)
		}
	}()

	prov, _, _ := e.registry.Resolve(participant.ModelProvider)
	text, err := prov.Invoke(ctx, provider.InvokeRequest{
		Role:        participant.Role,
		Round:       round,
		TargetRole:  targetRole,
		Problem:     req.Problem,
		Constraints: req.Constraints,
		Prompt:      buildPrompt(participant, round, targetRole, req, previousRounds),
		Model:       participant.ModelName,
		MaxSeconds:  req.MaxTurnSeconds,
		MaxTokens:   req.MaxTurnTokens,
	})

	turn.DurationMs = time.Since(timer).Milliseconds()
	turn.FinishedAt = e.now().Format(time.RFC3339)

	if err != nil {
		code, message := participantError(err)
		turn.Status = core.TurnFailed
		turn.ErrorCode = code
		turn.ErrorMessage = message
		turn.Challenges = []core.Challenge{}
		turn.Revisions = []string{}
		turn.Risks = []string{}
		return turn
	}

	turn.Status = core.TurnOK
	turn.Claim = packet.ExtractClaim(text)
	turn.Rationale = rationaleOf(text)
	turn.Risks = packet.ExtractRisks(text)
	turn.Challenges = []core.Challenge{}
	turn.Revisions = []string{}

	switch round {
	case core.Round2:
		turn.Challenges = buildChallenges(participant.Role, targetRole, text, previousRounds)
	case core.Round3:
		turn.Revisions = buildRevisions(participant.Role, text, previousRounds)
	}
	return turn
}

func rationaleOf(text string) string {
	trimmed := text
	if trimmed == "" {
		return "No rationale returned."
	}
	return trimmed
}

// participantError converts any provider failure into a structured
// error code and message for a failed turn.
func participantError(err error) (string, string) {
	var invokeErr *provider.InvokeError
	if errors.As(err, &invokeErr) {
		return invokeErr.Code, invokeErr.Message
	}
	var coded *core.CodedError
	if errors.As(err, &coded) {
		return coded.Code, coded.Message
	}
	return core.ErrCodeProviderExec, err.Error()
}

// buildChallenges creates the round-2 challenge record targeting a
// different role's round-1 claim.
func buildChallenges(role, target core.Role, text string, previousRounds []core.RoundArtifact) []core.Challenge {
	if target == "" {
		return []core.Challenge{}
	}

	targetClaim := "missing target claim"
	if turn := packet.FindTurn(previousRounds, core.Round1, target); turn != nil {
		targetClaim = core.SummarizeLine(turn.Claim, 140)
	}

	return []core.Challenge{{
		SourceRole: string(role),
		TargetRole: string(target),
		Question:   fmt.Sprintf("How does %s defend this claim under failure conditions: %s", target, targetClaim),
		Response:   core.SummarizeLine(text, 180),
	}}
}

// buildRevisions creates the round-3 revision list, anchored to the
// role's own round-2 challenge when one exists.
func buildRevisions(role core.Role, text string, previousRounds []core.RoundArtifact) []string {
	challengeRef := "No challenge data available"
	if turn := packet.FindTurn(previousRounds, core.Round2, role); turn != nil && len(turn.Challenges) > 0 {
		challengeRef = "Addressed challenge to " + turn.Challenges[0].TargetRole
	}

	return core.DedupNonEmpty([]string{
		challengeRef,
		core.SummarizeLine(text, 180),
		"Added explicit risk mitigation and execution checkpoints.",
	})
}

// ListRuns returns run summaries from the index.
func (e *Engine) ListRuns(limit, offset int) ([]core.RunSummary, error) {
	return e.idx.ListRuns(limit, offset)
}
