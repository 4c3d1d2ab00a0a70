package index

import (
	"path/filepath"
	"testing"

	"github.com/alienxp03/arbiter/internal/core"
)

func newTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := New(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	if err := idx.Initialize(); err != nil {
		t.Fatalf("failed to initialize index: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func indexedPacket(runID string) *core.FinalPacket {
	participants := make([]core.PacketParticipant, 0, 5)
	for _, role := range core.Roles() {
		participants = append(participants, core.PacketParticipant{
			Role:          string(role),
			ModelProvider: "local",
			ModelName:     "local-heuristic-v1",
		})
	}

	return &core.FinalPacket{
		RunID:        runID,
		Mode:         core.Mode,
		Problem:      "Pick a storage engine",
		OutputType:   "decision",
		Participants: participants,
		Consensus:    core.Consensus{ConsensusScore: 0.9, ConfidenceScore: 0.87},
		Decision:     core.Decision{SelectedOption: "Use SQLite"},
		Risks:        []core.Risk{{Risk: "single writer", Severity: "low", Mitigation: "queue writes"}},
		NextActions: []core.Action{
			{ID: "A1", Action: "do", Owner: "me", Due: "2026-08-25"},
			{ID: "A2", Action: "verify", Owner: "me", Due: "2026-08-27"},
		},
		Timestamps: core.Timestamps{
			StartedAt:  "2026-08-24T10:15:00Z",
			FinishedAt: "2026-08-24T10:16:00Z",
		},
	}
}

func sampleRounds() []core.RoundArtifact {
	var rounds []core.RoundArtifact
	for _, round := range core.Rounds() {
		var turns []core.Turn
		for _, role := range core.Roles() {
			turns = append(turns, core.Turn{
				Role:          role,
				Round:         round,
				ModelProvider: "local",
				ModelName:     "local-heuristic-v1",
				Status:        core.TurnOK,
				Claim:         "claim",
				Rationale:     "rationale",
				StartedAt:     "2026-08-24T10:15:00Z",
				FinishedAt:    "2026-08-24T10:15:05Z",
			})
		}
		rounds = append(rounds, core.RoundArtifact{Round: round, Turns: turns})
	}
	return rounds
}

func TestUpsertRunIdempotent(t *testing.T) {
	idx := newTestIndex(t)
	runID := "debate_20260824_101500_x7k2q"
	packet := indexedPacket(runID)
	rounds := sampleRounds()

	for i := 0; i < 3; i++ {
		if err := idx.UpsertRun(packet, rounds, false, "/tmp/debates/"+runID, "/tmp/records/r.json"); err != nil {
			t.Fatalf("UpsertRun #%d failed: %v", i+1, err)
		}
	}

	turns, err := idx.CountTurns(runID)
	if err != nil {
		t.Fatalf("CountTurns failed: %v", err)
	}
	if turns != 15 {
		t.Errorf("expected 15 turns after re-index, got %d", turns)
	}

	actions, err := idx.CountActions(runID)
	if err != nil {
		t.Fatalf("CountActions failed: %v", err)
	}
	if actions != 2 {
		t.Errorf("expected 2 actions after re-index, got %d", actions)
	}

	runs, err := idx.ListRuns(10, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run row, got %d", len(runs))
	}
	if runs[0].SelectedOption != "Use SQLite" || runs[0].Degraded {
		t.Errorf("unexpected summary: %+v", runs[0])
	}
	if runs[0].Provider != "local" {
		t.Errorf("expected provider local, got %q", runs[0].Provider)
	}
}

func TestListRunsReportsDistinctProviders(t *testing.T) {
	idx := newTestIndex(t)
	packet := indexedPacket("debate_20260824_101500_ddddd")
	packet.Participants[4].ModelProvider = "openai"
	packet.Participants[4].ModelName = "gpt-4.1-mini"

	if err := idx.UpsertRun(packet, sampleRounds(), false, "/tmp/a", ""); err != nil {
		t.Fatalf("UpsertRun failed: %v", err)
	}

	runs, err := idx.ListRuns(10, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if runs[0].Provider != "local,openai" {
		t.Errorf("expected local,openai, got %q", runs[0].Provider)
	}
}

func TestUpsertRunUpdatesFields(t *testing.T) {
	idx := newTestIndex(t)
	runID := "debate_20260824_101500_bbbbb"
	packet := indexedPacket(runID)

	if err := idx.UpsertRun(packet, sampleRounds(), false, "/tmp/a", ""); err != nil {
		t.Fatalf("first UpsertRun failed: %v", err)
	}

	packet.Decision.SelectedOption = "Use Postgres"
	if err := idx.UpsertRun(packet, sampleRounds(), true, "/tmp/a", "/tmp/records/r.json"); err != nil {
		t.Fatalf("second UpsertRun failed: %v", err)
	}

	runs, err := idx.ListRuns(10, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if runs[0].SelectedOption != "Use Postgres" || !runs[0].Degraded {
		t.Errorf("run row not updated: %+v", runs[0])
	}
}

func TestListRunsOrderAndPaging(t *testing.T) {
	idx := newTestIndex(t)

	ids := []string{
		"debate_20260822_090000_aaaaa",
		"debate_20260823_090000_bbbbb",
		"debate_20260824_090000_ccccc",
	}
	times := []string{
		"2026-08-22T09:00:00Z",
		"2026-08-23T09:00:00Z",
		"2026-08-24T09:00:00Z",
	}
	for i, id := range ids {
		packet := indexedPacket(id)
		packet.Timestamps.StartedAt = times[i]
		if err := idx.UpsertRun(packet, nil, false, "/tmp/"+id, ""); err != nil {
			t.Fatalf("UpsertRun failed: %v", err)
		}
	}

	runs, err := idx.ListRuns(2, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != ids[2] || runs[1].RunID != ids[1] {
		t.Errorf("expected newest first, got %+v", runs)
	}

	page, err := idx.ListRuns(2, 2)
	if err != nil {
		t.Fatalf("ListRuns offset failed: %v", err)
	}
	if len(page) != 1 || page[0].RunID != ids[0] {
		t.Errorf("expected oldest on second page, got %+v", page)
	}
}
