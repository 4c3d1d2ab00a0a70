package records

import (
	"os"
	"strings"
	"testing"

	"github.com/alienxp03/arbiter/internal/core"
)

func TestCreateAndLoadRecord(t *testing.T) {
	store := NewStore(t.TempDir())

	created, err := store.Create(Record{
		RecordType: "worklog",
		Title:      "Debate DECISION - pick a queue",
		FinalBody:  "body text",
		Tags:       []string{"debate"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == "" {
		t.Error("expected generated ID")
	}
	if created.CreatedAt == "" {
		t.Error("expected generated CreatedAt")
	}
	if !strings.HasSuffix(created.JSONPath, ".json") || !strings.HasSuffix(created.MDPath, ".md") {
		t.Errorf("unexpected paths: %s / %s", created.JSONPath, created.MDPath)
	}

	loaded, err := store.LoadByPath(created.JSONPath)
	if err != nil {
		t.Fatalf("LoadByPath failed: %v", err)
	}
	if loaded.ID != created.ID || loaded.FinalBody != "body text" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}

	md, err := os.ReadFile(created.MDPath)
	if err != nil {
		t.Fatalf("markdown missing: %v", err)
	}
	if !strings.Contains(string(md), "# Debate DECISION - pick a queue") {
		t.Errorf("markdown lacks title:\n%s", md)
	}
}

func TestCreateKeepsCollidingRecordsSeparate(t *testing.T) {
	store := NewStore(t.TempDir())

	record := Record{
		RecordType: "decision",
		Title:      "Debate DECISION - pick a queue",
		FinalBody:  "first body",
	}
	first, err := store.Create(record)
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	record.FinalBody = "second body"
	second, err := store.Create(record)
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	record.FinalBody = "third body"
	third, err := store.Create(record)
	if err != nil {
		t.Fatalf("third Create failed: %v", err)
	}

	if first.JSONPath == second.JSONPath || second.JSONPath == third.JSONPath {
		t.Fatalf("colliding titles must get distinct paths: %s / %s / %s",
			first.JSONPath, second.JSONPath, third.JSONPath)
	}

	loaded, err := store.LoadByPath(first.JSONPath)
	if err != nil {
		t.Fatalf("first record lost: %v", err)
	}
	if loaded.FinalBody != "first body" {
		t.Errorf("first record overwritten: %q", loaded.FinalBody)
	}
	if !strings.HasSuffix(third.JSONPath, "-3.json") {
		t.Errorf("expected numeric suffix, got %s", third.JSONPath)
	}
}

func TestWritebackPreservesEarlierRunRecord(t *testing.T) {
	store := NewStore(t.TempDir())

	packetFor := func(runID string) *core.FinalPacket {
		return &core.FinalPacket{
			RunID:      runID,
			Mode:       core.Mode,
			Problem:    "Should we migrate the API to gRPC?",
			OutputType: "decision",
			Decision:   core.Decision{SelectedOption: "Migrate incrementally."},
			Timestamps: core.Timestamps{
				StartedAt:  "2026-08-24T10:15:00Z",
				FinishedAt: "2026-08-24T10:16:00Z",
			},
		}
	}

	first, err := store.Writeback("decision", packetFor("debate_20260824_101500_aaaaa"))
	if err != nil {
		t.Fatalf("first Writeback failed: %v", err)
	}
	second, err := store.Writeback("decision", packetFor("debate_20260824_110000_bbbbb"))
	if err != nil {
		t.Fatalf("second Writeback failed: %v", err)
	}

	if first.JSONPath == second.JSONPath {
		t.Fatalf("same-day runs on one problem must not share %s", first.JSONPath)
	}

	for _, tc := range []struct {
		record Record
		runID  string
	}{
		{first, "debate_20260824_101500_aaaaa"},
		{second, "debate_20260824_110000_bbbbb"},
	} {
		loaded, err := store.LoadByPath(tc.record.JSONPath)
		if err != nil {
			t.Fatalf("record for %s lost: %v", tc.runID, err)
		}
		wantTag := "run:" + tc.runID
		found := false
		for _, tag := range loaded.Tags {
			if tag == wantTag {
				found = true
			}
		}
		if !found {
			t.Errorf("record at %s lacks tag %s: %v", tc.record.JSONPath, wantTag, loaded.Tags)
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Pick a Queue!", "pick-a-queue"},
		{"  --weird--  ", "weird"},
		{"ALL CAPS 123", "all-caps-123"},
		{"", "record"},
		{"!!!", "record"},
	}

	for _, tt := range tests {
		if got := slugify(tt.input); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWritebackRecordShape(t *testing.T) {
	store := NewStore(t.TempDir())

	packet := &core.FinalPacket{
		RunID:      "debate_20260824_101500_x7k2q",
		Mode:       core.Mode,
		Problem:    "Should we migrate the API to gRPC?",
		OutputType: "decision",
		Decision: core.Decision{
			SelectedOption: "Migrate incrementally behind a gateway.",
			WhySelected:    []string{"lowest risk path"},
		},
		Risks: []core.Risk{{Risk: "client churn", Severity: "medium", Mitigation: "dual-protocol window"}},
		NextActions: []core.Action{
			{ID: "A1", Action: "spike the gateway", Owner: "me", Due: "2026-08-25"},
		},
		Timestamps: core.Timestamps{
			StartedAt:  "2026-08-24T10:15:00Z",
			FinishedAt: "2026-08-24T10:16:00Z",
		},
	}

	record, err := store.Writeback("decision", packet)
	if err != nil {
		t.Fatalf("Writeback failed: %v", err)
	}

	if record.RecordType != "decision" {
		t.Errorf("unexpected record type: %s", record.RecordType)
	}
	if record.Title != "Debate DECISION - Should we migrate the API to gRPC?" {
		t.Errorf("unexpected title: %s", record.Title)
	}

	wantTags := []string{"debate", core.Mode, "decision", "run:" + packet.RunID}
	if len(record.Tags) != len(wantTags) {
		t.Fatalf("unexpected tags: %v", record.Tags)
	}
	for i, tag := range wantTags {
		if record.Tags[i] != tag {
			t.Errorf("tag[%d] = %s, want %s", i, record.Tags[i], tag)
		}
	}

	for _, section := range []string{"## Conclusion", "## Selected Option", "## Why Selected", "## Risks", "## Next Actions"} {
		if !strings.Contains(record.FinalBody, section) {
			t.Errorf("body missing section %s", section)
		}
	}
	if !strings.Contains(record.FinalBody, packet.RunID) {
		t.Error("body should reference the run id")
	}
	if _, err := os.Stat(record.JSONPath); err != nil {
		t.Errorf("record JSON missing: %v", err)
	}
}
