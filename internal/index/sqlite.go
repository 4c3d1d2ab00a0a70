// Package index provides the embedded SQLite run index. The index is
// a derived cache over the artifact store, used for fast listing and
// replay consistency audits; it is never the source of truth.
package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alienxp03/arbiter/internal/core"
)

// SQLiteIndex implements the run index over SQLite.
type SQLiteIndex struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the index database.
func New(dbPath string) (*SQLiteIndex, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to index database: %w", err)
	}

	return &SQLiteIndex{db: db, path: dbPath}, nil
}

// Initialize creates the debate tables. The schema is additive: it
// never touches tables owned by the host application's record index.
func (s *SQLiteIndex) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS debate_runs (
		run_id TEXT PRIMARY KEY,
		output_type TEXT NOT NULL,
		problem TEXT NOT NULL,
		provider TEXT NOT NULL DEFAULT '',
		consensus_score REAL NOT NULL,
		confidence_score REAL NOT NULL,
		selected_option TEXT NOT NULL,
		degraded INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		artifacts_root TEXT NOT NULL,
		final_packet_path TEXT NOT NULL,
		writeback_json_path TEXT
	);

	CREATE TABLE IF NOT EXISTS debate_turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		round_number INTEGER NOT NULL,
		role TEXT NOT NULL,
		provider TEXT NOT NULL,
		model_name TEXT NOT NULL,
		status TEXT NOT NULL,
		claim TEXT NOT NULL,
		rationale TEXT NOT NULL,
		challenges_json TEXT NOT NULL DEFAULT '[]',
		revisions_json TEXT NOT NULL DEFAULT '[]',
		error_code TEXT,
		error_message TEXT,
		duration_ms INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES debate_runs(run_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS debate_actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		action_id TEXT NOT NULL,
		action TEXT NOT NULL,
		owner TEXT NOT NULL,
		due TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'OPEN',
		FOREIGN KEY (run_id) REFERENCES debate_runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_debate_turns_run_id ON debate_turns(run_id);
	CREATE INDEX IF NOT EXISTS idx_debate_actions_run_id ON debate_actions(run_id);
	CREATE INDEX IF NOT EXISTS idx_debate_runs_started_at ON debate_runs(started_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create index schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// UpsertRun indexes a completed run. Re-indexing the same run is
// idempotent: the run row is upserted and child rows are replaced, so
// duplicates never accumulate.
func (s *SQLiteIndex) UpsertRun(packet *core.FinalPacket, rounds []core.RoundArtifact, degraded bool, artifactsRoot, writebackJSONPath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer tx.Rollback()

	degradedInt := 0
	if degraded {
		degradedInt = 1
	}

	_, err = tx.Exec(`
	INSERT INTO debate_runs (
		run_id, output_type, problem, provider, consensus_score, confidence_score,
		selected_option, degraded, started_at, finished_at,
		artifacts_root, final_packet_path, writeback_json_path
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		output_type=excluded.output_type,
		problem=excluded.problem,
		provider=excluded.provider,
		consensus_score=excluded.consensus_score,
		confidence_score=excluded.confidence_score,
		selected_option=excluded.selected_option,
		degraded=excluded.degraded,
		started_at=excluded.started_at,
		finished_at=excluded.finished_at,
		artifacts_root=excluded.artifacts_root,
		final_packet_path=excluded.final_packet_path,
		writeback_json_path=excluded.writeback_json_path`,
		packet.RunID,
		packet.OutputType,
		packet.Problem,
		participantProviders(packet.Participants),
		packet.Consensus.ConsensusScore,
		packet.Consensus.ConfidenceScore,
		packet.Decision.SelectedOption,
		degradedInt,
		packet.Timestamps.StartedAt,
		packet.Timestamps.FinishedAt,
		artifactsRoot,
		filepath.Join(artifactsRoot, "final-packet.json"),
		writebackJSONPath,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert run row: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM debate_turns WHERE run_id = ?`, packet.RunID); err != nil {
		return fmt.Errorf("failed to clear turn rows: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM debate_actions WHERE run_id = ?`, packet.RunID); err != nil {
		return fmt.Errorf("failed to clear action rows: %w", err)
	}

	for _, round := range rounds {
		for _, turn := range round.Turns {
			challenges, err := json.Marshal(turn.Challenges)
			if err != nil {
				challenges = []byte("[]")
			}
			revisions, err := json.Marshal(turn.Revisions)
			if err != nil {
				revisions = []byte("[]")
			}

			_, err = tx.Exec(`
			INSERT INTO debate_turns (
				run_id, round_number, role, provider, model_name, status,
				claim, rationale, challenges_json, revisions_json,
				error_code, error_message, duration_ms, started_at, finished_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				packet.RunID,
				turn.Round.Number(),
				string(turn.Role),
				turn.ModelProvider,
				turn.ModelName,
				string(turn.Status),
				turn.Claim,
				turn.Rationale,
				string(challenges),
				string(revisions),
				turn.ErrorCode,
				turn.ErrorMessage,
				turn.DurationMs,
				turn.StartedAt,
				turn.FinishedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert turn row: %w", err)
			}
		}
	}

	for _, action := range packet.NextActions {
		_, err := tx.Exec(`
		INSERT INTO debate_actions (run_id, action_id, action, owner, due, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
			packet.RunID, action.ID, action.Action, action.Owner, action.Due, "OPEN",
		)
		if err != nil {
			return fmt.Errorf("failed to insert action row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index transaction: %w", err)
	}
	return nil
}

// participantProviders collapses a run's participants into the
// distinct provider labels, in participant order.
func participantProviders(participants []core.PacketParticipant) string {
	seen := make(map[string]bool)
	var providers []string
	for _, p := range participants {
		if p.ModelProvider == "" || seen[p.ModelProvider] {
			continue
		}
		seen[p.ModelProvider] = true
		providers = append(providers, p.ModelProvider)
	}
	return strings.Join(providers, ",")
}

// CountTurns returns the indexed turn count for a run.
func (s *SQLiteIndex) CountTurns(runID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM debate_turns WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return count, nil
}

// CountActions returns the indexed action count for a run.
func (s *SQLiteIndex) CountActions(runID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM debate_actions WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count actions: %w", err)
	}
	return count, nil
}

// ListRuns returns run summaries, most recent first.
func (s *SQLiteIndex) ListRuns(limit, offset int) ([]core.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
	SELECT run_id, problem, provider, output_type, selected_option, consensus_score,
	       degraded, started_at, finished_at, artifacts_root
	FROM debate_runs
	ORDER BY started_at DESC
	LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var summaries []core.RunSummary
	for rows.Next() {
		var item core.RunSummary
		var degraded int
		if err := rows.Scan(
			&item.RunID, &item.Problem, &item.Provider, &item.OutputType,
			&item.SelectedOption, &item.ConsensusScore, &degraded,
			&item.StartedAt, &item.FinishedAt, &item.ArtifactsRoot,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		item.Degraded = degraded != 0
		item.Problem = core.SummarizeLine(item.Problem, 96)
		summaries = append(summaries, item)
	}
	return summaries, rows.Err()
}
