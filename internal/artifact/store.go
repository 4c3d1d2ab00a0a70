// Package artifact provides crash-safe per-run file persistence.
// The artifact store is the single source of truth for a run; the
// SQLite index is a derived, rebuildable cache over it.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alienxp03/arbiter/internal/core"
)

// ErrMissing marks an artifact read against an incomplete run.
var ErrMissing = errors.New("artifact missing")

// Store writes and reads run artifacts under a root directory with
// the layout <root>/<runId>/{request.json, rounds/round-*.json,
// consensus.json, final-packet.json, final-packet.md}.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// RunDir returns the directory for a run.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.root, runID)
}

// RequestPath returns the request artifact path for a run.
func (s *Store) RequestPath(runID string) string {
	return filepath.Join(s.RunDir(runID), "request.json")
}

// RoundPath returns a round artifact path for a run.
func (s *Store) RoundPath(runID string, round core.Round) string {
	return filepath.Join(s.RunDir(runID), "rounds", string(round)+".json")
}

// ConsensusPath returns the consensus artifact path for a run.
func (s *Store) ConsensusPath(runID string) string {
	return filepath.Join(s.RunDir(runID), "consensus.json")
}

// FinalPacketPath returns the canonical packet path for a run.
func (s *Store) FinalPacketPath(runID string) string {
	return filepath.Join(s.RunDir(runID), "final-packet.json")
}

// FinalPacketMarkdownPath returns the human-readable packet path.
func (s *Store) FinalPacketMarkdownPath(runID string) string {
	return filepath.Join(s.RunDir(runID), "final-packet.md")
}

// FailurePath returns the structural-failure artifact path for a run.
func (s *Store) FailurePath(runID string) string {
	return filepath.Join(s.RunDir(runID), "failure.json")
}

// EnsureRunDir creates the run directory tree.
func (s *Store) EnsureRunDir(runID string) error {
	if err := os.MkdirAll(filepath.Join(s.RunDir(runID), "rounds"), 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	return nil
}

// WriteJSON atomically persists value as pretty-printed JSON. A crash
// mid-write never leaves a corrupt file visible under its final name.
func (s *Store) WriteJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	return WriteAtomic(path, append(data, '\n'))
}

// ReadJSON reads an artifact into out. A missing file returns
// ErrMissing so callers can distinguish "incomplete run" from
// corruption.
func (s *Store) ReadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return fmt.Errorf("failed to read artifact: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	return nil
}

// Exists reports whether an artifact file is present.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// RunExists reports whether a run directory is present.
func (s *Store) RunExists(runID string) bool {
	info, err := os.Stat(s.RunDir(runID))
	return err == nil && info.IsDir()
}

// WriteAtomic writes bytes to a temp file in the target directory and
// renames it into place.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
