// Package records is the durable knowledge record store that debate
// runs write back into. Records are JSON files with a Markdown
// rendering alongside, the host application's storage convention.
package records

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alienxp03/arbiter/internal/artifact"
)

// Record is one durable knowledge record.
type Record struct {
	ID         string   `json:"id"`
	RecordType string   `json:"recordType"`
	Title      string   `json:"title"`
	CreatedAt  string   `json:"createdAt"`
	Date       string   `json:"date,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	SourceText string   `json:"sourceText,omitempty"`
	FinalBody  string   `json:"finalBody"`
	JSONPath   string   `json:"jsonPath,omitempty"`
	MDPath     string   `json:"mdPath,omitempty"`
}

// Store persists records under a root directory.
type Store struct {
	root string
}

// NewStore creates a record store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(value string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(value), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 48 {
		slug = strings.Trim(slug[:48], "-")
	}
	if slug == "" {
		slug = "record"
	}
	return slug
}

func pathTaken(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Create persists a new record as a JSON+Markdown pair. Both files are
// written atomically; the JSON file is canonical. A record from an
// earlier run with the same type, date, and title is never replaced:
// colliding names get a numeric suffix.
func (s *Store) Create(record Record) (Record, error) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt == "" {
		record.CreatedAt = time.Now().Format(time.RFC3339)
	}

	base := fmt.Sprintf("%s-%s-%s", record.RecordType, time.Now().Format("20060102"), slugify(record.Title))
	name := base
	for n := 2; pathTaken(filepath.Join(s.root, name+".json")) || pathTaken(filepath.Join(s.root, name+".md")); n++ {
		name = fmt.Sprintf("%s-%d", base, n)
	}
	record.JSONPath = filepath.Join(s.root, name+".json")
	record.MDPath = filepath.Join(s.root, name+".md")

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := artifact.WriteAtomic(record.JSONPath, append(data, '\n')); err != nil {
		return Record{}, fmt.Errorf("failed to persist record: %w", err)
	}
	if err := artifact.WriteAtomic(record.MDPath, []byte(renderMarkdown(record))); err != nil {
		return Record{}, fmt.Errorf("failed to persist record markdown: %w", err)
	}
	return record, nil
}

// LoadByPath reads a record from its canonical JSON path.
func (s *Store) LoadByPath(jsonPath string) (Record, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read record %s: %w", jsonPath, err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("failed to parse record %s: %w", jsonPath, err)
	}
	return record, nil
}

func renderMarkdown(record Record) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", record.Title))
	sb.WriteString(fmt.Sprintf("- type: %s\n", record.RecordType))
	sb.WriteString(fmt.Sprintf("- created: %s\n", record.CreatedAt))
	if len(record.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("- tags: %s\n", strings.Join(record.Tags, ", ")))
	}
	sb.WriteString("\n")
	sb.WriteString(record.FinalBody)
	sb.WriteString("\n")
	return sb.String()
}
