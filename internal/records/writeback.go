package records

import (
	"fmt"
	"strings"
	"time"

	"github.com/alienxp03/arbiter/internal/core"
)

// Writeback converts a validated Final Packet into exactly one
// knowledge record linked back to the run by tag and body reference.
// It is the last step before a run is durably complete.
func (s *Store) Writeback(recordType string, packet *core.FinalPacket) (Record, error) {
	title := fmt.Sprintf("Debate %s - %s",
		strings.ToUpper(packet.OutputType),
		core.SummarizeLine(packet.Problem, 56))

	var body strings.Builder
	body.WriteString(fmt.Sprintf("Run ID: `%s`\n\n", packet.RunID))
	body.WriteString("## Conclusion\n")
	body.WriteString(fmt.Sprintf("TL;DR: %s\n\n", core.SummarizeLine(packet.Decision.SelectedOption, 110)))
	body.WriteString("## Selected Option\n")
	body.WriteString(packet.Decision.SelectedOption)
	body.WriteString("\n\n## Why Selected\n")
	for _, item := range packet.Decision.WhySelected {
		body.WriteString(fmt.Sprintf("- %s\n", item))
	}
	body.WriteString("\n## Risks\n")
	for _, item := range packet.Risks {
		body.WriteString(fmt.Sprintf("- [%s] %s\n", item.Severity, item.Risk))
	}
	body.WriteString("\n## Next Actions\n")
	for _, item := range packet.NextActions {
		body.WriteString(fmt.Sprintf("- %s (%s) due %s\n", item.Action, item.ID, item.Due))
	}

	record := Record{
		RecordType: recordType,
		Title:      title,
		CreatedAt:  packet.Timestamps.FinishedAt,
		Date:       time.Now().Format("2006-01-02"),
		SourceText: packet.Problem,
		FinalBody:  body.String(),
		Tags: []string{
			"debate",
			core.Mode,
			packet.OutputType,
			"run:" + packet.RunID,
		},
	}

	created, err := s.Create(record)
	if err != nil {
		return Record{}, core.WrapError(core.ErrCodeWriteback, "failed to create writeback record", err)
	}
	return created, nil
}
