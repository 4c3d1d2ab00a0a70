// Package export renders Final Packets into human-readable formats.
// The Markdown projection mirrors final-packet.json and is not
// independently authoritative.
package export

import (
	"fmt"
	"strings"

	"github.com/alienxp03/arbiter/internal/core"
)

// Markdown renders a Final Packet as Markdown.
func Markdown(packet *core.FinalPacket) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Debate Final Packet - %s\n\n", packet.RunID))
	sb.WriteString(fmt.Sprintf("**Mode:** %s\n", packet.Mode))
	sb.WriteString(fmt.Sprintf("**Output Type:** %s\n", packet.OutputType))
	sb.WriteString(fmt.Sprintf("**Started:** %s\n", packet.Timestamps.StartedAt))
	sb.WriteString(fmt.Sprintf("**Finished:** %s\n\n", packet.Timestamps.FinishedAt))

	sb.WriteString("## Problem\n")
	sb.WriteString(packet.Problem)
	sb.WriteString("\n\n## Constraints\n")
	if len(packet.Constraints) == 0 {
		sb.WriteString("- none\n")
	} else {
		for _, item := range packet.Constraints {
			sb.WriteString(fmt.Sprintf("- %s\n", item))
		}
	}

	sb.WriteString("\n## Participants\n")
	for _, item := range packet.Participants {
		sb.WriteString(fmt.Sprintf("- %s: %s (%s)\n", item.Role, item.ModelProvider, item.ModelName))
	}

	sb.WriteString("\n## Conclusion\n")
	sb.WriteString(fmt.Sprintf("- TL;DR: %s\n", core.SummarizeLine(packet.Decision.SelectedOption, 110)))
	sb.WriteString(fmt.Sprintf("- Selected: %s\n", packet.Decision.SelectedOption))

	sb.WriteString("\n## Why Selected\n")
	for _, item := range packet.Decision.WhySelected {
		sb.WriteString(fmt.Sprintf("- %s\n", item))
	}
	if len(packet.Decision.RejectedOptions) > 0 {
		sb.WriteString("- Rejected options:\n")
		for _, item := range packet.Decision.RejectedOptions {
			sb.WriteString(fmt.Sprintf("  - %s (%s)\n", item.Option, item.Reason))
		}
	}

	sb.WriteString("\n## Consensus\n")
	sb.WriteString(fmt.Sprintf("- consensus_score: %.3f\n", packet.Consensus.ConsensusScore))
	sb.WriteString(fmt.Sprintf("- confidence_score: %.3f\n", packet.Consensus.ConfidenceScore))
	sb.WriteString("- agreements:\n")
	for _, item := range packet.Consensus.KeyAgreements {
		sb.WriteString(fmt.Sprintf("  - %s\n", item))
	}
	sb.WriteString("- disagreements:\n")
	for _, item := range packet.Consensus.KeyDisagreements {
		sb.WriteString(fmt.Sprintf("  - %s\n", item))
	}

	sb.WriteString("\n## Risks\n")
	for _, item := range packet.Risks {
		sb.WriteString(fmt.Sprintf("- [%s] %s -> mitigation: %s\n", item.Severity, item.Risk, item.Mitigation))
	}

	sb.WriteString("\n## Next Actions\n")
	for _, item := range packet.NextActions {
		sb.WriteString(fmt.Sprintf("- %s | %s | owner=%s | due=%s\n", item.ID, item.Action, item.Owner, item.Due))
	}

	sb.WriteString("\n## Trace\n")
	sb.WriteString(fmt.Sprintf("- round refs: %s\n", strings.Join(packet.Trace.RoundRefs, ", ")))
	for _, evidence := range packet.Trace.EvidenceRefs {
		sb.WriteString(fmt.Sprintf("- evidence: %s\n", evidence))
	}

	return sb.String()
}
