package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/alienxp03/arbiter/internal/core"
)

// PDFExporter exports Final Packets to PDF format.
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export writes the packet as PDF.
func (e *PDFExporter) Export(packet *core.FinalPacket, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, "Debate Final Packet", "", "C", false)
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Run Information")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	e.addMetadataRow(pdf, "Run ID:", packet.RunID)
	e.addMetadataRow(pdf, "Mode:", packet.Mode)
	e.addMetadataRow(pdf, "Output Type:", packet.OutputType)
	e.addMetadataRow(pdf, "Started:", packet.Timestamps.StartedAt)
	e.addMetadataRow(pdf, "Finished:", packet.Timestamps.FinishedAt)
	pdf.Ln(5)

	e.addSection(pdf, "Problem")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, packet.Problem, "", "L", false)
	pdf.Ln(3)

	e.addSection(pdf, "Decision")
	pdf.SetFont("Arial", "B", 10)
	pdf.MultiCell(0, 5, packet.Decision.SelectedOption, "", "L", false)
	pdf.SetFont("Arial", "", 10)
	for _, item := range packet.Decision.WhySelected {
		pdf.MultiCell(0, 5, "- "+item, "", "L", false)
	}
	pdf.Ln(3)

	e.addSection(pdf, "Consensus")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, fmt.Sprintf("consensus=%.3f confidence=%.3f",
		packet.Consensus.ConsensusScore, packet.Consensus.ConfidenceScore), "", "L", false)
	for _, item := range packet.Consensus.KeyAgreements {
		pdf.MultiCell(0, 5, "+ "+item, "", "L", false)
	}
	for _, item := range packet.Consensus.KeyDisagreements {
		pdf.MultiCell(0, 5, "- "+item, "", "L", false)
	}
	pdf.Ln(3)

	e.addSection(pdf, "Risks")
	pdf.SetFont("Arial", "", 10)
	for _, item := range packet.Risks {
		pdf.MultiCell(0, 5, fmt.Sprintf("[%s] %s", item.Severity, item.Risk), "", "L", false)
	}
	pdf.Ln(3)

	e.addSection(pdf, "Next Actions")
	pdf.SetFont("Arial", "", 10)
	for _, item := range packet.NextActions {
		pdf.MultiCell(0, 5, fmt.Sprintf("%s  %s (owner %s, due %s)", item.ID, item.Action, item.Owner, item.Due), "", "L", false)
	}

	return pdf.Output(w)
}

func (e *PDFExporter) addSection(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
}

func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(35, 6, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, value)
	pdf.Ln(6)
}
