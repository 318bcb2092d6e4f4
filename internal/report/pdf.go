package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"wara/internal/model"
)

// PDFRenderer renders a comparison report as an A4 portrait PDF.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

func (r *PDFRenderer) ContentType() string {
	return "application/pdf"
}

func (r *PDFRenderer) Render(data *Data) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(data.Comparison.Title, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, data.Comparison.Title, "", "L", false)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", time.Now().UTC().Format("2006-01-02 15:04 UTC")), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	r.renderMetadata(pdf, data)
	if data.Options.IncludeSummary {
		r.renderSummary(pdf, data)
	}
	if data.Comparison.AnalysisResult != nil {
		r.renderAnalysis(pdf, data.Comparison.AnalysisResult)
	}
	if data.Options.IncludeDetails {
		r.renderDetails(pdf, data)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) renderMetadata(pdf *gofpdf.Fpdf, data *Data) {
	r.sectionHeading(pdf, "Document metadata")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range metadataLines(data) {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
	pdf.Ln(4)
}

func (r *PDFRenderer) renderSummary(pdf *gofpdf.Fpdf, data *Data) {
	r.sectionHeading(pdf, "Summary")
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range summaryLines(data) {
		pdf.MultiCell(0, 6, line, "", "L", false)
	}
	pdf.Ln(4)
}

func (r *PDFRenderer) renderAnalysis(pdf *gofpdf.Fpdf, analysis *model.LLMAnalysis) {
	r.sectionHeading(pdf, "AI analysis")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, analysis.Summary, "", "L", false)
	if analysis.OverallAssessment != "" {
		pdf.Ln(2)
		pdf.MultiCell(0, 6, analysis.OverallAssessment, "", "L", false)
	}
	for _, rec := range analysis.Recommendations {
		pdf.MultiCell(0, 6, "- "+rec, "", "L", false)
	}
	pdf.Ln(4)
}

func (r *PDFRenderer) renderDetails(pdf *gofpdf.Fpdf, data *Data) {
	changes, total := detailChanges(data)

	r.sectionHeading(pdf, "Changes")
	if len(changes) == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, "No changes detected.", "", "L", false)
		return
	}

	for _, ch := range changes {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 5, fmt.Sprintf("[%s/%s] %s", ch.Type, ch.Location, ch.Section), "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
		if ch.OldValue != "" {
			pdf.SetTextColor(160, 30, 30)
			pdf.MultiCell(0, 5, "before: "+ch.OldValue, "", "L", false)
		}
		if ch.NewValue != "" {
			pdf.SetTextColor(30, 120, 30)
			pdf.MultiCell(0, 5, "after: "+ch.NewValue, "", "L", false)
		}
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	if total > len(changes) {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 5, fmt.Sprintf("... and %d more changes.", total-len(changes)), "", "L", false)
	}
}

func (r *PDFRenderer) sectionHeading(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.Ln(1)
}
