package report

import (
	"bytes"
	"fmt"

	godocx "github.com/fumiama/go-docx"

	"wara/internal/model"
)

// DOCXRenderer renders a comparison report as a Word document.
type DOCXRenderer struct{}

func NewDOCXRenderer() *DOCXRenderer {
	return &DOCXRenderer{}
}

func (r *DOCXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (r *DOCXRenderer) Render(data *Data) ([]byte, error) {
	doc := godocx.New().WithDefaultTheme()

	doc.AddParagraph().AddText(data.Comparison.Title).Size("36").Bold()
	doc.AddParagraph()

	r.renderMetadata(doc, data)
	if data.Options.IncludeSummary {
		r.renderSummary(doc, data)
	}
	if data.Comparison.AnalysisResult != nil {
		r.renderAnalysis(doc, data.Comparison.AnalysisResult)
	}
	if data.Options.IncludeDetails {
		r.renderDetails(doc, data)
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render docx failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *DOCXRenderer) renderMetadata(doc *godocx.Docx, data *Data) {
	doc.AddParagraph().AddText("Document metadata").Size("28").Bold()
	for _, line := range metadataLines(data) {
		doc.AddParagraph().AddText(line)
	}
	doc.AddParagraph()
}

func (r *DOCXRenderer) renderSummary(doc *godocx.Docx, data *Data) {
	doc.AddParagraph().AddText("Summary").Size("28").Bold()
	for _, line := range summaryLines(data) {
		doc.AddParagraph().AddText(line)
	}
	doc.AddParagraph()
}

func (r *DOCXRenderer) renderAnalysis(doc *godocx.Docx, analysis *model.LLMAnalysis) {
	doc.AddParagraph().AddText("AI analysis").Size("28").Bold()
	doc.AddParagraph().AddText(analysis.Summary)
	if analysis.OverallAssessment != "" {
		doc.AddParagraph().AddText(analysis.OverallAssessment)
	}
	for _, rec := range analysis.Recommendations {
		doc.AddParagraph().AddText("- " + rec)
	}
	doc.AddParagraph()
}

func (r *DOCXRenderer) renderDetails(doc *godocx.Docx, data *Data) {
	changes, total := detailChanges(data)

	doc.AddParagraph().AddText("Changes").Size("28").Bold()
	if len(changes) == 0 {
		doc.AddParagraph().AddText("No changes detected.").Italic()
		return
	}

	for _, ch := range changes {
		doc.AddParagraph().AddText(fmt.Sprintf("[%s/%s] %s", ch.Type, ch.Location, ch.Section)).Bold()
		if ch.OldValue != "" {
			doc.AddParagraph().AddText("before: " + ch.OldValue).Color("A01E1E")
		}
		if ch.NewValue != "" {
			doc.AddParagraph().AddText("after: " + ch.NewValue).Color("1E781E")
		}
	}

	if total > len(changes) {
		doc.AddParagraph().AddText(fmt.Sprintf("... and %d more changes.", total-len(changes))).Italic()
	}
}
