package report

// Package report renders comparison results into downloadable artifacts.
// Both renderers work from the same Data snapshot so the PDF and DOCX
// variants of a report stay consistent.

import (
	"fmt"

	"wara/internal/model"
)

// maxDetailChanges caps the change rows included in the details section so a
// noisy comparison cannot produce an unbounded artifact.
const maxDetailChanges = 100

// Data is everything a renderer needs about one comparison.
type Data struct {
	Comparison *model.Comparison
	Base       *model.Document
	Compared   *model.Document
	Changes    []model.Change
	Options    model.ReportOptions
}

// Renderer turns comparison data into a file body.
type Renderer interface {
	Render(data *Data) ([]byte, error)
	ContentType() string
}

// RendererFor returns the renderer for the requested format.
func RendererFor(format model.ReportFormat) (Renderer, error) {
	switch format {
	case model.ReportFormatPDF:
		return NewPDFRenderer(), nil
	case model.ReportFormatDOCX:
		return NewDOCXRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// detailChanges filters the change list to what the details section shows:
// table rows are dropped when tables are excluded, and the list is capped.
func detailChanges(data *Data) ([]model.Change, int) {
	out := make([]model.Change, 0, len(data.Changes))
	for _, ch := range data.Changes {
		if !data.Options.IncludeTables && ch.Location == model.LocationTable {
			continue
		}
		out = append(out, ch)
	}
	total := len(out)
	if len(out) > maxDetailChanges {
		out = out[:maxDetailChanges]
	}
	return out, total
}

// metadataTimeLayout formats the timestamps shown in the metadata section.
// All stored times are UTC.
const metadataTimeLayout = "2006-01-02 15:04 UTC"

// metadataLines builds the document metadata section: file facts plus the
// docx core properties of both revisions, then the comparison bookkeeping.
func metadataLines(data *Data) []string {
	lines := documentMetadataLines("Base document", data.Base)
	lines = append(lines, documentMetadataLines("Compared document", data.Compared)...)

	cmp := data.Comparison
	completed := "Not completed"
	if cmp.CompletedAt != nil {
		completed = cmp.CompletedAt.Format(metadataTimeLayout)
	}
	lines = append(lines,
		"Comparison information:",
		fmt.Sprintf("  Created: %s", cmp.CreatedAt.Format(metadataTimeLayout)),
		fmt.Sprintf("  Completed: %s", completed),
		fmt.Sprintf("  Status: %s", cmp.Status),
		fmt.Sprintf("  Analysis time: %.2f seconds", float64(cmp.ProcessingMS)/1000),
	)
	return lines
}

func documentMetadataLines(label string, doc *model.Document) []string {
	md := doc.Metadata
	return []string{
		label + ":",
		fmt.Sprintf("  Title: %s", doc.Title),
		fmt.Sprintf("  File: %s", doc.Filename),
		fmt.Sprintf("  Size: %.2f MB", float64(doc.Size)/(1024*1024)),
		fmt.Sprintf("  Uploaded: %s", doc.UploadedAt.Format(metadataTimeLayout)),
		fmt.Sprintf("  Author: %s", orNotSpecified(md.Author)),
		fmt.Sprintf("  Created: %s", orNotSpecified(md.Created)),
		fmt.Sprintf("  Modified: %s", orNotSpecified(md.Modified)),
	}
}

func orNotSpecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}

func summaryLines(data *Data) []string {
	s := data.Comparison.Summary
	return []string{
		fmt.Sprintf("Base document: %s (version %s)", data.Base.Title, data.Base.Version),
		fmt.Sprintf("Compared document: %s (version %s)", data.Compared.Title, data.Compared.Version),
		fmt.Sprintf("Analysis type: %s", data.Comparison.AnalysisType),
		fmt.Sprintf("Added: %d", s.Added),
		fmt.Sprintf("Removed: %d", s.Removed),
		fmt.Sprintf("Modified: %d", s.Modified),
		fmt.Sprintf("Total changes: %d", s.Total),
	}
}

func changeLine(ch model.Change) string {
	line := fmt.Sprintf("[%s/%s] %s", ch.Type, ch.Location, ch.Section)
	if ch.OldValue != "" {
		line += fmt.Sprintf("\n  before: %s", ch.OldValue)
	}
	if ch.NewValue != "" {
		line += fmt.Sprintf("\n  after:  %s", ch.NewValue)
	}
	return line
}
