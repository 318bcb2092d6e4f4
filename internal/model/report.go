package model

import "time"

// ReportFormat is the artifact type a report job renders.
type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatDOCX ReportFormat = "docx"
)

// ReportStatus tracks a report job through its lifecycle.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusGenerating ReportStatus = "generating"
	ReportStatusCompleted  ReportStatus = "completed"
	ReportStatusError      ReportStatus = "error"
)

// Report is one generated artifact (PDF or DOCX) for a comparison.
// Reports are versioned the same way documents are: regenerating a report for
// the same comparison and format bumps the minor version and moves the
// IsLatest flag.
type Report struct {
	ID           string       `json:"id"`
	ComparisonID string       `json:"comparison_id"`
	Title        string       `json:"title"`
	Format       ReportFormat `json:"format"`
	Status       ReportStatus `json:"status"`
	StoragePath  string       `json:"storage_path,omitempty"`
	Size         int64        `json:"size"`

	Version        string  `json:"version"`
	ParentReportID *string `json:"parent_report_id,omitempty"`
	IsLatest       bool    `json:"is_latest"`

	IncludeSummary bool `json:"include_summary"`
	IncludeDetails bool `json:"include_details"`
	IncludeTables  bool `json:"include_tables"`

	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
}

// ReportOptions selects the sections a report builder renders.
type ReportOptions struct {
	IncludeSummary bool `json:"include_summary"`
	IncludeDetails bool `json:"include_details"`
	IncludeTables  bool `json:"include_tables"`
}

// DefaultReportOptions enables every section.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{IncludeSummary: true, IncludeDetails: true, IncludeTables: true}
}
