package model

import "time"

// DocumentStatus tracks a document through its processing lifecycle.
type DocumentStatus string

const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusProcessed  DocumentStatus = "processed"
	DocumentStatusError      DocumentStatus = "error"
)

// Document represents one stored Word (.docx) revision.
// Revisions of the same logical document form a family: every non-root
// revision points at the root via ParentDocumentID, and exactly one revision
// in the family carries IsLatest.
//
// This is a pure domain model with no database-specific dependencies or tags,
// so it can be used across layers (HTTP, service, storage) without coupling
// to persistence.
type Document struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Filename        string         `json:"filename"`
	StoragePath     string         `json:"storage_path"`
	Size            int64          `json:"size"`
	ContentType     string         `json:"content_type"`
	Checksum        string         `json:"checksum"`
	Version         string         `json:"version"`
	Status          DocumentStatus `json:"status"`
	ProcessingError string         `json:"processing_error,omitempty"`

	ParentDocumentID *string `json:"parent_document_id,omitempty"`
	IsLatest         bool    `json:"is_latest"`
	VersionNotes     string  `json:"version_notes,omitempty"`

	// Extracted content. Populated by the processing job; empty until the
	// document reaches DocumentStatusProcessed.
	ContentText string     `json:"content_text,omitempty"`
	Structure   Structure  `json:"structure"`
	Metadata    Metadata   `json:"metadata"`
	KeyPoints   []KeyPoint `json:"key_points,omitempty"`

	UploadedAt  time.Time  `json:"uploaded_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Section is one heading-delimited region of a processed document.
type Section struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Level      int    `json:"level"`
	Order      int    `json:"order"`
}

// Table is one table extracted from a processed document, stored as a
// row/column grid.
type Table struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	Grid       TableGrid `json:"grid"`
	Order      int       `json:"order"`
}

// TableGrid is the raw cell content of a table. The first row is treated as
// the header row during extraction.
type TableGrid struct {
	Headers  []string   `json:"headers"`
	Rows     [][]string `json:"rows"`
	RowCount int        `json:"row_count"`
	ColCount int        `json:"col_count"`
}

// Metadata holds the docx core properties plus a few derived counters.
// Created/Modified keep the RFC 3339 form found in docProps/core.xml.
type Metadata struct {
	Title          string `json:"title,omitempty"`
	Author         string `json:"author,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Keywords       string `json:"keywords,omitempty"`
	Comments       string `json:"comments,omitempty"`
	Created        string `json:"created,omitempty"`
	Modified       string `json:"modified,omitempty"`
	ParagraphCount int    `json:"paragraph_count"`
	TableCount     int    `json:"table_count"`
	PageCount      int    `json:"page_count"`
}

// Structure is the shape summary used for structural comparison.
type Structure struct {
	TotalParagraphs int   `json:"total_paragraphs"`
	TotalTables     int   `json:"total_tables"`
	HeadingLevels   []int `json:"heading_levels"`
	HasTables       bool  `json:"has_tables"`
	EstimatedPages  int   `json:"estimated_pages"`
}

// KeyPoint is one LLM-extracted highlight of a document.
type KeyPoint struct {
	Point      string `json:"point"`
	Importance string `json:"importance"`
	Category   string `json:"category,omitempty"`
}

// SentimentAnalysis is the LLM's tone assessment of one document.
// Sentiment is one of positive, negative or neutral; Confidence is 0.0-1.0.
type SentimentAnalysis struct {
	Sentiment   string   `json:"sentiment"`
	Confidence  float64  `json:"confidence"`
	Emotions    []string `json:"emotions"`
	Summary     string   `json:"summary"`
	RawResponse string   `json:"raw_response,omitempty"`
}
