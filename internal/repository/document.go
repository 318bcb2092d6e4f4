package repository

import (
	"context"

	"wara/internal/model"
)

// DocumentRepository defines data access for documents and their extracted
// content using SQL queries only. No business logic here — strictly
// persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns a paginated list of documents and total rows count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// ListVersions returns the revision family of the given root document
	// (the root itself plus every revision pointing at it), newest first.
	ListVersions(ctx context.Context, rootID string) ([]model.Document, error)

	// SetStatus updates a document's lifecycle status and processing error.
	SetStatus(ctx context.Context, id string, status model.DocumentStatus, processingError string) error

	// SaveExtracted persists the extracted content fields (text, structure,
	// metadata), flips status to processed and stamps processed_at.
	SaveExtracted(ctx context.Context, doc *model.Document) error

	// SetKeyPoints stores LLM-extracted key points for a document.
	SetKeyPoints(ctx context.Context, id string, points []model.KeyPoint) error

	// ClearLatest drops the is_latest flag on every revision of the family
	// rooted at rootID. Called before inserting a new latest revision.
	ClearLatest(ctx context.Context, rootID string) error

	// ReplaceSections deletes and re-inserts the extracted sections of a document.
	ReplaceSections(ctx context.Context, documentID string, sections []model.Section) error

	// ListSections returns the extracted sections of a document in order.
	ListSections(ctx context.Context, documentID string) ([]model.Section, error)

	// ReplaceTables deletes and re-inserts the extracted tables of a document.
	ReplaceTables(ctx context.Context, documentID string, tables []model.Table) error

	// ListTables returns the extracted tables of a document in order.
	ListTables(ctx context.Context, documentID string) ([]model.Table, error)

	// Delete removes a document by ID. Returns nil if the row did not exist.
	Delete(ctx context.Context, id string) error
}
