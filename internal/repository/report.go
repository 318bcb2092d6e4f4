package repository

import (
	"context"

	"wara/internal/model"
)

// ReportRepository defines persistence for generated report records.
type ReportRepository interface {
	// Create inserts a new report in pending state.
	Create(ctx context.Context, rep *model.Report) (*model.Report, error)

	// FindByID returns a report by its ID.
	FindByID(ctx context.Context, id string) (*model.Report, error)

	// FindLatest returns the latest report version for a comparison and
	// format, or nil when none exists yet.
	FindLatest(ctx context.Context, comparisonID string, format model.ReportFormat) (*model.Report, error)

	// List returns a paginated list of reports, newest first.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Report], error)

	// SetStatus moves a report between lifecycle states; errMsg is stored
	// alongside the error state and cleared otherwise.
	SetStatus(ctx context.Context, id string, status model.ReportStatus, errMsg string) error

	// Complete stores the rendered artifact's storage path and size and flips
	// the report to completed.
	Complete(ctx context.Context, rep *model.Report) error

	// ClearLatest drops the is_latest flag on every version of the family
	// rooted at rootID.
	ClearLatest(ctx context.Context, rootID string) error

	// Delete removes a report by ID.
	Delete(ctx context.Context, id string) error
}
