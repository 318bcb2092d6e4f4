package repository

import (
	"context"

	"wara/internal/model"
)

// ComparisonRepository defines persistence for comparison jobs and the
// change rows they produce.
type ComparisonRepository interface {
	// Create inserts a new comparison in pending state.
	Create(ctx context.Context, cmp *model.Comparison) (*model.Comparison, error)

	// FindByID returns a comparison by its ID.
	FindByID(ctx context.Context, id string) (*model.Comparison, error)

	// List returns a paginated list of comparisons, newest first.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Comparison], error)

	// SetStatus moves a comparison between lifecycle states; errMsg is stored
	// alongside the error state and cleared otherwise.
	SetStatus(ctx context.Context, id string, status model.ComparisonStatus, errMsg string) error

	// Complete stores the final summary, optional LLM result and timing, and
	// flips the comparison to completed.
	Complete(ctx context.Context, cmp *model.Comparison) error

	// ReplaceChanges deletes and re-inserts the detected changes of a comparison.
	ReplaceChanges(ctx context.Context, comparisonID string, changes []model.Change) error

	// ListChanges returns a page of a comparison's changes, optionally
	// filtered by change type (empty string means all).
	ListChanges(ctx context.Context, comparisonID string, changeType model.ChangeType, pq PageQuery) (*PageResult[model.Change], error)

	// Delete removes a comparison by ID (changes cascade).
	Delete(ctx context.Context, id string) error
}
