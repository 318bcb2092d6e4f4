package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"wara/internal/model"
	"wara/internal/repository"
)

// ComparisonPostgres is a PostgreSQL implementation of repository.ComparisonRepository.
type ComparisonPostgres struct {
	db *sql.DB
}

// NewComparisonPostgres creates a new ComparisonPostgres repository.
func NewComparisonPostgres(db *sql.DB) *ComparisonPostgres {
	return &ComparisonPostgres{db: db}
}

var _ repository.ComparisonRepository = (*ComparisonPostgres)(nil)

const comparisonColumns = `id, title, base_document_id, compared_document_id, status,
		analysis_type, options, summary, analysis_result, processing_ms, error,
		created_at, completed_at`

func scanComparison(row rowScanner) (*model.Comparison, error) {
	var (
		c         model.Comparison
		options   []byte
		summary   []byte
		analysis  []byte
		completed sql.NullTime
	)
	if err := row.Scan(
		&c.ID, &c.Title, &c.BaseDocumentID, &c.ComparedDocumentID, &c.Status,
		&c.AnalysisType, &options, &summary, &analysis, &c.ProcessingMS, &c.Error,
		&c.CreatedAt, &completed,
	); err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		c.CompletedAt = &t
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &c.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &c.Summary); err != nil {
			return nil, fmt.Errorf("decode summary: %w", err)
		}
	}
	if len(analysis) > 0 {
		c.AnalysisResult = &model.LLMAnalysis{}
		if err := json.Unmarshal(analysis, c.AnalysisResult); err != nil {
			return nil, fmt.Errorf("decode analysis result: %w", err)
		}
	}
	return &c, nil
}

// Create inserts a new comparison row and returns the stored record.
func (r *ComparisonPostgres) Create(ctx context.Context, cmp *model.Comparison) (*model.Comparison, error) {
	options, err := json.Marshal(cmp.Options)
	if err != nil {
		return nil, fmt.Errorf("encode options: %w", err)
	}
	summary, err := json.Marshal(cmp.Summary)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}

	const q = `
		INSERT INTO comparisons (id, title, base_document_id, compared_document_id,
			status, analysis_type, options, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + comparisonColumns
	row := r.db.QueryRowContext(ctx, q,
		cmp.ID, cmp.Title, cmp.BaseDocumentID, cmp.ComparedDocumentID,
		cmp.Status, cmp.AnalysisType, options, summary, cmp.CreatedAt,
	)
	return scanComparison(row)
}

// FindByID fetches a single comparison by its ID.
func (r *ComparisonPostgres) FindByID(ctx context.Context, id string) (*model.Comparison, error) {
	q := `SELECT ` + comparisonColumns + ` FROM comparisons WHERE id = $1`
	return scanComparison(r.db.QueryRowContext(ctx, q, id))
}

// List returns comparisons using LIMIT/OFFSET pagination and a total count.
func (r *ComparisonPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Comparison], error) {
	const qCount = `SELECT COUNT(*) FROM comparisons`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT ` + comparisonColumns + `
		FROM comparisons
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Comparison, 0)
	for rows.Next() {
		c, err := scanComparison(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Comparison]{Items: items, Total: total}, nil
}

// SetStatus moves a comparison between lifecycle states.
func (r *ComparisonPostgres) SetStatus(ctx context.Context, id string, status model.ComparisonStatus, errMsg string) error {
	const q = `UPDATE comparisons SET status = $2, error = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, status, errMsg)
	return err
}

// Complete stores the final result of a finished comparison.
func (r *ComparisonPostgres) Complete(ctx context.Context, cmp *model.Comparison) error {
	summary, err := json.Marshal(cmp.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	var analysis []byte
	if cmp.AnalysisResult != nil {
		analysis, err = json.Marshal(cmp.AnalysisResult)
		if err != nil {
			return fmt.Errorf("encode analysis result: %w", err)
		}
	}

	const q = `
		UPDATE comparisons
		SET status = $2, summary = $3, analysis_result = $4, processing_ms = $5,
			error = '', completed_at = now()
		WHERE id = $1`
	_, err = r.db.ExecContext(ctx, q, cmp.ID, model.ComparisonStatusCompleted, summary, analysis, cmp.ProcessingMS)
	return err
}

// ReplaceChanges deletes and re-inserts the detected changes of a comparison
// inside one transaction.
func (r *ComparisonPostgres) ReplaceChanges(ctx context.Context, comparisonID string, changes []model.Change) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM changes WHERE comparison_id = $1`, comparisonID); err != nil {
		return err
	}
	const q = `
		INSERT INTO changes (id, comparison_id, change_type, location, section,
			old_value, new_value, confidence, context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, ch := range changes {
		ctxPayload, err := json.Marshal(ch.Context)
		if err != nil {
			return fmt.Errorf("encode change context: %w", err)
		}
		if _, err := tx.ExecContext(ctx, q,
			ch.ID, comparisonID, ch.Type, ch.Location, ch.Section,
			ch.OldValue, ch.NewValue, ch.Confidence, ctxPayload,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListChanges returns a page of a comparison's changes, optionally filtered
// by change type.
func (r *ComparisonPostgres) ListChanges(ctx context.Context, comparisonID string, changeType model.ChangeType, pq repository.PageQuery) (*repository.PageResult[model.Change], error) {
	var (
		total      int
		countQuery string
		countArgs  []any
	)
	if changeType != "" {
		countQuery = `SELECT COUNT(*) FROM changes WHERE comparison_id = $1 AND change_type = $2`
		countArgs = []any{comparisonID, changeType}
	} else {
		countQuery = `SELECT COUNT(*) FROM changes WHERE comparison_id = $1`
		countArgs = []any{comparisonID}
	}
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	var (
		rows *sql.Rows
		err  error
	)
	const cols = `id, comparison_id, change_type, location, section, old_value, new_value, confidence, context`
	if changeType != "" {
		q := `SELECT ` + cols + `
			FROM changes
			WHERE comparison_id = $1 AND change_type = $2
			ORDER BY section, change_type, id
			LIMIT $3 OFFSET $4`
		rows, err = r.db.QueryContext(ctx, q, comparisonID, changeType, pq.Limit, pq.Offset)
	} else {
		q := `SELECT ` + cols + `
			FROM changes
			WHERE comparison_id = $1
			ORDER BY section, change_type, id
			LIMIT $2 OFFSET $3`
		rows, err = r.db.QueryContext(ctx, q, comparisonID, pq.Limit, pq.Offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Change, 0)
	for rows.Next() {
		var (
			ch         model.Change
			ctxPayload []byte
		)
		if err := rows.Scan(&ch.ID, &ch.ComparisonID, &ch.Type, &ch.Location,
			&ch.Section, &ch.OldValue, &ch.NewValue, &ch.Confidence, &ctxPayload); err != nil {
			return nil, err
		}
		if len(ctxPayload) > 0 {
			if err := json.Unmarshal(ctxPayload, &ch.Context); err != nil {
				return nil, fmt.Errorf("decode change context: %w", err)
			}
		}
		items = append(items, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Change]{Items: items, Total: total}, nil
}

// Delete removes a comparison by ID; change rows cascade at the schema level.
func (r *ComparisonPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM comparisons WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
