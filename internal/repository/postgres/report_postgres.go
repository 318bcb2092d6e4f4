package postgres

import (
	"context"
	"database/sql"
	"errors"

	"wara/internal/model"
	"wara/internal/repository"
)

// ReportPostgres is a PostgreSQL implementation of repository.ReportRepository.
type ReportPostgres struct {
	db *sql.DB
}

// NewReportPostgres creates a new ReportPostgres repository.
func NewReportPostgres(db *sql.DB) *ReportPostgres {
	return &ReportPostgres{db: db}
}

var _ repository.ReportRepository = (*ReportPostgres)(nil)

const reportColumns = `id, comparison_id, title, format, status, storage_path, size,
		version, parent_report_id, is_latest, include_summary, include_details,
		include_tables, error, created_at, generated_at`

func scanReport(row rowScanner) (*model.Report, error) {
	var (
		rep       model.Report
		parent    sql.NullString
		generated sql.NullTime
	)
	if err := row.Scan(
		&rep.ID, &rep.ComparisonID, &rep.Title, &rep.Format, &rep.Status,
		&rep.StoragePath, &rep.Size, &rep.Version, &parent, &rep.IsLatest,
		&rep.IncludeSummary, &rep.IncludeDetails, &rep.IncludeTables,
		&rep.Error, &rep.CreatedAt, &generated,
	); err != nil {
		return nil, err
	}
	if parent.Valid {
		rep.ParentReportID = &parent.String
	}
	if generated.Valid {
		t := generated.Time
		rep.GeneratedAt = &t
	}
	return &rep, nil
}

// Create inserts a new report row and returns the stored record.
func (r *ReportPostgres) Create(ctx context.Context, rep *model.Report) (*model.Report, error) {
	const q = `
		INSERT INTO reports (id, comparison_id, title, format, status, version,
			parent_report_id, is_latest, include_summary, include_details,
			include_tables, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + reportColumns
	row := r.db.QueryRowContext(ctx, q,
		rep.ID, rep.ComparisonID, rep.Title, rep.Format, rep.Status, rep.Version,
		rep.ParentReportID, rep.IsLatest, rep.IncludeSummary, rep.IncludeDetails,
		rep.IncludeTables, rep.CreatedAt,
	)
	return scanReport(row)
}

// FindByID fetches a single report by its ID.
func (r *ReportPostgres) FindByID(ctx context.Context, id string) (*model.Report, error) {
	q := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	return scanReport(r.db.QueryRowContext(ctx, q, id))
}

// FindLatest returns the latest report version for a comparison and format,
// or nil when none exists yet.
func (r *ReportPostgres) FindLatest(ctx context.Context, comparisonID string, format model.ReportFormat) (*model.Report, error) {
	q := `SELECT ` + reportColumns + `
		FROM reports
		WHERE comparison_id = $1 AND format = $2 AND is_latest
		ORDER BY created_at DESC
		LIMIT 1`
	rep, err := scanReport(r.db.QueryRowContext(ctx, q, comparisonID, format))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rep, err
}

// List returns reports using LIMIT/OFFSET pagination and a total count.
func (r *ReportPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Report], error) {
	const qCount = `SELECT COUNT(*) FROM reports`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT ` + reportColumns + `
		FROM reports
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Report]{Items: items, Total: total}, nil
}

// SetStatus moves a report between lifecycle states.
func (r *ReportPostgres) SetStatus(ctx context.Context, id string, status model.ReportStatus, errMsg string) error {
	const q = `UPDATE reports SET status = $2, error = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, status, errMsg)
	return err
}

// Complete stores the rendered artifact location and flips the report to completed.
func (r *ReportPostgres) Complete(ctx context.Context, rep *model.Report) error {
	const q = `
		UPDATE reports
		SET status = $2, storage_path = $3, size = $4, error = '', generated_at = now()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, rep.ID, model.ReportStatusCompleted, rep.StoragePath, rep.Size)
	return err
}

// ClearLatest drops the is_latest flag across a report version family.
func (r *ReportPostgres) ClearLatest(ctx context.Context, rootID string) error {
	const q = `UPDATE reports SET is_latest = FALSE WHERE id = $1 OR parent_report_id = $1`
	_, err := r.db.ExecContext(ctx, q, rootID)
	return err
}

// Delete removes a report by ID.
func (r *ReportPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM reports WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
