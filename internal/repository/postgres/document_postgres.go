package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"wara/internal/model"
	"wara/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, title, filename, storage_path, size, content_type, checksum,
		version, status, processing_error, parent_document_id, is_latest, version_notes,
		content_text, structure, metadata, key_points, uploaded_at, processed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d         model.Document
		parent    sql.NullString
		processed sql.NullTime
		structure []byte
		metadata  []byte
		keyPoints []byte
	)
	if err := row.Scan(
		&d.ID, &d.Title, &d.Filename, &d.StoragePath, &d.Size, &d.ContentType, &d.Checksum,
		&d.Version, &d.Status, &d.ProcessingError, &parent, &d.IsLatest, &d.VersionNotes,
		&d.ContentText, &structure, &metadata, &keyPoints, &d.UploadedAt, &processed,
	); err != nil {
		return nil, err
	}
	if parent.Valid {
		d.ParentDocumentID = &parent.String
	}
	if processed.Valid {
		t := processed.Time
		d.ProcessedAt = &t
	}
	if len(structure) > 0 {
		if err := json.Unmarshal(structure, &d.Structure); err != nil {
			return nil, fmt.Errorf("decode structure: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &d.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if len(keyPoints) > 0 {
		if err := json.Unmarshal(keyPoints, &d.KeyPoints); err != nil {
			return nil, fmt.Errorf("decode key points: %w", err)
		}
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	structure, err := json.Marshal(doc.Structure)
	if err != nil {
		return nil, fmt.Errorf("encode structure: %w", err)
	}
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	const q = `
		INSERT INTO documents (id, title, filename, storage_path, size, content_type, checksum,
			version, status, processing_error, parent_document_id, is_latest, version_notes,
			content_text, structure, metadata, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID, doc.Title, doc.Filename, doc.StoragePath, doc.Size, doc.ContentType, doc.Checksum,
		doc.Version, doc.Status, doc.ProcessingError, doc.ParentDocumentID, doc.IsLatest,
		doc.VersionNotes, doc.ContentText, structure, metadata, doc.UploadedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT ` + documentColumns + `
		FROM documents
		ORDER BY uploaded_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{Items: items, Total: total}, nil
}

// ListVersions returns the revision family of a root document, newest first.
func (r *DocumentPostgres) ListVersions(ctx context.Context, rootID string) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 OR parent_document_id = $1
		ORDER BY uploaded_at DESC`
	rows, err := r.db.QueryContext(ctx, q, rootID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// SetStatus updates the lifecycle status and processing error of a document.
func (r *DocumentPostgres) SetStatus(ctx context.Context, id string, status model.DocumentStatus, processingError string) error {
	const q = `UPDATE documents SET status = $2, processing_error = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, status, processingError)
	return err
}

// SaveExtracted persists extracted content fields and marks the document processed.
func (r *DocumentPostgres) SaveExtracted(ctx context.Context, doc *model.Document) error {
	structure, err := json.Marshal(doc.Structure)
	if err != nil {
		return fmt.Errorf("encode structure: %w", err)
	}
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	const q = `
		UPDATE documents
		SET content_text = $2, structure = $3, metadata = $4,
			status = $5, processing_error = '', processed_at = now()
		WHERE id = $1`
	_, err = r.db.ExecContext(ctx, q, doc.ID, doc.ContentText, structure, metadata, model.DocumentStatusProcessed)
	return err
}

// SetKeyPoints stores LLM-extracted key points for a document.
func (r *DocumentPostgres) SetKeyPoints(ctx context.Context, id string, points []model.KeyPoint) error {
	payload, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("encode key points: %w", err)
	}
	const q = `UPDATE documents SET key_points = $2 WHERE id = $1`
	_, err = r.db.ExecContext(ctx, q, id, payload)
	return err
}

// ClearLatest drops the is_latest flag across a revision family.
func (r *DocumentPostgres) ClearLatest(ctx context.Context, rootID string) error {
	const q = `UPDATE documents SET is_latest = FALSE WHERE id = $1 OR parent_document_id = $1`
	_, err := r.db.ExecContext(ctx, q, rootID)
	return err
}

// ReplaceSections deletes and re-inserts the extracted sections of a document
// inside one transaction.
func (r *DocumentPostgres) ReplaceSections(ctx context.Context, documentID string, sections []model.Section) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_sections WHERE document_id = $1`, documentID); err != nil {
		return err
	}
	const q = `
		INSERT INTO document_sections (id, document_id, title, content, level, ord)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, s := range sections {
		if _, err := tx.ExecContext(ctx, q, s.ID, documentID, s.Title, s.Content, s.Level, s.Order); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSections returns the extracted sections of a document in order.
func (r *DocumentPostgres) ListSections(ctx context.Context, documentID string) ([]model.Section, error) {
	const q = `
		SELECT id, document_id, title, content, level, ord
		FROM document_sections
		WHERE document_id = $1
		ORDER BY ord`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Section, 0)
	for rows.Next() {
		var s model.Section
		if err := rows.Scan(&s.ID, &s.DocumentID, &s.Title, &s.Content, &s.Level, &s.Order); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// ReplaceTables deletes and re-inserts the extracted tables of a document
// inside one transaction.
func (r *DocumentPostgres) ReplaceTables(ctx context.Context, documentID string, tables []model.Table) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_tables WHERE document_id = $1`, documentID); err != nil {
		return err
	}
	const q = `
		INSERT INTO document_tables (id, document_id, title, grid, ord)
		VALUES ($1, $2, $3, $4, $5)`
	for _, t := range tables {
		grid, err := json.Marshal(t.Grid)
		if err != nil {
			return fmt.Errorf("encode table grid: %w", err)
		}
		if _, err := tx.ExecContext(ctx, q, t.ID, documentID, t.Title, grid, t.Order); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListTables returns the extracted tables of a document in order.
func (r *DocumentPostgres) ListTables(ctx context.Context, documentID string) ([]model.Table, error) {
	const q = `
		SELECT id, document_id, title, grid, ord
		FROM document_tables
		WHERE document_id = $1
		ORDER BY ord`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Table, 0)
	for rows.Next() {
		var (
			t    model.Table
			grid []byte
		)
		if err := rows.Scan(&t.ID, &t.DocumentID, &t.Title, &grid, &t.Order); err != nil {
			return nil, err
		}
		if len(grid) > 0 {
			if err := json.Unmarshal(grid, &t.Grid); err != nil {
				return nil, fmt.Errorf("decode table grid: %w", err)
			}
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// Delete removes a document by ID. It does not return an error if the row
// does not exist; versions, sections and tables cascade at the schema level.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
