package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                 UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title              TEXT        NOT NULL,
  filename           TEXT        NOT NULL,
  storage_path       TEXT        NOT NULL UNIQUE,
  size               BIGINT      NOT NULL CHECK (size >= 0),
  content_type       TEXT        NOT NULL,
  checksum           TEXT        NOT NULL,
  version            TEXT        NOT NULL DEFAULT '1.0',
  status             TEXT        NOT NULL DEFAULT 'uploaded',
  processing_error   TEXT        NOT NULL DEFAULT '',
  parent_document_id UUID        REFERENCES documents(id) ON DELETE CASCADE,
  is_latest          BOOLEAN     NOT NULL DEFAULT TRUE,
  version_notes      TEXT        NOT NULL DEFAULT '',
  content_text       TEXT        NOT NULL DEFAULT '',
  structure          JSONB       NOT NULL DEFAULT '{}'::jsonb,
  metadata           JSONB       NOT NULL DEFAULT '{}'::jsonb,
  key_points         JSONB       NOT NULL DEFAULT '[]'::jsonb,
  uploaded_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  processed_at       TIMESTAMPTZ
);`,
	},
	{
		Name: "create_index_documents_parent",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_parent ON documents (parent_document_id);`,
	},
	{
		Name: "create_index_documents_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status);`,
	},
	{
		Name: "create_index_documents_uploaded_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents (uploaded_at);`,
	},
	{
		Name: "create_table_document_sections",
		SQL: `CREATE TABLE IF NOT EXISTS document_sections (
  id          UUID    PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id UUID    NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
  title       TEXT    NOT NULL,
  content     TEXT    NOT NULL DEFAULT '',
  level       INTEGER NOT NULL DEFAULT 1,
  ord         INTEGER NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_index_document_sections_document",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_sections_document ON document_sections (document_id, ord);`,
	},
	{
		Name: "create_table_document_tables",
		SQL: `CREATE TABLE IF NOT EXISTS document_tables (
  id          UUID    PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id UUID    NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
  title       TEXT    NOT NULL DEFAULT '',
  grid        JSONB   NOT NULL,
  ord         INTEGER NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_index_document_tables_document",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_tables_document ON document_tables (document_id, ord);`,
	},
	{
		Name: "create_table_comparisons",
		SQL: `CREATE TABLE IF NOT EXISTS comparisons (
  id                   UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title                TEXT        NOT NULL,
  base_document_id     UUID        NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
  compared_document_id UUID        NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
  status               TEXT        NOT NULL DEFAULT 'pending',
  analysis_type        TEXT        NOT NULL DEFAULT 'diff',
  options              JSONB       NOT NULL DEFAULT '{}'::jsonb,
  summary              JSONB       NOT NULL DEFAULT '{}'::jsonb,
  analysis_result      JSONB,
  processing_ms        BIGINT      NOT NULL DEFAULT 0,
  error                TEXT        NOT NULL DEFAULT '',
  created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
  completed_at         TIMESTAMPTZ
);`,
	},
	{
		Name: "create_index_comparisons_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_comparisons_created_at ON comparisons (created_at);`,
	},
	{
		Name: "create_table_changes",
		SQL: `CREATE TABLE IF NOT EXISTS changes (
  id            UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  comparison_id UUID             NOT NULL REFERENCES comparisons(id) ON DELETE CASCADE,
  change_type   TEXT             NOT NULL,
  location      TEXT             NOT NULL,
  section       TEXT             NOT NULL DEFAULT '',
  old_value     TEXT             NOT NULL DEFAULT '',
  new_value     TEXT             NOT NULL DEFAULT '',
  confidence    DOUBLE PRECISION NOT NULL DEFAULT 1.0,
  context       JSONB            NOT NULL DEFAULT '{}'::jsonb
);`,
	},
	{
		Name: "create_index_changes_comparison",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_changes_comparison ON changes (comparison_id, change_type);`,
	},
	{
		Name: "create_table_reports",
		SQL: `CREATE TABLE IF NOT EXISTS reports (
  id               UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  comparison_id    UUID        NOT NULL REFERENCES comparisons(id) ON DELETE CASCADE,
  title            TEXT        NOT NULL,
  format           TEXT        NOT NULL,
  status           TEXT        NOT NULL DEFAULT 'pending',
  storage_path     TEXT        NOT NULL DEFAULT '',
  size             BIGINT      NOT NULL DEFAULT 0,
  version          TEXT        NOT NULL DEFAULT '1.0',
  parent_report_id UUID        REFERENCES reports(id) ON DELETE CASCADE,
  is_latest        BOOLEAN     NOT NULL DEFAULT TRUE,
  include_summary  BOOLEAN     NOT NULL DEFAULT TRUE,
  include_details  BOOLEAN     NOT NULL DEFAULT TRUE,
  include_tables   BOOLEAN     NOT NULL DEFAULT TRUE,
  error            TEXT        NOT NULL DEFAULT '',
  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  generated_at     TIMESTAMPTZ
);`,
	},
	{
		Name: "create_index_reports_comparison",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reports_comparison ON reports (comparison_id);`,
	},
}

// EnsureMigrated checks if the 'documents' table exists and runs the schema
// migration if it doesn't. The documents table acts as the sentinel for the
// whole schema since every other table references it directly or indirectly.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	start := time.Now()

	var exists bool
	const query = "SELECT to_regclass('public.documents') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("migration sentinel check failed", zap.Error(err))
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("schema already exists, skipping migration",
			zap.Duration("elapsed", time.Since(start)))
		return nil
	}

	log.Info("running schema migration", zap.Int("steps", len(steps)))

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("migration step failed",
				zap.String("step", step.Name),
				zap.Error(err))
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("migration step applied",
			zap.String("step", step.Name),
			zap.Duration("elapsed", time.Since(stepStart)))
	}

	log.Info("schema migration complete", zap.Duration("elapsed", time.Since(start)))
	return nil
}
