package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"wara/internal/model"
	"wara/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var reportCols = []string{
	"id", "comparison_id", "title", "format", "status", "storage_path", "size",
	"version", "parent_report_id", "is_latest", "include_summary",
	"include_details", "include_tables", "error", "created_at", "generated_at",
}

func reportRow(id string) []driverValue {
	return []driverValue{
		id, "cmp-1", "Comparison report", string(model.ReportFormatPDF),
		string(model.ReportStatusPending), "", int64(0), "1.0", nil, true,
		true, true, true, "", time.Now(), nil,
	}
}

func TestReportPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewReportPostgres(db)
	ctx := context.Background()

	rep := &model.Report{
		ID:             "rep-1",
		ComparisonID:   "cmp-1",
		Title:          "Comparison report",
		Format:         model.ReportFormatPDF,
		Status:         model.ReportStatusPending,
		Version:        "1.0",
		IsLatest:       true,
		IncludeSummary: true,
		IncludeDetails: true,
		IncludeTables:  true,
		CreatedAt:      time.Now().UTC(),
	}

	rows := sqlmock.NewRows(reportCols).AddRow(reportRow("rep-1")...)

	mock.ExpectQuery("INSERT INTO reports").
		WillReturnRows(rows)

	result, err := repo.Create(ctx, rep)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, rep.ID, result.ID)
	assert.Equal(t, model.ReportFormatPDF, result.Format)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportPostgres_FindLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewReportPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(reportCols).AddRow(reportRow("rep-1")...)

		mock.ExpectQuery("SELECT (.+) FROM reports").
			WithArgs("cmp-1", model.ReportFormatPDF).
			WillReturnRows(rows)

		rep, err := repo.FindLatest(ctx, "cmp-1", model.ReportFormatPDF)

		assert.NoError(t, err)
		assert.NotNil(t, rep)
		assert.True(t, rep.IsLatest)
	})

	t.Run("none yet", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM reports").
			WithArgs("cmp-1", model.ReportFormatDOCX).
			WillReturnError(sql.ErrNoRows)

		rep, err := repo.FindLatest(ctx, "cmp-1", model.ReportFormatDOCX)

		assert.NoError(t, err)
		assert.Nil(t, rep)
	})
}

func TestReportPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewReportPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM reports").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows(reportCols).AddRow(reportRow("rep-1")...)

	mock.ExpectQuery("SELECT (.+) FROM reports ORDER BY").
		WithArgs(10, 0).
		WillReturnRows(rows)

	res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportPostgres_Complete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewReportPostgres(db)
	ctx := context.Background()

	rep := &model.Report{
		ID:          "rep-1",
		StoragePath: "reports/rep-1.pdf",
		Size:        4096,
	}

	mock.ExpectExec("UPDATE reports").
		WithArgs("rep-1", model.ReportStatusCompleted, "reports/rep-1.pdf", int64(4096)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Complete(ctx, rep)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportPostgres_ClearLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewReportPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE reports SET is_latest").
		WithArgs("rep-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	err = repo.ClearLatest(ctx, "rep-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
