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

var comparisonCols = []string{
	"id", "title", "base_document_id", "compared_document_id", "status",
	"analysis_type", "options", "summary", "analysis_result", "processing_ms",
	"error", "created_at", "completed_at",
}

func comparisonRow(id string, analysis []byte) []driverValue {
	return []driverValue{
		id, "v1.0 vs v1.1", "doc-1", "doc-2", string(model.ComparisonStatusPending),
		string(model.AnalysisTypeDiff), []byte(`{"include_text_changes":true}`),
		[]byte(`{"added":0,"removed":0,"modified":0}`), analysis, int64(0),
		"", time.Now(), nil,
	}
}

func TestComparisonPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewComparisonPostgres(db)
	ctx := context.Background()

	cmp := &model.Comparison{
		ID:                 "cmp-1",
		Title:              "v1.0 vs v1.1",
		BaseDocumentID:     "doc-1",
		ComparedDocumentID: "doc-2",
		Status:             model.ComparisonStatusPending,
		AnalysisType:       model.AnalysisTypeDiff,
		CreatedAt:          time.Now().UTC(),
	}

	rows := sqlmock.NewRows(comparisonCols).AddRow(comparisonRow("cmp-1", nil)...)

	mock.ExpectQuery("INSERT INTO comparisons").
		WillReturnRows(rows)

	result, err := repo.Create(ctx, cmp)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, cmp.ID, result.ID)
	assert.True(t, result.Options.IncludeTextChanges)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComparisonPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewComparisonPostgres(db)
	ctx := context.Background()

	t.Run("found with analysis result", func(t *testing.T) {
		analysis := []byte(`{"summary":"Minor edits only"}`)
		rows := sqlmock.NewRows(comparisonCols).AddRow(comparisonRow("cmp-1", analysis)...)

		mock.ExpectQuery("SELECT (.+) FROM comparisons WHERE id = ?").
			WithArgs("cmp-1").
			WillReturnRows(rows)

		cmp, err := repo.FindByID(ctx, "cmp-1")

		assert.NoError(t, err)
		assert.NotNil(t, cmp)
		assert.NotNil(t, cmp.AnalysisResult)
		assert.Equal(t, "Minor edits only", cmp.AnalysisResult.Summary)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM comparisons WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		cmp, err := repo.FindByID(ctx, "missing")

		assert.Error(t, err)
		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, cmp)
	})
}

func TestComparisonPostgres_Complete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewComparisonPostgres(db)
	ctx := context.Background()

	cmp := &model.Comparison{
		ID:           "cmp-1",
		Summary:      model.ChangeSummary{Added: 1, Modified: 2},
		ProcessingMS: 42,
	}

	mock.ExpectExec("UPDATE comparisons").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Complete(ctx, cmp)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComparisonPostgres_ReplaceChanges(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewComparisonPostgres(db)
	ctx := context.Background()

	changes := []model.Change{
		{ID: "chg-1", ComparisonID: "cmp-1", Type: model.ChangeTypeModified, Location: model.LocationText},
		{ID: "chg-2", ComparisonID: "cmp-1", Type: model.ChangeTypeAdded, Location: model.LocationSection},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM changes").
		WithArgs("cmp-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO changes").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO changes").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.ReplaceChanges(ctx, "cmp-1", changes)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComparisonPostgres_ListChanges(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewComparisonPostgres(db)
	ctx := context.Background()

	changeCols := []string{
		"id", "comparison_id", "change_type", "location", "section",
		"old_value", "new_value", "confidence", "context",
	}

	t.Run("unfiltered", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM changes WHERE comparison_id").
			WithArgs("cmp-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		rows := sqlmock.NewRows(changeCols).
			AddRow("chg-1", "cmp-1", "modified", "text", "Scope", "old", "new", 1.0, []byte(`{"field":"author"}`))

		mock.ExpectQuery("SELECT (.+) FROM changes").
			WithArgs("cmp-1", 10, 0).
			WillReturnRows(rows)

		res, err := repo.ListChanges(ctx, "cmp-1", "", repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
		assert.Equal(t, "author", res.Items[0].Context["field"])
	})

	t.Run("filtered by type", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM changes WHERE comparison_id").
			WithArgs("cmp-1", model.ChangeTypeAdded).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("SELECT (.+) FROM changes").
			WithArgs("cmp-1", model.ChangeTypeAdded, 10, 0).
			WillReturnRows(sqlmock.NewRows(changeCols))

		res, err := repo.ListChanges(ctx, "cmp-1", model.ChangeTypeAdded, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 0, res.Total)
		assert.Empty(t, res.Items)
	})
}

func TestComparisonPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewComparisonPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM comparisons WHERE id = ?").
		WithArgs("cmp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "cmp-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
