package service_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"wara/internal/model"
	"wara/internal/repository"
	repoMocks "wara/internal/repository/mocks"
	. "wara/internal/service"
	svcMocks "wara/internal/service/mocks"
	"wara/internal/storage"
	storeMocks "wara/internal/storage/mocks"
)

func completedComparison() *model.Comparison {
	return &model.Comparison{
		ID:                 "cmp-1",
		Title:              "Spec v1.0 vs v1.1",
		BaseDocumentID:     "a",
		ComparedDocumentID: "b",
		Status:             model.ComparisonStatusCompleted,
		AnalysisType:       model.AnalysisTypeDiff,
		Summary:            model.ChangeSummary{Modified: 1, Total: 1},
	}
}

func TestReportService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		input      CreateReportInput
		setupMocks func(mRepo *repoMocks.MockReportRepository, mCmps *repoMocks.MockComparisonRepository, mJobs *svcMocks.MockJobEnqueuer)
		wantErr    error
		check      func(t *testing.T, rep *model.Report)
	}{
		{
			name:  "first report for a comparison",
			input: CreateReportInput{ComparisonID: "cmp-1", Format: model.ReportFormatPDF},
			setupMocks: func(mRepo *repoMocks.MockReportRepository, mCmps *repoMocks.MockComparisonRepository, mJobs *svcMocks.MockJobEnqueuer) {
				mCmps.On("FindByID", ctx, "cmp-1").Return(completedComparison(), nil)
				mRepo.On("FindLatest", ctx, "cmp-1", model.ReportFormatPDF).Return(nil, nil)
				mRepo.On("Create", ctx, mock.MatchedBy(func(rep *model.Report) bool {
					return rep.Version == "1.0" && rep.IsLatest && rep.ParentReportID == nil &&
						rep.Status == model.ReportStatusPending
				})).Return(&model.Report{ID: "rep-1", Version: "1.0"}, nil)
				mJobs.On("Publish", ctx, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, rep *model.Report) {
				assert.Equal(t, "1.0", rep.Version)
			},
		},
		{
			name:  "repeat request bumps the version",
			input: CreateReportInput{ComparisonID: "cmp-1", Format: model.ReportFormatPDF},
			setupMocks: func(mRepo *repoMocks.MockReportRepository, mCmps *repoMocks.MockComparisonRepository, mJobs *svcMocks.MockJobEnqueuer) {
				mCmps.On("FindByID", ctx, "cmp-1").Return(completedComparison(), nil)
				mRepo.On("FindLatest", ctx, "cmp-1", model.ReportFormatPDF).
					Return(&model.Report{ID: "rep-1", Version: "1.0", IsLatest: true}, nil)
				mRepo.On("ClearLatest", ctx, "rep-1").Return(nil)
				mRepo.On("Create", ctx, mock.MatchedBy(func(rep *model.Report) bool {
					return rep.Version == "1.1" &&
						rep.ParentReportID != nil && *rep.ParentReportID == "rep-1"
				})).Return(&model.Report{ID: "rep-2", Version: "1.1"}, nil)
				mJobs.On("Publish", ctx, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, rep *model.Report) {
				assert.Equal(t, "1.1", rep.Version)
			},
		},
		{
			name:  "comparison not completed",
			input: CreateReportInput{ComparisonID: "cmp-1", Format: model.ReportFormatPDF},
			setupMocks: func(mRepo *repoMocks.MockReportRepository, mCmps *repoMocks.MockComparisonRepository, mJobs *svcMocks.MockJobEnqueuer) {
				mCmps.On("FindByID", ctx, "cmp-1").Return(&model.Comparison{
					ID:     "cmp-1",
					Status: model.ComparisonStatusProcessing,
				}, nil)
			},
			wantErr: ErrComparisonNotCompleted,
		},
		{
			name:  "comparison missing",
			input: CreateReportInput{ComparisonID: "missing", Format: model.ReportFormatPDF},
			setupMocks: func(mRepo *repoMocks.MockReportRepository, mCmps *repoMocks.MockComparisonRepository, mJobs *svcMocks.MockJobEnqueuer) {
				mCmps.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrComparisonNotFound,
		},
		{
			name:  "unsupported format",
			input: CreateReportInput{ComparisonID: "cmp-1", Format: "xlsx"},
			setupMocks: func(mRepo *repoMocks.MockReportRepository, mCmps *repoMocks.MockComparisonRepository, mJobs *svcMocks.MockJobEnqueuer) {
			},
			wantErr: ErrInvalidReportFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockReportRepository)
			mCmps := new(repoMocks.MockComparisonRepository)
			mJobs := new(svcMocks.MockJobEnqueuer)
			svc := NewReportService(mRepo, mCmps, new(repoMocks.MockDocumentRepository), new(storeMocks.MockStorage), mJobs)

			tt.setupMocks(mRepo, mCmps, mJobs)

			rep, err := svc.Create(ctx, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, rep)
			} else {
				assert.NoError(t, err)
				if tt.check != nil {
					tt.check(t, rep)
				}
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestReportService_Generate(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockReportRepository)
	mCmps := new(repoMocks.MockComparisonRepository)
	mDocs := new(repoMocks.MockDocumentRepository)
	mStore := new(storeMocks.MockStorage)
	svc := NewReportService(mRepo, mCmps, mDocs, mStore, new(svcMocks.MockJobEnqueuer))

	rep := &model.Report{
		ID:             "rep-1",
		ComparisonID:   "cmp-1",
		Title:          "Spec report",
		Format:         model.ReportFormatPDF,
		IncludeSummary: true,
		IncludeDetails: true,
		IncludeTables:  true,
	}
	mRepo.On("FindByID", ctx, "rep-1").Return(rep, nil)
	mRepo.On("SetStatus", ctx, "rep-1", model.ReportStatusGenerating, "").Return(nil)

	mCmps.On("FindByID", ctx, "cmp-1").Return(completedComparison(), nil)
	mDocs.On("FindByID", ctx, "a").Return(&model.Document{ID: "a", Title: "Spec", Version: "1.0"}, nil)
	mDocs.On("FindByID", ctx, "b").Return(&model.Document{ID: "b", Title: "Spec", Version: "1.1"}, nil)
	mCmps.On("ListChanges", ctx, "cmp-1", model.ChangeType(""), mock.Anything).
		Return(&repository.PageResult[model.Change]{Items: []model.Change{
			{Type: model.ChangeTypeModified, Location: model.LocationText, Section: "General", OldValue: "two", NewValue: "five"},
		}, Total: 1}, nil)

	mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "reports/") && strings.HasSuffix(key, ".pdf")
	}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
		return opt.ContentType == "application/pdf" && opt.Size > 0
	})).Return(storage.ObjectInfo{Key: "reports/rep-1.pdf", Size: 1234}, nil)

	mRepo.On("Complete", ctx, mock.MatchedBy(func(rep *model.Report) bool {
		return rep.StoragePath == "reports/rep-1.pdf" && rep.Size == 1234
	})).Return(nil)

	assert.NoError(t, svc.Generate(ctx, "rep-1"))
	mRepo.AssertExpectations(t)
	mStore.AssertExpectations(t)
}

func TestReportService_GenerateRecordsFailure(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockReportRepository)
	mCmps := new(repoMocks.MockComparisonRepository)
	svc := NewReportService(mRepo, mCmps, new(repoMocks.MockDocumentRepository), new(storeMocks.MockStorage), new(svcMocks.MockJobEnqueuer))

	rep := &model.Report{ID: "rep-1", ComparisonID: "cmp-1", Format: model.ReportFormatPDF}
	mRepo.On("FindByID", ctx, "rep-1").Return(rep, nil)
	mRepo.On("SetStatus", ctx, "rep-1", model.ReportStatusGenerating, "").Return(nil)
	mCmps.On("FindByID", ctx, "cmp-1").Return(nil, sql.ErrNoRows)
	mRepo.On("SetStatus", ctx, "rep-1", model.ReportStatusError, mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)

	assert.Error(t, svc.Generate(ctx, "rep-1"))
	mRepo.AssertExpectations(t)
}

func TestReportService_DownloadURL(t *testing.T) {
	ctx := context.Background()

	t.Run("completed report", func(t *testing.T) {
		mRepo := new(repoMocks.MockReportRepository)
		mStore := new(storeMocks.MockStorage)
		svc := NewReportService(mRepo, new(repoMocks.MockComparisonRepository), new(repoMocks.MockDocumentRepository), mStore, new(svcMocks.MockJobEnqueuer))

		mRepo.On("FindByID", ctx, "rep-1").Return(&model.Report{
			ID:          "rep-1",
			Status:      model.ReportStatusCompleted,
			StoragePath: "reports/rep-1.pdf",
		}, nil)
		mStore.On("PresignGet", ctx, "reports/rep-1.pdf", PresignExpiry).
			Return("https://storage/presigned", nil)

		url, err := svc.DownloadURL(ctx, "rep-1")
		assert.NoError(t, err)
		assert.Equal(t, "https://storage/presigned", url)
	})

	t.Run("report still pending", func(t *testing.T) {
		mRepo := new(repoMocks.MockReportRepository)
		svc := NewReportService(mRepo, new(repoMocks.MockComparisonRepository), new(repoMocks.MockDocumentRepository), new(storeMocks.MockStorage), new(svcMocks.MockJobEnqueuer))

		mRepo.On("FindByID", ctx, "rep-1").Return(&model.Report{ID: "rep-1", Status: model.ReportStatusPending}, nil)

		_, err := svc.DownloadURL(ctx, "rep-1")
		assert.ErrorIs(t, err, ErrReportNotReady)
	})
}
