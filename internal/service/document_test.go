package service_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"wara/internal/docx"
	"wara/internal/model"
	"wara/internal/repository"
	repoMocks "wara/internal/repository/mocks"
	. "wara/internal/service"
	svcMocks "wara/internal/service/mocks"
	"wara/internal/storage"
	storeMocks "wara/internal/storage/mocks"
)

var testLimits = UploadLimits{MaxFileSizeBytes: 1 << 20, MaxFilenameLen: 255}

func newTestDocumentService(
	mStore *storeMocks.MockStorage,
	mRepo *repoMocks.MockDocumentRepository,
	mJobs *svcMocks.MockJobEnqueuer,
	mLLM *svcMocks.MockInsightExtractor,
) DocumentService {
	return NewDocumentService(mStore, mRepo, docx.NewExtractor(), mJobs, mLLM, testLimits)
}

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		input      UploadInput
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mJobs *svcMocks.MockJobEnqueuer) io.Reader
		wantErr    error
		wantErrMsg string
	}{
		{
			name:  "happy path",
			input: UploadInput{Title: "Spec", OriginalFilename: "spec.docx", ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Size: 11},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mJobs *svcMocks.MockJobEnqueuer) io.Reader {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "documents/") && strings.HasSuffix(key, ".docx")
				}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.Size == 11 && opt.Metadata["original-filename"] == "spec.docx"
				})).Return(storage.ObjectInfo{
					Key:  "documents/uuid.docx",
					Size: 11,
				}, nil)

				mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.Title == "Spec" &&
						doc.Version == "1.0" &&
						doc.IsLatest &&
						doc.Status == model.DocumentStatusUploaded &&
						doc.Checksum != "" &&
						doc.StoragePath == "documents/uuid.docx"
				})).Return(&model.Document{ID: "gen-id"}, nil)

				mJobs.On("Publish", ctx, mock.Anything).Return(nil)

				return strings.NewReader("hello world")
			},
		},
		{
			name:  "validation error - nil reader",
			input: UploadInput{OriginalFilename: "spec.docx"},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mJobs *svcMocks.MockJobEnqueuer) io.Reader {
				return nil
			},
			wantErr: ErrReaderNil,
		},
		{
			name:  "validation error - wrong extension",
			input: UploadInput{OriginalFilename: "spec.pdf"},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mJobs *svcMocks.MockJobEnqueuer) io.Reader {
				return strings.NewReader("hello")
			},
			wantErr: ErrInvalidFileType,
		},
		{
			name:  "validation error - declared size too large",
			input: UploadInput{OriginalFilename: "spec.docx", Size: testLimits.MaxFileSizeBytes + 1},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mJobs *svcMocks.MockJobEnqueuer) io.Reader {
				return strings.NewReader("hello")
			},
			wantErr: ErrFileTooLarge,
		},
		{
			name:  "validation error - filename too long",
			input: UploadInput{OriginalFilename: strings.Repeat("a", 300) + ".docx"},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mJobs *svcMocks.MockJobEnqueuer) io.Reader {
				return strings.NewReader("hello")
			},
			wantErr: ErrFilenameTooLong,
		},
		{
			name:  "storage error",
			input: UploadInput{OriginalFilename: "spec.docx", Size: 5},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mJobs *svcMocks.MockJobEnqueuer) io.Reader {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
				return strings.NewReader("hello")
			},
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name:  "repository error with successful rollback",
			input: UploadInput{OriginalFilename: "spec.docx", Size: 5},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mJobs *svcMocks.MockJobEnqueuer) io.Reader {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{Key: "documents/x.docx"}, nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
				return strings.NewReader("hello")
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name:  "repository error with failed rollback",
			input: UploadInput{OriginalFilename: "spec.docx", Size: 5},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mJobs *svcMocks.MockJobEnqueuer) io.Reader {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{Key: "documents/x.docx"}, nil)
				mRepo.On("Create", ctx, mock.Anything).
					Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
				return strings.NewReader("hello")
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
		{
			name:  "enqueue error",
			input: UploadInput{OriginalFilename: "spec.docx", Size: 5},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository, mJobs *svcMocks.MockJobEnqueuer) io.Reader {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{Key: "documents/x.docx"}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(&model.Document{ID: "gen-id"}, nil)
				mJobs.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))
				return strings.NewReader("hello")
			},
			wantErrMsg: "enqueue processing job",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			mJobs := new(svcMocks.MockJobEnqueuer)
			svc := newTestDocumentService(mStore, mRepo, mJobs, new(svcMocks.MockInsightExtractor))

			r := tt.setupMocks(mStore, mRepo, mJobs)

			doc, err := svc.Upload(ctx, r, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				assert.Nil(t, doc)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "gen-id", doc.ID)
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_NewVersion(t *testing.T) {
	ctx := context.Background()
	rootID := "root-id"

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	mJobs := new(svcMocks.MockJobEnqueuer)
	svc := newTestDocumentService(mStore, mRepo, mJobs, new(svcMocks.MockInsightExtractor))

	mRepo.On("FindByID", ctx, rootID).Return(&model.Document{ID: rootID, Version: "1.0"}, nil)
	mRepo.On("ListVersions", ctx, rootID).Return([]model.Document{
		{ID: "v2", Version: "1.1", IsLatest: true, ParentDocumentID: &rootID},
		{ID: rootID, Version: "1.0"},
	}, nil)
	mRepo.On("ClearLatest", ctx, rootID).Return(nil)
	mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{Key: "documents/y.docx"}, nil)
	mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
		return doc.Version == "1.2" &&
			doc.IsLatest &&
			doc.ParentDocumentID != nil && *doc.ParentDocumentID == rootID
	})).Return(&model.Document{ID: "v3", Version: "1.2"}, nil)
	mJobs.On("Publish", ctx, mock.Anything).Return(nil)

	doc, err := svc.NewVersion(ctx, rootID, strings.NewReader("updated"), UploadInput{
		OriginalFilename: "spec.docx",
		VersionNotes:     "second pass",
	})

	assert.NoError(t, err)
	assert.Equal(t, "1.2", doc.Version)
	mRepo.AssertExpectations(t)
}

func TestDocumentService_NewVersionRejectedKeepsLatestFlag(t *testing.T) {
	ctx := context.Background()

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := newTestDocumentService(mStore, mRepo, new(svcMocks.MockJobEnqueuer), new(svcMocks.MockInsightExtractor))

	_, err := svc.NewVersion(ctx, "root-id", strings.NewReader("plain text"), UploadInput{
		OriginalFilename: "notes.txt",
	})

	// A rejected upload must not clear the latest flag: the family would be
	// left without a latest revision.
	assert.ErrorIs(t, err, ErrInvalidFileType)
	mRepo.AssertNotCalled(t, "ClearLatest", mock.Anything, mock.Anything)
	mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentService_NewVersionNotFound(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockDocumentRepository)
	svc := newTestDocumentService(new(storeMocks.MockStorage), mRepo, new(svcMocks.MockJobEnqueuer), new(svcMocks.MockInsightExtractor))

	mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

	_, err := svc.NewVersion(ctx, "missing", strings.NewReader("x"), UploadInput{OriginalFilename: "spec.docx"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name: "found",
			id:   "doc-1",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil)
			},
		},
		{
			name:       "empty id",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found",
			id:   "missing",
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := newTestDocumentService(new(storeMocks.MockStorage), mRepo, new(svcMocks.MockJobEnqueuer), new(svcMocks.MockInsightExtractor))
			tt.setupMocks(mRepo)

			doc, err := svc.Get(ctx, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.id, doc.ID)
			}
		})
	}
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockDocumentRepository)
	svc := newTestDocumentService(new(storeMocks.MockStorage), mRepo, new(svcMocks.MockJobEnqueuer), new(svcMocks.MockInsightExtractor))

	// Negative paging inputs collapse to defaults.
	mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
		Return(&repository.PageResult[model.Document]{Items: []model.Document{{ID: "a"}}, Total: 1}, nil)

	res, err := svc.List(ctx, -5, -3)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
}

func TestDocumentService_KeyPoints(t *testing.T) {
	ctx := context.Background()

	t.Run("not processed", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := newTestDocumentService(new(storeMocks.MockStorage), mRepo, new(svcMocks.MockJobEnqueuer), new(svcMocks.MockInsightExtractor))

		mRepo.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1", Status: model.DocumentStatusUploaded}, nil)

		_, err := svc.KeyPoints(ctx, "doc-1")
		assert.ErrorIs(t, err, ErrNotProcessed)
	})

	t.Run("stored points are reused", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mLLM := new(svcMocks.MockInsightExtractor)
		svc := newTestDocumentService(new(storeMocks.MockStorage), mRepo, new(svcMocks.MockJobEnqueuer), mLLM)

		stored := []model.KeyPoint{{Point: "deadline moved", Importance: "high"}}
		mRepo.On("FindByID", ctx, "doc-1").Return(&model.Document{
			ID:        "doc-1",
			Status:    model.DocumentStatusProcessed,
			KeyPoints: stored,
		}, nil)

		points, err := svc.KeyPoints(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Equal(t, stored, points)
		mLLM.AssertNotCalled(t, "KeyPoints")
	})

	t.Run("extracted and stored on first request", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mLLM := new(svcMocks.MockInsightExtractor)
		svc := newTestDocumentService(new(storeMocks.MockStorage), mRepo, new(svcMocks.MockJobEnqueuer), mLLM)

		doc := &model.Document{ID: "doc-1", Status: model.DocumentStatusProcessed, ContentText: "text"}
		extracted := []model.KeyPoint{{Point: "scope reduced", Importance: "medium"}}

		mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
		mLLM.On("KeyPoints", ctx, doc).Return(extracted, nil)
		mRepo.On("SetKeyPoints", ctx, "doc-1", extracted).Return(nil)

		points, err := svc.KeyPoints(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Equal(t, extracted, points)
		mRepo.AssertExpectations(t)
	})
}

func TestDocumentService_Sentiment(t *testing.T) {
	ctx := context.Background()

	t.Run("not processed", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := newTestDocumentService(new(storeMocks.MockStorage), mRepo, new(svcMocks.MockJobEnqueuer), new(svcMocks.MockInsightExtractor))

		mRepo.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1", Status: model.DocumentStatusUploaded}, nil)

		_, err := svc.Sentiment(ctx, "doc-1")
		assert.ErrorIs(t, err, ErrNotProcessed)
	})

	t.Run("analyzed through the llm", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mLLM := new(svcMocks.MockInsightExtractor)
		svc := newTestDocumentService(new(storeMocks.MockStorage), mRepo, new(svcMocks.MockJobEnqueuer), mLLM)

		doc := &model.Document{ID: "doc-1", Status: model.DocumentStatusProcessed, ContentText: "great progress"}
		want := &model.SentimentAnalysis{Sentiment: "positive", Confidence: 0.85, Emotions: []string{"optimism"}, Summary: "Upbeat tone."}

		mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
		mLLM.On("Sentiment", ctx, doc).Return(want, nil)

		got, err := svc.Sentiment(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("llm error", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mLLM := new(svcMocks.MockInsightExtractor)
		svc := newTestDocumentService(new(storeMocks.MockStorage), mRepo, new(svcMocks.MockJobEnqueuer), mLLM)

		doc := &model.Document{ID: "doc-1", Status: model.DocumentStatusProcessed}
		mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
		mLLM.On("Sentiment", ctx, doc).Return(nil, errors.New("model offline"))

		_, err := svc.Sentiment(ctx, "doc-1")
		assert.ErrorContains(t, err, "analyze sentiment")
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := newTestDocumentService(mStore, mRepo, new(svcMocks.MockJobEnqueuer), new(svcMocks.MockInsightExtractor))

	mRepo.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1", StoragePath: "documents/x.docx"}, nil)
	mStore.On("Delete", ctx, "documents/x.docx").Return(nil)
	mRepo.On("Delete", ctx, "doc-1").Return(nil)

	assert.NoError(t, svc.Delete(ctx, "doc-1"))
	mStore.AssertExpectations(t)
	mRepo.AssertExpectations(t)
}

func TestBumpVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.0", "1.1"},
		{"1.9", "1.10"},
		{"2.3", "2.4"},
		{"v1", "v1.1"},
		{"", ".1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BumpVersion(tt.in), "bumpVersion(%q)", tt.in)
	}
}
