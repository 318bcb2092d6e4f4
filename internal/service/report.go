package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wara/internal/model"
	"wara/internal/queue"
	"wara/internal/report"
	"wara/internal/repository"
	"wara/internal/storage"
)

var (
	ErrReportNotFound         = errors.New("report not found")
	ErrReportNotReady         = errors.New("report has not been generated yet")
	ErrComparisonNotCompleted = errors.New("comparison has not completed yet")
	ErrInvalidReportFormat    = errors.New("unsupported report format")
)

// allChangesLimit bounds how many change rows a report renders from.
const allChangesLimit = 10000

// CreateReportInput carries the caller-supplied fields of a report request.
type CreateReportInput struct {
	ComparisonID string
	Format       model.ReportFormat
	Title        string
	Options      *model.ReportOptions
}

// ReportListResult is the service-level DTO for paginated reports.
type ReportListResult struct {
	Items []model.Report `json:"data"`
	Total int            `json:"total"`
}

// ReportService defines the use cases for generating comparison reports.
type ReportService interface {
	// Create stores a pending report for a completed comparison and enqueues
	// the generation job. Requesting the same comparison and format again
	// creates a new version of the existing report.
	Create(ctx context.Context, in CreateReportInput) (*model.Report, error)

	// Generate renders the artifact and uploads it. Runs on the worker.
	Generate(ctx context.Context, id string) error

	// List returns reports using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*ReportListResult, error)

	// Get returns a single report by its ID.
	Get(ctx context.Context, id string) (*model.Report, error)

	// DownloadURL returns a presigned URL for the rendered artifact.
	DownloadURL(ctx context.Context, id string) (string, error)

	// Delete removes a report from both storage and the repository.
	Delete(ctx context.Context, id string) error
}

type reportService struct {
	repo  repository.ReportRepository
	cmps  repository.ComparisonRepository
	docs  repository.DocumentRepository
	store storage.Storage
	jobs  JobEnqueuer
}

// NewReportService constructs a new ReportService.
func NewReportService(
	repo repository.ReportRepository,
	cmps repository.ComparisonRepository,
	docs repository.DocumentRepository,
	store storage.Storage,
	jobs JobEnqueuer,
) ReportService {
	return &reportService{
		repo:  repo,
		cmps:  cmps,
		docs:  docs,
		store: store,
		jobs:  jobs,
	}
}

func (s *reportService) Create(ctx context.Context, in CreateReportInput) (*model.Report, error) {
	if in.ComparisonID == "" {
		return nil, ErrIDRequired
	}
	if in.Format != model.ReportFormatPDF && in.Format != model.ReportFormatDOCX {
		return nil, ErrInvalidReportFormat
	}

	cmp, err := s.cmps.FindByID(ctx, in.ComparisonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrComparisonNotFound
		}
		return nil, err
	}
	if cmp.Status != model.ComparisonStatusCompleted {
		return nil, ErrComparisonNotCompleted
	}

	version := firstVersion
	var parentID *string

	// A repeat request becomes a new version of the existing report family.
	latest, err := s.repo.FindLatest(ctx, in.ComparisonID, in.Format)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		version = bumpVersion(latest.Version)
		rootID := latest.ID
		if latest.ParentReportID != nil {
			rootID = *latest.ParentReportID
		}
		parentID = &rootID
		if err := s.repo.ClearLatest(ctx, rootID); err != nil {
			return nil, fmt.Errorf("clear latest flag: %w", err)
		}
	}

	options := model.DefaultReportOptions()
	if in.Options != nil {
		options = *in.Options
	}

	title := in.Title
	if title == "" {
		title = cmp.Title
	}

	rep := &model.Report{
		ID:             uuid.New().String(),
		ComparisonID:   in.ComparisonID,
		Title:          title,
		Format:         in.Format,
		Status:         model.ReportStatusPending,
		Version:        version,
		ParentReportID: parentID,
		IsLatest:       true,
		IncludeSummary: options.IncludeSummary,
		IncludeDetails: options.IncludeDetails,
		IncludeTables:  options.IncludeTables,
		CreatedAt:      time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, rep)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	if err := s.jobs.Publish(ctx, queue.Job{Type: queue.JobGenerateReport, ID: stored.ID}); err != nil {
		return nil, fmt.Errorf("enqueue report job: %w", err)
	}
	return stored, nil
}

// Generate renders one report. Failures are recorded on the report row.
func (s *reportService) Generate(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	rep, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReportNotFound
		}
		return err
	}

	if err := s.repo.SetStatus(ctx, id, model.ReportStatusGenerating, ""); err != nil {
		return fmt.Errorf("mark generating: %w", err)
	}

	if err := s.generate(ctx, rep); err != nil {
		if setErr := s.repo.SetStatus(ctx, id, model.ReportStatusError, err.Error()); setErr != nil {
			return fmt.Errorf("generation failed: %v; record error failed: %v", err, setErr)
		}
		return err
	}
	return nil
}

func (s *reportService) generate(ctx context.Context, rep *model.Report) error {
	data, err := s.reportData(ctx, rep)
	if err != nil {
		return err
	}

	renderer, err := report.RendererFor(rep.Format)
	if err != nil {
		return err
	}
	body, err := renderer.Render(data)
	if err != nil {
		return err
	}

	key := storage.ReportKey(fmt.Sprintf("%s.%s", rep.ID, rep.Format))
	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(body), storage.PutObjectOptions{
		Size:        int64(len(body)),
		ContentType: renderer.ContentType(),
	})
	if err != nil {
		return fmt.Errorf("upload report: %w", err)
	}

	rep.StoragePath = objInfo.Key
	rep.Size = objInfo.Size
	if err := s.repo.Complete(ctx, rep); err != nil {
		return fmt.Errorf("complete report: %w", err)
	}
	return nil
}

func (s *reportService) reportData(ctx context.Context, rep *model.Report) (*report.Data, error) {
	cmp, err := s.cmps.FindByID(ctx, rep.ComparisonID)
	if err != nil {
		return nil, fmt.Errorf("load comparison: %w", err)
	}
	base, err := s.docs.FindByID(ctx, cmp.BaseDocumentID)
	if err != nil {
		return nil, fmt.Errorf("load base document: %w", err)
	}
	compared, err := s.docs.FindByID(ctx, cmp.ComparedDocumentID)
	if err != nil {
		return nil, fmt.Errorf("load compared document: %w", err)
	}
	changes, err := s.cmps.ListChanges(ctx, cmp.ID, "", repository.PageQuery{Limit: allChangesLimit})
	if err != nil {
		return nil, fmt.Errorf("load changes: %w", err)
	}

	return &report.Data{
		Comparison: cmp,
		Base:       base,
		Compared:   compared,
		Changes:    changes.Items,
		Options: model.ReportOptions{
			IncludeSummary: rep.IncludeSummary,
			IncludeDetails: rep.IncludeDetails,
			IncludeTables:  rep.IncludeTables,
		},
	}, nil
}

// List returns paginated reports without exposing repository types.
func (s *reportService) List(ctx context.Context, limit, offset int) (*ReportListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ReportListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a report by ID.
func (s *reportService) Get(ctx context.Context, id string) (*model.Report, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	rep, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return rep, nil
}

// DownloadURL returns a presigned URL for the rendered artifact.
func (s *reportService) DownloadURL(ctx context.Context, id string) (string, error) {
	rep, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if rep.Status != model.ReportStatusCompleted {
		return "", ErrReportNotReady
	}
	return s.store.PresignGet(ctx, rep.StoragePath, presignExpiry)
}

// Delete removes a report from storage, then deletes its record.
func (s *reportService) Delete(ctx context.Context, id string) error {
	rep, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if rep.StoragePath != "" {
		if err := s.store.Delete(ctx, rep.StoragePath); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}
