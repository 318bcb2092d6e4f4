package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wara/internal/analysis"
	"wara/internal/llm"
	"wara/internal/model"
	"wara/internal/queue"
	"wara/internal/repository"
)

var (
	ErrComparisonNotFound   = errors.New("comparison not found")
	ErrSameDocument         = errors.New("base and compared documents must differ")
	ErrDocumentNotProcessed = errors.New("both documents must be processed before comparing")
	ErrInvalidAnalysisType  = errors.New("unknown analysis type")
)

// changePageLimit bounds how many change rows a single request can return.
const changePageLimit = 500

// Analyzer is the slice of the LLM client the comparison service uses.
type Analyzer interface {
	CompareDocuments(ctx context.Context, base, compared *model.Document) (*model.LLMAnalysis, error)
}

// AnalysisCache lets repeated Ollama runs over identical content reuse the
// previous result.
type AnalysisCache interface {
	Get(ctx context.Context, baseChecksum, comparedChecksum string) (*model.LLMAnalysis, bool, error)
	Set(ctx context.Context, baseChecksum, comparedChecksum string, analysis *model.LLMAnalysis) error
}

// CreateComparisonInput carries the caller-supplied fields of a comparison.
type CreateComparisonInput struct {
	Title              string
	BaseDocumentID     string
	ComparedDocumentID string
	AnalysisType       model.AnalysisType
	Options            *model.CompareOptions
}

// ComparisonListResult is the service-level DTO for paginated comparisons.
type ComparisonListResult struct {
	Items []model.Comparison `json:"data"`
	Total int                `json:"total"`
}

// ChangeListResult is the service-level DTO for paginated change rows.
type ChangeListResult struct {
	Items []model.Change `json:"data"`
	Total int            `json:"total"`
}

// ComparisonService defines the use cases for comparing document revisions.
type ComparisonService interface {
	// Create validates both documents, stores a pending comparison and
	// enqueues the run job.
	Create(ctx context.Context, in CreateComparisonInput) (*model.Comparison, error)

	// Run executes the comparison pipeline. Runs on the worker.
	Run(ctx context.Context, id string) error

	// List returns comparisons using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*ComparisonListResult, error)

	// Get returns a single comparison by its ID.
	Get(ctx context.Context, id string) (*model.Comparison, error)

	// Changes returns a page of a comparison's detected changes, optionally
	// filtered by change type.
	Changes(ctx context.Context, id string, changeType model.ChangeType, limit, offset int) (*ChangeListResult, error)

	// Delete removes a comparison and its changes.
	Delete(ctx context.Context, id string) error
}

type comparisonService struct {
	repo       repository.ComparisonRepository
	docs       repository.DocumentRepository
	comparator *analysis.Comparator
	analyzer   Analyzer
	cache      AnalysisCache
	jobs       JobEnqueuer
}

// NewComparisonService constructs a new ComparisonService. cache may be nil
// when Redis is not configured.
func NewComparisonService(
	repo repository.ComparisonRepository,
	docs repository.DocumentRepository,
	comparator *analysis.Comparator,
	analyzer Analyzer,
	cache AnalysisCache,
	jobs JobEnqueuer,
) ComparisonService {
	return &comparisonService{
		repo:       repo,
		docs:       docs,
		comparator: comparator,
		analyzer:   analyzer,
		cache:      cache,
		jobs:       jobs,
	}
}

func (s *comparisonService) Create(ctx context.Context, in CreateComparisonInput) (*model.Comparison, error) {
	if in.BaseDocumentID == "" || in.ComparedDocumentID == "" {
		return nil, ErrIDRequired
	}
	if in.BaseDocumentID == in.ComparedDocumentID {
		return nil, ErrSameDocument
	}

	base, err := s.processedDocument(ctx, in.BaseDocumentID)
	if err != nil {
		return nil, err
	}
	compared, err := s.processedDocument(ctx, in.ComparedDocumentID)
	if err != nil {
		return nil, err
	}

	analysisType := in.AnalysisType
	if analysisType == "" {
		analysisType = model.AnalysisTypeDiff
	}
	if analysisType != model.AnalysisTypeDiff && analysisType != model.AnalysisTypeOllama {
		return nil, ErrInvalidAnalysisType
	}

	options := model.DefaultCompareOptions()
	if in.Options != nil {
		options = *in.Options
	}

	title := in.Title
	if title == "" {
		title = fmt.Sprintf("%s v%s vs %s v%s", base.Title, base.Version, compared.Title, compared.Version)
	}

	cmp := &model.Comparison{
		ID:                 uuid.New().String(),
		Title:              title,
		BaseDocumentID:     base.ID,
		ComparedDocumentID: compared.ID,
		Status:             model.ComparisonStatusPending,
		AnalysisType:       analysisType,
		Options:            options,
		CreatedAt:          time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, cmp)
	if err != nil {
		return nil, fmt.Errorf("create comparison: %w", err)
	}

	if err := s.jobs.Publish(ctx, queue.Job{Type: queue.JobRunComparison, ID: stored.ID}); err != nil {
		return nil, fmt.Errorf("enqueue comparison job: %w", err)
	}
	return stored, nil
}

func (s *comparisonService) processedDocument(ctx context.Context, id string) (*model.Document, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.Status != model.DocumentStatusProcessed {
		return nil, ErrDocumentNotProcessed
	}
	return doc, nil
}

// Run executes the pipeline for one comparison. Failures are recorded on the
// comparison row.
func (s *comparisonService) Run(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	cmp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrComparisonNotFound
		}
		return err
	}

	if err := s.repo.SetStatus(ctx, id, model.ComparisonStatusProcessing, ""); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	if err := s.run(ctx, cmp); err != nil {
		if setErr := s.repo.SetStatus(ctx, id, model.ComparisonStatusError, err.Error()); setErr != nil {
			return fmt.Errorf("comparison failed: %v; record error failed: %v", err, setErr)
		}
		return err
	}
	return nil
}

func (s *comparisonService) run(ctx context.Context, cmp *model.Comparison) error {
	started := time.Now()

	base, err := s.documentView(ctx, cmp.BaseDocumentID)
	if err != nil {
		return err
	}
	compared, err := s.documentView(ctx, cmp.ComparedDocumentID)
	if err != nil {
		return err
	}

	var changes []model.Change
	switch cmp.AnalysisType {
	case model.AnalysisTypeDiff:
		result := s.comparator.Compare(*base, *compared, cmp.Options)
		changes = result.Changes
		cmp.Summary = result.Summary
	case model.AnalysisTypeOllama:
		llmResult, err := s.analyze(ctx, base.Document, compared.Document)
		if err != nil {
			return err
		}
		changes = changesFromAnalysis(llmResult)
		cmp.Summary = analysis.Summarize(changes)
		cmp.AnalysisResult = llmResult
	default:
		return ErrInvalidAnalysisType
	}

	for i := range changes {
		changes[i].ID = uuid.New().String()
		changes[i].ComparisonID = cmp.ID
	}
	if err := s.repo.ReplaceChanges(ctx, cmp.ID, changes); err != nil {
		return fmt.Errorf("save changes: %w", err)
	}

	cmp.ProcessingMS = time.Since(started).Milliseconds()
	if err := s.repo.Complete(ctx, cmp); err != nil {
		return fmt.Errorf("complete comparison: %w", err)
	}
	return nil
}

func (s *comparisonService) documentView(ctx context.Context, id string) (*analysis.DocumentView, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sections, err := s.docs.ListSections(ctx, id)
	if err != nil {
		return nil, err
	}
	tables, err := s.docs.ListTables(ctx, id)
	if err != nil {
		return nil, err
	}
	return &analysis.DocumentView{Document: doc, Sections: sections, Tables: tables}, nil
}

// analyze runs the LLM comparison, consulting the cache first. Cache errors
// only cost the shortcut, never the run.
func (s *comparisonService) analyze(ctx context.Context, base, compared *model.Document) (*model.LLMAnalysis, error) {
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, base.Checksum, compared.Checksum); err == nil && ok {
			return cached, nil
		}
	}

	result, err := s.analyzer.CompareDocuments(ctx, base, compared)
	if err != nil {
		return nil, fmt.Errorf("llm analysis: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, base.Checksum, compared.Checksum, result)
	}
	return result, nil
}

// changesFromAnalysis maps model-reported differences to change rows.
func changesFromAnalysis(result *model.LLMAnalysis) []model.Change {
	changes := make([]model.Change, 0, len(result.Differences))
	for _, d := range result.Differences {
		changes = append(changes, model.Change{
			Type:       changeTypeFrom(d.Type),
			Location:   locationFrom(d.Location),
			Section:    d.Location,
			OldValue:   d.OldValue,
			NewValue:   d.NewValue,
			Confidence: llm.ConfidenceFor(d.Significance),
			Context:    map[string]any{"description": d.Description, "significance": d.Significance},
		})
	}
	return changes
}

func changeTypeFrom(s string) model.ChangeType {
	switch model.ChangeType(s) {
	case model.ChangeTypeAdded, model.ChangeTypeRemoved, model.ChangeTypeModified, model.ChangeTypeMoved:
		return model.ChangeType(s)
	default:
		return model.ChangeTypeModified
	}
}

func locationFrom(s string) model.ChangeLocation {
	switch model.ChangeLocation(s) {
	case model.LocationText, model.LocationTable, model.LocationSection,
		model.LocationHeader, model.LocationStructure, model.LocationMetadata:
		return model.ChangeLocation(s)
	default:
		return model.LocationText
	}
}

// List returns paginated comparisons without exposing repository types.
func (s *comparisonService) List(ctx context.Context, limit, offset int) (*ComparisonListResult, error) {
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
	return &ComparisonListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a comparison by ID.
func (s *comparisonService) Get(ctx context.Context, id string) (*model.Comparison, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	cmp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrComparisonNotFound
		}
		return nil, err
	}
	return cmp, nil
}

// Changes returns a page of a comparison's detected changes.
func (s *comparisonService) Changes(ctx context.Context, id string, changeType model.ChangeType, limit, offset int) (*ChangeListResult, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > changePageLimit {
		limit = changePageLimit
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.ListChanges(ctx, id, changeType, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ChangeListResult{Items: res.Items, Total: res.Total}, nil
}

// Delete removes a comparison by ID.
func (s *comparisonService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
