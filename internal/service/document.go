package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"wara/internal/docx"
	"wara/internal/model"
	"wara/internal/queue"
	"wara/internal/repository"
	"wara/internal/storage"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNotFound        = errors.New("document not found")
	ErrReaderNil       = errors.New("reader is nil")
	ErrInvalidFileType = errors.New("only .docx files are supported")
	ErrFileTooLarge    = errors.New("file exceeds the maximum allowed size")
	ErrFilenameTooLong = errors.New("filename is too long")
	ErrNotProcessed    = errors.New("document has not been processed yet")
)

// firstVersion is assigned to the root revision of a new document family.
const firstVersion = "1.0"

// presignExpiry bounds how long a download URL stays valid.
const presignExpiry = 15 * time.Minute

// JobEnqueuer publishes background jobs. Satisfied by queue.Publisher.
type JobEnqueuer interface {
	Publish(ctx context.Context, job queue.Job) error
}

// InsightExtractor is the slice of the LLM client the document service uses.
type InsightExtractor interface {
	KeyPoints(ctx context.Context, doc *model.Document) ([]model.KeyPoint, error)
	Sentiment(ctx context.Context, doc *model.Document) (*model.SentimentAnalysis, error)
}

// UploadLimits constrains incoming files.
type UploadLimits struct {
	MaxFileSizeBytes int64
	MaxFilenameLen   int
}

// UploadInput carries the caller-supplied fields of an upload.
type UploadInput struct {
	Title            string
	OriginalFilename string
	ContentType      string
	Size             int64
	VersionNotes     string
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentContent bundles a processed document with its extracted pieces.
type DocumentContent struct {
	Document *model.Document `json:"document"`
	Sections []model.Section `json:"sections"`
	Tables   []model.Table   `json:"tables"`
}

// DocumentService defines the use cases for handling document revisions.
type DocumentService interface {
	// Upload stores the content, creates the root revision of a new family
	// and enqueues the processing job. Storage is rolled back if the DB save
	// fails.
	Upload(ctx context.Context, r io.Reader, in UploadInput) (*model.Document, error)

	// NewVersion uploads a new revision of an existing document, bumps the
	// minor version and moves the latest flag.
	NewVersion(ctx context.Context, documentID string, r io.Reader, in UploadInput) (*model.Document, error)

	// Process extracts text, sections, tables and metadata from the stored
	// blob. Runs on the worker.
	Process(ctx context.Context, id string) error

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Versions returns the revision family of a document, newest first.
	Versions(ctx context.Context, id string) ([]model.Document, error)

	// Content returns a processed document with its sections and tables.
	Content(ctx context.Context, id string) (*DocumentContent, error)

	// DownloadURL returns a presigned URL for the original blob.
	DownloadURL(ctx context.Context, id string) (string, error)

	// KeyPoints returns stored key points, extracting them through the LLM
	// on first request.
	KeyPoints(ctx context.Context, id string) ([]model.KeyPoint, error)

	// Sentiment runs an LLM tone analysis over a processed document.
	Sentiment(ctx context.Context, id string) (*model.SentimentAnalysis, error)

	// Delete removes a document from both storage and the repository.
	Delete(ctx context.Context, id string) error
}

type documentService struct {
	store     storage.Storage
	repo      repository.DocumentRepository
	extractor *docx.Extractor
	jobs      JobEnqueuer
	llm       InsightExtractor
	limits    UploadLimits
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Storage,
	repo repository.DocumentRepository,
	extractor *docx.Extractor,
	jobs JobEnqueuer,
	llm InsightExtractor,
	limits UploadLimits,
) DocumentService {
	return &documentService{
		store:     store,
		repo:      repo,
		extractor: extractor,
		jobs:      jobs,
		llm:       llm,
		limits:    limits,
	}
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, in UploadInput) (*model.Document, error) {
	doc, err := s.upload(ctx, r, in, nil, firstVersion)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) NewVersion(ctx context.Context, documentID string, r io.Reader, in UploadInput) (*model.Document, error) {
	if documentID == "" {
		return nil, ErrIDRequired
	}
	// Reject bad uploads before touching the latest flag, otherwise a failed
	// revision would leave the family without a latest row.
	if err := s.validateUpload(in); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Revisions always hang off the family root.
	rootID := existing.ID
	if existing.ParentDocumentID != nil {
		rootID = *existing.ParentDocumentID
	}

	versions, err := s.repo.ListVersions(ctx, rootID)
	if err != nil {
		return nil, err
	}
	latestVersion := existing.Version
	for _, v := range versions {
		if v.IsLatest {
			latestVersion = v.Version
			break
		}
	}

	if err := s.repo.ClearLatest(ctx, rootID); err != nil {
		return nil, fmt.Errorf("clear latest flag: %w", err)
	}

	return s.upload(ctx, r, in, &rootID, bumpVersion(latestVersion))
}

func (s *documentService) upload(ctx context.Context, r io.Reader, in UploadInput, parentID *string, version string) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if err := s.validateUpload(in); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if s.limits.MaxFileSizeBytes > 0 && int64(len(content)) > s.limits.MaxFileSizeBytes {
		return nil, ErrFileTooLarge
	}

	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	// Stored filename is UUID + original extension; the original name only
	// survives as object metadata.
	genName := uuid.New().String() + filepath.Ext(in.OriginalFilename)
	key := storage.DocumentKey(genName)

	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(content), storage.PutObjectOptions{
		Size:        int64(len(content)),
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.OriginalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	title := in.Title
	if title == "" {
		title = strings.TrimSuffix(in.OriginalFilename, filepath.Ext(in.OriginalFilename))
	}

	doc := &model.Document{
		ID:               uuid.New().String(),
		Title:            title,
		Filename:         genName,
		StoragePath:      objInfo.Key,
		Size:             objInfo.Size,
		ContentType:      objInfo.ContentType,
		Checksum:         checksum,
		Version:          version,
		Status:           model.DocumentStatusUploaded,
		ParentDocumentID: parentID,
		IsLatest:         true,
		VersionNotes:     in.VersionNotes,
		UploadedAt:       time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if err := s.jobs.Publish(ctx, queue.Job{Type: queue.JobProcessDocument, ID: stored.ID}); err != nil {
		return nil, fmt.Errorf("enqueue processing job: %w", err)
	}
	return stored, nil
}

func (s *documentService) validateUpload(in UploadInput) error {
	if !strings.EqualFold(filepath.Ext(in.OriginalFilename), ".docx") {
		return ErrInvalidFileType
	}
	if s.limits.MaxFilenameLen > 0 && len(in.OriginalFilename) > s.limits.MaxFilenameLen {
		return ErrFilenameTooLong
	}
	if s.limits.MaxFileSizeBytes > 0 && in.Size > s.limits.MaxFileSizeBytes {
		return ErrFileTooLarge
	}
	return nil
}

// Process downloads the stored blob, extracts its content and persists the
// results. Failures are recorded on the document row.
func (s *documentService) Process(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := s.repo.SetStatus(ctx, id, model.DocumentStatusProcessing, ""); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	if err := s.process(ctx, doc); err != nil {
		if setErr := s.repo.SetStatus(ctx, id, model.DocumentStatusError, err.Error()); setErr != nil {
			return fmt.Errorf("processing failed: %v; record error failed: %v", err, setErr)
		}
		return err
	}
	return nil
}

func (s *documentService) process(ctx context.Context, doc *model.Document) error {
	rc, _, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return fmt.Errorf("fetch blob: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read blob: %w", err)
	}

	content, err := s.extractor.Extract(data)
	if err != nil {
		return fmt.Errorf("extract content: %w", err)
	}

	doc.ContentText = content.Text
	doc.Structure = content.Structure
	doc.Metadata = content.Metadata
	if err := s.repo.SaveExtracted(ctx, doc); err != nil {
		return fmt.Errorf("save extracted content: %w", err)
	}

	sections := content.Sections
	for i := range sections {
		sections[i].ID = uuid.New().String()
		sections[i].DocumentID = doc.ID
	}
	if err := s.repo.ReplaceSections(ctx, doc.ID, sections); err != nil {
		return fmt.Errorf("save sections: %w", err)
	}

	tables := content.Tables
	for i := range tables {
		tables[i].ID = uuid.New().String()
		tables[i].DocumentID = doc.ID
	}
	if err := s.repo.ReplaceTables(ctx, doc.ID, tables); err != nil {
		return fmt.Errorf("save tables: %w", err)
	}
	return nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
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
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Versions returns the revision family of a document, newest first.
func (s *documentService) Versions(ctx context.Context, id string) ([]model.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rootID := doc.ID
	if doc.ParentDocumentID != nil {
		rootID = *doc.ParentDocumentID
	}
	return s.repo.ListVersions(ctx, rootID)
}

// Content returns a processed document together with its extracted pieces.
func (s *documentService) Content(ctx context.Context, id string) (*DocumentContent, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.DocumentStatusProcessed {
		return nil, ErrNotProcessed
	}

	sections, err := s.repo.ListSections(ctx, id)
	if err != nil {
		return nil, err
	}
	tables, err := s.repo.ListTables(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DocumentContent{Document: doc, Sections: sections, Tables: tables}, nil
}

// DownloadURL returns a presigned URL for the original blob.
func (s *documentService) DownloadURL(ctx context.Context, id string) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, doc.StoragePath, presignExpiry)
}

// KeyPoints returns stored key points, extracting them on first request.
func (s *documentService) KeyPoints(ctx context.Context, id string) ([]model.KeyPoint, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.DocumentStatusProcessed {
		return nil, ErrNotProcessed
	}
	if len(doc.KeyPoints) > 0 {
		return doc.KeyPoints, nil
	}

	points, err := s.llm.KeyPoints(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("extract key points: %w", err)
	}
	if err := s.repo.SetKeyPoints(ctx, id, points); err != nil {
		return nil, fmt.Errorf("store key points: %w", err)
	}
	return points, nil
}

// Sentiment runs an LLM tone analysis over a processed document. The result
// is not persisted; the LLM client caches nothing and callers are expected to
// treat it as advisory.
func (s *documentService) Sentiment(ctx context.Context, id string) (*model.SentimentAnalysis, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.DocumentStatusProcessed {
		return nil, ErrNotProcessed
	}

	sentiment, err := s.llm.Sentiment(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("analyze sentiment: %w", err)
	}
	return sentiment, nil
}

// Delete removes a document from storage, then deletes its record.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	// Find the document to get its storage path
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	// Delete from storage first; if this fails, keep DB row to avoid orphaned storage reference loss
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	// Delete DB row (repository ignores missing row errors as per contract)
	return s.repo.Delete(ctx, id)
}

// bumpVersion increments the minor component of an "X.Y" version string.
// Unparseable versions get ".1" appended instead.
func bumpVersion(version string) string {
	idx := strings.LastIndex(version, ".")
	if idx > 0 {
		minor, err := strconv.Atoi(version[idx+1:])
		if err == nil {
			return version[:idx+1] + strconv.Itoa(minor+1)
		}
	}
	return version + ".1"
}
