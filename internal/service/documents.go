package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_service.go -package=mocks documind/internal/service DocumentService

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"documind/internal/blob"
	"documind/internal/contextutil"
	"documind/internal/extract"
	"documind/internal/graphstore"
	"documind/internal/queue"
	"documind/internal/storage"
	"documind/internal/vectorstore"
)

const (
	// DefaultMaxFileSize is the upload limit when none is configured.
	DefaultMaxFileSize = 10 << 20

	queueFailedMessage = "Failed to queue document for processing"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// UploadRequest is a file to store and index.
type UploadRequest struct {
	UserID   string `validate:"required"`
	Filename string `validate:"required,max=255"`
	// MIMEType may be empty or generic; it is then inferred from Filename.
	MIMEType string
	Data     []byte
}

// UploadResult identifies an accepted document.
type UploadResult struct {
	DocID    string                   `json:"docId"`
	Filename string                   `json:"filename"`
	Status   storage.ProcessingStatus `json:"status"`
	TaskID   string                   `json:"taskId,omitempty"`
}

// UpdateRequest changes the editable fields of a document. Nil fields are kept.
type UpdateRequest struct {
	Filename *string `validate:"omitempty,min=1,max=255"`
	Title    *string `validate:"omitempty,max=500"`
	Author   *string `validate:"omitempty,max=255"`
	Subject  *string `validate:"omitempty,max=500"`
}

// DownloadLink is a time-limited URL for the original file.
type DownloadLink struct {
	URL       string    `json:"downloadUrl"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DeleteReport describes what a deletion removed. A failing store is reported
// and never stops the others.
type DeleteReport struct {
	Deleted  bool     `json:"deleted"`
	Warnings []string `json:"warnings,omitempty"`
	Skipped  []string `json:"skipped,omitempty"`
}

// DocumentService manages the lifecycle of uploaded documents.
type DocumentService interface {
	// Upload stores the file, records a pending document and queues ingestion.
	Upload(ctx context.Context, req UploadRequest) (UploadResult, error)
	List(ctx context.Context, userID string, page, limit int) (storage.Page, error)
	Get(ctx context.Context, docID, userID string) (*storage.Document, error)
	Update(ctx context.Context, docID, userID string, req UpdateRequest) (*storage.Document, error)
	DownloadURL(ctx context.Context, docID, userID string) (DownloadLink, error)
	// Delete removes the document from every store.
	Delete(ctx context.Context, docID, userID string) (DeleteReport, error)
	// Reprocess resets a document to pending and queues ingestion again.
	Reprocess(ctx context.Context, docID, userID string) (UploadResult, error)
}

// DocumentDeps are the stores a DocumentService coordinates.
type DocumentDeps struct {
	Documents storage.DocumentStore
	Blobs     blob.Store
	Vectors   vectorstore.VectorStore
	Graph     graphstore.GraphStore
	Queue     queue.Submitter
}

// DocumentConfig holds limits for the DocumentService.
type DocumentConfig struct {
	MaxFileSize int64
	PresignTTL  time.Duration
	// StuckAfter is how long processing may last before reprocessing is allowed.
	StuckAfter time.Duration
}

// documentService implements DocumentService.
type documentService struct {
	DocumentDeps
	cfg DocumentConfig
	now func() time.Time
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(deps DocumentDeps, cfg DocumentConfig) DocumentService {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = blob.DefaultPresignTTL
	}
	if cfg.StuckAfter <= 0 {
		cfg.StuckAfter = time.Hour
	}
	return &documentService{DocumentDeps: deps, cfg: cfg, now: time.Now}
}

func (s *documentService) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	req.Filename = cleanFilename(req.Filename)
	if err := validateStruct(req); err != nil {
		return UploadResult{}, err
	}
	mimeType := resolveMIME(req.MIMEType, req.Filename)
	if !extract.Supported(mimeType) {
		return UploadResult{}, &ValidationError{
			Field:   "file",
			Message: "unsupported file type; supported types are PDF, DOCX, DOC, TXT and Markdown",
		}
	}
	if len(req.Data) == 0 {
		return UploadResult{}, &ValidationError{Field: "file", Message: "file is empty"}
	}
	if int64(len(req.Data)) > s.cfg.MaxFileSize {
		return UploadResult{}, fmt.Errorf("%w: limit is %d MB", ErrFileTooLarge, s.cfg.MaxFileSize>>20)
	}

	docID := uuid.NewString()
	key := blob.Key(req.UserID, docID, req.Filename)
	_, err := s.Blobs.Put(ctx, key, req.Data, mimeType, map[string]string{
		"user-id":       req.UserID,
		"doc-id":        docID,
		"original-name": blob.SanitizeHeaderValue(req.Filename),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to store file", "error", err)
		return UploadResult{}, fmt.Errorf("%w: failed to store file: %w", ErrExternalService, err)
	}

	doc := &storage.Document{
		DocID:            docID,
		UserID:           req.UserID,
		Filename:         req.Filename,
		OriginalName:     req.Filename,
		MIMEType:         mimeType,
		Size:             int64(len(req.Data)),
		BlobKey:          key,
		ProcessingStatus: storage.StatusPending,
	}
	if err := s.Documents.Insert(ctx, doc); err != nil {
		if derr := s.Blobs.Delete(context.WithoutCancel(ctx), key); derr != nil {
			logger.WarnContext(ctx, "failed to remove stored file after insert failure", "error", derr)
		}
		return UploadResult{}, WrapError(err, "failed to save document record")
	}

	res := UploadResult{DocID: docID, Filename: req.Filename, Status: storage.StatusPending}
	res.TaskID, err = s.submit(ctx, docID, req.UserID)
	if err != nil {
		return res, err
	}

	logger.InfoContext(ctx, "document uploaded", "doc_id", docID, "size", len(req.Data), "mime_type", mimeType)
	return res, nil
}

// submit queues ingestion. A document that cannot be queued is marked failed
// so it is never left pending forever.
func (s *documentService) submit(ctx context.Context, docID, userID string) (string, error) {
	taskID, err := s.Queue.SubmitIngest(ctx, docID, userID)
	if err == nil {
		return taskID, nil
	}
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "failed to queue ingestion", "doc_id", docID, "error", err)
	uerr := s.Documents.UpdateStatus(context.WithoutCancel(ctx), docID, userID, storage.StatusUpdate{
		Status:       storage.StatusFailed,
		ErrorMessage: queueFailedMessage,
	})
	if uerr != nil {
		logger.ErrorContext(ctx, "failed to mark document failed", "doc_id", docID, "error", uerr)
	}
	return "", fmt.Errorf("%w: %s: %w", ErrExternalService, strings.ToLower(queueFailedMessage), err)
}

func (s *documentService) List(ctx context.Context, userID string, page, limit int) (storage.Page, error) {
	if userID == "" {
		return storage.Page{}, &ValidationError{Field: "userId", Message: "is required"}
	}
	p, err := s.Documents.List(ctx, userID, page, limit)
	if err != nil {
		return storage.Page{}, WrapError(err, "failed to list documents")
	}
	return p, nil
}

func (s *documentService) Get(ctx context.Context, docID, userID string) (*storage.Document, error) {
	doc, err := s.Documents.Get(ctx, docID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return nil, WrapError(err, "failed to get document")
	}
	return doc, nil
}

func (s *documentService) Update(ctx context.Context, docID, userID string, req UpdateRequest) (*storage.Document, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if req.Filename != nil {
		name := cleanFilename(*req.Filename)
		if name == "" {
			return nil, &ValidationError{Field: "filename", Message: "cannot be empty"}
		}
		req.Filename = &name
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Filename == nil && req.Title == nil && req.Author == nil && req.Subject == nil {
		return nil, &ValidationError{Field: "body", Message: "no updatable fields provided"}
	}

	doc, err := s.Documents.Patch(ctx, docID, userID, storage.DocumentPatch{
		Filename: req.Filename,
		Title:    req.Title,
		Author:   req.Author,
		Subject:  req.Subject,
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return nil, WrapError(err, "failed to update document")
	}

	// Topic modeling reads titles from the graph; keep the Document node in step.
	if (req.Filename != nil || req.Title != nil) && doc.ProcessingStatus == storage.StatusCompleted {
		err := s.Graph.UpsertDocument(ctx, graphstore.DocumentNode{
			DocID:     doc.DocID,
			UserID:    doc.UserID,
			Filename:  doc.Filename,
			Title:     doc.Metadata.Title,
			CreatedAt: doc.UploadedAt,
		})
		if err != nil {
			logger.WarnContext(ctx, "failed to sync document node", "doc_id", docID, "error", err)
		}
	}
	return doc, nil
}

func (s *documentService) DownloadURL(ctx context.Context, docID, userID string) (DownloadLink, error) {
	doc, err := s.Get(ctx, docID, userID)
	if err != nil {
		return DownloadLink{}, err
	}
	url, err := s.Blobs.PresignGet(ctx, doc.BlobKey, s.cfg.PresignTTL)
	if err != nil {
		return DownloadLink{}, fmt.Errorf("%w: failed to create download url: %w", ErrExternalService, err)
	}
	return DownloadLink{
		URL:       url,
		Filename:  doc.Filename,
		ExpiresAt: s.now().Add(s.cfg.PresignTTL).UTC(),
	}, nil
}

func (s *documentService) Delete(ctx context.Context, docID, userID string) (DeleteReport, error) {
	logger := contextutil.LoggerFromContext(ctx).With("doc_id", docID)

	doc, err := s.Get(ctx, docID, userID)
	if err != nil {
		return DeleteReport{}, err
	}

	var (
		mu     sync.Mutex
		report DeleteReport
	)
	warn := func(msg string, err error) {
		logger.WarnContext(ctx, msg, "error", err)
		mu.Lock()
		report.Warnings = append(report.Warnings, msg)
		mu.Unlock()
	}

	// Vectors go first so a half-deleted document is never searchable.
	if err := s.Vectors.DeleteByDocument(ctx, docID, userID); err != nil {
		if errors.Is(err, vectorstore.ErrStoreUnavailable) {
			report.Skipped = append(report.Skipped, "vectors")
			warn("vector store skipped", err)
		} else {
			warn("failed to delete vectors", err)
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := s.Documents.Delete(ctx, docID, userID); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				warn("failed to delete document record", err)
				return nil
			}
		}
		mu.Lock()
		report.Deleted = true
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		if err := s.Blobs.Delete(ctx, doc.BlobKey); err != nil {
			warn("failed to delete stored file", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.Graph.DeleteDocumentSubgraph(ctx, docID, userID); err != nil {
			warn("failed to delete graph data", err)
		}
		return nil
	})
	_ = g.Wait()

	logger.InfoContext(ctx, "document deleted", "deleted", report.Deleted, "warnings", len(report.Warnings))
	return report, nil
}

func (s *documentService) Reprocess(ctx context.Context, docID, userID string) (UploadResult, error) {
	doc, err := s.Get(ctx, docID, userID)
	if err != nil {
		return UploadResult{}, err
	}
	if doc.ProcessingStatus == storage.StatusProcessing && s.now().Sub(doc.UpdatedAt) < s.cfg.StuckAfter {
		return UploadResult{}, fmt.Errorf("document %s is still processing: %w", docID, ErrConflict)
	}

	err = s.Documents.UpdateStatus(ctx, docID, userID, storage.StatusUpdate{Status: storage.StatusPending})
	if err != nil {
		return UploadResult{}, WrapError(err, "failed to reset document status")
	}

	res := UploadResult{DocID: docID, Filename: doc.Filename, Status: storage.StatusPending}
	res.TaskID, err = s.submit(ctx, docID, userID)
	if err != nil {
		return res, err
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "document requeued", "doc_id", docID, "previous_status", doc.ProcessingStatus)
	return res, nil
}

// cleanFilename drops any directory part a client sent.
func cleanFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := filepath.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func resolveMIME(mimeType, filename string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		return extract.MIMETypeFromFilename(filename)
	}
	if !extract.Supported(mimeType) {
		// Browsers report markdown as text/x-markdown or similar.
		if inferred := extract.MIMETypeFromFilename(filename); inferred != "" && strings.HasPrefix(mimeType, "text/") {
			return inferred
		}
	}
	return mimeType
}

// validateStruct runs struct tag validation and reports the first failure.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: lowerFirst(fe.Field()), Message: fmt.Sprintf("failed %q validation", fe.Tag())}
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	if strings.HasSuffix(s, "ID") && len(s) > 2 {
		s = s[:len(s)-2] + "Id"
	}
	return strings.ToLower(s[:1]) + s[1:]
}
