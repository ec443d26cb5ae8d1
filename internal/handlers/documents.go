package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"documind/internal/contextutil"
	"documind/internal/service"
	"documind/internal/storage"
)

// multipartOverhead is allowed on top of the file size limit for the form envelope.
const multipartOverhead = 1 << 20

// DocumentHandler handles the document lifecycle endpoints.
type DocumentHandler struct {
	documents   service.DocumentService
	maxFileSize int64
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documents service.DocumentService, maxFileSize int64) *DocumentHandler {
	if maxFileSize <= 0 {
		maxFileSize = service.DefaultMaxFileSize
	}
	return &DocumentHandler{documents: documents, maxFileSize: maxFileSize}
}

// UpdateDocumentRequest is the PATCH payload. Omitted fields are unchanged.
//
// swagger:model UpdateDocumentRequest
type UpdateDocumentRequest struct {
	Filename *string `json:"filename,omitempty"`
	Title    *string `json:"title,omitempty"`
	Author   *string `json:"author,omitempty"`
	Subject  *string `json:"subject,omitempty"`
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ListDocumentsResponse is one page of the caller's documents.
//
// swagger:model ListDocumentsResponse
type ListDocumentsResponse struct {
	Documents  []storage.Document `json:"documents"`
	Pagination Pagination         `json:"pagination"`
}

// Upload accepts a multipart "file" field, stores it and queues ingestion.
//
// swagger:route POST /api/documents uploadDocument
//
// Returns 202 with {docId, filename, status, taskId}.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	limit := h.maxFileSize + multipartOverhead
	if r.ContentLength > limit {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d MB limit", h.maxFileSize>>20))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d MB limit", h.maxFileSize>>20))
			return
		}
		logger.WarnContext(ctx, "missing upload file", "error", err)
		writeError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d MB limit", h.maxFileSize>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	res, err := h.documents.Upload(ctx, service.UploadRequest{
		UserID:   contextutil.UserIDFromContext(ctx),
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to upload document")
		return
	}
	logger.InfoContext(ctx, "document uploaded", "doc_id", res.DocID, "size", len(data))
	writeJSON(ctx, w, http.StatusAccepted, res)
}

// List returns a page of the caller's documents, newest first.
//
// swagger:route GET /api/documents listDocuments
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.documents.List(ctx, contextutil.UserIDFromContext(ctx), page, limit)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list documents")
		return
	}
	docs := res.Documents
	if docs == nil {
		docs = []storage.Document{}
	}
	writeJSON(ctx, w, http.StatusOK, ListDocumentsResponse{
		Documents: docs,
		Pagination: Pagination{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		},
	})
}

// Get returns one document.
//
// swagger:route GET /api/documents/{docId} getDocument
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.documents.Get(ctx, chi.URLParam(r, "docId"), contextutil.UserIDFromContext(ctx))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, doc)
}

// Update changes the filename or the title, author and subject metadata.
//
// swagger:route PATCH /api/documents/{docId} updateDocument
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := h.documents.Update(ctx, chi.URLParam(r, "docId"), contextutil.UserIDFromContext(ctx), service.UpdateRequest{
		Filename: req.Filename,
		Title:    req.Title,
		Author:   req.Author,
		Subject:  req.Subject,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to update document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, doc)
}

// Download returns a presigned URL for the original file, or redirects to
// it when redirect=true.
//
// swagger:route GET /api/documents/{docId}/download downloadDocument
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	link, err := h.documents.DownloadURL(ctx, chi.URLParam(r, "docId"), contextutil.UserIDFromContext(ctx))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to create download link")
		return
	}
	if r.URL.Query().Get("redirect") == "true" {
		http.Redirect(w, r, link.URL, http.StatusFound)
		return
	}
	writeJSON(ctx, w, http.StatusOK, link)
}

// Delete removes the document from every store and reports what was skipped.
//
// swagger:route DELETE /api/documents/{docId} deleteDocument
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID := chi.URLParam(r, "docId")
	report, err := h.documents.Delete(ctx, docID, contextutil.UserIDFromContext(ctx))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to delete document")
		return
	}
	if len(report.Warnings) > 0 {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "document deleted with warnings", "doc_id", docID, "warnings", report.Warnings)
	}
	writeJSON(ctx, w, http.StatusOK, report)
}

// Reprocess queues ingestion again for a failed or stuck document.
//
// swagger:route POST /api/documents/{docId}/reprocess reprocessDocument
func (h *DocumentHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.documents.Reprocess(ctx, chi.URLParam(r, "docId"), contextutil.UserIDFromContext(ctx))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to reprocess document")
		return
	}
	writeJSON(ctx, w, http.StatusAccepted, res)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}
