package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yunhan0/recall/internal/extract"
	"github.com/yunhan0/recall/internal/ingest"
	"github.com/yunhan0/recall/internal/knowledge"
	"github.com/yunhan0/recall/internal/log"
)

// MaxUploadBytes bounds a single document upload.
const MaxUploadBytes = 32 << 20 // 32 MiB

// Document list pagination bounds.
const (
	documentsDefaultLimit = 50
	documentsMaxLimit     = 200
	maxListOffset         = 10000
)

// ingestor runs the document ingestion pipeline.
type ingestor interface {
	IngestWithMeta(ctx context.Context, filename string, data []byte, meta ingest.Meta) (knowledge.Document, error)
}

// documentStore reads and deletes stored documents.
type documentStore interface {
	GetDocument(ctx context.Context, id uuid.UUID) (knowledge.Document, error)
	ListDocuments(ctx context.Context, limit, offset int) ([]knowledge.Document, int, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

// DocumentsHandler handles document upload and management endpoints.
type DocumentsHandler struct {
	pipeline ingestor
	store    documentStore
	logger   log.Logger
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(pipeline ingestor, store documentStore, logger log.Logger) *DocumentsHandler {
	return &DocumentsHandler{pipeline: pipeline, store: store, logger: logger}
}

// RegisterRoutes registers document routes on the given mux.
func (h *DocumentsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /agent/documents", h.upload)
	mux.HandleFunc("GET /agent/documents", h.list)
	mux.HandleFunc("GET /agent/documents/{id}", h.get)
	mux.HandleFunc("DELETE /agent/documents/{id}", h.remove)
}

// upload ingests one multipart file upload. Accepted types: .txt, .md, .pdf.
func (h *DocumentsHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "missing file field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	if !extract.Supported(header.Filename) {
		writeError(w, http.StatusBadRequest, "validation_error",
			"unsupported file type (accepted: .txt, .md, .pdf)")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "validation_error", "file too large")
			return
		}
		h.logger.Error("reading upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to read upload")
		return
	}

	doc, err := h.pipeline.IngestWithMeta(r.Context(), header.Filename, data, uploadMeta(r))
	if err != nil {
		h.logger.Error("ingestion failed", "filename", header.Filename, "error", err)
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// uploadMeta collects the optional metadata form fields of an upload.
// Categories are comma separated; blank segments are dropped.
func uploadMeta(r *http.Request) ingest.Meta {
	meta := ingest.Meta{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Summary: strings.TrimSpace(r.FormValue("summary")),
	}
	for _, c := range strings.Split(r.FormValue("categories"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			meta.Categories = append(meta.Categories, c)
		}
	}
	return meta
}

// list returns documents without raw content, newest first, paginated by
// ?limit and ?offset.
func (h *DocumentsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", documentsDefaultLimit, 1, documentsMaxLimit)
	offset := parseIntParam(r, "offset", 0, 0, maxListOffset)

	docs, total, err := h.store.ListDocuments(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("listing documents failed", "error", err)
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// get returns one document.
func (h *DocumentsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.store.GetDocument(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// remove deletes a document and its indexed chunks.
func (h *DocumentsHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteDocument(r.Context(), id); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseIntParam parses an integer query parameter with bounds checking.
func parseIntParam(r *http.Request, name string, defaultVal, min, max int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// pathID parses the {id} path value as a UUID, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
