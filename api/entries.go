package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/yunhan0/recall/internal/knowledge"
	"github.com/yunhan0/recall/internal/log"
)

// MaxTermLength bounds an entry term supplied over the API.
const MaxTermLength = 200

// entryStore is the entry CRUD surface of the knowledge store.
type entryStore interface {
	UpsertEntry(ctx context.Context, entry knowledge.Entry) (knowledge.Entry, error)
	GetEntry(ctx context.Context, id uuid.UUID) (knowledge.Entry, error)
	ListEntries(ctx context.Context, search string) ([]knowledge.Entry, error)
	UpdateEntry(ctx context.Context, entry knowledge.Entry) (knowledge.Entry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
}

// EntriesHandler handles study entry CRUD endpoints.
type EntriesHandler struct {
	store  entryStore
	logger log.Logger
}

// NewEntriesHandler creates a new entries handler.
func NewEntriesHandler(store entryStore, logger log.Logger) *EntriesHandler {
	return &EntriesHandler{store: store, logger: logger}
}

// RegisterRoutes registers entry routes on the given mux.
func (h *EntriesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /agent/entries", h.list)
	mux.HandleFunc("POST /agent/entries", h.create)
	mux.HandleFunc("GET /agent/entries/{id}", h.get)
	mux.HandleFunc("PUT /agent/entries/{id}", h.update)
	mux.HandleFunc("DELETE /agent/entries/{id}", h.remove)
}

// EntryRequest is the request body for creating or updating an entry.
type EntryRequest struct {
	Term        string   `json:"term"`
	Translation string   `json:"translation,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

// list returns entries, optionally filtered by ?search= over term,
// translation, and notes.
func (h *EntriesHandler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListEntries(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("listing entries failed", "error", err)
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "total": len(entries)})
}

// create upserts an entry by term. An existing entry with the same term
// ignoring case is updated rather than duplicated; that case answers 200
// instead of 201.
func (h *EntriesHandler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEntryRequest(w, r)
	if !ok {
		return
	}

	entry, err := h.store.UpsertEntry(r.Context(), knowledge.Entry{
		Term:        req.Term,
		Translation: req.Translation,
		Notes:       req.Notes,
		Categories:  req.Categories,
	})
	if err != nil {
		writeFault(w, err)
		return
	}

	// A freshly inserted row carries the insert's timestamp in both fields;
	// the upsert's update branch touches only updated_at.
	status := http.StatusCreated
	if entry.UpdatedAt.After(entry.CreatedAt) {
		status = http.StatusOK
	}
	writeJSON(w, status, entry)
}

// get returns one entry.
func (h *EntriesHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entry, err := h.store.GetEntry(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// update replaces an entry's editable fields. Renaming onto an existing term
// is a 409.
func (h *EntriesHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodeEntryRequest(w, r)
	if !ok {
		return
	}

	entry, err := h.store.UpdateEntry(r.Context(), knowledge.Entry{
		ID:          id,
		Term:        req.Term,
		Translation: req.Translation,
		Notes:       req.Notes,
		Categories:  req.Categories,
	})
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// remove deletes an entry.
func (h *EntriesHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteEntry(r.Context(), id); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeEntryRequest parses and bounds-checks an entry body.
func decodeEntryRequest(w http.ResponseWriter, r *http.Request) (EntryRequest, bool) {
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return EntryRequest{}, false
	}
	if len(req.Term) > MaxTermLength {
		writeError(w, http.StatusBadRequest, "validation_error", "term too long (max 200 characters)")
		return EntryRequest{}, false
	}
	return req, true
}
