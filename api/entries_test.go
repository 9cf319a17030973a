package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/yunhan0/recall/internal/fault"
	"github.com/yunhan0/recall/internal/knowledge"
	"github.com/yunhan0/recall/internal/log"
)

type mockEntryStore struct {
	entries      []knowledge.Entry
	gotSearch    string
	upsertErr    error
	upsertMerged bool // report the upsert as an update of an existing row
	updateErr    error
	deleteErr    error
}

func (m *mockEntryStore) UpsertEntry(_ context.Context, entry knowledge.Entry) (knowledge.Entry, error) {
	if m.upsertErr != nil {
		return knowledge.Entry{}, m.upsertErr
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	entry.UpdatedAt = entry.CreatedAt
	if m.upsertMerged {
		entry.UpdatedAt = entry.CreatedAt.Add(time.Hour)
	}
	return entry, nil
}

func (m *mockEntryStore) GetEntry(_ context.Context, id uuid.UUID) (knowledge.Entry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return knowledge.Entry{}, fault.NotFoundf("entry %s not found", id)
}

func (m *mockEntryStore) ListEntries(_ context.Context, search string) ([]knowledge.Entry, error) {
	m.gotSearch = search
	return m.entries, nil
}

func (m *mockEntryStore) UpdateEntry(_ context.Context, entry knowledge.Entry) (knowledge.Entry, error) {
	if m.updateErr != nil {
		return knowledge.Entry{}, m.updateErr
	}
	return entry, nil
}

func (m *mockEntryStore) DeleteEntry(context.Context, uuid.UUID) error {
	return m.deleteErr
}

func entriesMux(s entryStore) *http.ServeMux {
	mux := http.NewServeMux()
	NewEntriesHandler(s, log.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestListEntries_PassesSearchFilter(t *testing.T) {
	s := &mockEntryStore{entries: []knowledge.Entry{{ID: uuid.New(), Term: "tachycardia"}}}
	mux := entriesMux(s)

	req := httptest.NewRequest(http.MethodGet, "/agent/entries?search=tachy", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tachy", s.gotSearch)
	assert.Contains(t, w.Body.String(), "tachycardia")
}

func TestCreateEntry(t *testing.T) {
	mux := entriesMux(&mockEntryStore{})

	req := httptest.NewRequest(http.MethodPost, "/agent/entries",
		strings.NewReader(`{"term": "Preload", "notes": "ventricular filling volume"}`))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Preload")
}

func TestCreateEntry_ExistingTermAnswersOK(t *testing.T) {
	mux := entriesMux(&mockEntryStore{upsertMerged: true})

	req := httptest.NewRequest(http.MethodPost, "/agent/entries",
		strings.NewReader(`{"term": "preload", "notes": "updated notes"}`))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "updating an existing term is not a create")
	assert.Contains(t, w.Body.String(), "preload")
}

func TestCreateEntry_EmptyTerm(t *testing.T) {
	mux := entriesMux(&mockEntryStore{upsertErr: fault.Validationf("entry term must not be empty")})

	req := httptest.NewRequest(http.MethodPost, "/agent/entries", strings.NewReader(`{"term": ""}`))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEntry_NotFound(t *testing.T) {
	mux := entriesMux(&mockEntryStore{})

	req := httptest.NewRequest(http.MethodGet, "/agent/entries/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateEntry_TermConflict(t *testing.T) {
	mux := entriesMux(&mockEntryStore{updateErr: fault.Conflictf("an entry for term already exists")})

	req := httptest.NewRequest(http.MethodPut, "/agent/entries/"+uuid.NewString(),
		strings.NewReader(`{"term": "preload"}`))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteEntry(t *testing.T) {
	mux := entriesMux(&mockEntryStore{})

	req := httptest.NewRequest(http.MethodDelete, "/agent/entries/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDeleteEntry_NotFound(t *testing.T) {
	mux := entriesMux(&mockEntryStore{deleteErr: fault.NotFoundf("entry not found")})

	req := httptest.NewRequest(http.MethodDelete, "/agent/entries/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
