package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunhan0/recall/internal/fault"
	"github.com/yunhan0/recall/internal/ingest"
	"github.com/yunhan0/recall/internal/knowledge"
	"github.com/yunhan0/recall/internal/log"
)

type mockIngestor struct {
	doc         knowledge.Document
	err         error
	gotFilename string
	gotData     []byte
	gotMeta     ingest.Meta
}

func (m *mockIngestor) IngestWithMeta(_ context.Context, filename string, data []byte, meta ingest.Meta) (knowledge.Document, error) {
	m.gotFilename = filename
	m.gotData = data
	m.gotMeta = meta
	return m.doc, m.err
}

type mockDocStore struct {
	docs      []knowledge.Document
	getErr    error
	delErr    error
	deleted   []uuid.UUID
	gotLimit  int
	gotOffset int
}

func (m *mockDocStore) GetDocument(_ context.Context, id uuid.UUID) (knowledge.Document, error) {
	if m.getErr != nil {
		return knowledge.Document{}, m.getErr
	}
	return knowledge.Document{ID: id}, nil
}

func (m *mockDocStore) ListDocuments(_ context.Context, limit, offset int) ([]knowledge.Document, int, error) {
	m.gotLimit = limit
	m.gotOffset = offset
	return m.docs, len(m.docs), nil
}

func (m *mockDocStore) DeleteDocument(_ context.Context, id uuid.UUID) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func documentsMux(p ingestor, s documentStore) *http.ServeMux {
	mux := http.NewServeMux()
	NewDocumentsHandler(p, s, log.NewNop()).RegisterRoutes(mux)
	return mux
}

// multipartUpload builds a multipart body with a single file field.
func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload_Success(t *testing.T) {
	docID := uuid.New()
	p := &mockIngestor{doc: knowledge.Document{ID: docID, Filename: "notes.txt", Status: knowledge.StatusReady}}
	mux := documentsMux(p, &mockDocStore{})

	body, contentType := multipartUpload(t, "notes.txt", []byte("IV push basics"))
	req := httptest.NewRequest(http.MethodPost, "/agent/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "notes.txt", p.gotFilename)
	assert.Equal(t, []byte("IV push basics"), p.gotData)
	assert.Equal(t, ingest.Meta{}, p.gotMeta)
	assert.Contains(t, w.Body.String(), docID.String())
}

func TestUpload_MetadataFields(t *testing.T) {
	p := &mockIngestor{doc: knowledge.Document{ID: uuid.New()}}
	mux := documentsMux(p, &mockDocStore{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "meds.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("dosage tables"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("title", "Medication dosages"))
	require.NoError(t, mw.WriteField("summary", "Common adult dosages"))
	require.NoError(t, mw.WriteField("categories", "pharmacology, , nursing"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/agent/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, ingest.Meta{
		Title:      "Medication dosages",
		Summary:    "Common adult dosages",
		Categories: []string{"pharmacology", "nursing"},
	}, p.gotMeta)
}

func TestUpload_UnsupportedType(t *testing.T) {
	p := &mockIngestor{}
	mux := documentsMux(p, &mockDocStore{})

	body, contentType := multipartUpload(t, "malware.exe", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/agent/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, p.gotFilename)
}

func TestUpload_MissingFile(t *testing.T) {
	mux := documentsMux(&mockIngestor{}, &mockDocStore{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "notes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/agent/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_IngestValidationFailure(t *testing.T) {
	p := &mockIngestor{err: fault.Validationf("file contains no extractable text")}
	mux := documentsMux(p, &mockDocStore{})

	body, contentType := multipartUpload(t, "blank.txt", []byte("   "))
	req := httptest.NewRequest(http.MethodPost, "/agent/documents", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListDocuments(t *testing.T) {
	s := &mockDocStore{docs: []knowledge.Document{{ID: uuid.New()}, {ID: uuid.New()}}}
	mux := documentsMux(&mockIngestor{}, s)

	req := httptest.NewRequest(http.MethodGet, "/agent/documents", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)
	assert.Equal(t, 50, s.gotLimit, "default limit")
	assert.Zero(t, s.gotOffset)
}

func TestListDocuments_PaginationClamped(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"explicit values", "?limit=5&offset=10", 5, 10},
		{"limit above max", "?limit=9999", 200, 0},
		{"limit below min", "?limit=0", 1, 0},
		{"negative offset", "?offset=-3", 50, 0},
		{"non-numeric", "?limit=abc&offset=xyz", 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockDocStore{}
			mux := documentsMux(&mockIngestor{}, s)

			req := httptest.NewRequest(http.MethodGet, "/agent/documents"+tt.query, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantLimit, s.gotLimit)
			assert.Equal(t, tt.wantOffset, s.gotOffset)
		})
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	s := &mockDocStore{getErr: fault.NotFoundf("document not found")}
	mux := documentsMux(&mockIngestor{}, s)

	req := httptest.NewRequest(http.MethodGet, "/agent/documents/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteDocument(t *testing.T) {
	s := &mockDocStore{}
	mux := documentsMux(&mockIngestor{}, s)
	id := uuid.New()

	req := httptest.NewRequest(http.MethodDelete, "/agent/documents/"+id.String(), nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []uuid.UUID{id}, s.deleted)
}

func TestDeleteDocument_InvalidID(t *testing.T) {
	mux := documentsMux(&mockIngestor{}, &mockDocStore{})

	req := httptest.NewRequest(http.MethodDelete, "/agent/documents/not-a-uuid", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
