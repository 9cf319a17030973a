package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunhan0/recall/internal/fault"
	"github.com/yunhan0/recall/internal/knowledge"
	"github.com/yunhan0/recall/internal/log"
)

type mockQuizStore struct {
	sessions    []knowledge.QuizSession
	gotCategory string
	attempt     knowledge.QuizAttempt
	attemptErr  error
	deleteErr   error
}

func (m *mockQuizStore) GetQuizSession(_ context.Context, id uuid.UUID) (knowledge.QuizSession, error) {
	for _, s := range m.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return knowledge.QuizSession{}, fault.NotFoundf("quiz session %s not found", id)
}

func (m *mockQuizStore) ListQuizSessions(_ context.Context, category string) ([]knowledge.QuizSession, error) {
	m.gotCategory = category
	return m.sessions, nil
}

func (m *mockQuizStore) DeleteQuizSession(context.Context, uuid.UUID) error {
	return m.deleteErr
}

func (m *mockQuizStore) RecordAttempt(_ context.Context, sessionID, questionID uuid.UUID, userInput string) (knowledge.QuizAttempt, error) {
	if m.attemptErr != nil {
		return knowledge.QuizAttempt{}, m.attemptErr
	}
	m.attempt.SessionID = sessionID
	m.attempt.QuestionID = questionID
	m.attempt.UserInput = userInput
	return m.attempt, nil
}

type mockGenerator struct {
	session *knowledge.QuizSession
	err     error
}

func (m *mockGenerator) Generate(context.Context, []string, string) (*knowledge.QuizSession, error) {
	return m.session, m.err
}

func quizMux(s quizStore, g quizGenerator) *http.ServeMux {
	mux := http.NewServeMux()
	NewQuizHandler(s, g, log.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestListQuizzes_PassesCategoryFilter(t *testing.T) {
	s := &mockQuizStore{sessions: []knowledge.QuizSession{{ID: uuid.New(), Category: "cardiology"}}}
	mux := quizMux(s, &mockGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/quiz?category=cardiology", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cardiology", s.gotCategory)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestGetQuiz(t *testing.T) {
	id := uuid.New()
	s := &mockQuizStore{sessions: []knowledge.QuizSession{{
		ID:        id,
		Title:     "Tachycardia basics",
		Questions: []knowledge.QuizQuestion{{Prompt: "p", Answer: "a", Position: 1}},
	}}}
	mux := quizMux(s, &mockGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/quiz/"+id.String(), nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tachycardia basics")
}

func TestGetQuiz_NotFound(t *testing.T) {
	mux := quizMux(&mockQuizStore{}, &mockGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/quiz/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateQuiz(t *testing.T) {
	session := &knowledge.QuizSession{ID: uuid.New(), Title: "Pharm review"}
	mux := quizMux(&mockQuizStore{}, &mockGenerator{session: session})

	req := httptest.NewRequest(http.MethodPost, "/quiz/generate",
		strings.NewReader(`{"seedTerms": ["preload", "afterload"], "category": "cardiology"}`))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Pharm review")
}

func TestGenerateQuiz_NoSeedTerms(t *testing.T) {
	mux := quizMux(&mockQuizStore{}, &mockGenerator{err: fault.Validationf("at least one seed term is required")})

	req := httptest.NewRequest(http.MethodPost, "/quiz/generate", strings.NewReader(`{"seedTerms": []}`))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitAnswer(t *testing.T) {
	sessionID := uuid.New()
	questionID := uuid.New()
	s := &mockQuizStore{attempt: knowledge.QuizAttempt{ID: uuid.New(), IsCorrect: true}}
	mux := quizMux(s, &mockGenerator{})

	body, err := json.Marshal(SubmitAnswerRequest{QuestionID: questionID, Answer: "beta blockers"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/quiz/"+sessionID.String()+"/submissions",
		strings.NewReader(string(body)))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var attempt knowledge.QuizAttempt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &attempt))
	assert.True(t, attempt.IsCorrect)
	assert.Equal(t, sessionID, attempt.SessionID)
	assert.Equal(t, questionID, attempt.QuestionID)
}

func TestSubmitAnswer_MissingQuestionID(t *testing.T) {
	mux := quizMux(&mockQuizStore{}, &mockGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/quiz/"+uuid.NewString()+"/submissions",
		strings.NewReader(`{"answer": "x"}`))
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteQuiz(t *testing.T) {
	mux := quizMux(&mockQuizStore{}, &mockGenerator{})

	req := httptest.NewRequest(http.MethodDelete, "/quiz/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
