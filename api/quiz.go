package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/yunhan0/recall/internal/knowledge"
	"github.com/yunhan0/recall/internal/log"
)

// quizStore is the quiz persistence surface of the knowledge store.
type quizStore interface {
	GetQuizSession(ctx context.Context, id uuid.UUID) (knowledge.QuizSession, error)
	ListQuizSessions(ctx context.Context, category string) ([]knowledge.QuizSession, error)
	DeleteQuizSession(ctx context.Context, id uuid.UUID) error
	RecordAttempt(ctx context.Context, sessionID, questionID uuid.UUID, userInput string) (knowledge.QuizAttempt, error)
}

// quizGenerator builds quizzes from seed terms.
type quizGenerator interface {
	Generate(ctx context.Context, seedTerms []string, category string) (*knowledge.QuizSession, error)
}

// QuizHandler handles quiz session endpoints.
type QuizHandler struct {
	store     quizStore
	generator quizGenerator
	logger    log.Logger
}

// NewQuizHandler creates a new quiz handler.
func NewQuizHandler(store quizStore, generator quizGenerator, logger log.Logger) *QuizHandler {
	return &QuizHandler{store: store, generator: generator, logger: logger}
}

// RegisterRoutes registers quiz routes on the given mux.
func (h *QuizHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /quiz", h.list)
	mux.HandleFunc("POST /quiz/generate", h.generate)
	mux.HandleFunc("GET /quiz/{id}", h.get)
	mux.HandleFunc("DELETE /quiz/{id}", h.remove)
	mux.HandleFunc("POST /quiz/{id}/submissions", h.submit)
}

// list returns quiz sessions, optionally filtered by ?category=.
func (h *QuizHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListQuizSessions(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error("listing quiz sessions failed", "error", err)
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions, "total": len(sessions)})
}

// GenerateQuizRequest is the request body for explicit quiz generation.
type GenerateQuizRequest struct {
	SeedTerms []string `json:"seedTerms"`
	Category  string   `json:"category,omitempty"`
}

// generate builds a quiz from seed terms, outside the query flow.
func (h *QuizHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	session, err := h.generator.Generate(r.Context(), req.SeedTerms, req.Category)
	if err != nil {
		h.logger.Error("quiz generation failed", "error", err)
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// get returns one session with its questions.
func (h *QuizHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	session, err := h.store.GetQuizSession(r.Context(), id)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// remove deletes a session with its questions and attempts.
func (h *QuizHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteQuizSession(r.Context(), id); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitAnswerRequest is the request body for answering a quiz question.
type SubmitAnswerRequest struct {
	QuestionID uuid.UUID `json:"questionId"`
	Answer     string    `json:"answer"`
}

// submit grades an answer against a question in the session.
func (h *QuizHandler) submit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}
	if req.QuestionID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "validation_error", "questionId is required")
		return
	}

	attempt, err := h.store.RecordAttempt(r.Context(), id, req.QuestionID, req.Answer)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attempt)
}
