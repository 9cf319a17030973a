package knowledge

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus tracks ingestion progress for a document.
type DocumentStatus string

const (
	// StatusPending marks a document whose chunks are not fully indexed yet.
	StatusPending DocumentStatus = "pending"

	// StatusReady marks a fully ingested, searchable document.
	StatusReady DocumentStatus = "ready"
)

// Document is an ingested source file.
type Document struct {
	ID         uuid.UUID      `json:"id"`
	Title      string         `json:"title"`
	Filename   string         `json:"filename"`
	RawContent string         `json:"-"`
	Summary    string         `json:"summary,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Status     DocumentStatus `json:"status"`
	ChunkCount int            `json:"chunkCount"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Entry is a study note keyed by its term. Terms are unique ignoring case.
type Entry struct {
	ID               uuid.UUID  `json:"id"`
	Term             string     `json:"term"`
	Translation      string     `json:"translation,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	Categories       []string   `json:"categories,omitempty"`
	SourceDocumentID *uuid.UUID `json:"sourceDocumentId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// QuizSession is a generated set of quiz questions.
type QuizSession struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Category  string         `json:"category,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	Questions []QuizQuestion `json:"questions,omitempty"`
}

// QuizQuestion is one question within a session. Options are empty for
// free-text questions.
type QuizQuestion struct {
	ID          uuid.UUID `json:"id"`
	Position    int       `json:"position"`
	Prompt      string    `json:"prompt"`
	Options     []string  `json:"options,omitempty"`
	Answer      string    `json:"answer"`
	Explanation string    `json:"explanation,omitempty"`
}

// QuizAttempt records one graded answer submission.
type QuizAttempt struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"sessionId"`
	QuestionID uuid.UUID `json:"questionId"`
	UserInput  string    `json:"userInput"`
	IsCorrect  bool      `json:"isCorrect"`
	AnsweredAt time.Time `json:"answeredAt"`
}
