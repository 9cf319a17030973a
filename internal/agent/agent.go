// Package agent orchestrates a query end to end: retrieve context,
// synthesize an answer, capture a quiz when asked, and record what was
// learned as an entry.
//
// The orchestrator owns the degradation policy. Retrieval errors fail the
// query; everything after the answer exists is best effort and can only
// reduce the response, never fail it.
package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yunhan0/recall/internal/fault"
	"github.com/yunhan0/recall/internal/knowledge"
	"github.com/yunhan0/recall/internal/log"
	"github.com/yunhan0/recall/internal/retrieval"
	"github.com/yunhan0/recall/internal/synthesis"
)

// termMaxRunes bounds the entry term derived from a query.
const termMaxRunes = 120

// Retriever finds context passages for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retrieval.Passage, error)
}

// Synthesizer produces the answer for a query and its passages.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, passages []retrieval.Passage) synthesis.Answer
}

// QuizCapturer generates a quiz when the query asks for one.
type QuizCapturer interface {
	MaybeGenerate(ctx context.Context, query, answer string) (*knowledge.QuizSession, error)
}

// EntryUpserter records a learned term.
type EntryUpserter interface {
	UpsertEntry(ctx context.Context, entry knowledge.Entry) (knowledge.Entry, error)
}

// Result is the outcome of one query.
type Result struct {
	Answer    string      `json:"answer"`
	Citations []uuid.UUID `json:"citations,omitempty"`
	Degraded  bool        `json:"degraded,omitempty"`
	QuizID    *uuid.UUID  `json:"quizId,omitempty"`
	EntryID   *uuid.UUID  `json:"entryId,omitempty"`
}

// Orchestrator runs the fixed query pipeline.
//
// Orchestrator is stateless between queries and safe for concurrent use.
type Orchestrator struct {
	retriever   Retriever
	synthesizer Synthesizer
	quizzes     QuizCapturer
	entries     EntryUpserter
	logger      log.Logger
}

// New creates an Orchestrator.
func New(retriever Retriever, synthesizer Synthesizer, quizzes QuizCapturer, entries EntryUpserter, logger log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Orchestrator{
		retriever:   retriever,
		synthesizer: synthesizer,
		quizzes:     quizzes,
		entries:     entries,
		logger:      logger,
	}
}

// HandleQuery answers a query. topK bounds retrieval; zero means the
// default. The returned error is reserved for retrieval-side failures
// (store, index, embedding); once an answer exists the query succeeds even
// when quiz capture or entry recording fail.
func (o *Orchestrator) HandleQuery(ctx context.Context, query string, topK int) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, fault.Validationf("query must not be empty")
	}

	passages, err := o.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		return Result{}, err
	}

	answer := o.synthesizer.Synthesize(ctx, query, passages)

	result := Result{
		Answer:    answer.Text,
		Citations: answer.GroundedOn,
		Degraded:  answer.Degraded,
	}

	// A degraded answer is the fallback string; capturing a quiz from it or
	// recording it as study notes would persist noise.
	if answer.Degraded {
		return result, nil
	}

	if session, err := o.quizzes.MaybeGenerate(ctx, query, answer.Text); err != nil {
		o.logger.Warn("quiz capture failed, answering without quiz", "error", err)
	} else if session != nil {
		result.QuizID = &session.ID
	}

	if entry, err := o.entries.UpsertEntry(ctx, knowledge.Entry{
		Term:  DeriveTerm(query),
		Notes: answer.Text,
	}); err != nil {
		o.logger.Warn("entry capture failed, answering without entry", "error", err)
	} else {
		result.EntryID = &entry.ID
	}

	return result, nil
}

// DeriveTerm turns a query into an entry term: whitespace collapsed, then
// truncated to at most termMaxRunes at a word boundary.
func DeriveTerm(query string) string {
	words := strings.Fields(query)

	var b strings.Builder
	count := 0
	for _, w := range words {
		next := len([]rune(w))
		if count > 0 {
			next++ // separating space
		}
		if count+next > termMaxRunes {
			break
		}
		if count > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		count += next
	}

	if b.Len() == 0 && len(words) > 0 {
		// A single word longer than the bound is cut mid-word.
		runes := []rune(words[0])
		return string(runes[:termMaxRunes])
	}
	return b.String()
}
