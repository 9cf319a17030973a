// Package synthesis turns retrieved passages and a user question into a
// grounded answer via the language model.
//
// Synthesis never propagates model transport failures: after bounded retries
// the caller gets a deterministic fallback answer instead of an error, so a
// flaky upstream degrades the response rather than failing the request.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"

	"github.com/yunhan0/recall/internal/backoff"
	"github.com/yunhan0/recall/internal/log"
	"github.com/yunhan0/recall/internal/retrieval"
)

// FallbackAnswer is returned when the language model cannot be reached after
// retries. The query endpoint serves it with a 200 so model availability
// never reads as a server failure.
const FallbackAnswer = "I could not reach the language model to answer this question. Please try again in a moment."

// summaryInputMaxRunes bounds how much document text is sent for
// summarization.
const summaryInputMaxRunes = 8000

const answerSystemPrompt = `You are a study assistant answering questions from a personal knowledge base.

Answer using the numbered context passages when they are provided. Cite facts from the passages rather than inventing them. If the passages do not cover the question, or no passages are provided, say so explicitly and then answer from general knowledge. Keep answers concise and factual.`

const summarySystemPrompt = `You summarize study documents for a personal knowledge base. Produce a summary of at most three sentences and up to five short topical category labels.`

// Answer is a synthesized response.
type Answer struct {
	Text string `json:"text"`

	// GroundedOn lists the chunk IDs whose text backed the answer. Empty
	// means the model answered without knowledge-base context.
	GroundedOn []uuid.UUID `json:"groundedOn,omitempty"`

	// Degraded is set when Text is the fallback because the model was
	// unreachable.
	Degraded bool `json:"degraded,omitempty"`
}

// documentSummary is the structured output schema for summarization.
type documentSummary struct {
	Summary    string   `json:"summary"`
	Categories []string `json:"categories"`
}

// generateFunc matches genkit.Generate, injectable for tests.
type generateFunc func(ctx context.Context, g *genkit.Genkit, opts ...ai.GenerateOption) (*ai.ModelResponse, error)

// Synthesizer calls the language model. Each call is independent; no
// conversation state is kept.
type Synthesizer struct {
	g         *genkit.Genkit
	modelName string
	genConfig map[string]any
	retry     backoff.Config
	logger    log.Logger
	generate  generateFunc
}

// New creates a Synthesizer for the given model.
func New(g *genkit.Genkit, modelName string, temperature float64, maxTokens int, logger log.Logger) *Synthesizer {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Synthesizer{
		g:         g,
		modelName: modelName,
		genConfig: map[string]any{
			"temperature":     temperature,
			"maxOutputTokens": maxTokens,
		},
		retry:    backoff.DefaultConfig(),
		logger:   logger,
		generate: genkit.Generate,
	}
}

// Synthesize answers a query from the given passages. On model failure it
// returns the fallback answer with Degraded set; it never returns an error.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, passages []retrieval.Passage) Answer {
	prompt := buildAnswerPrompt(query, passages)

	var resp *ai.ModelResponse
	err := backoff.Do(ctx, s.retry, s.logger, "synthesize", func(ctx context.Context) error {
		var genErr error
		resp, genErr = s.generate(ctx, s.g,
			ai.WithModelName(s.modelName),
			ai.WithSystem(answerSystemPrompt),
			ai.WithPrompt(prompt),
			ai.WithConfig(s.genConfig),
		)
		return genErr
	})
	if err != nil {
		s.logger.Warn("answer synthesis failed, serving fallback", "error", err)
		return Answer{Text: FallbackAnswer, Degraded: true}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		s.logger.Warn("answer synthesis returned empty response, serving fallback")
		return Answer{Text: FallbackAnswer, Degraded: true}
	}

	grounded := make([]uuid.UUID, len(passages))
	for i, p := range passages {
		grounded[i] = p.ChunkID
	}

	return Answer{Text: text, GroundedOn: grounded}
}

// SummarizeDocument produces a short summary and category labels for an
// ingested document.
func (s *Synthesizer) SummarizeDocument(ctx context.Context, title, text string) (string, []string, error) {
	if runes := []rune(text); len(runes) > summaryInputMaxRunes {
		text = string(runes[:summaryInputMaxRunes])
	}

	var resp *ai.ModelResponse
	err := backoff.Do(ctx, s.retry, s.logger, "summarize", func(ctx context.Context) error {
		var genErr error
		resp, genErr = s.generate(ctx, s.g,
			ai.WithModelName(s.modelName),
			ai.WithSystem(summarySystemPrompt),
			ai.WithPrompt(fmt.Sprintf("Document title: %s\n\nDocument text:\n%s", title, text)),
			ai.WithConfig(s.genConfig),
			ai.WithOutputType(documentSummary{}),
		)
		return genErr
	})
	if err != nil {
		return "", nil, fmt.Errorf("summarizing document %q: %w", title, err)
	}

	var out documentSummary
	if err := resp.Output(&out); err != nil {
		return "", nil, fmt.Errorf("decoding document summary: %w", err)
	}

	return strings.TrimSpace(out.Summary), out.Categories, nil
}

// buildAnswerPrompt assembles numbered context blocks followed by the
// question. Without passages it tells the model the knowledge base had
// nothing relevant.
func buildAnswerPrompt(query string, passages []retrieval.Passage) string {
	var b strings.Builder

	if len(passages) == 0 {
		b.WriteString("No passages were found in the knowledge base for this question.\n\n")
	} else {
		b.WriteString("Context passages from the knowledge base:\n\n")
		for i, p := range passages {
			fmt.Fprintf(&b, "[%d] (from %q)\n%s\n\n", i+1, p.DocumentTitle, p.Content)
		}
	}

	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}
