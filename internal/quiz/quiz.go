// Package quiz generates quiz sessions from answered questions.
//
// A quiz is captured when the user's query contains the word "quiz". Capture
// is strictly best effort: a failed or malformed generation discards the
// quiz and never blocks the answer it rode along with.
package quiz

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/yunhan0/recall/internal/backoff"
	"github.com/yunhan0/recall/internal/fault"
	"github.com/yunhan0/recall/internal/knowledge"
	"github.com/yunhan0/recall/internal/log"
)

// triggerPattern matches the word "quiz" on word boundaries, ignoring case.
// "quizzes" or "quizzical" do not trigger capture.
var triggerPattern = regexp.MustCompile(`(?i)\bquiz\b`)

// questionCount is how many questions a generated quiz asks for.
const questionCount = 5

var generateSystemPrompt = fmt.Sprintf(`You create short study quizzes for a personal knowledge base. Produce a quiz with a concise title, a single topical category, and %d questions. Each question needs a prompt, the correct answer, and a short explanation. Multiple-choice questions list 2 to 5 options including the correct answer; free-text questions have no options.`, questionCount)

// quizOutput is the structured output schema for quiz generation.
type quizOutput struct {
	Title     string `json:"title"`
	Category  string `json:"category"`
	Questions []struct {
		Prompt      string   `json:"prompt"`
		Options     []string `json:"options,omitempty"`
		Answer      string   `json:"answer"`
		Explanation string   `json:"explanation,omitempty"`
	} `json:"questions"`
}

// sessionSaver persists generated sessions.
type sessionSaver interface {
	SaveQuizSession(ctx context.Context, session knowledge.QuizSession) (knowledge.QuizSession, error)
}

// generateFunc matches genkit.Generate, injectable for tests.
type generateFunc func(ctx context.Context, g *genkit.Genkit, opts ...ai.GenerateOption) (*ai.ModelResponse, error)

// Capture generates and stores quiz sessions.
type Capture struct {
	g         *genkit.Genkit
	modelName string
	genConfig map[string]any
	store     sessionSaver
	retry     backoff.Config
	logger    log.Logger
	generate  generateFunc
}

// New creates a quiz capture service.
func New(g *genkit.Genkit, modelName string, temperature float64, maxTokens int, store sessionSaver, logger log.Logger) *Capture {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Capture{
		g:         g,
		modelName: modelName,
		genConfig: map[string]any{
			"temperature":     temperature,
			"maxOutputTokens": maxTokens,
		},
		store:    store,
		retry:    backoff.DefaultConfig(),
		logger:   logger,
		generate: genkit.Generate,
	}
}

// Triggered reports whether a query asks for a quiz.
func Triggered(query string) bool {
	return triggerPattern.MatchString(query)
}

// MaybeGenerate captures a quiz for a query/answer pair when the query asks
// for one. It returns nil without touching the store when the query does not
// trigger capture, and an error when generation or validation fails; callers
// treat that error as "no quiz produced".
func (c *Capture) MaybeGenerate(ctx context.Context, query, answer string) (*knowledge.QuizSession, error) {
	if !Triggered(query) {
		return nil, nil
	}

	prompt := fmt.Sprintf(
		"Create a quiz based on this exchange.\n\nQuestion: %s\n\nAnswer: %s", query, answer)
	session, err := c.generateSession(ctx, prompt, "")
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Generate builds a quiz from explicit seed terms, outside the query flow.
func (c *Capture) Generate(ctx context.Context, seedTerms []string, category string) (*knowledge.QuizSession, error) {
	terms := make([]string, 0, len(seedTerms))
	for _, t := range seedTerms {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return nil, fault.Validationf("at least one seed term is required")
	}

	prompt := fmt.Sprintf("Create a quiz covering these study terms: %s", strings.Join(terms, ", "))
	if category != "" {
		prompt += fmt.Sprintf("\nUse the category %q.", category)
	}
	return c.generateSession(ctx, prompt, category)
}

// generateSession runs one structured model call, validates the result, and
// persists it.
func (c *Capture) generateSession(ctx context.Context, prompt, fallbackCategory string) (*knowledge.QuizSession, error) {
	var resp *ai.ModelResponse
	err := backoff.Do(ctx, c.retry, c.logger, "generate quiz", func(ctx context.Context) error {
		var genErr error
		resp, genErr = c.generate(ctx, c.g,
			ai.WithModelName(c.modelName),
			ai.WithSystem(generateSystemPrompt),
			ai.WithPrompt(prompt),
			ai.WithConfig(c.genConfig),
			ai.WithOutputType(quizOutput{}),
		)
		return genErr
	})
	if err != nil {
		return nil, fmt.Errorf("quiz generation call: %w", err)
	}

	var out quizOutput
	if err := resp.Output(&out); err != nil {
		return nil, fault.Validationf("quiz output did not match schema: %v", err)
	}

	session, err := buildSession(out, fallbackCategory)
	if err != nil {
		return nil, err
	}

	saved, err := c.store.SaveQuizSession(ctx, session)
	if err != nil {
		return nil, err
	}

	c.logger.Info("captured quiz",
		"id", saved.ID,
		"title", saved.Title,
		"questions", len(saved.Questions),
	)
	return &saved, nil
}

// buildSession validates model output and converts it to a storable session.
// A quiz with no questions, or any question missing a prompt or answer, is
// discarded whole.
func buildSession(out quizOutput, fallbackCategory string) (knowledge.QuizSession, error) {
	if len(out.Questions) == 0 {
		return knowledge.QuizSession{}, fault.Validationf("generated quiz has no questions")
	}

	session := knowledge.QuizSession{
		Title:    strings.TrimSpace(out.Title),
		Category: strings.TrimSpace(out.Category),
	}
	if session.Title == "" {
		session.Title = "Study quiz"
	}
	if session.Category == "" {
		session.Category = strings.TrimSpace(fallbackCategory)
	}

	for i, q := range out.Questions {
		prompt := strings.TrimSpace(q.Prompt)
		answer := strings.TrimSpace(q.Answer)
		if prompt == "" || answer == "" {
			return knowledge.QuizSession{}, fault.Validationf(
				"generated quiz question %d is missing a prompt or answer", i+1)
		}
		session.Questions = append(session.Questions, knowledge.QuizQuestion{
			Prompt:      prompt,
			Options:     q.Options,
			Answer:      answer,
			Explanation: strings.TrimSpace(q.Explanation),
		})
	}

	return session, nil
}
