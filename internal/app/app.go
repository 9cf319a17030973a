// Package app wires the application together: database pool, migrations,
// Genkit, tracing, and the domain services built on top of them.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yunhan0/recall/internal/agent"
	"github.com/yunhan0/recall/internal/config"
	"github.com/yunhan0/recall/internal/ingest"
	"github.com/yunhan0/recall/internal/knowledge"
	"github.com/yunhan0/recall/internal/log"
	"github.com/yunhan0/recall/internal/quiz"
	"github.com/yunhan0/recall/internal/retrieval"
	"github.com/yunhan0/recall/internal/synthesis"
	"github.com/yunhan0/recall/internal/vecindex"
)

// App holds every initialized component and their cleanup functions.
type App struct {
	Config *config.Config
	Logger log.Logger

	Pool     *pgxpool.Pool
	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Store       *knowledge.Store
	Index       *vecindex.Index
	Pipeline    *ingest.Pipeline
	Retriever   *retrieval.Service
	Synthesizer *synthesis.Synthesizer
	Quizzes     *quiz.Capture
	Agent       *agent.Orchestrator

	otelCleanup func()
	dbCleanup   func()
}

// Close releases everything Setup initialized, in reverse order.
func (a *App) Close() error {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
		a.otelCleanup = nil
	}
	return nil
}
