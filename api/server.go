// Package api provides the HTTP REST surface of the study agent.
//
// Endpoints:
//
//	POST   /agent/query                →  answer a question (RAG pipeline)
//	POST   /agent/documents            →  ingest an uploaded file
//	GET    /agent/documents[/{id}]     →  list / fetch documents
//	DELETE /agent/documents/{id}       →  delete a document and its chunks
//	GET    /agent/entries[/{id}]       →  list (?search=) / fetch entries
//	POST   /agent/entries              →  upsert an entry by term
//	PUT    /agent/entries/{id}         →  update an entry
//	DELETE /agent/entries/{id}         →  delete an entry
//	GET    /quiz[/{id}]                →  list (?category=) / fetch quizzes
//	POST   /quiz/generate              →  generate a quiz from seed terms
//	POST   /quiz/{id}/submissions      →  grade an answer
//	DELETE /quiz/{id}                  →  delete a quiz
//	GET    /health, /ready             →  probes
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: Health check endpoints (/health, /ready)
//   - query.go: Question answering endpoint
//   - documents.go: Document ingestion and management
//   - entries.go: Study entry CRUD
//   - quiz.go: Quiz sessions and submissions
//   - response.go: JSON response helpers and error mapping
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yunhan0/recall/internal/log"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:3400"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generous because answering a query includes model round trips.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the study agent's REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	// Handlers
	health    *HealthHandler
	query     *QueryHandler
	documents *DocumentsHandler
	entries   *EntriesHandler
	quiz      *QuizHandler
}

// Deps carries the server's collaborators.
type Deps struct {
	Pool      *pgxpool.Pool
	Agent     queryAgent
	Pipeline  ingestor
	Documents documentStore
	Entries   entryStore
	Quizzes   quizStore
	Generator quizGenerator
	Logger    log.Logger
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.NewNop()
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:       mux,
		logger:    deps.Logger,
		health:    NewHealthHandler(deps.Pool, deps.Logger),
		query:     NewQueryHandler(deps.Agent, deps.Logger),
		documents: NewDocumentsHandler(deps.Pipeline, deps.Documents, deps.Logger),
		entries:   NewEntriesHandler(deps.Entries, deps.Logger),
		quiz:      NewQuizHandler(deps.Quizzes, deps.Generator, deps.Logger),
	}

	s.health.RegisterRoutes(mux)
	s.query.RegisterRoutes(mux)
	s.documents.RegisterRoutes(mux)
	s.entries.RegisterRoutes(mux)
	s.quiz.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
