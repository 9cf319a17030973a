package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/yunhan0/recall/internal/agent"
	"github.com/yunhan0/recall/internal/log"
)

// MaxQueryLength bounds the accepted query body.
const MaxQueryLength = 4000

// queryAgent answers queries. Implemented by agent.Orchestrator.
type queryAgent interface {
	HandleQuery(ctx context.Context, query string, topK int) (agent.Result, error)
}

// QueryHandler handles the question-answering endpoint.
type QueryHandler struct {
	agent  queryAgent
	logger log.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(agent queryAgent, logger log.Logger) *QueryHandler {
	return &QueryHandler{agent: agent, logger: logger}
}

// RegisterRoutes registers query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /agent/query", h.query)
}

// QueryRequest is the request body for a query.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK,omitempty"`
}

// query answers one question. A degraded answer (model unreachable) is still
// a 200: model availability is not a server failure. 5xx is reserved for the
// store and index.
func (h *QueryHandler) query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}
	if len(req.Query) > MaxQueryLength {
		writeError(w, http.StatusBadRequest, "validation_error", "query too long (max 4000 characters)")
		return
	}

	result, err := h.agent.HandleQuery(r.Context(), req.Query, req.TopK)
	if err != nil {
		h.logger.Error("query failed", "error", err)
		writeFault(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
