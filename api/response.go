package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yunhan0/recall/internal/fault"
)

// writeJSON writes a JSON response with the given status code.
// Note: If encoding fails after WriteHeader is called, there's no way to
// notify the client since the status code is already sent. The error is
// logged for debugging but doesn't affect the response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, err string, message string) {
	writeJSON(w, status, ErrorResponse{Error: err, Message: message})
}

// writeFault maps a domain error onto an HTTP status.
//
//	validation → 400, not found → 404, conflict → 409, transient → 503,
//	anything else → 500.
func writeFault(w http.ResponseWriter, err error) {
	switch {
	case fault.IsValidation(err):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case fault.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case fault.IsConflict(err):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case fault.IsTransient(err):
		writeError(w, http.StatusServiceUnavailable, "upstream_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
