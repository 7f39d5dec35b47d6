// internal/api/handler.go
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hamstudy/backend/internal/domain/questionbank"
	"github.com/hamstudy/backend/internal/service"
	"github.com/hamstudy/backend/internal/store"
)

// Handler holds all dependencies needed by HTTP handlers. Every handler
// method receives its dependencies through this struct instead of
// package-level globals.
type Handler struct {
	bank     *questionbank.Bank
	store    store.ResultStore
	sessions *service.SessionManager
	logger   *slog.Logger
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(bank *questionbank.Bank, s store.ResultStore, sessions *service.SessionManager, logger *slog.Logger) *Handler {
	return &Handler{
		bank:     bank,
		store:    s,
		sessions: sessions,
		logger:   logger,
	}
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError writes a JSON error body with the given status code.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON decodes the request body into v, answering 400 on failure.
// Returns false when the caller should bail out.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// handleStoreError checks for common store errors and writes the
// appropriate HTTP response. Returns true if an error was handled
// (caller should return).
func (h *Handler) handleStoreError(w http.ResponseWriter, err error, entity string) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, store.ErrUnavailable):
		h.logger.Error("storage unavailable", "entity", entity, "error", err)
		respondError(w, http.StatusServiceUnavailable, "storage temporarily unavailable, please retry")
	default:
		h.logger.Error("store error", "entity", entity, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
	return true
}
