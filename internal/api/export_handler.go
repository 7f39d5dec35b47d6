package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hamstudy/backend/internal/store"
)

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /export/{identity}/json
//
// Serves the identity's raw result history as a download, byte for byte
// what the store holds.
func (h *Handler) exportJSON(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")

	raw, err := h.store.RawJSON(r.Context(), identity)
	if h.handleStoreError(w, err, "history") {
		return
	}

	filename := fmt.Sprintf("test_results_%s.json", store.NormalizeIdentity(identity))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// GET /export/{identity}/csv
//
// Flattens the history into one row per answered question.
func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")

	history, err := h.store.ReadAll(r.Context(), identity)
	if h.handleStoreError(w, err, "history") {
		return
	}
	if len(history) == 0 {
		respondError(w, http.StatusNotFound, "history not found")
		return
	}

	filename := fmt.Sprintf("test_results_%s.csv", store.NormalizeIdentity(identity))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	cw.Write([]string{"timestamp", "section", "group", "question", "selected", "correct", "is_correct"})
	for _, res := range history {
		for _, a := range res.Answers {
			cw.Write([]string{
				res.Timestamp,
				a.Section,
				a.Group,
				a.Question,
				a.Selected,
				a.Correct,
				strconv.FormatBool(a.IsCorrect),
			})
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("writing csv export failed", "identity", identity, "error", err)
	}
}
