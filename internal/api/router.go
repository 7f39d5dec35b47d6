// internal/api/router.go
package api

import "net/http"

// RegisterRoutes wires every handler onto the mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Question bank (study guide browse)
	mux.HandleFunc("GET /bank", h.getBank)
	mux.HandleFunc("GET /bank/sections/{section}/questions", h.listSectionQuestions)

	// Test sessions
	mux.HandleFunc("POST /sessions", h.createSession)
	mux.HandleFunc("GET /sessions/{sessionID}", h.getSession)
	mux.HandleFunc("GET /sessions/{sessionID}/questions/{index}", h.presentQuestion)
	mux.HandleFunc("POST /sessions/{sessionID}/questions/{index}/answer", h.submitAnswer)
	mux.HandleFunc("POST /sessions/{sessionID}/save", h.saveSession)
	mux.HandleFunc("DELETE /sessions/{sessionID}", h.discardSession)

	// History & analytics
	mux.HandleFunc("GET /identities", h.listIdentities)
	mux.HandleFunc("GET /history/{identity}", h.getHistory)
	mux.HandleFunc("GET /history/{identity}/coverage", h.getCoverage)
	mux.HandleFunc("GET /overview", h.getOverview)

	// Export
	mux.HandleFunc("GET /export/{identity}/json", h.exportJSON)
	mux.HandleFunc("GET /export/{identity}/csv", h.exportCSV)
}
