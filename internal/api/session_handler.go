package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hamstudy/backend/internal/analytics"
	"github.com/hamstudy/backend/internal/domain/testsession"
	"github.com/hamstudy/backend/internal/service"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateSessionRequest struct {
	Mode  string `json:"mode,omitempty"`  // standard (default), unseen, weak
	Email string `json:"email,omitempty"` // required for personalized modes
}

type CreateSessionResponse struct {
	ID    string `json:"id"`
	Mode  string `json:"mode"`
	Total int    `json:"total"`
}

type SessionStateResponse struct {
	ID             string `json:"id"`
	Position       int    `json:"position"`
	Total          int    `json:"total"`
	Correct        int    `json:"correct"`
	Incorrect      int    `json:"incorrect"`
	RunningPercent int    `json:"running_percent"`
	Grade          string `json:"grade"`
	Completed      bool   `json:"completed"`
}

type PresentQuestionResponse struct {
	Index       int      `json:"index"`
	Total       int      `json:"total"`
	QuestionID  string   `json:"question_id"`
	Section     string   `json:"section"`
	SectionName string   `json:"section_name"`
	Group       int      `json:"group"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answered    bool     `json:"answered"`
}

type SubmitAnswerRequest struct {
	Selected string `json:"selected"`
}

type SubmitAnswerResponse struct {
	IsCorrect      bool   `json:"is_correct"`
	CorrectAnswer  string `json:"correct_answer"`
	Correct        int    `json:"correct"`
	Incorrect      int    `json:"incorrect"`
	RunningPercent int    `json:"running_percent"`
	Grade          string `json:"grade"`
}

type SaveSessionRequest struct {
	Email string `json:"email"`
}

type SaveSessionResponse struct {
	Timestamp string  `json:"timestamp"`
	Score     int     `json:"score"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
	Grade     string  `json:"grade"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// POST /sessions
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, sess, err := h.sessions.Start(r.Context(), service.Mode(req.Mode), req.Email)
	switch {
	case errors.Is(err, service.ErrUnknownMode):
		respondError(w, http.StatusBadRequest, "mode must be standard, unseen or weak")
		return
	case errors.Is(err, service.ErrIdentityRequired):
		respondError(w, http.StatusBadRequest, "email is required for personalized sessions")
		return
	case h.handleStoreError(w, err, "history"):
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = string(service.ModeStandard)
	}

	respondJSON(w, http.StatusCreated, CreateSessionResponse{
		ID:    id,
		Mode:  mode,
		Total: sess.Total(),
	})
}

// GET /sessions/{sessionID}
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	sess, err := h.sessions.Get(sessionID)
	if errors.Is(err, service.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	percent := sess.RunningPercent()
	respondJSON(w, http.StatusOK, SessionStateResponse{
		ID:             sessionID,
		Position:       sess.Position(),
		Total:          sess.Total(),
		Correct:        sess.Correct(),
		Incorrect:      sess.Incorrect(),
		RunningPercent: percent,
		Grade:          analytics.Grade(float64(percent)),
		Completed:      sess.Completed(),
	})
}

// GET /sessions/{sessionID}/questions/{index}
func (h *Handler) presentQuestion(w http.ResponseWriter, r *http.Request) {
	sess, index, ok := h.sessionSlot(w, r)
	if !ok {
		return
	}

	pq, err := sess.Present(index)
	if errors.Is(err, testsession.ErrSlotOutOfRange) {
		respondError(w, http.StatusBadRequest, "question index out of range")
		return
	}

	status, _ := sess.Status(index)
	respondJSON(w, http.StatusOK, PresentQuestionResponse{
		Index:       index,
		Total:       sess.Total(),
		QuestionID:  pq.ID,
		Section:     pq.Section,
		SectionName: h.bank.SectionName(pq.Section),
		Group:       pq.Group,
		Question:    pq.Text,
		Options:     pq.Options,
		Answered:    status == testsession.SlotAnswered,
	})
}

// POST /sessions/{sessionID}/questions/{index}/answer
func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	sess, index, ok := h.sessionSlot(w, r)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ans, err := sess.Submit(index, req.Selected)
	switch {
	case errors.Is(err, testsession.ErrSlotOutOfRange):
		respondError(w, http.StatusBadRequest, "question index out of range")
		return
	case errors.Is(err, testsession.ErrFinalized):
		respondError(w, http.StatusConflict, "session already saved")
		return
	}

	if index == sess.Position() {
		sess.Advance()
	}

	percent := sess.RunningPercent()
	respondJSON(w, http.StatusOK, SubmitAnswerResponse{
		IsCorrect:      ans.IsCorrect,
		CorrectAnswer:  ans.Correct,
		Correct:        sess.Correct(),
		Incorrect:      sess.Incorrect(),
		RunningPercent: percent,
		Grade:          analytics.Grade(float64(percent)),
	})
}

// POST /sessions/{sessionID}/save
func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	var req SaveSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.sessions.Save(r.Context(), sessionID, req.Email)
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session not found")
		return
	case errors.Is(err, service.ErrIdentityRequired):
		respondError(w, http.StatusBadRequest, "email is required to save results")
		return
	case errors.Is(err, testsession.ErrEmptySession):
		respondError(w, http.StatusConflict, "nothing to save: this session had no questions")
		return
	case h.handleStoreError(w, err, "results"):
		return
	}

	percent := res.Percent()
	respondJSON(w, http.StatusCreated, SaveSessionResponse{
		Timestamp: res.Timestamp,
		Score:     res.Score,
		Total:     res.Total,
		Percent:   percent,
		Grade:     analytics.Grade(percent),
	})
}

// DELETE /sessions/{sessionID}
func (h *Handler) discardSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Discard(r.PathValue("sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

// sessionSlot resolves the session and slot index path values.
func (h *Handler) sessionSlot(w http.ResponseWriter, r *http.Request) (*testsession.Session, int, bool) {
	sess, err := h.sessions.Get(r.PathValue("sessionID"))
	if errors.Is(err, service.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return nil, 0, false
	}

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "question index must be a number")
		return nil, 0, false
	}

	return sess, index, true
}
