package api

import (
	"net/http"
	"strconv"
)

// ── Request / Response types ────────────────────────────────────────────────

type SectionResponse struct {
	Section   string `json:"section"`
	Name      string `json:"name"`
	Groups    []int  `json:"groups"`
	Questions int    `json:"questions"`
}

type BankResponse struct {
	TotalQuestions int               `json:"total_questions"`
	Sections       []SectionResponse `json:"sections"`
}

type BankQuestionResponse struct {
	ID       string   `json:"id"`
	Section  string   `json:"section"`
	Group    int      `json:"group"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Options  []string `json:"options"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /bank
func (h *Handler) getBank(w http.ResponseWriter, r *http.Request) {
	sections := h.bank.Sections()

	response := BankResponse{
		TotalQuestions: h.bank.Len(),
		Sections:       make([]SectionResponse, len(sections)),
	}
	for i, section := range sections {
		response.Sections[i] = SectionResponse{
			Section:   section,
			Name:      h.bank.SectionName(section),
			Groups:    h.bank.Groups(section),
			Questions: len(h.bank.BySection(section, nil)),
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// GET /bank/sections/{section}/questions?group=N
func (h *Handler) listSectionQuestions(w http.ResponseWriter, r *http.Request) {
	section := r.PathValue("section")

	var group *int
	if g := r.URL.Query().Get("group"); g != "" {
		n, err := strconv.Atoi(g)
		if err != nil {
			respondError(w, http.StatusBadRequest, "group must be a number")
			return
		}
		group = &n
	}

	questions := h.bank.BySection(section, group)
	if len(questions) == 0 {
		respondError(w, http.StatusNotFound, "no questions for section")
		return
	}

	response := make([]BankQuestionResponse, len(questions))
	for i, q := range questions {
		opts := q.Options()
		response[i] = BankQuestionResponse{
			ID:       q.ID,
			Section:  q.Section,
			Group:    q.Group,
			Question: q.Text,
			Answer:   q.Correct,
			Options:  opts[:],
		}
	}

	respondJSON(w, http.StatusOK, response)
}
