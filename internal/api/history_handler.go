package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/hamstudy/backend/internal/analytics"
	"github.com/hamstudy/backend/internal/domain/result"
	"github.com/hamstudy/backend/internal/worker"
)

// ── Request / Response types ────────────────────────────────────────────────

type IdentityListResponse struct {
	Identities []string `json:"identities"`
	Count      int      `json:"count"`
}

type TopicStatResponse struct {
	Section string  `json:"section"`
	Group   int     `json:"group"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

type HistoryResponse struct {
	Identity  string                 `json:"identity"`
	Count     int                    `json:"count"`
	Summary   *analytics.Summary     `json:"summary,omitempty"`
	Trend     []analytics.TrendPoint `json:"trend"`
	Breakdown []TopicStatResponse    `json:"breakdown"`
	Weak      []analytics.WeakTopic  `json:"weak_topics"`
}

type TopicCoverageResponse struct {
	Section     string  `json:"section"`
	SectionName string  `json:"section_name"`
	Group       int     `json:"group"`
	Total       int     `json:"total_questions"`
	Answered    int     `json:"answered_questions"`
	Remaining   int     `json:"remaining"`
	Percent     float64 `json:"coverage_percent"`
}

type CoverageResponse struct {
	Identity string                  `json:"identity"`
	Topics   []TopicCoverageResponse `json:"topics"`
}

type OverviewEntry struct {
	Identity string             `json:"identity"`
	Summary  *analytics.Summary `json:"summary,omitempty"`
}

type OverviewResponse struct {
	Identities int             `json:"identities"`
	Entries    []OverviewEntry `json:"entries"`
}

// overviewWorkers bounds the concurrent history reads behind /overview.
const overviewWorkers = 4

// ── Handlers ────────────────────────────────────────────────────────────────

// GET /identities
func (h *Handler) listIdentities(w http.ResponseWriter, r *http.Request) {
	identities, err := h.store.ListIdentities(r.Context())
	if h.handleStoreError(w, err, "identities") {
		return
	}

	respondJSON(w, http.StatusOK, IdentityListResponse{
		Identities: identities,
		Count:      len(identities),
	})
}

// GET /history/{identity}?threshold=N
func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")

	threshold := analytics.DefaultWeakThreshold
	if t := r.URL.Query().Get("threshold"); t != "" {
		n, err := strconv.ParseFloat(t, 64)
		if err != nil || n <= 0 || n > 100 {
			respondError(w, http.StatusBadRequest, "threshold must be a percentage between 0 and 100")
			return
		}
		threshold = n
	}

	history, err := h.store.ReadAll(r.Context(), identity)
	if h.handleStoreError(w, err, "history") {
		return
	}

	response := HistoryResponse{
		Identity:  identity,
		Count:     len(history),
		Trend:     analytics.ScoreTrend(history),
		Breakdown: sortedBreakdown(history),
		Weak:      analytics.WeakTopics(history, threshold),
	}
	if summary, ok := analytics.Summarize(history); ok {
		response.Summary = &summary
	}

	respondJSON(w, http.StatusOK, response)
}

// GET /history/{identity}/coverage
func (h *Handler) getCoverage(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("identity")

	history, err := h.store.ReadAll(r.Context(), identity)
	if h.handleStoreError(w, err, "history") {
		return
	}

	coverage := analytics.Coverage(history, h.bank)
	topics := make([]TopicCoverageResponse, 0, len(coverage))
	for topic, c := range coverage {
		topics = append(topics, TopicCoverageResponse{
			Section:     topic.Section,
			SectionName: h.bank.SectionName(topic.Section),
			Group:       topic.Group,
			Total:       c.TotalQuestions,
			Answered:    c.AnsweredQuestions,
			Remaining:   c.Remaining,
			Percent:     c.CoveragePercent,
		})
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Section != topics[j].Section {
			return topics[i].Section < topics[j].Section
		}
		return topics[i].Group < topics[j].Group
	})

	respondJSON(w, http.StatusOK, CoverageResponse{Identity: identity, Topics: topics})
}

// GET /overview
//
// Reads every identity's history concurrently through a worker pool.
// One identity's storage failure does not fail the whole overview; that
// entry just reports no summary.
func (h *Handler) getOverview(w http.ResponseWriter, r *http.Request) {
	identities, err := h.store.ListIdentities(r.Context())
	if h.handleStoreError(w, err, "identities") {
		return
	}

	ctx := r.Context()
	pool := worker.NewPool[*analytics.Summary](overviewWorkers, len(identities))
	for _, identity := range identities {
		identity := identity
		pool.Submit(identity, func() *analytics.Summary {
			history, err := h.store.ReadAll(ctx, identity)
			if err != nil {
				h.logger.Warn("overview: reading history failed", "identity", identity, "error", err)
				return nil
			}
			summary, ok := analytics.Summarize(history)
			if !ok {
				return nil
			}
			return &summary
		})
	}
	summaries := pool.CollectN(len(identities))
	pool.Close()

	entries := make([]OverviewEntry, len(identities))
	for i, identity := range identities {
		entries[i] = OverviewEntry{Identity: identity, Summary: summaries[identity]}
	}

	respondJSON(w, http.StatusOK, OverviewResponse{
		Identities: len(identities),
		Entries:    entries,
	})
}

// sortedBreakdown flattens the per-topic map into a slice ordered by
// section then group, so the JSON output is stable.
func sortedBreakdown(history result.History) []TopicStatResponse {
	breakdown := analytics.Breakdown(history)

	stats := make([]TopicStatResponse, 0, len(breakdown))
	for topic, s := range breakdown {
		stats = append(stats, TopicStatResponse{
			Section: topic.Section,
			Group:   topic.Group,
			Correct: s.Correct,
			Total:   s.Total,
			Percent: s.Percent,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Section != stats[j].Section {
			return stats[i].Section < stats[j].Section
		}
		return stats[i].Group < stats[j].Group
	})
	return stats
}
