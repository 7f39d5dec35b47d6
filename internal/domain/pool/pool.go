// Package pool assembles the ordered question sequence for one test
// session: one question per (section, group) pair, globally shuffled,
// capped. Sampling is deliberately non-deterministic; callers must not
// assume two calls produce the same pool.
package pool

import (
	"math/rand"

	"github.com/hamstudy/backend/internal/domain/questionbank"
)

// DefaultCap is the maximum number of questions in one session.
const DefaultCap = 100

// WeakThreshold is the per-question mean correctness below which a
// question qualifies for the weak-topics pool.
const WeakThreshold = 0.70

// Build samples a session pool from source: the source is partitioned by
// (section, group), one question is drawn uniformly from each partition,
// the picks are shuffled as a whole, and the result is truncated to
// limit. An empty source yields an empty pool. limit <= 0 means
// DefaultCap.
func Build(source []questionbank.Question, limit int) []questionbank.Question {
	if limit <= 0 {
		limit = DefaultCap
	}

	partitions := make(map[questionbank.Topic][]questionbank.Question)
	var order []questionbank.Topic
	for _, q := range source {
		t := questionbank.Topic{Section: q.Section, Group: q.Group}
		if _, ok := partitions[t]; !ok {
			order = append(order, t)
		}
		partitions[t] = append(partitions[t], q)
	}

	picks := make([]questionbank.Question, 0, len(order))
	for _, t := range order {
		candidates := partitions[t]
		picks = append(picks, candidates[rand.Intn(len(candidates))])
	}

	rand.Shuffle(len(picks), func(i, j int) {
		picks[i], picks[j] = picks[j], picks[i]
	})

	if len(picks) > limit {
		picks = picks[:limit]
	}
	return picks
}

// BuildPersonalized samples a pool from subset (the caller's unseen or
// weak questions) and, when that yields fewer than limit questions, tops
// the pool up with questions drawn uniformly at random from the full
// bank. Backfill may repeat a (section, group) pair already in the pool
// but never repeats a question ID.
func BuildPersonalized(subset []questionbank.Question, bank *questionbank.Bank, limit int) []questionbank.Question {
	if limit <= 0 {
		limit = DefaultCap
	}

	picked := Build(subset, limit)
	if len(picked) >= limit {
		return picked
	}

	used := make(map[string]bool, len(picked))
	for _, q := range picked {
		used[q.ID] = true
	}

	backfill := bank.Filter(func(q questionbank.Question) bool {
		return !used[q.ID]
	})
	rand.Shuffle(len(backfill), func(i, j int) {
		backfill[i], backfill[j] = backfill[j], backfill[i]
	})

	for _, q := range backfill {
		if len(picked) == limit {
			break
		}
		picked = append(picked, q)
	}
	return picked
}
