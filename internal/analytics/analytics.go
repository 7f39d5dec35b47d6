// Package analytics derives aggregate statistics from a user's result
// history. Every function is pure and total over well-formed inputs:
// empty histories produce empty results, never errors or divisions by
// zero.
package analytics

import (
	"math"
	"sort"

	"github.com/hamstudy/backend/internal/domain/questionbank"
	"github.com/hamstudy/backend/internal/domain/result"
)

// Display thresholds. They gate nothing; they only label scores.
const (
	HonoursThreshold = 80.0
	PassThreshold    = 70.0
)

// DefaultWeakThreshold is the percent below which a topic counts as weak.
const DefaultWeakThreshold = 70.0

// Summary is the headline view of one user's history. Scores are
// percentages.
type Summary struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
	BestScore    float64 `json:"best_score"`
	LatestScore  float64 `json:"latest_score"`
}

// Summarize computes the summary over a history. ok is false for an
// empty history ("no data"), in which case the Summary is the zero value.
func Summarize(history result.History) (Summary, bool) {
	if len(history) == 0 {
		return Summary{}, false
	}

	ordered := sortedByTime(history)

	var sum float64
	best := math.Inf(-1)
	for _, r := range ordered {
		p := r.Percent()
		sum += p
		if p > best {
			best = p
		}
	}

	return Summary{
		Count:        len(ordered),
		AverageScore: round1(sum / float64(len(ordered))),
		BestScore:    round1(best),
		LatestScore:  round1(ordered[len(ordered)-1].Percent()),
	}, true
}

// TrendPoint is one attempt on the score-over-time chart.
type TrendPoint struct {
	Timestamp string  `json:"timestamp"`
	Percent   float64 `json:"score_percent"`
	Grade     string  `json:"grade"`
}

// ScoreTrend returns per-attempt percentages sorted ascending by
// timestamp. Input order is append order, but it is re-sorted
// defensively in case records were appended out of order.
func ScoreTrend(history result.History) []TrendPoint {
	ordered := sortedByTime(history)

	trend := make([]TrendPoint, len(ordered))
	for i, r := range ordered {
		p := round1(r.Percent())
		trend[i] = TrendPoint{
			Timestamp: r.Timestamp,
			Percent:   p,
			Grade:     Grade(p),
		}
	}
	return trend
}

// TopicStat is the aggregate accuracy for one (section, group) cell.
type TopicStat struct {
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// Breakdown aggregates per-topic accuracy over every answer in every
// result. Topics never answered are absent from the map. Group values
// are compared numerically; answers whose stored group is not a number
// are skipped.
func Breakdown(history result.History) map[questionbank.Topic]TopicStat {
	stats := make(map[questionbank.Topic]TopicStat)
	for _, r := range history {
		for _, a := range r.Answers {
			group, ok := a.GroupNumber()
			if !ok {
				continue
			}
			key := questionbank.Topic{Section: a.Section, Group: group}
			s := stats[key]
			s.Total++
			if a.IsCorrect {
				s.Correct++
			}
			stats[key] = s
		}
	}
	for key, s := range stats {
		s.Percent = round1(float64(s.Correct) / float64(s.Total) * 100)
		stats[key] = s
	}
	return stats
}

// BreakdownFor returns the stat for one topic. ok is false when the
// topic was never answered.
func BreakdownFor(history result.History, section string, group int) (TopicStat, bool) {
	s, ok := Breakdown(history)[questionbank.Topic{Section: section, Group: group}]
	return s, ok
}

// TopicCoverage reports how much of one bank topic a user has been
// exposed to.
type TopicCoverage struct {
	TotalQuestions    int     `json:"total_questions"`
	AnsweredQuestions int     `json:"answered_questions"`
	Remaining         int     `json:"remaining"`
	CoveragePercent   float64 `json:"coverage_percent"`
}

// Coverage computes per-topic bank coverage: answered is the count of
// distinct question texts seen in that topic across the whole history.
// Every topic present in the bank is reported, untouched ones at 0%;
// an empty topic reports 0%, never NaN.
func Coverage(history result.History, bank *questionbank.Bank) map[questionbank.Topic]TopicCoverage {
	totals := make(map[questionbank.Topic]int)
	for _, q := range bank.Questions() {
		totals[questionbank.Topic{Section: q.Section, Group: q.Group}]++
	}

	seen := make(map[questionbank.Topic]map[string]bool)
	for _, r := range history {
		for _, a := range r.Answers {
			group, ok := a.GroupNumber()
			if !ok {
				continue
			}
			key := questionbank.Topic{Section: a.Section, Group: group}
			if _, inBank := totals[key]; !inBank {
				continue
			}
			if seen[key] == nil {
				seen[key] = make(map[string]bool)
			}
			seen[key][a.Question] = true
		}
	}

	coverage := make(map[questionbank.Topic]TopicCoverage, len(totals))
	for key, total := range totals {
		answered := len(seen[key])
		c := TopicCoverage{
			TotalQuestions:    total,
			AnsweredQuestions: answered,
			Remaining:         total - answered,
		}
		if total > 0 {
			c.CoveragePercent = round1(float64(answered) / float64(total) * 100)
		}
		coverage[key] = c
	}
	return coverage
}

// WeakTopic is one topic scoring below the threshold.
type WeakTopic struct {
	Section string  `json:"section"`
	Group   int     `json:"group"`
	Percent float64 `json:"percent"`
}

// WeakTopics returns the topics whose accuracy is strictly below
// threshold, sorted by section then group. threshold <= 0 means
// DefaultWeakThreshold.
func WeakTopics(history result.History, threshold float64) []WeakTopic {
	if threshold <= 0 {
		threshold = DefaultWeakThreshold
	}

	weak := make([]WeakTopic, 0)
	for key, s := range Breakdown(history) {
		if s.Percent < threshold {
			weak = append(weak, WeakTopic{Section: key.Section, Group: key.Group, Percent: s.Percent})
		}
	}
	sort.Slice(weak, func(i, j int) bool {
		if weak[i].Section != weak[j].Section {
			return weak[i].Section < weak[j].Section
		}
		return weak[i].Group < weak[j].Group
	})
	return weak
}

// SeenQuestions returns the set of question texts appearing anywhere in
// the history. It feeds the unseen-pool selection.
func SeenQuestions(history result.History) map[string]bool {
	seen := make(map[string]bool)
	for _, r := range history {
		for _, a := range r.Answers {
			seen[a.Question] = true
		}
	}
	return seen
}

// QuestionAccuracy returns the mean correctness per question text over
// the whole history, in [0, 1]. It feeds the weak-pool selection.
func QuestionAccuracy(history result.History) map[string]float64 {
	attempts := make(map[string]int)
	correct := make(map[string]int)
	for _, r := range history {
		for _, a := range r.Answers {
			attempts[a.Question]++
			if a.IsCorrect {
				correct[a.Question]++
			}
		}
	}

	accuracy := make(map[string]float64, len(attempts))
	for text, n := range attempts {
		accuracy[text] = float64(correct[text]) / float64(n)
	}
	return accuracy
}

// Grade labels a percentage with the display thresholds.
func Grade(percent float64) string {
	switch {
	case percent >= HonoursThreshold:
		return "Honours"
	case percent >= PassThreshold:
		return "Pass"
	default:
		return "Fail"
	}
}

func sortedByTime(history result.History) result.History {
	ordered := make(result.History, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Time().Before(ordered[j].Time())
	})
	return ordered
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
