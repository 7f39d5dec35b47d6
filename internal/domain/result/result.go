// Package result defines the immutable record of one completed test
// attempt and its JSON wire form, shared by the stores, the analytics
// engine and the export surface.
package result

import (
	"strconv"
	"time"
)

// Answer is one answered question inside a Result. All fields except
// IsCorrect are stored as strings; Group in particular is kept a string
// on the wire and compared numerically in analytics.
type Answer struct {
	Section   string `json:"section"`
	Group     string `json:"group"`
	Question  string `json:"question"`
	Selected  string `json:"selected"`
	Correct   string `json:"correct"`
	IsCorrect bool   `json:"is_correct"`
}

// GroupNumber parses the stored group as an integer so "10" sorts after
// "2". A non-numeric group reports ok=false and must not be silently
// grouped as zero.
func (a Answer) GroupNumber() (int, bool) {
	n, err := strconv.Atoi(a.Group)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Result is one finished (or saved-early) test attempt. Immutable once
// created.
type Result struct {
	Timestamp string   `json:"timestamp"` // ISO-8601
	Score     int      `json:"score"`
	Total     int      `json:"total"`
	Answers   []Answer `json:"answers"`
}

// Time parses the attempt timestamp. Attempts with an unparsable
// timestamp sort to the zero time rather than failing the whole history.
func (r Result) Time() time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, r.Timestamp); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Percent is the attempt's score as a percentage of its total. A zero
// total reports 0 rather than dividing by zero.
func (r Result) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Score) / float64(r.Total) * 100
}

// Valid reports whether a decoded record satisfies the result schema:
// non-negative score within total, and every answer carrying its topic
// and question text.
func (r Result) Valid() bool {
	if r.Timestamp == "" || r.Total < 0 || r.Score < 0 || r.Score > r.Total {
		return false
	}
	for _, a := range r.Answers {
		if a.Section == "" || a.Question == "" {
			return false
		}
	}
	return true
}

// History is the append-ordered sequence of results for one identity.
type History []Result
