// Package testsession holds the state of one in-progress test attempt:
// the ordered question pool, the per-slot presentation/answer state and
// the running score. A session is owned by a single caller sequence and
// is never persisted; only the Result produced by Finalize is.
package testsession

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/hamstudy/backend/internal/domain/questionbank"
	"github.com/hamstudy/backend/internal/domain/result"
)

var (
	// ErrSlotOutOfRange reports a slot index outside the session pool.
	ErrSlotOutOfRange = errors.New("slot index out of range")
	// ErrFinalized reports an operation on a session that has already
	// produced its Result.
	ErrFinalized = errors.New("session already finalized")
	// ErrEmptySession reports finalizing a session with no questions.
	ErrEmptySession = errors.New("session has no questions")
)

// SlotStatus is the authoritative per-slot state.
type SlotStatus int

const (
	SlotUnseen SlotStatus = iota
	SlotPresented
	SlotAnswered
)

// PooledQuestion is a pool question plus its materialized 4-option answer
// list. The option order is fixed the moment the slot is first presented;
// re-presenting the slot returns the same order.
type PooledQuestion struct {
	questionbank.Question
	Options []string
}

type slot struct {
	status  SlotStatus
	options []string
	answer  result.Answer
}

// Session is the state of one test attempt.
type Session struct {
	pool      []questionbank.Question
	slots     []slot
	answers   []result.Answer
	correct   int
	incorrect int
	position  int
	finalized bool
}

// New creates a session over an already-sampled pool.
func New(pool []questionbank.Question) *Session {
	qs := make([]questionbank.Question, len(pool))
	copy(qs, pool)
	return &Session{
		pool:  qs,
		slots: make([]slot, len(qs)),
	}
}

// Total is the number of questions in this session.
func (s *Session) Total() int { return len(s.pool) }

// Correct returns the running correct counter.
func (s *Session) Correct() int { return s.correct }

// Incorrect returns the running incorrect counter.
func (s *Session) Incorrect() int { return s.incorrect }

// Position is the index of the slot the session is currently on.
func (s *Session) Position() int { return s.position }

// Completed reports whether every slot has been passed.
func (s *Session) Completed() bool { return s.position >= len(s.pool) }

// Finalized reports whether Finalize has been called.
func (s *Session) Finalized() bool { return s.finalized }

// Status returns the state of one slot.
func (s *Session) Status(i int) (SlotStatus, error) {
	if i < 0 || i >= len(s.pool) {
		return SlotUnseen, fmt.Errorf("%w: %d of %d", ErrSlotOutOfRange, i, len(s.pool))
	}
	return s.slots[i].status, nil
}

// RunningPercent is the score over answered questions so far, rounded to
// the nearest integer. Zero answered reports 0.
func (s *Session) RunningPercent() int {
	answered := s.correct + s.incorrect
	if answered == 0 {
		return 0
	}
	return int(float64(s.correct)/float64(answered)*100 + 0.5)
}

// Present materializes slot i: on first call the four options are
// shuffled and cached, afterwards the same order is returned. Present is
// idempotent; a re-render must never reshuffle.
func (s *Session) Present(i int) (PooledQuestion, error) {
	if i < 0 || i >= len(s.pool) {
		return PooledQuestion{}, fmt.Errorf("%w: %d of %d", ErrSlotOutOfRange, i, len(s.pool))
	}

	sl := &s.slots[i]
	if sl.options == nil {
		fixed := s.pool[i].Options()
		opts := make([]string, len(fixed))
		copy(opts, fixed[:])
		rand.Shuffle(len(opts), func(a, b int) {
			opts[a], opts[b] = opts[b], opts[a]
		})
		sl.options = opts
		if sl.status == SlotUnseen {
			sl.status = SlotPresented
		}
	}

	return PooledQuestion{Question: s.pool[i], Options: sl.options}, nil
}

// Submit records the selected option for slot i. Exactly one submission
// per slot counts: a duplicate submission is a no-op that returns the
// already-recorded answer, leaving the counters untouched.
func (s *Session) Submit(i int, selected string) (result.Answer, error) {
	if i < 0 || i >= len(s.pool) {
		return result.Answer{}, fmt.Errorf("%w: %d of %d", ErrSlotOutOfRange, i, len(s.pool))
	}
	if s.finalized {
		return result.Answer{}, ErrFinalized
	}

	sl := &s.slots[i]
	if sl.status == SlotAnswered {
		return sl.answer, nil
	}

	q := s.pool[i]
	ans := result.Answer{
		Section:   q.Section,
		Group:     strconv.Itoa(q.Group),
		Question:  q.Text,
		Selected:  selected,
		Correct:   q.Correct,
		IsCorrect: selected == q.Correct,
	}

	sl.status = SlotAnswered
	sl.answer = ans
	s.answers = append(s.answers, ans)
	if ans.IsCorrect {
		s.correct++
	} else {
		s.incorrect++
	}

	return ans, nil
}

// Advance moves the session to the next slot. Advancing past the last
// slot marks the session complete; further calls are no-ops.
func (s *Session) Advance() {
	if s.position < len(s.pool) {
		s.position++
	}
}

// Finalize turns the session into its immutable Result: timestamp is the
// wall clock at call time, total is the pool size even when the caller
// stopped early, score is the correct counter at this moment. The session
// is terminal afterwards and rejects further submissions.
func (s *Session) Finalize() (result.Result, error) {
	if s.finalized {
		return result.Result{}, ErrFinalized
	}
	if len(s.pool) == 0 {
		return result.Result{}, ErrEmptySession
	}

	s.finalized = true

	answers := make([]result.Answer, len(s.answers))
	copy(answers, s.answers)

	return result.Result{
		Timestamp: time.Now().Format(time.RFC3339),
		Score:     s.correct,
		Total:     len(s.pool),
		Answers:   answers,
	}, nil
}
