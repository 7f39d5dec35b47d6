package testsession_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hamstudy/backend/internal/domain/questionbank"
	"github.com/hamstudy/backend/internal/domain/testsession"
)

func poolOf(n int) []questionbank.Question {
	var qs []questionbank.Question
	for i := 0; i < n; i++ {
		qs = append(qs, questionbank.Question{
			ID:        fmt.Sprintf("B-001-%03d-001", i+1),
			Section:   "B-001",
			Group:     i + 1,
			Text:      fmt.Sprintf("Question %d", i+1),
			Correct:   fmt.Sprintf("right %d", i+1),
			Incorrect: [3]string{"wrong a", "wrong b", "wrong c"},
		})
	}
	return qs
}

func TestPresent_Idempotent(t *testing.T) {
	s := testsession.New(poolOf(3))

	first, err := s.Present(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.Present(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.Options) != 4 {
		t.Fatalf("expected 4 options, got %d", len(first.Options))
	}
	for i := range first.Options {
		if first.Options[i] != second.Options[i] {
			t.Fatalf("re-present reshuffled options: %v vs %v", first.Options, second.Options)
		}
	}
}

func TestPresent_OptionsCompleteSet(t *testing.T) {
	s := testsession.New(poolOf(1))

	pq, err := s.Present(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]bool{"right 1": true, "wrong a": true, "wrong b": true, "wrong c": true}
	for _, opt := range pq.Options {
		if !want[opt] {
			t.Errorf("unexpected option %q", opt)
		}
		delete(want, opt)
	}
	if len(want) != 0 {
		t.Errorf("options missing: %v", want)
	}
}

func TestSubmit_CorrectAndIncorrect(t *testing.T) {
	s := testsession.New(poolOf(2))

	ans, err := s.Submit(0, "right 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ans.IsCorrect {
		t.Error("expected correct answer")
	}

	ans, err = s.Submit(1, "wrong a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.IsCorrect {
		t.Error("expected incorrect answer")
	}
	if ans.Correct != "right 2" {
		t.Errorf("expected recorded correct answer, got %q", ans.Correct)
	}

	if s.Correct() != 1 || s.Incorrect() != 1 {
		t.Errorf("counters = %d/%d, want 1/1", s.Correct(), s.Incorrect())
	}
}

func TestSubmit_DuplicateDoesNotRecount(t *testing.T) {
	s := testsession.New(poolOf(1))

	first, err := s.Submit(0, "right 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second submission with a different selection must be a no-op that
	// returns the recorded answer.
	second, err := s.Submit(0, "wrong a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second != first {
		t.Errorf("duplicate submit returned %+v, want recorded %+v", second, first)
	}
	if s.Correct() != 1 || s.Incorrect() != 0 {
		t.Errorf("counters moved on duplicate submit: %d/%d", s.Correct(), s.Incorrect())
	}
}

func TestSubmit_OutOfRange(t *testing.T) {
	s := testsession.New(poolOf(2))

	if _, err := s.Submit(5, "x"); !errors.Is(err, testsession.ErrSlotOutOfRange) {
		t.Errorf("expected ErrSlotOutOfRange, got %v", err)
	}
	if _, err := s.Submit(-1, "x"); !errors.Is(err, testsession.ErrSlotOutOfRange) {
		t.Errorf("expected ErrSlotOutOfRange, got %v", err)
	}
}

func TestFinalize_CapturesScoreAndTotal(t *testing.T) {
	s := testsession.New(poolOf(4))

	s.Submit(0, "right 1")
	s.Submit(1, "wrong a")
	// Stop early: slots 2 and 3 unanswered.

	res, err := s.Finalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Score != 1 {
		t.Errorf("score = %d, want 1", res.Score)
	}
	if res.Total != 4 {
		t.Errorf("total = %d, want 4 (full pool even when stopped early)", res.Total)
	}
	if len(res.Answers) != 2 {
		t.Errorf("answers = %d, want 2", len(res.Answers))
	}
	if res.Timestamp == "" {
		t.Error("expected timestamp to be set")
	}
	if res.Answers[0].Group != "1" {
		t.Errorf("group stored as %q, want \"1\"", res.Answers[0].Group)
	}
}

func TestFinalize_Terminal(t *testing.T) {
	s := testsession.New(poolOf(2))
	s.Submit(0, "right 1")

	if _, err := s.Finalize(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Submit(1, "right 2"); !errors.Is(err, testsession.ErrFinalized) {
		t.Errorf("expected ErrFinalized on submit after finalize, got %v", err)
	}
	if _, err := s.Finalize(); !errors.Is(err, testsession.ErrFinalized) {
		t.Errorf("expected ErrFinalized on double finalize, got %v", err)
	}
}

func TestFinalize_EmptyPool(t *testing.T) {
	s := testsession.New(nil)

	if _, err := s.Finalize(); !errors.Is(err, testsession.ErrEmptySession) {
		t.Errorf("expected ErrEmptySession, got %v", err)
	}
}

func TestAdvance_StopsAtEnd(t *testing.T) {
	s := testsession.New(poolOf(2))

	if s.Completed() {
		t.Fatal("new session should not be complete")
	}
	s.Advance()
	s.Advance()
	if !s.Completed() {
		t.Fatal("expected session complete after advancing past last slot")
	}
	s.Advance() // no-op
	if s.Position() != 2 {
		t.Errorf("position = %d, want 2", s.Position())
	}
}

func TestRunningPercent(t *testing.T) {
	s := testsession.New(poolOf(3))

	if s.RunningPercent() != 0 {
		t.Errorf("expected 0%% before any answer, got %d", s.RunningPercent())
	}

	s.Submit(0, "right 1")
	s.Submit(1, "wrong a")
	s.Submit(2, "right 3")

	if got := s.RunningPercent(); got != 67 {
		t.Errorf("running percent = %d, want 67", got)
	}
}
