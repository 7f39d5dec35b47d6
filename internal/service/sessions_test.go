package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/hamstudy/backend/internal/domain/questionbank"
	"github.com/hamstudy/backend/internal/domain/result"
	"github.com/hamstudy/backend/internal/domain/testsession"
	"github.com/hamstudy/backend/internal/service"
	"github.com/hamstudy/backend/internal/store"
)

// memStore is an in-memory ResultStore for tests.
type memStore struct {
	histories map[string]result.History
	appendErr error
}

func newMemStore() *memStore {
	return &memStore{histories: make(map[string]result.History)}
}

func (m *memStore) Append(_ context.Context, identity string, r result.Result) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	id := store.NormalizeIdentity(identity)
	m.histories[id] = append(m.histories[id], r)
	return nil
}

func (m *memStore) ReadAll(_ context.Context, identity string) (result.History, error) {
	return m.histories[store.NormalizeIdentity(identity)], nil
}

func (m *memStore) ListIdentities(_ context.Context) ([]string, error) {
	var ids []string
	for id := range m.histories {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memStore) RawJSON(_ context.Context, identity string) ([]byte, error) {
	return nil, store.ErrNotFound
}

func (m *memStore) Close() error { return nil }

func testBank(topics int) *questionbank.Bank {
	var qs []questionbank.Question
	for g := 1; g <= topics; g++ {
		for n := 1; n <= 2; n++ {
			qs = append(qs, questionbank.Question{
				ID:        fmt.Sprintf("B-001-%03d-%03d", g, n),
				Section:   "B-001",
				Group:     g,
				Text:      fmt.Sprintf("Question %d-%d", g, n),
				Correct:   "right",
				Incorrect: [3]string{"a", "b", "c"},
			})
		}
	}
	return questionbank.New(qs, nil)
}

func newManager(bank *questionbank.Bank, s store.ResultStore) *service.SessionManager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewSessionManager(bank, s, logger)
}

func TestStart_StandardPoolSize(t *testing.T) {
	m := newManager(testBank(8), newMemStore())

	id, sess, err := m.Start(context.Background(), service.ModeStandard, "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if id == "" {
		t.Error("expected non-empty session id")
	}
	if sess.Total() != 8 {
		t.Errorf("expected one question per topic (8), got %d", sess.Total())
	}

	got, err := m.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != sess {
		t.Error("Get returned a different session")
	}
}

func TestStart_EmptyModeDefaultsToStandard(t *testing.T) {
	m := newManager(testBank(3), newMemStore())

	_, sess, err := m.Start(context.Background(), "", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sess.Total() != 3 {
		t.Errorf("expected 3 questions, got %d", sess.Total())
	}
}

func TestStart_UnknownMode(t *testing.T) {
	m := newManager(testBank(3), newMemStore())

	_, _, err := m.Start(context.Background(), "speedrun", "someone@example.com")
	if !errors.Is(err, service.ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestStart_PersonalizedRequiresIdentity(t *testing.T) {
	m := newManager(testBank(3), newMemStore())

	for _, mode := range []service.Mode{service.ModeUnseen, service.ModeWeak} {
		_, _, err := m.Start(context.Background(), mode, "   ")
		if !errors.Is(err, service.ErrIdentityRequired) {
			t.Errorf("mode %s: expected ErrIdentityRequired, got %v", mode, err)
		}
	}
}

func TestStart_UnseenWithNoHistoryCoversBank(t *testing.T) {
	m := newManager(testBank(4), newMemStore())

	_, sess, err := m.Start(context.Background(), service.ModeUnseen, "new@example.com")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	// Nothing seen: subset draw gives one per topic, backfill tops up
	// with the remaining bank questions.
	if sess.Total() != 8 {
		t.Errorf("expected full bank (8) via backfill, got %d", sess.Total())
	}
}

func TestSave_AppendsAndDiscards(t *testing.T) {
	st := newMemStore()
	m := newManager(testBank(2), st)
	ctx := context.Background()

	id, sess, err := m.Start(ctx, service.ModeStandard, "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	sess.Submit(0, "right")

	res, err := m.Save(ctx, id, "User@Example.com")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.Score != 1 || res.Total != 2 {
		t.Errorf("result %d/%d, want 1/2", res.Score, res.Total)
	}

	history := st.histories["user@example.com"]
	if len(history) != 1 {
		t.Fatalf("expected 1 stored result under normalized identity, got %d", len(history))
	}

	if _, err := m.Get(id); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("expected session discarded after save, got %v", err)
	}
}

func TestSave_RequiresIdentity(t *testing.T) {
	m := newManager(testBank(2), newMemStore())
	ctx := context.Background()

	id, _, _ := m.Start(ctx, service.ModeStandard, "")
	if _, err := m.Save(ctx, id, "  "); !errors.Is(err, service.ErrIdentityRequired) {
		t.Errorf("expected ErrIdentityRequired, got %v", err)
	}
}

func TestSave_RetryAfterStorageFailure(t *testing.T) {
	st := newMemStore()
	m := newManager(testBank(2), st)
	ctx := context.Background()

	id, sess, _ := m.Start(ctx, service.ModeStandard, "")
	sess.Submit(0, "right")

	st.appendErr = store.ErrUnavailable
	if _, err := m.Save(ctx, id, "user@example.com"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected storage error surfaced, got %v", err)
	}

	// The attempt must survive the failed save and append on retry.
	st.appendErr = nil
	res, err := m.Save(ctx, id, "user@example.com")
	if err != nil {
		t.Fatalf("retry save: %v", err)
	}
	if res.Score != 1 {
		t.Errorf("retry lost the finalized result: score %d", res.Score)
	}
	if len(st.histories["user@example.com"]) != 1 {
		t.Errorf("expected exactly 1 stored result after retry")
	}
}

func TestSave_EmptySession(t *testing.T) {
	m := newManager(questionbank.New(nil, nil), newMemStore())
	ctx := context.Background()

	id, _, err := m.Start(ctx, service.ModeStandard, "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := m.Save(ctx, id, "user@example.com"); !errors.Is(err, testsession.ErrEmptySession) {
		t.Errorf("expected ErrEmptySession, got %v", err)
	}
}

func TestDiscard_UnknownIDIsNoop(t *testing.T) {
	m := newManager(testBank(2), newMemStore())
	m.Discard("does-not-exist")
}
