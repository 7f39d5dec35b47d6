// internal/service/sessions.go
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hamstudy/backend/internal/analytics"
	"github.com/hamstudy/backend/internal/domain/pool"
	"github.com/hamstudy/backend/internal/domain/questionbank"
	"github.com/hamstudy/backend/internal/domain/result"
	"github.com/hamstudy/backend/internal/domain/testsession"
	"github.com/hamstudy/backend/internal/store"
)

// Mode selects the question source for a new session.
type Mode string

const (
	ModeStandard Mode = "standard" // whole bank
	ModeUnseen   Mode = "unseen"   // questions never answered by this identity
	ModeWeak     Mode = "weak"     // questions this identity keeps getting wrong
)

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrIdentityRequired reports a personalized mode started without an
	// identity to read history for.
	ErrIdentityRequired = errors.New("identity required for personalized session")
	ErrUnknownMode      = errors.New("unknown session mode")
)

// SessionManager owns the in-memory registry of active test sessions.
// Each session is driven by one caller sequence; the manager only
// guards the registry itself.
type SessionManager struct {
	bank   *questionbank.Bank
	store  store.ResultStore
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*activeSession
}

type activeSession struct {
	session *testsession.Session
	mode    Mode
	// final holds the finalized result when a save attempt failed at the
	// store, so a retry re-appends instead of losing the attempt.
	final *result.Result
}

// NewSessionManager creates a SessionManager over the shared bank and
// result store.
func NewSessionManager(bank *questionbank.Bank, s store.ResultStore, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		bank:     bank,
		store:    s,
		logger:   logger,
		sessions: make(map[string]*activeSession),
	}
}

// Start samples a pool for the given mode and registers a new session.
// Personalized modes read the identity's history first; an identity with
// no history simply gets full backfill from the bank.
func (m *SessionManager) Start(ctx context.Context, mode Mode, identity string) (string, *testsession.Session, error) {
	var questions []questionbank.Question

	switch mode {
	case ModeStandard, "":
		mode = ModeStandard
		questions = pool.Build(m.bank.Questions(), pool.DefaultCap)

	case ModeUnseen:
		history, err := m.historyFor(ctx, identity)
		if err != nil {
			return "", nil, err
		}
		seen := analytics.SeenQuestions(history)
		subset := m.bank.Filter(func(q questionbank.Question) bool {
			return !seen[q.Text]
		})
		questions = pool.BuildPersonalized(subset, m.bank, pool.DefaultCap)

	case ModeWeak:
		history, err := m.historyFor(ctx, identity)
		if err != nil {
			return "", nil, err
		}
		accuracy := analytics.QuestionAccuracy(history)
		subset := m.bank.Filter(func(q questionbank.Question) bool {
			acc, attempted := accuracy[q.Text]
			return attempted && acc < pool.WeakThreshold
		})
		questions = pool.BuildPersonalized(subset, m.bank, pool.DefaultCap)

	default:
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	session := testsession.New(questions)
	id := newSessionID()

	m.mu.Lock()
	m.sessions[id] = &activeSession{session: session, mode: mode}
	m.mu.Unlock()

	m.logger.Info("session started", "session_id", id, "mode", mode, "questions", session.Total())
	return id, session, nil
}

func (m *SessionManager) historyFor(ctx context.Context, identity string) (result.History, error) {
	if store.NormalizeIdentity(identity) == "" {
		return nil, ErrIdentityRequired
	}
	return m.store.ReadAll(ctx, identity)
}

// Get returns an active session.
func (m *SessionManager) Get(id string) (*testsession.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	active, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return active.session, nil
}

// Save finalizes the session and appends its result to the identity's
// history. On a storage failure the finalized result is kept so the
// caller can retry the save; on success the session is discarded.
func (m *SessionManager) Save(ctx context.Context, id, identity string) (result.Result, error) {
	if store.NormalizeIdentity(identity) == "" {
		return result.Result{}, ErrIdentityRequired
	}

	m.mu.Lock()
	active, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return result.Result{}, ErrSessionNotFound
	}

	if active.final == nil {
		res, err := active.session.Finalize()
		if err != nil {
			return result.Result{}, err
		}
		active.final = &res
	}

	if err := m.store.Append(ctx, identity, *active.final); err != nil {
		m.logger.Error("saving result failed", "session_id", id, "error", err)
		return result.Result{}, err
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	m.logger.Info("result saved", "session_id", id,
		"score", active.final.Score, "total", active.final.Total)
	return *active.final, nil
}

// Discard drops a session unconditionally. Unknown IDs are a no-op:
// restart after a crash must always succeed.
func (m *SessionManager) Discard(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// newSessionID creates a unique 16-character alphanumeric ID.
func newSessionID() string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = chars[b[i]%byte(len(chars))]
	}
	return string(b)
}
