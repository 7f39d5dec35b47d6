package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/hamstudy/backend/internal/domain/result"
)

var (
	// ErrNotFound reports an identity with no stored history where the
	// caller asked for the raw record (ReadAll treats it as an empty
	// history instead).
	ErrNotFound = errors.New("not found")
	// ErrUnavailable reports a storage failure that persisted through
	// retries. Recoverable: the caller should surface it, not crash.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrMalformedRecord reports a stored blob that cannot be decoded at
	// all.
	ErrMalformedRecord = errors.New("malformed record")
)

// ResultStore is append-only persistence of result records per user
// identity. Identities are normalized before every operation, so two
// differently-cased inputs resolve to the same history.
type ResultStore interface {
	// Append adds one result to the identity's history.
	Append(ctx context.Context, identity string, r result.Result) error
	// ReadAll returns the identity's full history in append order. An
	// unknown identity yields an empty history, not an error.
	ReadAll(ctx context.Context, identity string) (result.History, error)
	// ListIdentities returns every identity with stored results.
	ListIdentities(ctx context.Context) ([]string, error)
	// RawJSON returns the identity's history as stored JSON, for the
	// export surface. Unknown identities report ErrNotFound.
	RawJSON(ctx context.Context, identity string) ([]byte, error)
	Close() error
}

// NormalizeIdentity lower-cases and trims an identity string. Applied
// uniformly before every store and read operation.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// decodeHistory decodes a stored JSON array of results. Records that
// fail schema validation are skipped with a warning rather than failing
// the whole history load; a blob that is not a JSON array at all reports
// ErrMalformedRecord.
func decodeHistory(data []byte, identity string, logger *slog.Logger) (result.History, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Join(ErrMalformedRecord, err)
	}

	history := make(result.History, 0, len(raw))
	for i, entry := range raw {
		var r result.Result
		if err := json.Unmarshal(entry, &r); err != nil {
			logger.Warn("skipping undecodable result record",
				"identity", identity, "index", i, "error", err)
			continue
		}
		if !r.Valid() {
			logger.Warn("skipping result record failing schema validation",
				"identity", identity, "index", i)
			continue
		}
		history = append(history, r)
	}
	return history, nil
}
