// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/hamstudy/backend/internal/domain/result"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    identity TEXT NOT NULL,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_identity ON results(identity);
`

// SQLiteStore is the single-node ResultStore backend: one row per
// appended result, read back in insertion order. Unlike the blob
// backend, each append is a single INSERT, so concurrent sessions
// saving under the same identity cannot lose results.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLite opens (or creates) the database at dbPath.
func NewSQLite(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append stores one result under the normalized identity.
func (s *SQLiteStore) Append(ctx context.Context, identity string, r result.Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO results (identity, payload) VALUES (?, ?)",
		NormalizeIdentity(identity), string(payload),
	)
	return err
}

// ReadAll returns the identity's history in append order. Rows that fail
// schema validation are skipped with a warning.
func (s *SQLiteStore) ReadAll(ctx context.Context, identity string) (result.History, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, payload FROM results WHERE identity = ? ORDER BY id",
		NormalizeIdentity(identity),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := result.History{}
	for rows.Next() {
		var id int64
		var payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}

		var r result.Result
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			s.logger.Warn("skipping undecodable result row", "identity", identity, "row", id, "error", err)
			continue
		}
		if !r.Valid() {
			s.logger.Warn("skipping result row failing schema validation", "identity", identity, "row", id)
			continue
		}
		history = append(history, r)
	}
	return history, rows.Err()
}

// ListIdentities returns every identity with at least one stored result.
func (s *SQLiteStore) ListIdentities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT identity FROM results ORDER BY identity")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var identities []string
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

// RawJSON re-encodes the identity's history as one JSON array, matching
// the blob backend's object format.
func (s *SQLiteStore) RawJSON(ctx context.Context, identity string) ([]byte, error) {
	history, err := s.ReadAll(ctx, identity)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrNotFound
	}
	return json.MarshalIndent(history, "", "  ")
}
