package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hupe1980/wordmesh/core"
	"github.com/hupe1980/wordmesh/logging"
)

// SQLiteStore persists session state as JSON rows in a SQLite database.
// One row per session; Put upserts the full serialized state.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

var _ core.SessionStore = (*SQLiteStore)(nil)

// SQLiteOption configures the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteLogger sets the logger used by the store.
func WithSQLiteLogger(logger logging.Logger) SQLiteOption {
	return func(s *SQLiteStore) {
		s.logger = logger
	}
}

// NewSQLiteStore opens (creating if necessary) the database at path and runs
// the schema migration. The parent directory is created when missing.
func NewSQLiteStore(path string, optFns ...SQLiteOption) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(store)
	}

	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	store.logger.Debug("session database ready", "path", path)

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate sessions table: %w", err)
	}
	return nil
}

// Get loads the session state, returning a fresh empty state for unknown
// ids. The empty state is not written back until the first Put.
func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (*core.SessionState, error) {
	var raw string

	row := s.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, sessionID)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.NewSessionState(sessionID), nil
		}
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	state := &core.SessionState{}
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}

	return state, nil
}

// Put serializes the state and upserts it under the session id.
func (s *SQLiteStore) Put(ctx context.Context, sessionID string, state *core.SessionState) error {
	raw, err := json.Marshal(state.Clone())
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO sessions (id, state, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = CURRENT_TIMESTAMP`,
		sessionID, string(raw))
	if err != nil {
		return fmt.Errorf("store session %s: %w", sessionID, err)
	}

	return nil
}

// Delete removes the session row. Deleting an unknown id is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
