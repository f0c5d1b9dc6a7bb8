// Package store is the persistence collaborator: user profiles, long-term
// memory records, the per-turn and per-session event logs, and the retrieval
// chunk index, all in one SQLite database. The store, not the pipeline,
// enforces single-writer semantics per user for long-term record updates.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrPersistence wraps every storage failure so callers can detect degraded
// mode with errors.Is.
var ErrPersistence = errors.New("persistence failed")

// ErrNotFound reports a missing row. It also wraps ErrPersistence.
var ErrNotFound = fmt.Errorf("%w: not found", ErrPersistence)

// Store is the SQLite-backed persistence layer.
type Store struct {
	db *sql.DB

	// userLocks serializes long-term record read-modify-write per user id.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create db dir: %v", ErrPersistence, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("%w: open db: %v", ErrPersistence, err)
	}

	s := &Store{db: db, userLocks: map[string]*sync.Mutex{}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id    TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		profile    TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS ltm_records (
		user_id    TEXT PRIMARY KEY REFERENCES users(user_id),
		record     TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS turn_events (
		event_id       TEXT PRIMARY KEY,
		created_at     TEXT NOT NULL,
		user_id        TEXT NOT NULL,
		session_id     TEXT NOT NULL,
		status         TEXT NOT NULL,
		error_detail   TEXT,
		session_topic  TEXT NOT NULL DEFAULT '',
		session_mood   TEXT NOT NULL DEFAULT '',
		focus_emotion  TEXT NOT NULL DEFAULT '',
		crisis_flag    INTEGER NOT NULL DEFAULT 0,
		crisis_level   TEXT NOT NULL DEFAULT '',
		plan           TEXT NOT NULL DEFAULT '',
		results        TEXT NOT NULL DEFAULT '',
		user_message   TEXT NOT NULL DEFAULT '',
		final_response TEXT NOT NULL DEFAULT '',
		transcript     TEXT NOT NULL DEFAULT '',
		completed_intents TEXT NOT NULL DEFAULT '',
		primary_skill     TEXT NOT NULL DEFAULT '',
		frequent_capabilities TEXT NOT NULL DEFAULT '',
		inferred_intent       TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_turn_events_user ON turn_events(user_id, created_at);

	CREATE TABLE IF NOT EXISTS session_events (
		session_id  TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		ended_at    TEXT NOT NULL,
		record      TEXT NOT NULL,
		somatic_focus      TEXT NOT NULL DEFAULT '',
		awareness_shift    TEXT NOT NULL DEFAULT '',
		support_preference TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		source     TEXT NOT NULL,
		content    TEXT NOT NULL,
		embedding  TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrPersistence, err)
	}
	return nil
}

// lockUser returns the mutex guarding one user's long-term record.
func (s *Store) lockUser(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}
