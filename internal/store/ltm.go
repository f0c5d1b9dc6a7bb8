package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"solace/internal/memory"
)

// LoadRecord returns the user's long-term memory record. A user with no
// stored record yet gets empty defaults, not an error.
func (s *Store) LoadRecord(userID string) (memory.Record, error) {
	var raw string
	err := s.db.QueryRow(`SELECT record FROM ltm_records WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return memory.NewRecord(), nil
	}
	if err != nil {
		return memory.Record{}, fmt.Errorf("%w: load record: %v", ErrPersistence, err)
	}

	var rec memory.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return memory.Record{}, fmt.Errorf("%w: decode record: %v", ErrPersistence, err)
	}
	return rec, nil
}

// UpdateRecord applies fn to the user's current record and persists the
// result atomically. The read-modify-write runs under a per-user lock, so
// concurrent session ends for the same user serialize instead of losing
// updates. The new record is written whole; a failed merge writes nothing.
func (s *Store) UpdateRecord(userID string, fn func(prev memory.Record) (memory.Record, error)) (memory.Record, error) {
	lock := s.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	prev, err := s.LoadRecord(userID)
	if err != nil {
		return memory.Record{}, err
	}

	next, err := fn(prev)
	if err != nil {
		return memory.Record{}, err
	}

	if err := s.replaceRecord(userID, next); err != nil {
		return memory.Record{}, err
	}
	return next, nil
}

// replaceRecord writes the complete record in one statement.
func (s *Store) replaceRecord(userID string, rec memory.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode record: %v", ErrPersistence, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO ltm_records (user_id, record, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		userID, string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("%w: replace record: %v", ErrPersistence, err)
	}
	return nil
}
