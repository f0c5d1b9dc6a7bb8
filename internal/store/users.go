package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// UserProfile is the stable identity the session loads at start: the profile
// summary and display name. The long-term memory record is loaded separately.
type UserProfile struct {
	UserID  string
	Name    string
	Profile string
}

// LoadUserProfile returns the profile for userID, or ErrNotFound.
func (s *Store) LoadUserProfile(userID string) (UserProfile, error) {
	var p UserProfile
	err := s.db.QueryRow(
		`SELECT user_id, name, profile FROM users WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Name, &p.Profile)
	if errors.Is(err, sql.ErrNoRows) {
		return UserProfile{}, fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	if err != nil {
		return UserProfile{}, fmt.Errorf("%w: load user: %v", ErrPersistence, err)
	}
	return p, nil
}

// UpsertUser creates or updates a user profile.
func (s *Store) UpsertUser(p UserProfile) error {
	_, err := s.db.Exec(
		`INSERT INTO users (user_id, name, profile) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET name = excluded.name, profile = excluded.profile`,
		p.UserID, p.Name, p.Profile,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert user: %v", ErrPersistence, err)
	}
	return nil
}

// ListUsers returns all known users ordered by id.
func (s *Store) ListUsers() ([]UserProfile, error) {
	rows, err := s.db.Query(`SELECT user_id, name, profile FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var out []UserProfile
	for rows.Next() {
		var p UserProfile
		if err := rows.Scan(&p.UserID, &p.Name, &p.Profile); err != nil {
			return nil, fmt.Errorf("%w: list users: %v", ErrPersistence, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrPersistence, err)
	}
	return out, nil
}
