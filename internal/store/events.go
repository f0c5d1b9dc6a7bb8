package store

import (
	"fmt"
	"time"
)

// TurnStatus records whether a turn completed cleanly.
type TurnStatus string

const (
	TurnSuccess TurnStatus = "SUCCESS"
	TurnFailure TurnStatus = "FAILURE"
)

// TurnEvent is the immutable audit row appended after every turn.
type TurnEvent struct {
	EventID     string
	CreatedAt   time.Time
	UserID      string
	SessionID   string
	Status      TurnStatus
	ErrorDetail string

	SessionTopic string
	SessionMood  string
	FocusEmotion string
	CrisisFlag   bool
	CrisisLevel  string

	// Plan and Results are JSON-serialized by the caller.
	Plan    string
	Results string

	UserMessage   string
	FinalResponse string
	Transcript    string

	CompletedIntents     string
	PrimarySkill         string
	FrequentCapabilities string
	InferredIntent       string
}

// AppendTurnEvent inserts one turn event row. Rows are never updated or
// deleted by the core.
func (s *Store) AppendTurnEvent(ev TurnEvent) error {
	var errDetail any
	if ev.ErrorDetail != "" {
		errDetail = ev.ErrorDetail
	}
	_, err := s.db.Exec(
		`INSERT INTO turn_events (
			event_id, created_at, user_id, session_id, status, error_detail,
			session_topic, session_mood, focus_emotion, crisis_flag, crisis_level,
			plan, results, user_message, final_response, transcript,
			completed_intents, primary_skill, frequent_capabilities, inferred_intent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.EventID, ev.CreatedAt.UTC().Format(time.RFC3339), ev.UserID, ev.SessionID,
		string(ev.Status), errDetail,
		ev.SessionTopic, ev.SessionMood, ev.FocusEmotion, boolInt(ev.CrisisFlag), ev.CrisisLevel,
		ev.Plan, ev.Results, ev.UserMessage, ev.FinalResponse, ev.Transcript,
		ev.CompletedIntents, ev.PrimarySkill, ev.FrequentCapabilities, ev.InferredIntent,
	)
	if err != nil {
		return fmt.Errorf("%w: append turn event: %v", ErrPersistence, err)
	}
	return nil
}

// RecentTurnEvents returns up to limit of the user's most recent turn events,
// newest first.
func (s *Store) RecentTurnEvents(userID string, limit int) ([]TurnEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT event_id, created_at, user_id, session_id, status,
			COALESCE(error_detail, ''), session_topic, session_mood, focus_emotion,
			crisis_flag, crisis_level, user_message, final_response
		 FROM turn_events WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: recent turn events: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var out []TurnEvent
	for rows.Next() {
		var ev TurnEvent
		var created, status string
		var crisis int
		if err := rows.Scan(
			&ev.EventID, &created, &ev.UserID, &ev.SessionID, &status,
			&ev.ErrorDetail, &ev.SessionTopic, &ev.SessionMood, &ev.FocusEmotion,
			&crisis, &ev.CrisisLevel, &ev.UserMessage, &ev.FinalResponse,
		); err != nil {
			return nil, fmt.Errorf("%w: recent turn events: %v", ErrPersistence, err)
		}
		ev.Status = TurnStatus(status)
		ev.CrisisFlag = crisis != 0
		ev.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: recent turn events: %v", ErrPersistence, err)
	}
	return out, nil
}

// SessionEvent is the immutable audit row appended once per session at
// consolidation time, carrying the fully updated long-term record.
type SessionEvent struct {
	SessionID string
	UserID    string
	StartedAt time.Time
	EndedAt   time.Time

	// Record is the consolidated long-term record, JSON-serialized.
	Record string

	SomaticFocus      string
	AwarenessShift    string
	SupportPreference string
}

// AppendSessionEvent inserts one session consolidation row.
func (s *Store) AppendSessionEvent(ev SessionEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO session_events (
			session_id, user_id, started_at, ended_at, record,
			somatic_focus, awareness_shift, support_preference
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.SessionID, ev.UserID,
		ev.StartedAt.UTC().Format(time.RFC3339), ev.EndedAt.UTC().Format(time.RFC3339),
		ev.Record, ev.SomaticFocus, ev.AwarenessShift, ev.SupportPreference,
	)
	if err != nil {
		return fmt.Errorf("%w: append session event: %v", ErrPersistence, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
