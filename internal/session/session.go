// Package session owns the lifecycle around the turn pipeline: loading a
// user's profile and long-term record at session start, running turns,
// accumulating the transcript and session rollups, and consolidating memory
// exactly once at session end.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solace/internal/memory"
	"solace/internal/pipeline"
	"solace/internal/store"
	"solace/internal/turn"
)

// AssistantName is the persona label used for assistant transcript lines.
const AssistantName = "Solace"

// ErrSessionEnded reports a second End on the same session. Consolidation is
// append-only and not idempotent, so End must run at most once.
var ErrSessionEnded = errors.New("session already ended")

// Persistence is the slice of the store the session layer needs. The store's
// UpdateRecord enforces single-writer semantics per user.
type Persistence interface {
	LoadUserProfile(userID string) (store.UserProfile, error)
	LoadRecord(userID string) (memory.Record, error)
	UpdateRecord(userID string, fn func(prev memory.Record) (memory.Record, error)) (memory.Record, error)
	AppendTurnEvent(ev store.TurnEvent) error
	AppendSessionEvent(ev store.SessionEvent) error
}

// Manager creates sessions around a shared pipeline, insight extractor and
// persistence layer.
type Manager struct {
	pipeline  *pipeline.Pipeline
	extractor *memory.Extractor
	persist   Persistence
	log       *zap.Logger
}

// NewManager wires the session layer.
func NewManager(p *pipeline.Pipeline, ex *memory.Extractor, persist Persistence, log *zap.Logger) *Manager {
	return &Manager{pipeline: p, extractor: ex, persist: persist, log: log}
}

// Session is one bounded conversation for one user. It is not safe for
// concurrent use; a session belongs to a single conversational loop.
type Session struct {
	m *Manager

	ID     string
	UserID string

	profile    store.UserProfile
	record     memory.Record
	transcript turn.Transcript
	startedAt  time.Time

	completedIntents []string
	primarySkill     string
	frequent         []string
	lastSignals      turn.Signals

	// Degraded is set when a persistence failure forced in-memory defaults
	// or dropped an event write; callers must surface it as a warning.
	Degraded bool

	ended bool
}

// Start opens a session for a known user. An unknown user id is an error; a
// failing persistence layer degrades to empty defaults instead, so the
// conversation can still happen.
func (m *Manager) Start(userID string) (*Session, error) {
	s := &Session{
		m:         m,
		ID:        uuid.NewString(),
		UserID:    userID,
		startedAt: time.Now(),
		record:    memory.NewRecord(),
	}

	profile, err := m.persist.LoadUserProfile(userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, err
	case err != nil:
		m.log.Warn("profile load failed, starting degraded", zap.String("user_id", userID), zap.Error(err))
		s.profile = store.UserProfile{UserID: userID, Name: "there"}
		s.Degraded = true
	default:
		s.profile = profile
	}

	record, err := m.persist.LoadRecord(userID)
	if err != nil {
		m.log.Warn("record load failed, starting degraded", zap.String("user_id", userID), zap.Error(err))
		s.Degraded = true
	} else {
		s.record = record
	}

	s.transcript = turn.Transcript{{
		Speaker: AssistantName,
		Text:    fmt.Sprintf("Hi %s! How can I support you today?", s.profile.Name),
	}}

	m.log.Info("session started", zap.String("session_id", s.ID), zap.String("user_id", userID))
	return s, nil
}

// Greeting returns the opening assistant line.
func (s *Session) Greeting() string {
	return s.transcript[0].Text
}

// UserName returns the user's display name.
func (s *Session) UserName() string { return s.profile.Name }

// LastCrisisLevel reports the crisis assessment of the most recent turn.
func (s *Session) LastCrisisLevel() turn.CrisisLevel { return s.lastSignals.CrisisLevel }

// Turn runs one user message through the pipeline and returns the reply. The
// reply is always usable; the error reports an unrecovered stage failure
// already reflected in the reply's fallback content. The turn event is
// appended regardless of outcome.
func (s *Session) Turn(ctx context.Context, message string) (string, error) {
	st := &turn.State{
		UserMessage:      message,
		Transcript:       append(turn.Transcript(nil), s.transcript...),
		UserProfile:      s.profile.Profile,
		UserName:         s.profile.Name,
		Memory:           s.record.Clone(),
		CompletedIntents: append([]string(nil), s.completedIntents...),
		PrimarySkill:     s.primarySkill,
	}

	runErr := s.m.pipeline.Run(ctx, st)

	s.transcript = append(s.transcript,
		turn.Line{Speaker: "User", Text: message},
		turn.Line{Speaker: AssistantName, Text: st.FinalResponse},
	)
	s.lastSignals = st.Signals

	if st.InferredIntent != "" {
		s.completedIntents = append(s.completedIntents, st.InferredIntent)
		if s.primarySkill == "" {
			s.primarySkill = st.InferredIntent
		}
	}
	s.frequent = append(s.frequent, st.FrequentCapabilities...)

	if err := s.m.persist.AppendTurnEvent(s.turnEvent(st, runErr)); err != nil {
		// Degrade loudly: the reply still goes out, but the caller must know
		// the audit write was lost.
		s.m.log.Error("turn event write failed", zap.String("session_id", s.ID), zap.Error(err))
		s.Degraded = true
	}

	return st.FinalResponse, runErr
}

func (s *Session) turnEvent(st *turn.State, runErr error) store.TurnEvent {
	status := store.TurnSuccess
	detail := ""
	if runErr != nil {
		status = store.TurnFailure
		detail = runErr.Error()
	}

	planJSON := ""
	if st.Plan != nil {
		if raw, err := json.Marshal(st.Plan); err == nil {
			planJSON = string(raw)
		}
	}
	resultsJSON := ""
	if raw, err := json.Marshal(st.Results); err == nil {
		resultsJSON = string(raw)
	}

	return store.TurnEvent{
		EventID:     uuid.NewString(),
		CreatedAt:   time.Now(),
		UserID:      s.UserID,
		SessionID:   s.ID,
		Status:      status,
		ErrorDetail: detail,

		SessionTopic: st.Signals.SessionTopic,
		SessionMood:  st.Signals.SessionMood,
		FocusEmotion: st.Signals.FocusEmotion,
		CrisisFlag:   st.Signals.CrisisFlag,
		CrisisLevel:  string(st.Signals.CrisisLevel),

		Plan:          planJSON,
		Results:       resultsJSON,
		UserMessage:   st.UserMessage,
		FinalResponse: st.FinalResponse,
		Transcript:    s.transcript.String(),

		CompletedIntents:     strings.Join(s.completedIntents, "; "),
		PrimarySkill:         s.primarySkill,
		FrequentCapabilities: strings.Join(s.frequent, "; "),
		InferredIntent:       st.InferredIntent,
	}
}

// End extracts the session's insights, consolidates them into the user's
// long-term record, and appends the session event. It runs at most once per
// session, and the record update is all-or-nothing: a failed extraction or
// merge leaves the stored record untouched.
func (s *Session) End(ctx context.Context) (memory.Record, error) {
	if s.ended {
		return memory.Record{}, ErrSessionEnded
	}
	s.ended = true

	focusEmotion := s.lastSignals.FocusEmotion
	if focusEmotion == "" {
		focusEmotion = "Neutral"
	}
	date := time.Now().Format("2006-01-02")

	ins, err := s.m.extractor.Extract(ctx, memory.ExtractInput{
		Profile:       s.profile.Profile,
		RecentJourney: s.record.RecentJourney(5),
		Toolkit:       s.record.Toolkit,
		Intentions:    s.record.Intentions,
		Threads:       s.record.Threads,
		Transcript:    s.transcript.String(),
		FocusEmotion:  focusEmotion,
		Date:          date,
	})
	if err != nil {
		return memory.Record{}, fmt.Errorf("insight extraction: %w", err)
	}

	updated, err := s.m.persist.UpdateRecord(s.UserID, func(prev memory.Record) (memory.Record, error) {
		return memory.Consolidate(prev, ins, focusEmotion, date), nil
	})
	if err != nil {
		return memory.Record{}, err
	}

	recordJSON := ""
	if raw, err := json.Marshal(updated); err == nil {
		recordJSON = string(raw)
	}
	if err := s.m.persist.AppendSessionEvent(store.SessionEvent{
		SessionID:         s.ID,
		UserID:            s.UserID,
		StartedAt:         s.startedAt,
		EndedAt:           time.Now(),
		Record:            recordJSON,
		SomaticFocus:      ins.SomaticFocus,
		AwarenessShift:    ins.AwarenessShift,
		SupportPreference: ins.SupportPreference,
	}); err != nil {
		s.m.log.Error("session event write failed", zap.String("session_id", s.ID), zap.Error(err))
		s.Degraded = true
	}

	s.m.log.Info("session consolidated",
		zap.String("session_id", s.ID),
		zap.String("focus_emotion", focusEmotion),
		zap.Int("journey_len", len(updated.Journey)),
	)
	return updated, nil
}
