package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"solace/internal/gen"
	"solace/internal/memory"
	"solace/internal/pipeline"
	"solace/internal/responder"
	"solace/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakePersist is an in-memory Persistence double with switchable failures.
type fakePersist struct {
	profiles map[string]store.UserProfile
	records  map[string]memory.Record

	turnEvents    []store.TurnEvent
	sessionEvents []store.SessionEvent

	failProfiles bool
	failRecords  bool
	failEvents   bool
}

func newFakePersist() *fakePersist {
	return &fakePersist{
		profiles: map[string]store.UserProfile{},
		records:  map[string]memory.Record{},
	}
}

func (f *fakePersist) LoadUserProfile(userID string) (store.UserProfile, error) {
	if f.failProfiles {
		return store.UserProfile{}, fmt.Errorf("%w: db offline", store.ErrPersistence)
	}
	p, ok := f.profiles[userID]
	if !ok {
		return store.UserProfile{}, fmt.Errorf("user %q: %w", userID, store.ErrNotFound)
	}
	return p, nil
}

func (f *fakePersist) LoadRecord(userID string) (memory.Record, error) {
	if f.failRecords {
		return memory.Record{}, fmt.Errorf("%w: db offline", store.ErrPersistence)
	}
	rec, ok := f.records[userID]
	if !ok {
		return memory.NewRecord(), nil
	}
	return rec.Clone(), nil
}

func (f *fakePersist) UpdateRecord(userID string, fn func(prev memory.Record) (memory.Record, error)) (memory.Record, error) {
	if f.failRecords {
		return memory.Record{}, fmt.Errorf("%w: db offline", store.ErrPersistence)
	}
	prev, ok := f.records[userID]
	if !ok {
		prev = memory.NewRecord()
	}
	next, err := fn(prev.Clone())
	if err != nil {
		return memory.Record{}, err
	}
	f.records[userID] = next.Clone()
	return next, nil
}

func (f *fakePersist) AppendTurnEvent(ev store.TurnEvent) error {
	if f.failEvents {
		return fmt.Errorf("%w: db offline", store.ErrPersistence)
	}
	f.turnEvents = append(f.turnEvents, ev)
	return nil
}

func (f *fakePersist) AppendSessionEvent(ev store.SessionEvent) error {
	if f.failEvents {
		return fmt.Errorf("%w: db offline", store.ErrPersistence)
	}
	f.sessionEvents = append(f.sessionEvents, ev)
	return nil
}

func calmAnalysis() string {
	return `{"session_topic": "t", "session_mood": "m", "focus_emotion": "Anxiety",
		"crisis_flag": false, "crisis_level": "Low Risk"}`
}

func reflectionOnlyPlan() string {
	return `{"question": "x", "steps": [
		{"capability": "reflection", "framing": "mirror", "rationale": "r", "personal_data": false}
	]}`
}

func insightJSON() string {
	return `{
		"journey_sentence": "Ana noticed her stress is anticipatory.",
		"somatic_focus": "chest",
		"awareness_shift": "The stress peaks before the event.",
		"support_preference": "reflective",
		"helpful_tools": ["box breathing"],
		"unhelpful_tools": [],
		"new_intention": "Pause before meetings",
		"snapshot": {"date": "", "intensity": "High", "user_words": "on edge", "session_insight": "naming helps"}
	}`
}

func newTestManager(fake *gen.Fake, persist Persistence) *Manager {
	rs := pipeline.Responders{
		Crisis:     responder.NewCrisis(),
		Factual:    responder.NewFactual(fake, nil, 0),
		Dialogue:   responder.NewDialogue(fake),
		Reflection: responder.NewReflection(fake),
		Wellness:   responder.NewWellness(fake),
	}
	return NewManager(
		pipeline.New(fake, rs, zap.NewNop()),
		memory.NewExtractor(fake),
		persist,
		zap.NewNop(),
	)
}

func seededPersist() *fakePersist {
	p := newFakePersist()
	p.profiles["ana"] = store.UserProfile{UserID: "ana", Name: "Ana", Profile: "29, engineer"}
	return p
}

func TestStartUnknownUserFails(t *testing.T) {
	m := newTestManager(gen.NewFake(), newFakePersist())

	_, err := m.Start("ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStartGreetsByName(t *testing.T) {
	m := newTestManager(gen.NewFake(), seededPersist())

	s, err := m.Start("ana")
	require.NoError(t, err)
	assert.Equal(t, "Hi Ana! How can I support you today?", s.Greeting())
	assert.False(t, s.Degraded)
}

func TestStartDegradesOnPersistenceFailure(t *testing.T) {
	p := seededPersist()
	p.failProfiles = true
	p.failRecords = true
	m := newTestManager(gen.NewFake(), p)

	s, err := m.Start("ana")
	require.NoError(t, err)
	assert.True(t, s.Degraded)
	assert.Equal(t, "Hi there! How can I support you today?", s.Greeting())
}

func TestTurnAppendsTranscriptAndEvent(t *testing.T) {
	fake := gen.NewFake().
		Script("analyzer", calmAnalysis()).
		Script("planner", reflectionOnlyPlan()).
		Script("reflection", `{"response": "I hear you."}`).
		Script("synthesis", `{"response": "I hear you. What feels heaviest?"}`)
	persist := seededPersist()
	m := newTestManager(fake, persist)

	s, err := m.Start("ana")
	require.NoError(t, err)

	reply, err := s.Turn(context.Background(), "rough day at work")
	require.NoError(t, err)
	assert.Equal(t, "I hear you. What feels heaviest?", reply)

	require.Len(t, persist.turnEvents, 1)
	ev := persist.turnEvents[0]
	assert.Equal(t, store.TurnSuccess, ev.Status)
	assert.Equal(t, "rough day at work", ev.UserMessage)
	assert.Equal(t, "Anxiety", ev.FocusEmotion)
	assert.Equal(t, s.ID, ev.SessionID)
	assert.Contains(t, ev.Transcript, "User: rough day at work")
	assert.Contains(t, ev.Transcript, "Solace: I hear you. What feels heaviest?")
}

func TestTurnFailureStillReplies(t *testing.T) {
	fake := gen.NewFake().ScriptError("analyzer", gen.ErrGeneration)
	persist := seededPersist()
	m := newTestManager(fake, persist)

	s, err := m.Start("ana")
	require.NoError(t, err)

	reply, err := s.Turn(context.Background(), "hello")
	assert.ErrorIs(t, err, gen.ErrGeneration)
	assert.Equal(t, pipeline.FallbackResponse, reply)

	// The failed turn is still audited.
	require.Len(t, persist.turnEvents, 1)
	assert.Equal(t, store.TurnFailure, persist.turnEvents[0].Status)
	assert.NotEmpty(t, persist.turnEvents[0].ErrorDetail)
}

func TestTurnEventWriteFailureDegrades(t *testing.T) {
	fake := gen.NewFake().
		Script("analyzer", calmAnalysis()).
		Script("planner", reflectionOnlyPlan()).
		Script("reflection", `{"response": "I hear you."}`).
		Script("synthesis", `{"response": "I hear you."}`)
	persist := seededPersist()
	persist.failEvents = true
	m := newTestManager(fake, persist)

	s, err := m.Start("ana")
	require.NoError(t, err)

	reply, err := s.Turn(context.Background(), "hi")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
	assert.True(t, s.Degraded, "a lost audit write must be surfaced")
}

func TestEndConsolidatesOnce(t *testing.T) {
	fake := gen.NewFake().
		Script("analyzer", calmAnalysis()).
		Script("planner", reflectionOnlyPlan()).
		Script("reflection", `{"response": "I hear you."}`).
		Script("synthesis", `{"response": "I hear you."}`).
		Script("insight", insightJSON())
	persist := seededPersist()
	m := newTestManager(fake, persist)

	s, err := m.Start("ana")
	require.NoError(t, err)
	_, err = s.Turn(context.Background(), "I get anxious before meetings")
	require.NoError(t, err)

	updated, err := s.End(context.Background())
	require.NoError(t, err)

	require.Len(t, updated.Journey, 1)
	assert.Contains(t, updated.Journey[0], "Ana noticed her stress is anticipatory.")
	assert.Equal(t, []string{"box breathing"}, updated.Toolkit.FoundHelpful)
	assert.Equal(t, []string{"Pause before meetings"}, updated.Intentions)
	require.Contains(t, updated.Threads, "Anxiety")

	// The stored record matches what End returned.
	stored := persist.records["ana"]
	assert.Equal(t, updated.Journey, stored.Journey)

	require.Len(t, persist.sessionEvents, 1)
	se := persist.sessionEvents[0]
	assert.Equal(t, s.ID, se.SessionID)
	assert.Equal(t, "chest", se.SomaticFocus)
	assert.Equal(t, "reflective", se.SupportPreference)

	// Consolidation runs at most once.
	_, err = s.End(context.Background())
	assert.ErrorIs(t, err, ErrSessionEnded)
	assert.Equal(t, 1, fake.CallCount("insight"))
}

func TestEndExtractionFailureLeavesRecordUntouched(t *testing.T) {
	fake := gen.NewFake().ScriptError("insight", gen.ErrGeneration)
	persist := seededPersist()
	persist.records["ana"] = memory.Record{Journey: []string{"2026-08-01: started"}}
	m := newTestManager(fake, persist)

	s, err := m.Start("ana")
	require.NoError(t, err)

	_, err = s.End(context.Background())
	assert.ErrorIs(t, err, gen.ErrGeneration)
	assert.Equal(t, []string{"2026-08-01: started"}, persist.records["ana"].Journey)
	assert.Empty(t, persist.sessionEvents)
}

func TestEndDefaultsFocusEmotionToNeutral(t *testing.T) {
	// No turn ran, so there are no signals to take the emotion from.
	fake := gen.NewFake().Script("insight", insightJSON())
	persist := seededPersist()
	m := newTestManager(fake, persist)

	s, err := m.Start("ana")
	require.NoError(t, err)

	updated, err := s.End(context.Background())
	require.NoError(t, err)
	assert.Contains(t, updated.Threads, "Neutral")
}
