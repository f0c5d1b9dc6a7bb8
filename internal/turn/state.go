// Package turn models the mutable state of one conversational turn: the raw
// message, the transcript so far, the user's long-term context, the per-turn
// derived signals, the routing plan, and the accumulated responder results.
// One State instance is owned by exactly one pipeline run and discarded after
// the caller extracts what it needs.
package turn

import (
	"strings"

	"solace/internal/memory"
)

// Speaker labels recognized in transcripts. Lines carrying a user label are
// the only ones question binding may fall back to; persona, assistant and
// system lines never are.
var (
	userSpeakers      = map[string]struct{}{"User": {}, "You": {}}
	assistantSpeakers = map[string]struct{}{"Solace": {}, "Assistant": {}, "ChatBot": {}, "System": {}}
)

// Line is one transcript line tagged with its speaker label.
type Line struct {
	Speaker string
	Text    string
}

// IsUser reports whether the line was authored by the user.
func (l Line) IsUser() bool {
	_, ok := userSpeakers[l.Speaker]
	return ok
}

// Transcript is the ordered conversation so far.
type Transcript []Line

// String renders the transcript in "Speaker: text" form, one line per entry,
// the shape every prompt consumes.
func (t Transcript) String() string {
	var b strings.Builder
	for i, line := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Speaker)
		b.WriteString(": ")
		b.WriteString(line.Text)
	}
	return b.String()
}

// LastUserText returns the most recent user-authored line, trimmed. Used only
// as the question-binding fallback when the incoming message is empty.
func (t Transcript) LastUserText() (string, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].IsUser() {
			return strings.TrimSpace(t[i].Text), true
		}
	}
	return "", false
}

// CrisisLevel is the assessed severity of a detected crisis.
type CrisisLevel string

const (
	LowRisk      CrisisLevel = "Low Risk"
	ModerateRisk CrisisLevel = "Moderate Risk"
	HighRisk     CrisisLevel = "High Risk"
)

// Rank orders levels by severity; High Risk is strictly stronger than
// Moderate, which is stronger than Low. Unknown values rank below Low.
func (l CrisisLevel) Rank() int {
	switch l {
	case LowRisk:
		return 1
	case ModerateRisk:
		return 2
	case HighRisk:
		return 3
	default:
		return 0
	}
}

// Valid reports whether l is one of the three defined levels.
func (l CrisisLevel) Valid() bool { return l.Rank() > 0 }

// Signals are the short-term signals the context extraction stage derives for
// one turn.
type Signals struct {
	SessionTopic string
	SessionMood  string

	// FocusEmotion is a single capitalized generic noun, "Neutral" when no
	// emotion is discernible.
	FocusEmotion string

	CrisisFlag  bool
	CrisisLevel CrisisLevel
}

// StepResult is one accumulated (capability, output) pair produced by the
// executor, in plan order.
type StepResult struct {
	Capability Capability `json:"capability"`
	Output     string     `json:"output"`
}

// State is the turn state threaded through the four pipeline stages. Stages
// return the fields they add; the pipeline driver merges them in, so no stage
// mutates another stage's output.
type State struct {
	// Inputs.
	UserMessage string
	Transcript  Transcript

	// Stable user context loaded at session start.
	UserProfile string
	UserName    string
	Memory      memory.Record

	// Session-scoped rollups carried across turns by the session owner.
	CompletedIntents []string
	PrimarySkill     string

	// Stage outputs.
	Signals  Signals
	Plan     *Plan
	Question string
	Results  []StepResult

	// Auxiliary facets from the wellness capability's single invocation.
	FrequentCapabilities []string
	InferredIntent       string

	// FinalResponse is empty until synthesis completes.
	FinalResponse string
}

// CrisisResult returns the crisis capability's accumulated result, if any.
// Its presence means the final response must be that output verbatim.
func (s *State) CrisisResult() (StepResult, bool) {
	for _, r := range s.Results {
		if r.Capability == CapabilityCrisis {
			return r, true
		}
	}
	return StepResult{}, false
}
