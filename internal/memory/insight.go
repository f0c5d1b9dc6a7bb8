package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"solace/internal/gen"
)

// SupportPreferences is the closed set of support modalities the extractor
// may report.
var SupportPreferences = []string{"somatic", "reflective", "cognitive", "spiritual"}

const insightSystemPrompt = `You are an insightful narrative psychologist
reviewing one completed wellness-support session. From the prior memory state
and the session transcript, extract the new information that updates the
user's profile.

Fields:
- "journey_sentence": one new sentence describing the user's most up-to-date
  stage of progress, synthesized from the previous journey and this session.
- "somatic_focus": where in the body the user felt the primary emotion.
- "awareness_shift": the single most important shift in perspective, one
  sentence.
- "support_preference": exactly one of "somatic", "reflective", "cognitive",
  "spiritual" — the modality the user engaged with most.
- "helpful_tools": tools the user explicitly said helped. Empty list if none.
- "unhelpful_tools": tools the user explicitly said did not help.
- "new_intention": the single most important new long-term goal the user
  expressed, or "" when none.
- "snapshot": {"date": "<current date>", "intensity": "<e.g. High,
  Manageable, Low>", "user_words": "<the user's own key words for the
  feeling>", "session_insight": "<the core insight gained>"}

Base the analysis only on the provided material. Respond with a JSON object
containing exactly those fields.`

// ExtractInput is everything the insight extractor reads: the stable profile,
// the prior memory state, and the just-ended session.
type ExtractInput struct {
	Profile string

	// RecentJourney is the tail of the prior journey; the extractor needs
	// the recent trajectory, not the full history.
	RecentJourney []string
	Toolkit       Toolkit
	Intentions    []string
	Threads       map[string][]Snapshot

	Transcript   string
	FocusEmotion string
	Date         string
}

// Extractor produces the session insight payload. It is the one generation
// call of the consolidation flow; the merge itself is pure.
type Extractor struct {
	client gen.Client
}

// NewExtractor returns an insight extractor backed by the given client.
func NewExtractor(client gen.Client) *Extractor {
	return &Extractor{client: client}
}

// Extract analyzes the completed session and returns its insight payload.
func (e *Extractor) Extract(ctx context.Context, in ExtractInput) (Insight, error) {
	threads, err := json.Marshal(in.Threads)
	if err != nil {
		threads = []byte("{}")
	}
	toolkit, err := json.Marshal(in.Toolkit)
	if err != nil {
		toolkit = []byte("{}")
	}

	prompt := fmt.Sprintf(`User profile: %s
Previous journey (most recent last): %s
Previous toolkit: %s
Previous intentions: %s
Previous memory threads: %s
Focus emotion: %s
Current date: %s

Session transcript:
%s`,
		in.Profile,
		strings.Join(in.RecentJourney, " | "),
		toolkit,
		strings.Join(in.Intentions, "; "),
		threads,
		in.FocusEmotion,
		in.Date,
		in.Transcript,
	)

	raw, err := e.client.Generate(ctx, gen.Request{
		Capability:  "insight",
		System:      insightSystemPrompt,
		Prompt:      prompt,
		Tier:        gen.TierFast,
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		return Insight{}, err
	}

	var ins Insight
	if err := gen.Decode(raw, &ins); err != nil {
		return Insight{}, err
	}
	if strings.TrimSpace(ins.JourneySentence) == "" {
		return Insight{}, fmt.Errorf("%w: insight: empty journey_sentence", gen.ErrSchema)
	}
	if !validPreference(ins.SupportPreference) {
		return Insight{}, fmt.Errorf("%w: insight: support_preference %q outside the defined set", gen.ErrSchema, ins.SupportPreference)
	}
	if ins.Snapshot.Date == "" {
		ins.Snapshot.Date = in.Date
	}
	return ins, nil
}

func validPreference(p string) bool {
	for _, v := range SupportPreferences {
		if p == v {
			return true
		}
	}
	return false
}
