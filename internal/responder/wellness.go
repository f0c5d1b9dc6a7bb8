package responder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"solace/internal/gen"
	"solace/internal/memory"
	"solace/internal/turn"
)

// WellnessInput is the wellness capability's projection of the turn state. It
// is the richest projection: besides the conversation it receives the user's
// guiding intentions, journey, memory threads, and personal toolkit.
type WellnessInput struct {
	Profile     string
	Transcript  turn.Transcript
	UserMessage string

	SessionTopic string
	SessionMood  string
	FocusEmotion string

	Intentions []string
	Journey    string
	Threads    map[string][]memory.Snapshot
	Toolkit    memory.Toolkit

	CompletedIntents []string
	PrimarySkill     string
}

// WellnessResult carries the three facets of one wellness invocation. The
// session facets come from the same generation call as the response text;
// producing them must not cost extra invocations.
type WellnessResult struct {
	Response             string   `json:"response"`
	FrequentCapabilities []string `json:"frequent_capabilities"`
	InferredIntent       string   `json:"inferred_intent"`
}

// Wellness provides coping, confidence-building and therapeutic support
// grounded in the user's long-term memory.
type Wellness struct {
	client gen.Client
}

// NewWellness returns the wellness coaching capability.
func NewWellness(client gen.Client) *Wellness {
	return &Wellness{client: client}
}

// Respond performs the single wellness invocation for a step and returns all
// three facets of its result.
func (w *Wellness) Respond(ctx context.Context, in WellnessInput) (WellnessResult, error) {
	threads, err := json.Marshal(in.Threads)
	if err != nil {
		threads = []byte("{}")
	}
	toolkit, err := json.Marshal(in.Toolkit)
	if err != nil {
		toolkit = []byte("{}")
	}

	prompt := fmt.Sprintf(`User profile: %s
Session topic: %s
Session mood: %s
Focus emotion: %s
Guiding intentions: %s
User journey: %s
Memory threads: %s
Personal toolkit: %s
Completed intents this session: %s
Session primary skill: %q

Chat history:
%s

Latest user message: %q`,
		in.Profile,
		in.SessionTopic,
		in.SessionMood,
		in.FocusEmotion,
		strings.Join(in.Intentions, "; "),
		in.Journey,
		threads,
		toolkit,
		strings.Join(in.CompletedIntents, "; "),
		in.PrimarySkill,
		in.Transcript.String(),
		in.UserMessage,
	)

	raw, err := w.client.Generate(ctx, gen.Request{
		Capability:  "wellness",
		System:      wellnessSystemPrompt,
		Prompt:      prompt,
		Tier:        gen.TierFast,
		Temperature: 0.4,
		JSON:        true,
	})
	if err != nil {
		return WellnessResult{}, err
	}

	var res WellnessResult
	if err := gen.Decode(raw, &res); err != nil {
		return WellnessResult{}, err
	}
	if strings.TrimSpace(res.Response) == "" {
		return WellnessResult{}, fmt.Errorf("%w: wellness: empty response field", gen.ErrSchema)
	}
	res.Response = strings.TrimSpace(res.Response)
	return res, nil
}
