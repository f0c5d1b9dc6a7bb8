package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"solace/internal/gen"
	"solace/internal/turn"
)

// FallbackResponse is the safe static reply used whenever an unrecovered
// failure leaves the pipeline unable to synthesize. It must never require a
// generation call.
const FallbackResponse = "I'm sorry — I'm having trouble putting my thoughts together right now. I'm still here with you. Could you share that with me once more?"

// synthesisWordCap is the target response length. Exceeding it is logged, not
// rejected.
const synthesisWordCap = 300

const synthesisSystemPrompt = `You are the final, empathetic voice of a
wellness-support assistant. Weave the core points of every completed step into
one single, seamlessly flowing paragraph. Open with a brief, personal
validation of the user's stated feeling, preserve every question any step
posed, and keep the paragraph under 300 words. The result must sound like one
insightful person, not a list of parts.

Respond with a JSON object: {"response": "<the final paragraph>"}`

const selfSynthesisSystemPrompt = `You are the empathetic voice of a
wellness-support assistant. No other step produced content this turn, so craft
the entire reply yourself: validate the user's stated feeling, bridge to their
journey using the profile and chat history, and end with exactly one open,
reflective question. One paragraph, under 300 words.

Respond with a JSON object: {"response": "<the reply>"}`

// Synthesizer is the synthesis stage: it merges the accumulated step results
// into exactly one final response string.
type Synthesizer struct {
	client gen.Client
	log    *zap.Logger
}

// NewSynthesizer returns the synthesis stage.
func NewSynthesizer(client gen.Client, log *zap.Logger) *Synthesizer {
	return &Synthesizer{client: client, log: log}
}

// Synthesize produces the final response. Priority order: a crisis result is
// returned verbatim with nothing appended; otherwise accumulated results are
// woven into one paragraph; with no results at all the reply is
// self-generated from the profile and transcript. The returned string is
// always usable; on generation failure it is FallbackResponse alongside the
// error.
func (s *Synthesizer) Synthesize(ctx context.Context, st *turn.State) (string, error) {
	if crisis, ok := st.CrisisResult(); ok {
		return crisis.Output, nil
	}

	var system, prompt string
	if len(st.Results) > 0 {
		steps, err := json.Marshal(st.Results)
		if err != nil {
			steps = []byte("[]")
		}
		system = synthesisSystemPrompt
		prompt = fmt.Sprintf(`User profile: %s

Chat history:
%s

Latest user message: %q

Completed steps:
%s`, st.UserProfile, st.Transcript.String(), st.UserMessage, steps)
	} else {
		system = selfSynthesisSystemPrompt
		prompt = fmt.Sprintf(`User profile: %s

Chat history:
%s

Latest user message: %q`, st.UserProfile, st.Transcript.String(), st.UserMessage)
	}

	raw, err := s.client.Generate(ctx, gen.Request{
		Capability:  "synthesis",
		System:      system,
		Prompt:      prompt,
		Tier:        gen.TierFast,
		Temperature: 0.3,
		JSON:        true,
	})
	if err != nil {
		return FallbackResponse, err
	}

	var res struct {
		Response string `json:"response"`
	}
	if err := gen.Decode(raw, &res); err != nil {
		return FallbackResponse, err
	}
	final := strings.TrimSpace(res.Response)
	if final == "" {
		return FallbackResponse, fmt.Errorf("%w: synthesis: empty response field", gen.ErrSchema)
	}

	if n := len(strings.Fields(final)); n > synthesisWordCap {
		s.log.Info("synthesis exceeded target length", zap.Int("words", n))
	}
	return final, nil
}
