// Package pipeline sequences one conversational turn through its four fixed
// stages: context extraction, plan generation, dispatch, and synthesis. The
// driver owns the turn state; each stage computes only the fields it adds and
// the driver merges them, so no stage mutates another stage's output.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"solace/internal/gen"
	"solace/internal/turn"
)

const analyzerSystemPrompt = `You analyze one conversational turn of a
wellness-support chat: the chat history plus the user's latest message, read
as a single flowing conversation. Extract the user's present-moment state.

Fields:
- "session_topic": the immediate subject of this turn, 1-2 sentences.
- "session_mood": the user's emotional state and its trajectory, 1-2 sentences.
- "focus_emotion": the single primary emotion, distilled into one generic
  capitalized noun (e.g. "Anxiety", "Sadness", "Gratitude"). Use "Neutral"
  when no clear emotion is present.
- "crisis_flag": true if any self-harm, suicide, severe hopelessness or
  intense emotional pain is present, otherwise false.
- "crisis_level": exactly one of "High Risk", "Moderate Risk", "Low Risk".
  High Risk: self-harm intent, a suicide plan, or intent to harm others.
  Moderate Risk: severe emotional pain, hopelessness, or self-harm mention
  without a concrete plan.
  Low Risk: general distress with no suicidal ideation. Mandatory whenever
  crisis_flag is false.

Respond with a JSON object containing exactly those five fields.`

// analysisResult is the extraction stage's wire shape.
type analysisResult struct {
	SessionTopic string `json:"session_topic"`
	SessionMood  string `json:"session_mood"`
	FocusEmotion string `json:"focus_emotion"`
	CrisisFlag   bool   `json:"crisis_flag"`
	CrisisLevel  string `json:"crisis_level"`
}

// Analyzer is the context extraction stage: it derives the per-turn signals
// from the transcript and the latest message. Pure over its inputs plus the
// generation service.
type Analyzer struct {
	client gen.Client
	log    *zap.Logger
}

// NewAnalyzer returns the context extraction stage.
func NewAnalyzer(client gen.Client, log *zap.Logger) *Analyzer {
	return &Analyzer{client: client, log: log}
}

// Analyze produces the turn's short-term signals.
func (a *Analyzer) Analyze(ctx context.Context, transcript turn.Transcript, message string) (turn.Signals, error) {
	prompt := fmt.Sprintf("Chat history:\n%s\n\nLatest user message: %q", transcript.String(), message)

	raw, err := a.client.Generate(ctx, gen.Request{
		Capability:  "analyzer",
		System:      analyzerSystemPrompt,
		Prompt:      prompt,
		Tier:        gen.TierFast,
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		return turn.Signals{}, err
	}

	var res analysisResult
	if err := gen.Decode(raw, &res); err != nil {
		return turn.Signals{}, err
	}

	sig := turn.Signals{
		SessionTopic: strings.TrimSpace(res.SessionTopic),
		SessionMood:  strings.TrimSpace(res.SessionMood),
		FocusEmotion: normalizeEmotion(res.FocusEmotion),
		CrisisFlag:   res.CrisisFlag,
		CrisisLevel:  turn.CrisisLevel(strings.TrimSpace(res.CrisisLevel)),
	}

	if !sig.CrisisLevel.Valid() {
		return turn.Signals{}, fmt.Errorf("%w: analyzer: crisis_level %q outside the defined set", gen.ErrSchema, res.CrisisLevel)
	}

	// Low Risk is the mandatory level when no crisis is flagged, and a
	// flagged crisis is at least Moderate.
	if !sig.CrisisFlag {
		sig.CrisisLevel = turn.LowRisk
	} else if sig.CrisisLevel.Rank() < turn.ModerateRisk.Rank() {
		sig.CrisisLevel = turn.ModerateRisk
	}

	a.log.Debug("context extracted",
		zap.String("focus_emotion", sig.FocusEmotion),
		zap.Bool("crisis_flag", sig.CrisisFlag),
		zap.String("crisis_level", string(sig.CrisisLevel)),
	)
	return sig, nil
}

// normalizeEmotion reduces the model's focus emotion to a single capitalized
// noun, defaulting to Neutral.
func normalizeEmotion(raw string) string {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return "Neutral"
	}
	word := strings.Trim(fields[len(fields)-1], ".,!\"'")
	if word == "" {
		return "Neutral"
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
