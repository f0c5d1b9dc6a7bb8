package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"solace/internal/gen"
	"solace/internal/turn"
)

const plannerSystemPrompt = `You are the conversational planner for a
wellness-support assistant. Read the whole chat history, then the latest user
message, and produce an ordered plan of 1 to 4 steps. Use semantic meaning and
context, never keywords. Keep the plan short; preserve the order in which the
user expressed their ideas.

Available capabilities (use these names exactly):
"crisis", "factual", "dialogue_manager", "reflection", "wellness_coach"

Routing policy, first match wins:
1. The current message signals imminent self-harm, danger or a credible
   threat: a single "crisis" step, and never any step after it. Do not
   escalate to crisis from history alone; the current message itself must
   signal risk.
2. The user signals leaving the conversation: a "dialogue_manager" step to
   handle the exit. If history shows unresolved risk, precede it with one
   consent-based safety check via "dialogue_manager". If they also asked a
   quick question, answer it after the exit handling.
3. A short negation of a prior assistant question ("No", "Not now"): a single
   "dialogue_manager" step to cancel or update state.
4. The message has both an emotional/personal part and a distinct factual or
   task part: exactly two steps in the order the user said them — first
   "reflection" or "wellness_coach" for the emotional part, then "factual"
   for the factual part. Never skip the emotional step.
5. A skill-improvement request together with expressed anxiety or
   unreadiness: exactly three steps in this order — "reflection" (brief
   validation), "wellness_coach" (coping and confidence), "factual"
   (concrete techniques and checklists).
6. A neutral skill or fact request alone: a single "factual" step.
7. Emotion expressed with no explicit request: two steps — "reflection",
   then "wellness_coach".
8. If routing confidence is low at any point, insert one "dialogue_manager"
   step that asks a single concise clarifying question before proceeding.

Question binding: set "question" to the latest user message stripped of
leading and trailing whitespace, exactly, with no paraphrasing. Only when the
latest user message is empty, fall back to the most recent line in the chat
history spoken by "User:" or "You:" — never a line spoken by "Solace:",
"Assistant:", "ChatBot:", "System:" or any other persona label.

Each step carries:
- "capability": one of the names above.
- "framing": one sentence naming the perspective this step should handle.
- "rationale": one sentence explaining why this capability was chosen.
- "personal_data": true whenever the step reads, confirms, writes or repeats
  any user identifier. A personal_data step must use "dialogue_manager".

Respond with a JSON object:
{"question": "...", "steps": [{"capability": "...", "framing": "...",
"rationale": "...", "personal_data": false}, ...]}`

// Planner is the plan generation stage. A structurally invalid result is
// regenerated once before the stage fails.
type Planner struct {
	client gen.Client
	log    *zap.Logger
}

// NewPlanner returns the plan generation stage.
func NewPlanner(client gen.Client, log *zap.Logger) *Planner {
	return &Planner{client: client, log: log}
}

// Plan produces the turn's routing plan, validated and normalized: the
// question is bound to the literal user message, personal-data steps are
// forced onto the dialogue manager, and nothing follows a crisis step.
func (p *Planner) Plan(ctx context.Context, transcript turn.Transcript, message string) (turn.Plan, error) {
	plan, err := p.generate(ctx, transcript, message)
	if err != nil && (errors.Is(err, gen.ErrSchema) || errors.Is(err, turn.ErrInvalidPlan)) {
		p.log.Warn("plan failed validation, regenerating once", zap.Error(err))
		plan, err = p.generate(ctx, transcript, message)
	}
	if err != nil {
		return turn.Plan{}, err
	}

	plan.Normalize(message, transcript)
	p.log.Debug("plan generated",
		zap.Int("steps", len(plan.Steps)),
		zap.String("question", plan.Question),
	)
	return plan, nil
}

func (p *Planner) generate(ctx context.Context, transcript turn.Transcript, message string) (turn.Plan, error) {
	prompt := fmt.Sprintf("Chat history:\n%s\n\nLatest user message: %q", transcript.String(), message)

	raw, err := p.client.Generate(ctx, gen.Request{
		Capability:  "planner",
		System:      plannerSystemPrompt,
		Prompt:      prompt,
		Tier:        gen.TierPowerful,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return turn.Plan{}, err
	}

	var plan turn.Plan
	if err := gen.Decode(raw, &plan); err != nil {
		return turn.Plan{}, err
	}
	if err := plan.Validate(); err != nil {
		return turn.Plan{}, err
	}
	return plan, nil
}
