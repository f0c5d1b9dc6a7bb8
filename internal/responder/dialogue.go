package responder

import (
	"context"
	"fmt"
	"strings"

	"solace/internal/gen"
	"solace/internal/turn"
)

// DialogueInput is the dialogue manager's projection of the turn state. It is
// the only capability that sees the personal-data flag and the user's name.
type DialogueInput struct {
	Transcript  turn.Transcript
	UserMessage string

	// Task is the planner's framing: the transition, clarification, consent
	// check or exit this step should accomplish.
	Task string

	Intentions []string
	Journey    string

	PersonalData bool
	UserName     string
}

// Dialogue manages conversational flow: transitions, clarifying questions,
// consent checks, exits, and any step touching personal identifiers.
type Dialogue struct {
	client gen.Client
}

// NewDialogue returns the dialogue management capability.
func NewDialogue(client gen.Client) *Dialogue {
	return &Dialogue{client: client}
}

type textResult struct {
	Response string `json:"response"`
}

// Respond generates the user-facing dialogue management text.
func (d *Dialogue) Respond(ctx context.Context, in DialogueInput) (string, error) {
	name := in.UserName
	if !in.PersonalData {
		// The name is a user identifier; only a personal-data step may see it.
		name = ""
	}

	prompt := fmt.Sprintf(`Task: %s
Guiding intentions: %s
User journey: %s
Personal-data step: %t
User name: %q

Chat history:
%s

Latest user message: %q`,
		in.Task,
		strings.Join(in.Intentions, "; "),
		in.Journey,
		in.PersonalData,
		name,
		in.Transcript.String(),
		in.UserMessage,
	)

	raw, err := d.client.Generate(ctx, gen.Request{
		Capability:  "dialogue_manager",
		System:      dialogueSystemPrompt,
		Prompt:      prompt,
		Tier:        gen.TierFast,
		Temperature: 0.5,
		JSON:        true,
	})
	if err != nil {
		return "", err
	}

	var res textResult
	if err := gen.Decode(raw, &res); err != nil {
		return "", err
	}
	if strings.TrimSpace(res.Response) == "" {
		return "", fmt.Errorf("%w: dialogue_manager: empty response field", gen.ErrSchema)
	}
	return strings.TrimSpace(res.Response), nil
}
