package responder

import (
	"context"
	"fmt"
	"strings"

	"solace/internal/gen"
	"solace/internal/turn"
)

// ReflectionInput is the reflection capability's projection of the turn state.
type ReflectionInput struct {
	Profile     string
	UserName    string
	Transcript  turn.Transcript
	UserMessage string
	SessionMood string

	// Task is the planner's framing: which kind of reflection is wanted
	// (validation, mirroring, paraphrase, rapport).
	Task string
}

// Reflection produces short empathic mirrors: validation and acknowledgement
// with no advice attached.
type Reflection struct {
	client gen.Client
}

// NewReflection returns the reflection capability.
func NewReflection(client gen.Client) *Reflection {
	return &Reflection{client: client}
}

// Respond generates the reflective statement.
func (r *Reflection) Respond(ctx context.Context, in ReflectionInput) (string, error) {
	prompt := fmt.Sprintf(`Task: %s
Session mood: %s
User profile: %s
User name: %q

Chat history:
%s

Latest user message: %q`,
		in.Task,
		in.SessionMood,
		in.Profile,
		in.UserName,
		in.Transcript.String(),
		in.UserMessage,
	)

	raw, err := r.client.Generate(ctx, gen.Request{
		Capability:  "reflection",
		System:      reflectionSystemPrompt,
		Prompt:      prompt,
		Tier:        gen.TierFast,
		Temperature: 0.2,
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
		return "", fmt.Errorf("%w: reflection: empty response field", gen.ErrSchema)
	}
	return strings.TrimSpace(res.Response), nil
}
