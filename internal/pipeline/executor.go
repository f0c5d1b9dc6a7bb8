package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"solace/internal/responder"
	"solace/internal/turn"
)

// Responder interfaces, one per capability in the closed set. The executor
// accepts interfaces so tests can substitute deterministic fakes.
type (
	// CrisisResponder returns static crisis resources; it never fails and
	// never calls the generation service.
	CrisisResponder interface {
		Respond(userMessage string) string
	}

	// FactualResponder answers the question posed by a step's framing.
	FactualResponder interface {
		Respond(ctx context.Context, question string) (string, error)
	}

	// DialogueResponder handles transitions, clarifications, consent and
	// exits; the only capability that may see personal identifiers.
	DialogueResponder interface {
		Respond(ctx context.Context, in responder.DialogueInput) (string, error)
	}

	// ReflectionResponder produces short empathic mirrors.
	ReflectionResponder interface {
		Respond(ctx context.Context, in responder.ReflectionInput) (string, error)
	}

	// WellnessResponder yields the response plus two session facets from one
	// invocation.
	WellnessResponder interface {
		Respond(ctx context.Context, in responder.WellnessInput) (responder.WellnessResult, error)
	}
)

// Responders bundles one implementation per capability.
type Responders struct {
	Crisis     CrisisResponder
	Factual    FactualResponder
	Dialogue   DialogueResponder
	Reflection ReflectionResponder
	Wellness   WellnessResponder
}

// stepOutcome is what one dispatch handler produces: the step's output text
// and, for the wellness capability only, the auxiliary session facets.
type stepOutcome struct {
	output   string
	frequent []string
	intent   string
}

type stepHandler func(ctx context.Context, st *turn.State, step turn.Step) (stepOutcome, error)

// Executor is the dispatch stage. Steps execute strictly in plan order
// against a closed keyed handler table; a name outside the set yields a
// placeholder result instead of an abort, and the first crisis step stops
// execution the moment its output is accumulated.
type Executor struct {
	handlers map[turn.Capability]stepHandler
	log      *zap.Logger
}

// NewExecutor builds the capability dispatch table.
func NewExecutor(rs Responders, log *zap.Logger) *Executor {
	e := &Executor{log: log}
	e.handlers = map[turn.Capability]stepHandler{
		turn.CapabilityCrisis: func(_ context.Context, st *turn.State, _ turn.Step) (stepOutcome, error) {
			return stepOutcome{output: rs.Crisis.Respond(st.UserMessage)}, nil
		},
		turn.CapabilityFactual: func(ctx context.Context, _ *turn.State, step turn.Step) (stepOutcome, error) {
			out, err := rs.Factual.Respond(ctx, step.Framing)
			return stepOutcome{output: out}, err
		},
		turn.CapabilityDialogue: func(ctx context.Context, st *turn.State, step turn.Step) (stepOutcome, error) {
			out, err := rs.Dialogue.Respond(ctx, responder.DialogueInput{
				Transcript:   st.Transcript,
				UserMessage:  st.UserMessage,
				Task:         step.Framing,
				Intentions:   st.Memory.ActiveIntentions(),
				Journey:      st.Memory.LatestJourney(),
				PersonalData: step.PersonalData,
				UserName:     st.UserName,
			})
			return stepOutcome{output: out}, err
		},
		turn.CapabilityReflection: func(ctx context.Context, st *turn.State, step turn.Step) (stepOutcome, error) {
			out, err := rs.Reflection.Respond(ctx, responder.ReflectionInput{
				Profile:     st.UserProfile,
				UserName:    st.UserName,
				Transcript:  st.Transcript,
				UserMessage: st.UserMessage,
				SessionMood: st.Signals.SessionMood,
				Task:        step.Framing,
			})
			return stepOutcome{output: out}, err
		},
		turn.CapabilityWellness: func(ctx context.Context, st *turn.State, _ turn.Step) (stepOutcome, error) {
			res, err := rs.Wellness.Respond(ctx, responder.WellnessInput{
				Profile:          st.UserProfile,
				Transcript:       st.Transcript,
				UserMessage:      st.UserMessage,
				SessionTopic:     st.Signals.SessionTopic,
				SessionMood:      st.Signals.SessionMood,
				FocusEmotion:     st.Signals.FocusEmotion,
				Intentions:       st.Memory.ActiveIntentions(),
				Journey:          strings.Join(st.Memory.RecentJourney(5), " "),
				Threads:          st.Memory.Threads,
				Toolkit:          st.Memory.Toolkit,
				CompletedIntents: st.CompletedIntents,
				PrimarySkill:     st.PrimarySkill,
			})
			if err != nil {
				return stepOutcome{}, err
			}
			return stepOutcome{
				output:   res.Response,
				frequent: res.FrequentCapabilities,
				intent:   res.InferredIntent,
			}, nil
		},
	}
	return e
}

// Execute runs the plan's steps in order, accumulating one result per
// executed step on the state. Per-step generation failures record a
// placeholder and execution continues; retries belong to the generation
// collaborator, not here. Steps after a crisis step are skipped entirely.
func (e *Executor) Execute(ctx context.Context, st *turn.State) {
	if st.Plan == nil {
		return
	}

	for _, step := range st.Plan.Steps {
		capability, ok := turn.ParseCapability(step.CapabilityName)
		if !ok {
			e.log.Warn("plan step names unknown capability", zap.String("capability", step.CapabilityName))
			st.Results = append(st.Results, turn.StepResult{
				Capability: turn.CapabilityUnknown,
				Output:     fmt.Sprintf("Error: unknown capability %q requested.", step.CapabilityName),
			})
			continue
		}

		outcome, err := e.handlers[capability](ctx, st, step)
		if err != nil {
			e.log.Warn("step failed", zap.String("capability", string(capability)), zap.Error(err))
			st.Results = append(st.Results, turn.StepResult{
				Capability: capability,
				Output:     fmt.Sprintf("Error: the %s step could not produce a result.", capability),
			})
			continue
		}

		st.Results = append(st.Results, turn.StepResult{Capability: capability, Output: outcome.output})
		if len(outcome.frequent) > 0 {
			st.FrequentCapabilities = append(st.FrequentCapabilities, outcome.frequent...)
		}
		if outcome.intent != "" {
			st.InferredIntent = outcome.intent
		}

		if capability == turn.CapabilityCrisis {
			// Crisis short-circuit: nothing after this step runs or is logged
			// as attempted.
			return
		}
	}
}
