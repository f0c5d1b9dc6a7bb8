package turn

import (
	"errors"
	"fmt"
	"strings"
)

// Capability identifies one of the closed set of responder behaviors a plan
// step can route to.
type Capability string

const (
	CapabilityCrisis     Capability = "crisis"
	CapabilityFactual    Capability = "factual"
	CapabilityDialogue   Capability = "dialogue_manager"
	CapabilityReflection Capability = "reflection"
	CapabilityWellness   Capability = "wellness_coach"

	// CapabilityUnknown is the sentinel for a step whose name resolved to
	// nothing in the closed set. It never appears in a valid plan; it only
	// labels the executor's placeholder result for such a step.
	CapabilityUnknown Capability = "unknown"
)

// ParseCapability resolves a step's capability name against the closed set.
// Resolution is total: an unmatched name yields (CapabilityUnknown, false)
// rather than an error, so the executor can record a placeholder and move on.
func ParseCapability(name string) (Capability, bool) {
	switch Capability(strings.TrimSpace(name)) {
	case CapabilityCrisis:
		return CapabilityCrisis, true
	case CapabilityFactual:
		return CapabilityFactual, true
	case CapabilityDialogue:
		return CapabilityDialogue, true
	case CapabilityReflection:
		return CapabilityReflection, true
	case CapabilityWellness:
		return CapabilityWellness, true
	}
	return CapabilityUnknown, false
}

// Step is one planned responder action.
type Step struct {
	// CapabilityName is the planner-produced name, resolved by the executor
	// against the closed set at dispatch time.
	CapabilityName string `json:"capability"`

	// Framing is the one-sentence perspective the capability should handle.
	Framing string `json:"framing"`

	// Rationale is the planner's one-sentence justification for the step.
	Rationale string `json:"rationale"`

	// PersonalData marks a step that reads, confirms, writes or repeats a
	// user identifier. Such steps must route to the dialogue manager.
	PersonalData bool `json:"personal_data"`
}

// Plan is the ordered routing decision for one turn.
type Plan struct {
	// Question is the canonical user question the plan answers: the literal
	// trimmed user message, or the last user transcript line when the
	// message was empty.
	Question string `json:"question"`

	Steps []Step `json:"steps"`
}

// MaxPlanSteps bounds every plan; the planner never emits more perspectives
// than this and validation rejects longer plans.
const MaxPlanSteps = 4

// ErrInvalidPlan reports a plan that failed structural validation.
var ErrInvalidPlan = errors.New("invalid plan")

// Validate checks the structural invariants of a planner-produced plan:
// between 1 and MaxPlanSteps steps, and no step missing its capability name
// or framing.
func (p *Plan) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: no plan", ErrInvalidPlan)
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: empty plan", ErrInvalidPlan)
	}
	if len(p.Steps) > MaxPlanSteps {
		return fmt.Errorf("%w: %d steps exceeds the %d step limit", ErrInvalidPlan, len(p.Steps), MaxPlanSteps)
	}
	for i, step := range p.Steps {
		if strings.TrimSpace(step.CapabilityName) == "" {
			return fmt.Errorf("%w: step %d has no capability name", ErrInvalidPlan, i)
		}
		if strings.TrimSpace(step.Framing) == "" {
			return fmt.Errorf("%w: step %d has no framing", ErrInvalidPlan, i)
		}
	}
	return nil
}

// Normalize enforces the hard constraints the planner is asked for but cannot
// be trusted to honor:
//
//   - the question field is bound to the trimmed literal user message, falling
//     back to the most recent user transcript line only when the message is
//     empty;
//   - a step carrying the personal-data flag is rerouted to the dialogue
//     manager;
//   - the plan is truncated immediately after the first crisis step.
func (p *Plan) Normalize(userMessage string, transcript Transcript) {
	if q := strings.TrimSpace(userMessage); q != "" {
		p.Question = q
	} else if fallback, ok := transcript.LastUserText(); ok {
		p.Question = fallback
	} else {
		p.Question = ""
	}

	for i := range p.Steps {
		if p.Steps[i].PersonalData {
			p.Steps[i].CapabilityName = string(CapabilityDialogue)
		}
		if c, ok := ParseCapability(p.Steps[i].CapabilityName); ok && c == CapabilityCrisis {
			p.Steps = p.Steps[:i+1]
			return
		}
	}
}
