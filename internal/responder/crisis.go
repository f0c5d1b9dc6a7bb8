// Package responder implements the closed set of capabilities a plan step can
// dispatch to: crisis, factual answer, dialogue management, reflection, and
// wellness coaching. Each capability receives its own projection of the turn
// state and returns user-facing text; the wellness capability additionally
// returns two session facets from the same invocation.
package responder

// CrisisResources is the static response for a user in immediate crisis. It
// is returned verbatim, reaches the user unmodified regardless of anything
// else in the pipeline, and never involves a generation call.
const CrisisResources = `It sounds like you are in immediate distress. Please connect with a real person who can support you right now. Help is available, and you don't have to go through this alone.

Here are some resources for immediate support in Canada:
*   **Crisis Text Line:** Text HOME to 741741 to connect with a crisis responder.
*   **National Suicide Prevention:** Call or text 988.
*   **Talk Suicide Canada:** Call 1-833-456-4566.
*   **For any emergency:** Call 911 immediately.`

// Crisis handles a user in immediate crisis by providing the static resource
// list and disengaging.
type Crisis struct{}

// NewCrisis returns the crisis capability.
func NewCrisis() *Crisis { return &Crisis{} }

// Respond returns the resource list. The message is accepted for interface
// symmetry; the response does not depend on it.
func (c *Crisis) Respond(_ string) string {
	return CrisisResources
}
