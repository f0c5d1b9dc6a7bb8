package memory

// Insight is the structured payload extracted from a completed session by the
// insight extractor. Consolidate consumes it verbatim; it never triggers
// generation itself.
type Insight struct {
	// JourneySentence is the single new sentence describing the user's most
	// up-to-date stage of progress.
	JourneySentence string `json:"journey_sentence"`

	// SomaticFocus is where in the body the user felt the session's emotion.
	SomaticFocus string `json:"somatic_focus"`

	// AwarenessShift is the session's single most important shift in
	// perspective, in one sentence.
	AwarenessShift string `json:"awareness_shift"`

	// SupportPreference is one of "somatic", "reflective", "cognitive",
	// "spiritual".
	SupportPreference string `json:"support_preference"`

	HelpfulTools   []string `json:"helpful_tools"`
	UnhelpfulTools []string `json:"unhelpful_tools"`

	// NewIntention is the single most important new long-term goal, or ""
	// when the session surfaced none.
	NewIntention string `json:"new_intention"`

	Snapshot Snapshot `json:"snapshot"`
}

// Consolidate merges one session's insight into the prior record and returns
// the updated record. The operation is deterministic and pure: prev is not
// mutated. It is append-only and deliberately NOT idempotent: running it
// twice for the same session appends two journey entries and two snapshots,
// so callers must guarantee at-most-once invocation per session.
func Consolidate(prev Record, ins Insight, focusEmotion, date string) Record {
	next := prev.Clone()

	next.Journey = append(next.Journey, date+": "+ins.JourneySentence)

	next.Toolkit.FoundHelpful = appendMissing(next.Toolkit.FoundHelpful, ins.HelpfulTools)
	next.Toolkit.FoundUnhelpful = appendMissing(next.Toolkit.FoundUnhelpful, ins.UnhelpfulTools)

	// Intentionally unconditional: empty strings accumulate as "no new goal"
	// placeholders and are filtered at display time.
	next.Intentions = append(next.Intentions, ins.NewIntention)

	if focusEmotion == "" {
		focusEmotion = "Neutral"
	}
	if next.Threads == nil {
		next.Threads = map[string][]Snapshot{}
	}
	next.Threads[focusEmotion] = append(next.Threads[focusEmotion], ins.Snapshot)

	return next
}

// appendMissing appends the entries of add that are not already present,
// preserving the insertion order of existing entries.
func appendMissing(existing, add []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[e] = struct{}{}
	}
	for _, a := range add {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		existing = append(existing, a)
		seen[a] = struct{}{}
	}
	return existing
}
