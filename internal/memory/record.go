// Package memory holds the durable per-user long-term memory model and the
// deterministic consolidation merge that folds a session's extracted insights
// into it. The record is append-only: journeys, intentions and memory threads
// only grow, and the toolkit lists grow with set semantics.
package memory

// Snapshot is one immutable dated insight entry filed under an emotion label.
// Snapshots are appended to a memory thread and never mutated afterwards.
type Snapshot struct {
	Date           string `json:"date"`
	Intensity      string `json:"intensity"`
	UserWords      string `json:"user_words"`
	SessionInsight string `json:"session_insight"`
}

// Toolkit tracks which coping tools the user has reported on. Both lists are
// deduplicated and preserve insertion order.
type Toolkit struct {
	FoundHelpful   []string `json:"found_helpful"`
	FoundUnhelpful []string `json:"found_unhelpful"`
}

// Clone returns a deep copy of the toolkit.
func (t Toolkit) Clone() Toolkit {
	return Toolkit{
		FoundHelpful:   append([]string(nil), t.FoundHelpful...),
		FoundUnhelpful: append([]string(nil), t.FoundUnhelpful...),
	}
}

// Record is the durable long-term memory for one user. It is loaded once at
// session start and rewritten exactly once at session end via Consolidate.
type Record struct {
	// Journey is the ordered list of dated narrative sentences, one per
	// completed session.
	Journey []string `json:"journey"`

	// Intentions is the ordered list of guiding intentions. Empty strings are
	// valid placeholders meaning "no new goal that session" and must be
	// filtered by callers when presenting to the user.
	Intentions []string `json:"intentions"`

	Toolkit Toolkit `json:"toolkit"`

	// Threads maps an emotion label to the ordered snapshots filed under it.
	Threads map[string][]Snapshot `json:"threads"`
}

// NewRecord returns an empty record with initialized containers, the state a
// brand-new user starts from.
func NewRecord() Record {
	return Record{
		Journey:    []string{},
		Intentions: []string{},
		Toolkit:    Toolkit{FoundHelpful: []string{}, FoundUnhelpful: []string{}},
		Threads:    map[string][]Snapshot{},
	}
}

// Clone returns a deep copy so a session can hold a stable view of the record
// while the persistence layer keeps the canonical one.
func (r Record) Clone() Record {
	out := Record{
		Journey:    append([]string(nil), r.Journey...),
		Intentions: append([]string(nil), r.Intentions...),
		Toolkit:    r.Toolkit.Clone(),
		Threads:    make(map[string][]Snapshot, len(r.Threads)),
	}
	for emotion, snaps := range r.Threads {
		out.Threads[emotion] = append([]Snapshot(nil), snaps...)
	}
	return out
}

// LatestJourney returns the most recent journey sentence, or "" for a new user.
func (r Record) LatestJourney() string {
	if len(r.Journey) == 0 {
		return ""
	}
	return r.Journey[len(r.Journey)-1]
}

// RecentJourney returns up to n of the most recent journey entries, oldest
// first. Insight extraction only needs the recent trajectory, not the full
// history.
func (r Record) RecentJourney(n int) []string {
	if n <= 0 || len(r.Journey) == 0 {
		return nil
	}
	if len(r.Journey) <= n {
		return append([]string(nil), r.Journey...)
	}
	return append([]string(nil), r.Journey[len(r.Journey)-n:]...)
}

// ActiveIntentions returns the intentions with empty placeholders filtered
// out. Use this for anything user-facing.
func (r Record) ActiveIntentions() []string {
	out := make([]string, 0, len(r.Intentions))
	for _, in := range r.Intentions {
		if in != "" {
			out = append(out, in)
		}
	}
	return out
}
