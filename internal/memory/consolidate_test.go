package memory

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInsight() Insight {
	return Insight{
		JourneySentence:   "Ana named the link between deadlines and her chest tightness.",
		SomaticFocus:      "chest",
		AwarenessShift:    "She noticed the anxiety arrives before the deadline, not during it.",
		SupportPreference: "somatic",
		HelpfulTools:      []string{"box breathing"},
		UnhelpfulTools:    []string{"distraction"},
		NewIntention:      "Practice box breathing before standups",
		Snapshot: Snapshot{
			Date:           "2026-08-29",
			Intensity:      "High",
			UserWords:      "wound up tight",
			SessionInsight: "Naming the body sensation made it smaller.",
		},
	}
}

func TestConsolidateAppendsEverySection(t *testing.T) {
	prev := NewRecord()
	ins := sampleInsight()

	next := Consolidate(prev, ins, "Anxiety", "2026-08-29")

	require.Len(t, next.Journey, 1)
	assert.Equal(t, "2026-08-29: "+ins.JourneySentence, next.Journey[0])

	assert.Equal(t, []string{"box breathing"}, next.Toolkit.FoundHelpful)
	assert.Equal(t, []string{"distraction"}, next.Toolkit.FoundUnhelpful)
	assert.Equal(t, []string{"Practice box breathing before standups"}, next.Intentions)

	require.Contains(t, next.Threads, "Anxiety")
	require.Len(t, next.Threads["Anxiety"], 1)
	assert.Equal(t, ins.Snapshot, next.Threads["Anxiety"][0])
}

func TestConsolidateIsAppendOnly(t *testing.T) {
	prev := Record{
		Journey:    []string{"2026-08-01: Ana started talking about work stress."},
		Intentions: []string{"Take a walk after lunch"},
		Toolkit: Toolkit{
			FoundHelpful:   []string{"journaling"},
			FoundUnhelpful: []string{},
		},
		Threads: map[string][]Snapshot{
			"Anxiety": {{Date: "2026-08-01", Intensity: "Manageable"}},
		},
	}

	next := Consolidate(prev, sampleInsight(), "Anxiety", "2026-08-29")

	// Existing entries survive as a prefix of each list.
	assert.Equal(t, prev.Journey, next.Journey[:1])
	assert.Equal(t, prev.Intentions, next.Intentions[:1])
	assert.Equal(t, "journaling", next.Toolkit.FoundHelpful[0])
	assert.Equal(t, prev.Threads["Anxiety"][0], next.Threads["Anxiety"][0])
	assert.Len(t, next.Threads["Anxiety"], 2)
}

func TestConsolidateDoesNotMutatePrev(t *testing.T) {
	prev := Consolidate(NewRecord(), sampleInsight(), "Anxiety", "2026-08-01")
	before := prev.Clone()

	_ = Consolidate(prev, sampleInsight(), "Sadness", "2026-08-29")

	if diff := cmp.Diff(before, prev); diff != "" {
		t.Fatalf("prev mutated by Consolidate (-before +after):\n%s", diff)
	}
}

func TestConsolidateIsDeterministic(t *testing.T) {
	prev := NewRecord()
	ins := sampleInsight()

	a := Consolidate(prev, ins, "Anxiety", "2026-08-29")
	b := Consolidate(prev, ins, "Anxiety", "2026-08-29")

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same inputs produced different records:\n%s", diff)
	}
}

func TestConsolidateIsNotIdempotent(t *testing.T) {
	// Running the merge twice for the same session appends twice. At-most-once
	// invocation is the session layer's job, not the merge's.
	ins := sampleInsight()
	once := Consolidate(NewRecord(), ins, "Anxiety", "2026-08-29")
	twice := Consolidate(once, ins, "Anxiety", "2026-08-29")

	assert.Len(t, twice.Journey, 2)
	assert.Len(t, twice.Threads["Anxiety"], 2)
	assert.Len(t, twice.Intentions, 2)
	// Toolkit is the exception: set semantics keep duplicates out.
	assert.Equal(t, once.Toolkit, twice.Toolkit)
}

func TestConsolidateToolkitSetSemantics(t *testing.T) {
	prev := Record{Toolkit: Toolkit{
		FoundHelpful: []string{"journaling", "box breathing"},
	}}
	ins := Insight{
		JourneySentence: "s",
		HelpfulTools:    []string{"box breathing", "body scan", ""},
	}

	next := Consolidate(prev, ins, "Calm", "2026-08-29")

	// Order preserved, duplicate and empty entries dropped.
	assert.Equal(t, []string{"journaling", "box breathing", "body scan"}, next.Toolkit.FoundHelpful)
}

func TestConsolidateEmptyIntentionPlaceholder(t *testing.T) {
	ins := sampleInsight()
	ins.NewIntention = ""

	next := Consolidate(NewRecord(), ins, "Anxiety", "2026-08-29")

	require.Len(t, next.Intentions, 1)
	assert.Equal(t, "", next.Intentions[0])
	assert.Empty(t, next.ActiveIntentions())
}

func TestConsolidateEmptyFocusEmotionFilesUnderNeutral(t *testing.T) {
	next := Consolidate(NewRecord(), sampleInsight(), "", "2026-08-29")
	assert.Contains(t, next.Threads, "Neutral")
}

func TestConsolidateNilThreads(t *testing.T) {
	// A zero-value record (e.g. decoded from sparse JSON) must not panic.
	next := Consolidate(Record{}, sampleInsight(), "Anxiety", "2026-08-29")
	require.Contains(t, next.Threads, "Anxiety")
}
