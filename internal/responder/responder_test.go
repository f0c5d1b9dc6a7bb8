package responder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solace/internal/gen"
)

type fakeRetriever struct {
	excerpts []string
	err      error
	queries  []string
}

func (f *fakeRetriever) Search(_ context.Context, q string, _ int) ([]string, error) {
	f.queries = append(f.queries, q)
	return f.excerpts, f.err
}

func TestCrisisRespondIsStatic(t *testing.T) {
	c := NewCrisis()
	assert.Equal(t, CrisisResources, c.Respond("anything at all"))
	assert.Contains(t, CrisisResources, "988")
	assert.Contains(t, CrisisResources, "741741")
	assert.Contains(t, CrisisResources, "911")
}

func TestFactualGroundsAnswerInExcerpts(t *testing.T) {
	fake := gen.NewFake().Script("factual", "Box breathing: inhale four, hold four, exhale four.")
	ret := &fakeRetriever{excerpts: []string{"Box breathing slows the stress response."}}
	f := NewFactual(fake, ret, 3)

	out, err := f.Respond(context.Background(), "what is box breathing")
	require.NoError(t, err)

	assert.Equal(t, "Box breathing: inhale four, hold four, exhale four.", out)
	assert.Equal(t, []string{"what is box breathing"}, ret.queries)
	require.Len(t, fake.Calls, 1)
	assert.Contains(t, fake.Calls[0].Prompt, "Box breathing slows the stress response.")
}

func TestFactualRetrievalFailureIsBestEffort(t *testing.T) {
	fake := gen.NewFake().Script("factual", "An answer from model knowledge.")
	ret := &fakeRetriever{err: errors.New("index offline")}
	f := NewFactual(fake, ret, 3)

	out, err := f.Respond(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "An answer from model knowledge.", out)
	assert.NotContains(t, fake.Calls[0].Prompt, "Grounding excerpts")
}

func TestDialogueBlanksNameWithoutPersonalDataFlag(t *testing.T) {
	fake := gen.NewFake().
		Script("dialogue_manager", `{"response": "Of course, we can pause here."}`).
		Script("dialogue_manager", `{"response": "Thanks, Ana, I've noted that."}`)
	d := NewDialogue(fake)

	_, err := d.Respond(context.Background(), DialogueInput{
		Task: "handle the exit", UserName: "Ana",
	})
	require.NoError(t, err)
	assert.NotContains(t, fake.Calls[0].Prompt, "Ana")

	_, err = d.Respond(context.Background(), DialogueInput{
		Task: "confirm the name", UserName: "Ana", PersonalData: true,
	})
	require.NoError(t, err)
	assert.Contains(t, fake.Calls[1].Prompt, "Ana")
}

func TestDialogueRejectsEmptyResponse(t *testing.T) {
	fake := gen.NewFake().Script("dialogue_manager", `{"response": ""}`)
	d := NewDialogue(fake)

	_, err := d.Respond(context.Background(), DialogueInput{Task: "t"})
	assert.ErrorIs(t, err, gen.ErrSchema)
}

func TestWellnessSingleInvocationReturnsAllFacets(t *testing.T) {
	fake := gen.NewFake().Script("wellness", `{
		"response": "Let's try grounding before the meeting.",
		"frequent_capabilities": ["grounding", "breathing"],
		"inferred_intent": "steady nerves before meetings"
	}`)
	w := NewWellness(fake)

	res, err := w.Respond(context.Background(), WellnessInput{
		UserMessage:  "I panic before meetings",
		FocusEmotion: "Anxiety",
	})
	require.NoError(t, err)

	assert.Equal(t, "Let's try grounding before the meeting.", res.Response)
	assert.Equal(t, []string{"grounding", "breathing"}, res.FrequentCapabilities)
	assert.Equal(t, "steady nerves before meetings", res.InferredIntent)
	assert.Equal(t, 1, fake.CallCount("wellness"), "all facets come from one call")
}

func TestReflectionDecodesResponse(t *testing.T) {
	fake := gen.NewFake().Script("reflection", `{"response": "That sounds like a heavy week."}`)
	r := NewReflection(fake)

	out, err := r.Respond(context.Background(), ReflectionInput{
		UserMessage: "rough week", Task: "validate the feeling",
	})
	require.NoError(t, err)
	assert.Equal(t, "That sounds like a heavy week.", out)
}
