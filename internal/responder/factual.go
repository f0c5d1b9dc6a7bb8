package responder

import (
	"context"
	"fmt"
	"strings"

	"solace/internal/gen"
)

// Retriever supplies grounding excerpts for factual answers. A nil retriever
// or an empty index degrades to model knowledge only.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// Factual answers neutral factual and technique questions: definitions,
// checklists, methods, practice plans.
type Factual struct {
	client    gen.Client
	retriever Retriever
	topK      int
}

// NewFactual returns the factual capability. retriever may be nil.
func NewFactual(client gen.Client, retriever Retriever, topK int) *Factual {
	if topK <= 0 {
		topK = 4
	}
	return &Factual{client: client, retriever: retriever, topK: topK}
}

// Respond answers the question posed by the step's framing.
func (f *Factual) Respond(ctx context.Context, question string) (string, error) {
	var b strings.Builder
	if f.retriever != nil {
		excerpts, err := f.retriever.Search(ctx, question, f.topK)
		// Retrieval is best-effort grounding; a failed lookup must not fail
		// the answer.
		if err == nil && len(excerpts) > 0 {
			b.WriteString("Grounding excerpts:\n")
			for _, e := range excerpts {
				b.WriteString("- ")
				b.WriteString(e)
				b.WriteByte('\n')
			}
			b.WriteByte('\n')
		}
	}
	fmt.Fprintf(&b, "Question: %s", question)

	out, err := f.client.Generate(ctx, gen.Request{
		Capability:  "factual",
		System:      factualSystemPrompt,
		Prompt:      b.String(),
		Tier:        gen.TierFast,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
