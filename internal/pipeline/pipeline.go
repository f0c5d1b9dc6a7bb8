package pipeline

import (
	"context"

	"go.uber.org/zap"

	"solace/internal/gen"
	"solace/internal/turn"
)

// Pipeline drives one turn through extraction, planning, dispatch and
// synthesis, strictly in that order. Stages of the same turn never
// interleave; a stage only starts once the previous stage's full output has
// been merged into the state.
type Pipeline struct {
	analyzer    *Analyzer
	planner     *Planner
	executor    *Executor
	synthesizer *Synthesizer
	log         *zap.Logger
}

// New wires the four stages around one generation client and the responder
// set. The client is injected here; nothing in the pipeline reaches for a
// process-global model handle.
func New(client gen.Client, rs Responders, log *zap.Logger) *Pipeline {
	return &Pipeline{
		analyzer:    NewAnalyzer(client, log),
		planner:     NewPlanner(client, log),
		executor:    NewExecutor(rs, log),
		synthesizer: NewSynthesizer(client, log),
		log:         log,
	}
}

// Run executes the turn against st. The final response is always set when Run
// returns: a stage failure aborts the remaining stages and the reply falls
// back to the static apology, built without another generation call. The
// returned error is the first unrecovered stage failure, nil on a clean turn.
func (p *Pipeline) Run(ctx context.Context, st *turn.State) error {
	signals, err := p.analyzer.Analyze(ctx, st.Transcript, st.UserMessage)
	if err != nil {
		p.log.Error("context extraction failed", zap.Error(err))
		st.FinalResponse = FallbackResponse
		return err
	}
	st.Signals = signals

	plan, err := p.planner.Plan(ctx, st.Transcript, st.UserMessage)
	if err != nil {
		p.log.Error("plan generation failed", zap.Error(err))
		st.FinalResponse = FallbackResponse
		return err
	}
	st.Plan = &plan
	st.Question = plan.Question

	p.executor.Execute(ctx, st)

	final, err := p.synthesizer.Synthesize(ctx, st)
	st.FinalResponse = final
	if err != nil {
		p.log.Error("synthesis failed, using fallback", zap.Error(err))
		return err
	}
	return nil
}
