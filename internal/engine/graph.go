package engine

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/oskhen/revue/internal/breaker"
)

// Engine drives the supervisor/worker state machine. One Engine serves
// many concurrent runs; each run's state is exclusively owned by the
// goroutine processing it.
type Engine struct {
	model    ModelClient
	exec     *Executor
	breakers *breaker.Registry
	retry    RetryPolicy

	maxIterations int
	repoMap       string

	workers map[Step]nodeFunc
}

// Options tunes a new Engine.
type Options struct {
	// MaxIterations caps supervisor turns per run; 0 uses the default.
	MaxIterations int
	// RepoMap is the repository structure summary injected into the
	// researcher's context, when available.
	RepoMap string
	// Retry overrides the model-call retry policy; zero value uses the
	// default.
	Retry RetryPolicy
}

// New builds an engine over the model collaborator, the tool registry
// and the breaker registry owned by the application context.
func New(model ModelClient, registry Registry, breakers *breaker.Registry, opts Options) *Engine {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Retry == (RetryPolicy{}) {
		opts.Retry = DefaultRetryPolicy()
	}

	e := &Engine{
		model:         model,
		exec:          NewExecutor(registry),
		breakers:      breakers,
		retry:         opts.Retry,
		maxIterations: opts.MaxIterations,
		repoMap:       opts.RepoMap,
	}
	e.workers = map[Step]nodeFunc{
		StepPlanner:    guard(string(StepPlanner), e.plannerNode),
		StepResearcher: guard(string(StepResearcher), e.researcherNode),
		StepCoder:      guard(string(StepCoder), e.coderNode),
		StepReviewer:   guard(string(StepReviewer), e.reviewerNode),
	}
	return e
}

// DeltaKind distinguishes stream entries.
type DeltaKind string

const (
	// DeltaUpdate carries the partial state produced by one node.
	DeltaUpdate DeltaKind = "update"
	// DeltaDone is the completion marker terminating the stream.
	DeltaDone DeltaKind = "done"
)

// Delta is one entry in the lazy stream a run yields. The transport
// layer serializes deltas to clients and maps the done marker to its
// wire-level completion signal.
type Delta struct {
	Kind DeltaKind `json:"kind"`
	Node string    `json:"node,omitempty"`

	Messages    []Message    `json:"messages,omitempty"`
	ToolResults []ToolRecord `json:"tool_results,omitempty"`

	NextStep       Step          `json:"next_step,omitempty"`
	IterationCount int           `json:"iteration_count"`
	Plan           string        `json:"plan,omitempty"`
	Reflection     string        `json:"reflection,omitempty"`
	Error          *ErrorContext `json:"error,omitempty"`

	// Final is the complete run state, set only on the done marker.
	Final *RunState `json:"final,omitempty"`
}

// Run executes one orchestration run and returns its delta stream. The
// channel is closed after the done marker. The run stops early only if
// ctx is cancelled while emitting.
func (e *Engine) Run(ctx context.Context, userMessage, sessionID string) <-chan Delta {
	ch := make(chan Delta)

	go func() {
		defer close(ch)

		st := NewRunState(userMessage)
		st.MaxIterations = e.maxIterations
		st.RepoMap = e.repoMap
		st.Metadata["run_id"] = uuid.NewString()
		if sessionID != "" {
			st.Metadata["session_id"] = sessionID
		}

		log.Printf("starting run %v for: %s", st.Metadata["run_id"], clip(userMessage, 100))

		for st.ShouldContinue() {
			upd := e.supervisorNode(ctx, st)
			st.Apply(upd)
			if !e.emit(ctx, ch, nodeDelta(string(StepSupervisor), upd, st)) {
				return
			}
			if !st.ShouldContinue() {
				break
			}

			worker, ok := e.workers[st.NextStep]
			if !ok {
				// Routing produced a non-worker step other than FINISH;
				// treat as terminal rather than loop on it.
				log.Printf("no worker for step %q, stopping", st.NextStep)
				break
			}
			name := string(st.NextStep)
			upd = worker(ctx, st)
			st.Apply(upd)
			if !e.emit(ctx, ch, nodeDelta(name, upd, st)) {
				return
			}
		}

		log.Printf("run %v finished after %d iterations", st.Metadata["run_id"], st.IterationCount)
		e.emit(ctx, ch, Delta{Kind: DeltaDone, IterationCount: st.IterationCount, NextStep: st.NextStep, Final: st})
	}()

	return ch
}

// nodeDelta projects a node's update onto the stream entry.
func nodeDelta(node string, upd Update, st *RunState) Delta {
	d := Delta{
		Kind:           DeltaUpdate,
		Node:           node,
		Messages:       upd.Messages,
		ToolResults:    upd.ToolResults,
		NextStep:       st.NextStep,
		IterationCount: st.IterationCount,
		Error:          upd.ErrorContext,
	}
	if upd.Plan != nil {
		d.Plan = *upd.Plan
	}
	if upd.Reflection != nil {
		d.Reflection = *upd.Reflection
	}
	return d
}

// emit sends a delta unless the consumer is gone.
func (e *Engine) emit(ctx context.Context, ch chan<- Delta, d Delta) bool {
	select {
	case ch <- d:
		return true
	case <-ctx.Done():
		return false
	}
}
