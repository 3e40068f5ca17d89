package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oskhen/revue/internal/breaker"
)

// scriptedModel replays a fixed sequence of replies; once exhausted it
// answers "finish" so runs always terminate.
type scriptedModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
	systems []string
}

func (m *scriptedModel) Invoke(ctx context.Context, system string, messages []Message) (Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.systems = append(m.systems, system)
	if m.err != nil {
		return Reply{}, m.err
	}
	i := m.calls
	m.calls++
	if i >= len(m.replies) {
		return Reply{Content: "finish"}, nil
	}
	return Reply{Content: m.replies[i]}, nil
}

func testEngine(model ModelClient, reg Registry) *Engine {
	return New(model, reg, breaker.NewRegistry(breaker.DefaultConfig()), Options{
		Retry: RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
}

func TestRouteDecision(t *testing.T) {
	tests := []struct {
		decision string
		want     Step
	}{
		{"planner", StepPlanner},
		{"researcher", StepResearcher},
		{"coder", StepCoder},
		{"reviewer", StepReviewer},
		{"finish", StepFinish},
		{"i think the planner should go next", StepPlanner},
		{"let's have the coder implement it", StepCoder},
		{"something unrecognizable", StepCoder}, // default
		{"", StepCoder},
		{"the coder is done, finish the run", StepFinish}, // finish overrides
		{"planner then finish", StepFinish},
		// priority order: first match in planner, researcher, coder, reviewer
		{"reviewer or planner?", StepPlanner},
	}

	for _, tt := range tests {
		if got := routeDecision(tt.decision); got != tt.want {
			t.Errorf("routeDecision(%q) = %q, want %q", tt.decision, got, tt.want)
		}
	}
}

func TestSupervisorIterationCap(t *testing.T) {
	model := &scriptedModel{}
	e := testEngine(model, Registry{})

	st := NewRunState("task")
	st.IterationCount = st.MaxIterations

	upd := e.supervisorNode(context.Background(), st)

	if upd.NextStep != StepFinish {
		t.Errorf("NextStep = %q, want FINISH at the cap", upd.NextStep)
	}
	if upd.IterationCount == nil || *upd.IterationCount != st.MaxIterations+1 {
		t.Errorf("IterationCount update = %v, want cap+1", upd.IterationCount)
	}
	if model.calls != 0 {
		t.Errorf("model was called %d times at the cap, want 0", model.calls)
	}
}

func TestSupervisorModelFailure(t *testing.T) {
	model := &scriptedModel{err: errors.New("provider down")}
	e := testEngine(model, Registry{})

	st := NewRunState("task")
	upd := e.supervisorNode(context.Background(), st)

	if upd.NextStep != StepFinish {
		t.Errorf("NextStep = %q, want FINISH on model failure", upd.NextStep)
	}
	if upd.IterationCount == nil || *upd.IterationCount != 1 {
		t.Errorf("IterationCount = %v, want 1 even on failure", upd.IterationCount)
	}
	if upd.ErrorContext == nil {
		t.Fatal("no error context recorded")
	}
	if upd.ErrorContext.Fatal {
		t.Error("model failure marked fatal; FINISH is the normal path out")
	}
}

func TestSupervisorRoutesAndIncrements(t *testing.T) {
	model := &scriptedModel{replies: []string{"reviewer"}}
	e := testEngine(model, Registry{})

	st := NewRunState("task")
	st.IterationCount = 2
	upd := e.supervisorNode(context.Background(), st)

	if upd.NextStep != StepReviewer {
		t.Errorf("NextStep = %q, want reviewer", upd.NextStep)
	}
	if upd.IterationCount == nil || *upd.IterationCount != 3 {
		t.Errorf("IterationCount = %v, want 3", upd.IterationCount)
	}
}

func TestPlannerOverwritesPlan(t *testing.T) {
	model := &scriptedModel{replies: []string{"1. edit main.go\n2. run tests"}}
	e := testEngine(model, Registry{})

	st := NewRunState("task")
	st.Plan = "stale plan"
	upd := e.plannerNode(context.Background(), st)

	if upd.Plan == nil || *upd.Plan != "1. edit main.go\n2. run tests" {
		t.Errorf("Plan update = %v", upd.Plan)
	}
	if upd.NextStep != StepSupervisor {
		t.Errorf("NextStep = %q, want supervisor", upd.NextStep)
	}
	if len(upd.Messages) != 1 || upd.Messages[0].Agent != "planner" {
		t.Errorf("Messages = %+v", upd.Messages)
	}
}

func TestWorkerFailureReturnsToSupervisor(t *testing.T) {
	model := &scriptedModel{err: errors.New("timeout")}
	e := testEngine(model, Registry{})

	for _, node := range []nodeFunc{e.plannerNode, e.researcherNode, e.coderNode, e.reviewerNode} {
		upd := node(context.Background(), NewRunState("task"))
		if upd.NextStep != StepSupervisor {
			t.Errorf("NextStep = %q, want supervisor after failure", upd.NextStep)
		}
		if upd.ErrorContext == nil || upd.ErrorContext.Fatal {
			t.Errorf("ErrorContext = %+v, want non-fatal", upd.ErrorContext)
		}
		if len(upd.Messages) != 1 {
			t.Errorf("Messages = %+v, want the error surfaced in conversation", upd.Messages)
		}
	}
}

func TestGuardRecoversPanic(t *testing.T) {
	panicking := guard("coder", func(ctx context.Context, st *RunState) Update {
		panic("unexpected")
	})

	upd := panicking(context.Background(), NewRunState("task"))
	if upd.NextStep != StepSupervisor {
		t.Errorf("NextStep = %q, want supervisor", upd.NextStep)
	}
	if upd.ErrorContext == nil || upd.ErrorContext.Agent != "coder" {
		t.Errorf("ErrorContext = %+v", upd.ErrorContext)
	}
}

func TestCoderDispatchesAction(t *testing.T) {
	model := &scriptedModel{replies: []string{`{"action": "write_file", "path": "a.go", "content": "package a"}`}}
	written := false
	reg := Registry{
		"write_file": {
			Name: "write_file",
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				written = true
				return "Successfully wrote a.go", nil
			},
		},
	}
	e := testEngine(model, reg)

	upd := e.coderNode(context.Background(), NewRunState("task"))

	if !written {
		t.Fatal("tool was not invoked")
	}
	if len(upd.ToolResults) != 1 || !upd.ToolResults[0].Success {
		t.Errorf("ToolResults = %+v", upd.ToolResults)
	}
	// Model reply plus synthetic tool result message.
	if len(upd.Messages) != 2 {
		t.Fatalf("Messages has %d entries, want 2", len(upd.Messages))
	}
	if upd.Messages[1].Role != RoleUser {
		t.Errorf("tool result message role = %q", upd.Messages[1].Role)
	}
}

func TestCoderIgnoresForeignAction(t *testing.T) {
	// search_code belongs to the researcher; the coder treats it as prose.
	model := &scriptedModel{replies: []string{`{"action": "search_code", "query": "handler"}`}}
	reg := Registry{
		"search_code": {
			Name: "search_code",
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				t.Fatal("coder dispatched a researcher action")
				return "", nil
			},
		},
	}
	e := testEngine(model, reg)

	upd := e.coderNode(context.Background(), NewRunState("task"))
	if len(upd.ToolResults) != 0 {
		t.Errorf("ToolResults = %+v, want none", upd.ToolResults)
	}
}

func TestReviewerFinishStoresVerdict(t *testing.T) {
	model := &scriptedModel{replies: []string{`{"action": "finish", "verdict": "APPROVED", "summary": "looks good"}`}}
	e := testEngine(model, Registry{})

	upd := e.reviewerNode(context.Background(), NewRunState("task"))

	if upd.Reflection == nil {
		t.Fatal("no reflection recorded")
	}
	want := "Review Verdict: APPROVED\nlooks good"
	if *upd.Reflection != want {
		t.Errorf("Reflection = %q, want %q", *upd.Reflection, want)
	}
	if upd.NextStep != StepSupervisor {
		t.Errorf("NextStep = %q, want supervisor; routing decides termination", upd.NextStep)
	}
}

func TestReviewFileMapsToReadFile(t *testing.T) {
	if got := toolNameFor(ActionReviewFile); got != string(ActionReadFile) {
		t.Errorf("toolNameFor(review_file) = %q", got)
	}
	if got := toolNameFor(ActionGitDiff); got != string(ActionGitDiff) {
		t.Errorf("toolNameFor(git_diff) = %q", got)
	}
}
