package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/oskhen/revue/internal/breaker"
)

// nodeFunc executes one state-machine node and returns the partial
// update to fold into the run state.
type nodeFunc func(ctx context.Context, st *RunState) Update

// guard wraps a worker node so that a panic is converted into an
// appended error message and a non-fatal error context. A worker must
// never let a failure escape the state machine; control always returns
// to the supervisor.
func guard(agent string, fn nodeFunc) nodeFunc {
	return func(ctx context.Context, st *RunState) (u Update) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("%s node panic: %v", agent, r)
				u = workerFailure(agent, fmt.Errorf("panic: %v", r))
			}
		}()
		return fn(ctx, st)
	}
}

// workerFailure converts a node failure into the standard degraded
// update: error message appended, non-fatal error context, back to the
// supervisor.
func workerFailure(agent string, err error) Update {
	log.Printf("%s error: %v", agent, err)
	return Update{
		Messages: []Message{{
			Role:    RoleAssistant,
			Agent:   agent,
			Content: fmt.Sprintf("%s error: %v", agent, err),
		}},
		CurrentAgent: agent,
		NextStep:     StepSupervisor,
		ErrorContext: &ErrorContext{Agent: agent, Error: err.Error(), Fatal: false},
	}
}

// invokeModel calls the model through the retry wrapper, itself wrapped
// by the llm circuit breaker.
func (e *Engine) invokeModel(ctx context.Context, system string, msgs []Message) (Reply, error) {
	b := e.breakers.Get("llm")
	return Retry(ctx, e.retry, func(ctx context.Context) (Reply, error) {
		return breaker.Do(ctx, b, func(ctx context.Context) (Reply, error) {
			return e.model.Invoke(ctx, system, msgs)
		})
	})
}

// supervisorNode computes the routing decision. It forces FINISH once
// the iteration cap is reached without spending a model call, and it
// increments the iteration counter even when the model fails, so the
// run always makes progress toward termination.
func (e *Engine) supervisorNode(ctx context.Context, st *RunState) Update {
	iteration := st.IterationCount

	if iteration >= st.MaxIterations {
		log.Printf("max iterations (%d) reached, forcing FINISH", iteration)
		return Update{
			NextStep:       StepFinish,
			CurrentAgent:   string(StepSupervisor),
			IterationCount: intPtr(iteration + 1),
		}
	}

	msgs := st.Messages
	if summary := supervisorContext(st); summary != "" {
		msgs = prepend(msgs, Message{Role: RoleUser, Content: "Context:\n" + summary})
	}

	reply, err := e.invokeModel(ctx, supervisorPrompt, msgs)
	if err != nil {
		log.Printf("supervisor error: %v", err)
		return Update{
			NextStep:       StepFinish,
			CurrentAgent:   string(StepSupervisor),
			IterationCount: intPtr(iteration + 1),
			ErrorContext:   &ErrorContext{Agent: string(StepSupervisor), Error: err.Error(), Fatal: false},
		}
	}

	decision := strings.ToLower(strings.TrimSpace(reply.Content))
	next := routeDecision(decision)
	log.Printf("supervisor routing to %s", next)

	return Update{
		NextStep:       next,
		CurrentAgent:   string(StepSupervisor),
		IterationCount: intPtr(iteration + 1),
	}
}

// routeDecision scans the lower-cased model reply for role names in the
// fixed priority order; the first match wins and an unmatched reply
// defaults to coder. A "finish" substring anywhere overrides any role
// match. Keyword scanning over free text is fragile but is the
// established routing behavior; see DESIGN.md before changing it.
func routeDecision(decision string) Step {
	next := StepCoder
	for _, role := range WorkerSteps {
		if strings.Contains(decision, string(role)) {
			next = role
			break
		}
	}
	if strings.Contains(decision, "finish") {
		next = StepFinish
	}
	return next
}

// supervisorContext summarizes the current plan and the three most
// recent tool results for the routing prompt.
func supervisorContext(st *RunState) string {
	var parts []string
	if st.Plan != "" {
		parts = append(parts, "Current Plan:\n"+st.Plan)
	}
	if n := len(st.ToolResults); n > 0 {
		recent := st.ToolResults
		if n > 3 {
			recent = recent[n-3:]
		}
		var lines []string
		for _, r := range recent {
			status := "ok"
			if !r.Success {
				status = "failed"
			}
			lines = append(lines, fmt.Sprintf("- %s: %s", r.ToolName, status))
		}
		parts = append(parts, "Recent Tool Results:\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// plannerNode produces the implementation plan. The plan field is
// overwritten, not appended.
func (e *Engine) plannerNode(ctx context.Context, st *RunState) Update {
	reply, err := e.invokeModel(ctx, plannerPrompt, st.Messages)
	if err != nil {
		return workerFailure(string(StepPlanner), err)
	}

	return Update{
		Messages:     []Message{{Role: RoleAssistant, Agent: string(StepPlanner), Content: reply.Content}},
		Plan:         strPtr(reply.Content),
		Memory:       []MemoryItem{newMemory("assistant", clip(reply.Content, 500), string(StepPlanner))},
		CurrentAgent: string(StepPlanner),
		NextStep:     StepSupervisor,
	}
}

// researcherNode gathers codebase context. The repository map, when
// available, is prepended so the model sees the project layout.
func (e *Engine) researcherNode(ctx context.Context, st *RunState) Update {
	msgs := st.Messages
	if st.RepoMap != "" {
		msgs = prepend(msgs, Message{Role: RoleUser, Content: "Repository Structure:\n" + st.RepoMap})
	}

	reply, err := e.invokeModel(ctx, researcherPrompt, msgs)
	if err != nil {
		return workerFailure(string(StepResearcher), err)
	}

	upd := Update{
		Messages:     []Message{{Role: RoleAssistant, Agent: string(StepResearcher), Content: reply.Content}},
		Memory:       []MemoryItem{newMemory("assistant", clip(reply.Content, 500), string(StepResearcher))},
		CurrentAgent: string(StepResearcher),
		NextStep:     StepSupervisor,
	}

	action := ParseAction(reply.Content)
	switch {
	case action.IsFinish():
		log.Printf("researcher finished with findings")
	case action != nil && researcherActions[action.Kind]:
		msg, record := e.dispatch(ctx, action)
		upd.Messages = append(upd.Messages, msg)
		upd.ToolResults = append(upd.ToolResults, record)
	}

	return upd
}

// coderNode implements the plan: it is the only node that edits files
// or runs commands. The current plan is prepended to its context.
func (e *Engine) coderNode(ctx context.Context, st *RunState) Update {
	msgs := st.Messages
	if st.Plan != "" {
		msgs = prepend(msgs, Message{Role: RoleUser, Content: "Implementation Plan:\n" + st.Plan})
	}

	reply, err := e.invokeModel(ctx, coderPrompt, msgs)
	if err != nil {
		return workerFailure(string(StepCoder), err)
	}

	upd := Update{
		Messages:     []Message{{Role: RoleAssistant, Agent: string(StepCoder), Content: reply.Content}},
		Memory:       []MemoryItem{newMemory("assistant", clip(reply.Content, 500), string(StepCoder))},
		CurrentAgent: string(StepCoder),
		NextStep:     StepSupervisor,
	}

	action := ParseAction(reply.Content)
	switch {
	case action.IsFinish():
		log.Printf("coder signaled completion")
	case action != nil && coderActions[action.Kind]:
		msg, record := e.dispatch(ctx, action)
		upd.Messages = append(upd.Messages, msg)
		upd.ToolResults = append(upd.ToolResults, record)
	}

	return upd
}

// reviewerNode critiques the session's changes. Its finish action
// carries the verdict, which is stored as the run's reflection; the
// routing decision on the next supervisor turn decides whether the run
// actually terminates.
func (e *Engine) reviewerNode(ctx context.Context, st *RunState) Update {
	msgs := st.Messages
	if files := st.WrittenFiles(); len(files) > 0 {
		var b strings.Builder
		b.WriteString("Files modified in this session:\n")
		for _, f := range files {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		msgs = prepend(msgs, Message{Role: RoleUser, Content: b.String()})
	}

	reply, err := e.invokeModel(ctx, reviewerPrompt, msgs)
	if err != nil {
		return workerFailure(string(StepReviewer), err)
	}

	upd := Update{
		Messages:     []Message{{Role: RoleAssistant, Agent: string(StepReviewer), Content: reply.Content}},
		Memory:       []MemoryItem{newMemory("assistant", clip(reply.Content, 500), string(StepReviewer))},
		CurrentAgent: string(StepReviewer),
		NextStep:     StepSupervisor,
	}

	action := ParseAction(reply.Content)
	switch {
	case action.IsFinish():
		verdict := action.StringArg("verdict")
		if verdict == "" {
			verdict = "UNKNOWN"
		}
		summary := action.StringArg("summary")
		upd.Reflection = strPtr(fmt.Sprintf("Review Verdict: %s\n%s", verdict, summary))
		log.Printf("review verdict: %s", verdict)
	case action != nil && reviewerActions[action.Kind]:
		msg, record := e.dispatch(ctx, action)
		upd.Messages = append(upd.Messages, msg)
		upd.ToolResults = append(upd.ToolResults, record)
	}

	return upd
}

// Per-role action sets: a node only dispatches the kinds its prompt
// offers, everything else is treated as prose.
var (
	researcherActions = map[ActionKind]bool{
		ActionAnalyzeFile: true,
		ActionSearchCode:  true,
	}
	coderActions = map[ActionKind]bool{
		ActionReadFile:   true,
		ActionWriteFile:  true,
		ActionListDir:    true,
		ActionRunCommand: true,
		ActionGitStatus:  true,
		ActionGitDiff:    true,
		ActionGitLog:     true,
	}
	reviewerActions = map[ActionKind]bool{
		ActionReviewFile:   true,
		ActionSecurityScan: true,
		ActionAnalyzeFile:  true,
		ActionGitDiff:      true,
	}
)

// dispatch routes a recognized action through the tool gateway and
// wraps the output in a synthetic message visible to subsequent nodes.
func (e *Engine) dispatch(ctx context.Context, action *Action) (Message, ToolRecord) {
	name := toolNameFor(action.Kind)
	output, _, record := e.exec.Execute(ctx, name, action.Args)
	msg := Message{
		Role:    RoleUser,
		Content: fmt.Sprintf("Tool Result (%s):\n%s", name, output),
	}
	return msg, record
}

// toolNameFor maps an action kind to its gateway tool. review_file is
// a read with reviewer framing, backed by the same collaborator.
func toolNameFor(kind ActionKind) string {
	if kind == ActionReviewFile {
		return string(ActionReadFile)
	}
	return string(kind)
}

// prepend copies msgs with extra in front, leaving the original slice
// untouched.
func prepend(msgs []Message, extra Message) []Message {
	out := make([]Message, 0, len(msgs)+1)
	out = append(out, extra)
	out = append(out, msgs...)
	return out
}

// clip caps s at n bytes for memory entries.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
