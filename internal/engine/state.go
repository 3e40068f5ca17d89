// Package engine implements the supervisor/worker orchestration core:
// run state, routing, the per-worker tool loop and the retry wrapper
// around model calls.
package engine

import (
	"time"
)

// Step identifies the next node the state machine will execute.
type Step string

const (
	StepSupervisor Step = "supervisor"
	StepPlanner    Step = "planner"
	StepResearcher Step = "researcher"
	StepCoder      Step = "coder"
	StepReviewer   Step = "reviewer"
	StepFinish     Step = "FINISH"
)

// WorkerSteps lists the worker roles in routing priority order.
// The supervisor scans its decision text for these names in this exact
// order; the first match wins.
var WorkerSteps = []Step{StepPlanner, StepResearcher, StepCoder, StepReviewer}

// DefaultMaxIterations bounds a run when the caller does not override it.
const DefaultMaxIterations = 25

// ToolRecord is one entry in the append-only tool execution log.
type ToolRecord struct {
	ToolName  string         `json:"tool_name"`
	Input     map[string]any `json:"input"`
	Output    string         `json:"output"`
	Success   bool           `json:"success"`
	Duration  time.Duration  `json:"duration"`
	Timestamp time.Time      `json:"timestamp"`
}

// MemoryItem is one entry in the secondary narrative trace, kept
// independently of the message history.
type MemoryItem struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Agent     string    `json:"agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorContext records a node failure. Only Fatal forces early
// termination outside the normal FINISH path.
type ErrorContext struct {
	Agent string `json:"agent"`
	Error string `json:"error"`
	Fatal bool   `json:"fatal"`
}

// RunState is the mutable record threaded through one orchestration run.
// It is owned by exactly one run and never shared. List fields only grow;
// scalar fields are overwritten via Apply.
type RunState struct {
	Messages []Message `json:"messages"`
	NextStep Step      `json:"next_step"`
	Task     string    `json:"task"`

	RepoMap      string `json:"repo_map,omitempty"`
	CurrentAgent string `json:"current_agent"`

	IterationCount int `json:"iteration_count"`
	MaxIterations  int `json:"max_iterations"`

	ToolResults []ToolRecord `json:"tool_results"`
	Memory      []MemoryItem `json:"memory"`

	Plan       string `json:"plan,omitempty"`
	Reflection string `json:"reflection,omitempty"`

	ErrorContext *ErrorContext  `json:"error_context,omitempty"`
	Metadata     map[string]any `json:"metadata"`
}

// NewRunState creates a properly initialized state from the initiating
// user message.
func NewRunState(userMessage string) *RunState {
	now := time.Now()
	return &RunState{
		Messages:       []Message{{Role: RoleUser, Content: userMessage}},
		NextStep:       StepSupervisor,
		Task:           userMessage,
		CurrentAgent:   string(StepSupervisor),
		IterationCount: 0,
		MaxIterations:  DefaultMaxIterations,
		ToolResults:    []ToolRecord{},
		Memory: []MemoryItem{{
			Role:      "user",
			Content:   userMessage,
			Timestamp: now,
		}},
		Metadata: map[string]any{
			"created_at": now,
			"version":    "2.0.0",
		},
	}
}

// ShouldContinue reports whether the run may take another supervisor turn.
// It is checked before and after every supervisor turn.
func (s *RunState) ShouldContinue() bool {
	if s.IterationCount >= s.MaxIterations {
		return false
	}
	if s.NextStep == StepFinish {
		return false
	}
	if s.ErrorContext != nil && s.ErrorContext.Fatal {
		return false
	}
	return true
}

// WrittenFiles returns the paths successfully written by the write_file
// tool during this run, in order.
func (s *RunState) WrittenFiles() []string {
	var paths []string
	for _, r := range s.ToolResults {
		if r.ToolName != "write_file" || !r.Success {
			continue
		}
		if p, ok := r.Input["path"].(string); ok && p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Update is the partial state returned by a node. Apply merges it with a
// fixed per-field policy: list fields append, scalar fields overwrite
// when set. Nodes never mutate RunState directly.
type Update struct {
	Messages    []Message
	ToolResults []ToolRecord
	Memory      []MemoryItem

	NextStep       Step
	CurrentAgent   string
	IterationCount *int
	Plan           *string
	Reflection     *string
	ErrorContext   *ErrorContext
}

// Apply folds an Update into the state.
func (s *RunState) Apply(u Update) {
	s.Messages = append(s.Messages, u.Messages...)
	s.ToolResults = append(s.ToolResults, u.ToolResults...)
	s.Memory = append(s.Memory, u.Memory...)

	if u.NextStep != "" {
		s.NextStep = u.NextStep
	}
	if u.CurrentAgent != "" {
		s.CurrentAgent = u.CurrentAgent
	}
	if u.IterationCount != nil {
		s.IterationCount = *u.IterationCount
	}
	if u.Plan != nil {
		s.Plan = *u.Plan
	}
	if u.Reflection != nil {
		s.Reflection = *u.Reflection
	}
	if u.ErrorContext != nil {
		s.ErrorContext = u.ErrorContext
	}
}

// newMemory builds a memory entry stamped now.
func newMemory(role, content, agent string) MemoryItem {
	return MemoryItem{Role: role, Content: content, Agent: agent, Timestamp: time.Now()}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
