package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// ErrorPrefix is the reserved marker tool collaborators prepend to
// their output to signal failure. Tools return human-readable text;
// there is no distinct error type on the wire.
const ErrorPrefix = "Error:"

// maxStoredOutput bounds the output kept in the tool_results log so
// long-running runs cannot grow memory without limit. The full output
// is still surfaced to the conversation.
const maxStoredOutput = 1000

// ToolFunc is a tool collaborator: it takes the decoded argument map
// and returns human-readable text, flagging failure with ErrorPrefix
// or an error.
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool pairs a collaborator function with the JSON schema its
// arguments are validated against before dispatch.
type Tool struct {
	Name        string
	Description string
	SchemaJSON  string
	Fn          ToolFunc
}

// ValidateArgs validates args against the tool's JSON schema.
func (t Tool) ValidateArgs(args map[string]any) error {
	if t.SchemaJSON == "" {
		return nil
	}
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.String())
		}
		return fmt.Errorf("tool %s validation failed: %s", t.Name, strings.Join(msgs, "; "))
	}
	return nil
}

// Registry maps tool names to collaborators. The set is fixed at
// construction time.
type Registry map[string]Tool

// Names returns the registered tool names, for error messages.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

// Executor dispatches named actions to tool collaborators and logs
// every invocation. Collaborator failures never propagate: they become
// failed log entries and error text visible to the next node.
type Executor struct {
	registry Registry
}

// NewExecutor creates an executor over a fixed registry.
func NewExecutor(registry Registry) *Executor {
	return &Executor{registry: registry}
}

// Execute runs the named tool. Every invocation is timed and produces
// a ToolRecord regardless of outcome; the record's output is truncated
// to a bounded size before storage. Success is true unless the output
// begins with ErrorPrefix or the collaborator returned an error.
func (e *Executor) Execute(ctx context.Context, toolName string, input map[string]any) (string, bool, ToolRecord) {
	start := time.Now()
	log.Printf("executing tool %s", toolName)

	output, success := e.invoke(ctx, toolName, input)
	duration := time.Since(start)

	log.Printf("tool %s completed in %s (success=%v)", toolName, duration, success)

	record := ToolRecord{
		ToolName:  toolName,
		Input:     input,
		Output:    truncate(output, maxStoredOutput),
		Success:   success,
		Duration:  duration,
		Timestamp: time.Now(),
	}
	return output, success, record
}

func (e *Executor) invoke(ctx context.Context, toolName string, input map[string]any) (string, bool) {
	tool, ok := e.registry[toolName]
	if !ok {
		return fmt.Sprintf("Unknown tool: %s", toolName), false
	}

	if err := tool.ValidateArgs(input); err != nil {
		return fmt.Sprintf("%s %v", ErrorPrefix, err), false
	}

	output, err := tool.Fn(ctx, input)
	if err != nil {
		return fmt.Sprintf("%s tool execution error: %v", ErrorPrefix, err), false
	}
	return output, !strings.HasPrefix(output, ErrorPrefix)
}

// truncate caps s at n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
