package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testRegistry() Registry {
	return Registry{
		"echo": {
			Name: "echo",
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				msg, _ := args["message"].(string)
				return msg, nil
			},
		},
		"boom": {
			Name: "boom",
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				return "", errors.New("kaput")
			},
		},
		"strict": {
			Name:       "strict",
			SchemaJSON: `{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`,
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				return "validated", nil
			},
		},
	}
}

func TestExecuteSuccess(t *testing.T) {
	e := NewExecutor(testRegistry())
	output, success, record := e.Execute(context.Background(), "echo", map[string]any{"message": "hello"})

	if !success || output != "hello" {
		t.Errorf("Execute() = (%q, %v)", output, success)
	}
	if record.ToolName != "echo" || !record.Success {
		t.Errorf("record = %+v", record)
	}
	if record.Duration < 0 {
		t.Errorf("Duration = %v", record.Duration)
	}
	if record.Timestamp.IsZero() {
		t.Error("record not timestamped")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	e := NewExecutor(testRegistry())
	output, success, record := e.Execute(context.Background(), "nope", nil)

	if success {
		t.Error("unknown tool reported success")
	}
	if output != "Unknown tool: nope" {
		t.Errorf("output = %q", output)
	}
	if record.Success {
		t.Error("record marked successful for unknown tool")
	}
}

func TestExecuteCollaboratorError(t *testing.T) {
	e := NewExecutor(testRegistry())
	output, success, _ := e.Execute(context.Background(), "boom", nil)

	if success {
		t.Error("failed tool reported success")
	}
	if !strings.HasPrefix(output, ErrorPrefix) {
		t.Errorf("output = %q, want %q prefix", output, ErrorPrefix)
	}
	if !strings.Contains(output, "kaput") {
		t.Errorf("output = %q, want original error text", output)
	}
}

func TestExecuteErrorPrefixOutput(t *testing.T) {
	reg := Registry{
		"soft": {
			Name: "soft",
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				return "Error: file not found", nil
			},
		},
	}
	e := NewExecutor(reg)
	output, success, record := e.Execute(context.Background(), "soft", nil)

	if success || record.Success {
		t.Errorf("Error-prefixed output reported success: %q", output)
	}
}

func TestExecuteSchemaValidation(t *testing.T) {
	e := NewExecutor(testRegistry())

	output, success, _ := e.Execute(context.Background(), "strict", map[string]any{})
	if success {
		t.Errorf("missing required arg passed validation: %q", output)
	}
	if !strings.HasPrefix(output, ErrorPrefix) {
		t.Errorf("output = %q, want %q prefix", output, ErrorPrefix)
	}

	output, success, _ = e.Execute(context.Background(), "strict", map[string]any{"path": "a.go"})
	if !success || output != "validated" {
		t.Errorf("valid args rejected: (%q, %v)", output, success)
	}
}

func TestExecuteTruncatesStoredOutput(t *testing.T) {
	long := strings.Repeat("x", maxStoredOutput*3)
	reg := Registry{
		"big": {
			Name: "big",
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				return long, nil
			},
		},
	}
	e := NewExecutor(reg)
	output, success, record := e.Execute(context.Background(), "big", nil)

	if !success {
		t.Fatal("big output reported failure")
	}
	if output != long {
		t.Error("returned output was truncated; only the record should be")
	}
	if len(record.Output) != maxStoredOutput {
		t.Errorf("stored output is %d bytes, want %d", len(record.Output), maxStoredOutput)
	}
}

func TestRegistryNames(t *testing.T) {
	reg := testRegistry()
	names := reg.Names()
	if len(names) != len(reg) {
		t.Fatalf("Names() has %d entries, want %d", len(names), len(reg))
	}
	for _, n := range names {
		if _, ok := reg[n]; !ok {
			t.Errorf("unexpected name %q", n)
		}
	}
}
