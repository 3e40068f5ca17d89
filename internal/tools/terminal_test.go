package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oskhen/revue/internal/sandbox"
)

// stubRunner records the last invocation and replies with a canned
// result.
type stubRunner struct {
	result sandbox.Result
	err    error

	lastDir  string
	lastName string
	lastArgs []string
}

func (r *stubRunner) RunCmd(ctx context.Context, dir, name string, args []string, timeout time.Duration) (sandbox.Result, error) {
	r.lastDir = dir
	r.lastName = name
	r.lastArgs = args
	return r.result, r.err
}

func TestRunCommandTool(t *testing.T) {
	ws := newTestWorkspace(t)
	runner := &stubRunner{result: sandbox.Result{Stdout: "ok\n", Code: 0}}
	tool := NewRunCommandTool(ws, runner, 30*time.Second)

	out, err := tool.Fn(context.Background(), map[string]any{"command": "echo ok"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "Exit Code: 0") || !strings.Contains(out, "STDOUT:\nok") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if runner.lastName != "sh" || len(runner.lastArgs) != 2 || runner.lastArgs[1] != "echo ok" {
		t.Errorf("command not dispatched via sh -c: %s %v", runner.lastName, runner.lastArgs)
	}
	if runner.lastDir != ws.Root() {
		t.Errorf("ran in %q, want workspace root", runner.lastDir)
	}
}

func TestRunCommandNonZeroExit(t *testing.T) {
	ws := newTestWorkspace(t)
	runner := &stubRunner{result: sandbox.Result{Stderr: "boom", Code: 2}}

	out, err := NewRunCommandTool(ws, runner, time.Second).Fn(context.Background(), map[string]any{"command": "false"})
	if err != nil {
		t.Fatalf("non-zero exit should be soft output, got error: %v", err)
	}
	if !strings.HasPrefix(out, "Error: ") {
		t.Errorf("got %q, want Error: prefix", out)
	}
	if !strings.Contains(out, "Exit Code: 2") || !strings.Contains(out, "STDERR:\nboom") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRunCommandTimeout(t *testing.T) {
	ws := newTestWorkspace(t)
	runner := &stubRunner{result: sandbox.Result{Code: 1, TimedOut: true}}

	out, err := NewRunCommandTool(ws, runner, time.Second).Fn(context.Background(), map[string]any{"command": "sleep 999"})
	if err != nil {
		t.Fatalf("timeout should be soft output, got error: %v", err)
	}
	if !strings.Contains(out, "Command timed out.") {
		t.Errorf("got %q, want timeout marker", out)
	}
}

func TestRunCommandRunnerError(t *testing.T) {
	ws := newTestWorkspace(t)
	runner := &stubRunner{err: errors.New("docker daemon gone")}

	if _, err := NewRunCommandTool(ws, runner, time.Second).Fn(context.Background(), map[string]any{"command": "true"}); err == nil {
		t.Error("runner failure should propagate as an error")
	}
}

func TestRunCommandMissing(t *testing.T) {
	ws := newTestWorkspace(t)
	if _, err := NewRunCommandTool(ws, &stubRunner{}, time.Second).Fn(context.Background(), map[string]any{"command": "  "}); err == nil {
		t.Error("blank command should be rejected")
	}
}

func TestRunCommandCwd(t *testing.T) {
	ws := newTestWorkspace(t)
	runner := &stubRunner{result: sandbox.Result{Code: 0}}
	tool := NewRunCommandTool(ws, runner, time.Second)

	if _, err := tool.Fn(context.Background(), map[string]any{"command": "ls", "cwd": "../outside"}); err == nil {
		t.Error("cwd outside workspace should be rejected")
	}
}
