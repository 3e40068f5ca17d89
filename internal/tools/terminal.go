package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oskhen/revue/internal/engine"
	"github.com/oskhen/revue/internal/sandbox"
)

// NewRunCommandTool executes a shell command inside the sandbox runner,
// rooted at the workspace.
func NewRunCommandTool(ws *Workspace, runner sandbox.Runner, timeout time.Duration) engine.Tool {
	return engine.Tool{
		Name:        "run_command",
		Description: "Runs a shell command in the workspace and returns stdout, stderr and the exit code.",
		SchemaJSON:  `{"type":"object","properties":{"command":{"type":"string","description":"Shell command to run"},"cwd":{"type":"string","description":"Working directory relative to the workspace root"}},"required":["command"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			command, _ := args["command"].(string)
			if strings.TrimSpace(command) == "" {
				return "", fmt.Errorf("command is required")
			}

			dir := ws.Root()
			if cwd, _ := args["cwd"].(string); cwd != "" && cwd != "." {
				full, err := ws.Resolve(cwd)
				if err != nil {
					return "", err
				}
				dir = full
			}

			result, err := runner.RunCmd(ctx, dir, "sh", []string{"-c", command}, timeout)
			if err != nil {
				return "", fmt.Errorf("command execution failed: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Exit Code: %d\n", result.Code)
			if result.TimedOut {
				b.WriteString("Command timed out.\n")
			}
			if result.Stdout != "" {
				fmt.Fprintf(&b, "STDOUT:\n%s\n", result.Stdout)
			}
			if result.Stderr != "" {
				fmt.Fprintf(&b, "STDERR:\n%s\n", result.Stderr)
			}
			if result.Code != 0 {
				return "Error: " + b.String(), nil
			}
			return b.String(), nil
		},
	}
}
