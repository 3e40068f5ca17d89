package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oskhen/revue/internal/engine"
	"github.com/oskhen/revue/internal/sandbox"
)

// gitTimeout bounds git invocations; they are local and fast.
const gitTimeout = 15 * time.Second

func runGit(ctx context.Context, runner sandbox.Runner, root string, args ...string) (string, error) {
	result, err := runner.RunCmd(ctx, root, "git", args, gitTimeout)
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	if result.Code != 0 {
		return fmt.Sprintf("Error: git %s exited with code %d\n%s", strings.Join(args, " "), result.Code, result.Stderr), nil
	}
	out := strings.TrimSpace(result.Stdout)
	if out == "" {
		return "(no output)", nil
	}
	return out, nil
}

// NewGitStatusTool reports the working tree status.
func NewGitStatusTool(ws *Workspace, runner sandbox.Runner) engine.Tool {
	return engine.Tool{
		Name:        "git_status",
		Description: "Shows the git working tree status of the workspace.",
		SchemaJSON:  `{"type":"object","properties":{}}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			return runGit(ctx, runner, ws.Root(), "status", "--short", "--branch")
		},
	}
}

// NewGitDiffTool shows uncommitted changes, optionally for one path.
func NewGitDiffTool(ws *Workspace, runner sandbox.Runner) engine.Tool {
	return engine.Tool{
		Name:        "git_diff",
		Description: "Shows uncommitted changes in the workspace, optionally limited to one path.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"Optional path to limit the diff to"}}}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			gitArgs := []string{"diff"}
			if path, _ := args["path"].(string); path != "" {
				if _, err := ws.Resolve(path); err != nil {
					return "", err
				}
				gitArgs = append(gitArgs, "--", path)
			}
			return runGit(ctx, runner, ws.Root(), gitArgs...)
		},
	}
}

// NewGitLogTool shows recent commit history.
func NewGitLogTool(ws *Workspace, runner sandbox.Runner) engine.Tool {
	return engine.Tool{
		Name:        "git_log",
		Description: "Shows the most recent commits in the workspace.",
		SchemaJSON:  `{"type":"object","properties":{"limit":{"type":"integer","description":"Number of commits to show (default 10)"}}}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			limit := 10
			if v, ok := args["limit"].(float64); ok && v > 0 {
				limit = int(v)
			}
			return runGit(ctx, runner, ws.Root(), "log", "--oneline", fmt.Sprintf("-%d", limit))
		},
	}
}
