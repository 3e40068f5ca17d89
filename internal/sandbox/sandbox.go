// Package sandbox executes workspace commands, either directly on the
// host or inside a locked-down Docker container. Agent-requested
// commands are untrusted input, so Docker is preferred when available.
package sandbox

import (
	"context"
	"time"
)

// Result captures the outcome of one command.
type Result struct {
	Stdout   string
	Stderr   string
	Code     int
	TimedOut bool
}

// Runner executes commands in a working directory. A non-zero exit is
// reported through Result.Code, not through the error: the error is
// reserved for failures to run the command at all.
type Runner interface {
	RunCmd(ctx context.Context, dir, name string, args []string, timeout time.Duration) (Result, error)
}
