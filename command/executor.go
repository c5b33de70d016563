package command

import (
	"context"
	"os"
	"os/exec"
)

// Executor creates the processes a Command runs.
type Executor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor starts processes with the current environment plus Env.
type RealExecutor struct {
	// Env entries (KEY=value) override the inherited environment
	Env []string
}

// CommandContext creates a context-bound exec.Cmd.
func (e RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	return cmd
}
