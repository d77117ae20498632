package executor

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"
)

// Runner starts a command and blocks until it exits.
// A non-nil error means the process could not be started or was killed
// through ctx; a process that ran and exited reports only its exit code.
type Runner interface {
	Run(ctx context.Context, cmd Command, stdout, stderr io.Writer) (exitCode int, err error)
}

// ScrapeEnv disables colored output so results can be parsed
var ScrapeEnv = []string{"FORCE_COLOR=0", "NO_COLOR=1"}

// ExecRunner runs commands as OS subprocesses
type ExecRunner struct {
	// Env is appended to the inherited environment
	Env []string

	// WaitDelay bounds how long Run waits for output pipes after the
	// process is killed
	WaitDelay time.Duration
}

// NewExecRunner returns a runner that scrapes uncolored output
func NewExecRunner() ExecRunner {
	return ExecRunner{Env: ScrapeEnv, WaitDelay: 2 * time.Second}
}

// Run implements Runner using os/exec
func (r ExecRunner) Run(ctx context.Context, cmd Command, stdout, stderr io.Writer) (int, error) {
	c := exec.CommandContext(ctx, cmd.Tool, cmd.Args...) //nolint:gosec // argv built by fab.Builder, no shell
	c.Env = append(os.Environ(), r.Env...)
	c.Stdout = stdout
	c.Stderr = stderr
	c.WaitDelay = r.WaitDelay

	err := c.Run()
	if err == nil {
		return 0, nil
	}

	// Killed through the context: report the context error, not the signal
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
