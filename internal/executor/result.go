package executor

import (
	"strings"
	"time"
)

// ErrorKind distinguishes why a command did not succeed
type ErrorKind int

const (
	KindNone     ErrorKind = iota // Succeeded
	KindSpawn                     // The tool could not be started at all
	KindTimeout                   // The command ran past its deadline and was killed
	KindTool                      // The tool ran and reported failure
	KindCanceled                  // The caller abandoned the command
)

// String returns a short label for logs
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSpawn:
		return "spawn"
	case KindTimeout:
		return "timeout"
	case KindTool:
		return "tool"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Result is the outcome of one logical command invocation.
// Every execution mode returns a Result; none of them return errors.
type Result struct {
	Success  bool
	Output   string // Cleaned stdout
	Error    string // Cleaned stderr or a synthesized message; empty on success
	Command  string // Command.String()
	Duration time.Duration
	Kind     ErrorKind
	Attempts int  // Number of subprocess executions behind this result
	Cached   bool // Served from the result cache, nothing was spawned
	ExitCode int
}

// Message returns the text to show for this result
func (r Result) Message() string {
	if r.Success {
		return r.Output
	}
	if strings.TrimSpace(r.Error) != "" {
		return r.Error
	}
	return r.Output
}

// SuccessFunc decides whether a finished process succeeded
type SuccessFunc func(exitCode int, stderr string) bool

// StrictSuccess treats any stderr output as failure, even on exit code 0
func StrictSuccess(exitCode int, stderr string) bool {
	return exitCode == 0 && strings.TrimSpace(stderr) == ""
}

// ExitCodeSuccess only looks at the exit code, for tools that log warnings to stderr
func ExitCodeSuccess(exitCode int, _ string) bool {
	return exitCode == 0
}
