// Package process runs external programs with hard timeouts and
// bounded output capture. It knows nothing about LaTeX, git, or PDFs.
package process

import (
	"context"
	"fmt"
	"time"
)

// Default bounds applied when a Spec leaves them zero.
const (
	DefaultTimeout        = 60 * time.Second
	DefaultGracePeriod    = 5 * time.Second
	DefaultMaxOutputBytes = 1 << 20
)

// Spec describes one subprocess invocation.
type Spec struct {
	// Name is the program to run, resolved via PATH.
	Name string

	// Args is the argument vector, excluding the program name.
	Args []string

	// Dir is the working directory.
	Dir string

	// Env is appended to the parent environment.
	Env []string

	// Timeout is the hard deadline for the process. After it fires
	// the process group receives SIGTERM, then SIGKILL once
	// GracePeriod elapses without an exit.
	Timeout time.Duration

	// GracePeriod is the interval between SIGTERM and SIGKILL.
	GracePeriod time.Duration

	// MaxOutputBytes caps how much of each output stream is buffered.
	// The process keeps running past the cap; buffering just stops.
	MaxOutputBytes int64
}

func (s Spec) withDefaults() Spec {
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.GracePeriod <= 0 {
		s.GracePeriod = DefaultGracePeriod
	}
	if s.MaxOutputBytes <= 0 {
		s.MaxOutputBytes = DefaultMaxOutputBytes
	}
	return s
}

// Result captures the outcome of a subprocess.
type Result struct {
	// ExitCode is nil if the process never reported status (it could
	// not be spawned). A process killed by signal reports -1.
	ExitCode *int

	// Stdout and Stderr are capped at the configured output budget.
	Stdout string
	Stderr string

	// TimedOut is set as soon as the deadline fires, whether or not
	// termination succeeds immediately.
	TimedOut bool
}

// Success reports whether the process exited zero with no timeout.
func (r Result) Success() bool {
	return !r.TimedOut && r.ExitCode != nil && *r.ExitCode == 0
}

// CombinedLog returns stdout and stderr joined for error reporting.
func (r Result) CombinedLog() string {
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	}
	return r.Stdout + "\n" + r.Stderr
}

// Runner executes subprocess specs. The zero value is ready to use.
type Runner struct{}

// NewRunner returns a Runner.
func NewRunner() *Runner { return &Runner{} }

// Run executes the spec and returns its Result. A failing or
// timed-out child is not a Go error; only the inability to spawn the
// process at all is. Context cancellation is treated like the
// deadline: the process group is terminated and TimedOut is set.
func (r *Runner) Run(ctx context.Context, spec Spec) (Result, error) {
	if spec.Name == "" {
		return Result{}, fmt.Errorf("process: empty program name")
	}
	return run(ctx, spec.withDefaults())
}
