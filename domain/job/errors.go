package job

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for classifying job failures.
var (
	// ErrValidation indicates the request was rejected before any I/O.
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited indicates the caller exceeded its request quota.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrToolTimeout indicates the external tool exceeded its deadline.
	ErrToolTimeout = errors.New("tool timed out")

	// ErrToolFailure indicates the external tool exited nonzero.
	ErrToolFailure = errors.New("tool failed")

	// ErrCloneFailure indicates the git clone failed.
	ErrCloneFailure = errors.New("clone failed")
)

// ValidationError rejects a request with a caller-facing reason.
// It always fires before any filesystem or process work.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Unwrap makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError with a formatted reason.
func Invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// RateLimitError rejects a request with a retry hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// ToolError reports a failed or timed-out tool invocation together
// with the captured log so the caller can diagnose it. The log is
// already truncated at the runner's output cap and never contains
// host filesystem paths.
type ToolError struct {
	Tool     string
	TimedOut bool
	ExitCode *int
	Log      string
}

func (e *ToolError) Error() string {
	if e.TimedOut {
		return e.Tool + " timed out"
	}
	if e.ExitCode != nil {
		return fmt.Sprintf("%s exited with status %d", e.Tool, *e.ExitCode)
	}
	return e.Tool + " failed"
}

func (e *ToolError) Unwrap() error {
	if e.TimedOut {
		return ErrToolTimeout
	}
	return ErrToolFailure
}

// CloneError reports a failed git clone. Log is scrubbed of
// credentials before it is stored here.
type CloneError struct {
	Log string
}

func (e *CloneError) Error() string { return "clone failed" }

func (e *CloneError) Unwrap() error { return ErrCloneFailure }
