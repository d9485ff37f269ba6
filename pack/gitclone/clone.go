// Package gitclone performs shallow clones of external repositories
// into a workspace and reads the result back out.
package gitclone

import (
	"context"
	"regexp"
	"time"

	"github.com/texgallery/renderd/domain/job"
	"github.com/texgallery/renderd/infrastructure/process"
)

// DefaultTimeout bounds a shallow clone; history transfer is avoided
// by depth 1, so tens of seconds covers any reasonably sized tree.
const DefaultTimeout = 45 * time.Second

const tool = "git"

// Options configures one clone.
type Options struct {
	// URL is the clone URL. Credentials, if any, travel in the URL
	// userinfo. The stderr scrub keeps them out of every report.
	URL string

	// Branch pins the clone to a branch when non-empty.
	Branch string

	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration

	// MaxOutputBytes caps the captured git output.
	MaxOutputBytes int64
}

// Invoker runs git.
type Invoker struct {
	runner *process.Runner
}

// NewInvoker returns an Invoker using the given runner.
func NewInvoker(runner *process.Runner) *Invoker {
	return &Invoker{runner: runner}
}

// Args builds the git argument vector for a shallow clone into dir.
func Args(opts Options, dir string) []string {
	args := []string{"clone", "--depth", "1", "--single-branch"}
	if opts.Branch != "" {
		args = append(args, "--branch", opts.Branch)
	}
	return append(args, opts.URL, dir)
}

// Clone performs a shallow clone into dir. Failures surface as
// CloneError with credential-scrubbed output; the caller's secrets
// never appear in the report.
func (i *Invoker) Clone(ctx context.Context, dir string, opts Options) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	res, err := i.runner.Run(ctx, process.Spec{
		Name: tool,
		Args: Args(opts, dir),
		Env: []string{
			// Never block on an interactive credential prompt.
			"GIT_TERMINAL_PROMPT=0",
		},
		Timeout:        timeout,
		MaxOutputBytes: opts.MaxOutputBytes,
	})
	if err != nil {
		return &job.CloneError{Log: Scrub(err.Error())}
	}
	if !res.Success() {
		if res.TimedOut {
			return &job.ToolError{Tool: tool, TimedOut: true, Log: Scrub(res.CombinedLog())}
		}
		return &job.CloneError{Log: Scrub(res.CombinedLog())}
	}
	return nil
}

// userinfoPattern matches the userinfo section of a URL, i.e. any
// user:password@ between a scheme separator and a host.
var userinfoPattern = regexp.MustCompile(`(://)[^/@\s]+@`)

// Scrub removes URL-embedded credentials from git output.
func Scrub(s string) string {
	return userinfoPattern.ReplaceAllString(s, "${1}***@")
}
