// Package latex invokes latexmk against a workspace and interprets
// its outcome.
package latex

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/texgallery/renderd/domain/job"
	"github.com/texgallery/renderd/infrastructure/process"
)

const (
	// DefaultTimeout is deliberately long: compilation is CPU- and
	// I/O-bound and can legitimately take minutes on large documents.
	DefaultTimeout = 3 * time.Minute

	tool = "latexmk"
)

// Options selects the compiler backend and build mode for one run.
type Options struct {
	// Target is the workspace-relative main source file.
	Target string

	// Compiler selects the engine backend.
	Compiler job.Compiler

	// Recorder enables dependency-recording mode: latexmk emits a
	// file-access log and the bibliography/index/glossary hooks of a
	// full build are skipped. Mutually exclusive with a full build.
	Recorder bool

	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration

	// MaxOutputBytes caps the captured compiler log.
	MaxOutputBytes int64
}

// Invoker runs latexmk.
type Invoker struct {
	runner *process.Runner
}

// NewInvoker returns an Invoker using the given runner.
func NewInvoker(runner *process.Runner) *Invoker {
	return &Invoker{runner: runner}
}

// Args builds the latexmk argument vector for opts. The invocation is
// working-directory-relative (-cd plus a ./ target) so artifact paths
// are predictable.
func Args(opts Options) []string {
	args := []string{
		"-interaction=nonstopmode",
		"-halt-on-error",
		engineFlag(opts.Compiler),
		"-cd",
	}
	if opts.Recorder {
		args = append(args, "-recorder")
	}
	// In a full build latexmk itself detects produced .bbl/.idx/.gls
	// auxiliaries and runs the corresponding post-processors; no flags
	// are needed here.
	args = append(args, "./"+filepath.ToSlash(opts.Target))
	return args
}

func engineFlag(c job.Compiler) string {
	switch c {
	case job.CompilerXeLaTeX:
		return "-pdfxe"
	case job.CompilerLuaLaTeX:
		return "-pdflua"
	default:
		return "-pdf"
	}
}

// OutputPDF returns the workspace-relative path of the PDF a
// successful run produces for target.
func OutputPDF(target string) string {
	return strings.TrimSuffix(target, filepath.Ext(target)) + ".pdf"
}

// RecorderFile returns the workspace-relative path of the .fls
// file-access log a recorder run produces for target.
func RecorderFile(target string) string {
	return strings.TrimSuffix(target, filepath.Ext(target)) + ".fls"
}

// Compile runs latexmk in dir. A nonzero exit or timeout is reported
// as a ToolError carrying the captured log; only a spawn failure is a
// bare error.
func (i *Invoker) Compile(ctx context.Context, dir string, opts Options) (process.Result, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	res, err := i.runner.Run(ctx, process.Spec{
		Name:           tool,
		Args:           Args(opts),
		Dir:            dir,
		Timeout:        timeout,
		MaxOutputBytes: opts.MaxOutputBytes,
	})
	if err != nil {
		return res, &job.ToolError{Tool: tool, Log: err.Error()}
	}
	if !res.Success() {
		return res, &job.ToolError{
			Tool:     tool,
			TimedOut: res.TimedOut,
			ExitCode: res.ExitCode,
			Log:      res.CombinedLog(),
		}
	}
	return res, nil
}
