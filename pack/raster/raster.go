// Package raster renders the first page of a PDF to a raster image
// using pdftoppm.
package raster

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/texgallery/renderd/domain/job"
	"github.com/texgallery/renderd/infrastructure/process"
)

const (
	// DefaultTimeout is short: rendering a single page is a bounded
	// operation.
	DefaultTimeout = 10 * time.Second

	tool         = "pdftoppm"
	outputPrefix = "thumbnail"
)

// Options configures a first-page render.
type Options struct {
	Format job.ImageFormat
	Width  int

	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration

	// MaxOutputBytes caps the captured tool log.
	MaxOutputBytes int64
}

// Invoker runs pdftoppm.
type Invoker struct {
	runner *process.Runner
}

// NewInvoker returns an Invoker using the given runner.
func NewInvoker(runner *process.Runner) *Invoker {
	return &Invoker{runner: runner}
}

// Args builds the pdftoppm argument vector. Exactly the first page is
// rendered at the requested width; height follows the aspect ratio.
func Args(pdf string, opts Options) []string {
	args := []string{"-f", "1", "-l", "1", "-singlefile"}
	if opts.Format == job.FormatJPEG {
		args = append(args, "-jpeg")
	} else {
		args = append(args, "-png")
	}
	args = append(args,
		"-scale-to-x", strconv.Itoa(opts.Width),
		"-scale-to-y", "-1",
		pdf, outputPrefix,
	)
	return args
}

// OutputFile returns the workspace-relative image file a successful
// run produces.
func OutputFile(opts Options) string {
	if opts.Format == job.FormatJPEG {
		return outputPrefix + ".jpg"
	}
	return outputPrefix + ".png"
}

// FirstPage renders page one of the named PDF inside dir and returns
// the image bytes. Tool failures and timeouts surface as ToolError.
func (i *Invoker) FirstPage(ctx context.Context, dir, pdf string, opts Options) ([]byte, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	res, err := i.runner.Run(ctx, process.Spec{
		Name:           tool,
		Args:           Args(pdf, opts),
		Dir:            dir,
		Timeout:        timeout,
		MaxOutputBytes: opts.MaxOutputBytes,
	})
	if err != nil {
		return nil, &job.ToolError{Tool: tool, Log: err.Error()}
	}
	if !res.Success() {
		return nil, &job.ToolError{
			Tool:     tool,
			TimedOut: res.TimedOut,
			ExitCode: res.ExitCode,
			Log:      res.CombinedLog(),
		}
	}

	img, err := os.ReadFile(filepath.Join(dir, OutputFile(opts))) // #nosec G304 -- fixed name inside the workspace
	if err != nil {
		return nil, &job.ToolError{Tool: tool, Log: "rasterizer produced no output image"}
	}
	return img, nil
}
