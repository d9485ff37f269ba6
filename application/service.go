// Package application orchestrates render requests: validation,
// workspace population, tool invocation, and result classification.
package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/texgallery/renderd/domain/job"
	"github.com/texgallery/renderd/domain/sandbox"
	"github.com/texgallery/renderd/infrastructure/logging"
	"github.com/texgallery/renderd/infrastructure/process"
	"github.com/texgallery/renderd/infrastructure/telemetry"
	"github.com/texgallery/renderd/infrastructure/workspace"
	"github.com/texgallery/renderd/pack/gitclone"
	"github.com/texgallery/renderd/pack/latex"
	"github.com/texgallery/renderd/pack/raster"
)

// thumbnailInput is the fixed name the uploaded PDF is written under
// inside a thumbnail workspace.
const thumbnailInput = "input.pdf"

// LatexInvoker compiles a document inside a workspace.
type LatexInvoker interface {
	Compile(ctx context.Context, dir string, opts latex.Options) (process.Result, error)
}

// RasterInvoker renders the first page of a PDF inside a workspace.
type RasterInvoker interface {
	FirstPage(ctx context.Context, dir, pdf string, opts raster.Options) ([]byte, error)
}

// CloneInvoker performs a shallow clone into a workspace.
type CloneInvoker interface {
	Clone(ctx context.Context, dir string, opts gitclone.Options) error
}

// Config bounds the orchestrator.
type Config struct {
	// Limits bounds request resource payloads.
	Limits sandbox.Limits

	// MaxOutputBytes caps captured tool output.
	MaxOutputBytes int64

	// MaxConcurrent caps tool invocations running at once across all
	// requests.
	MaxConcurrent int

	// Per-tool deadlines.
	CompileTimeout   time.Duration
	ThumbnailTimeout time.Duration
	CloneTimeout     time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Limits:           sandbox.DefaultLimits(),
		MaxOutputBytes:   1 << 20,
		MaxConcurrent:    8,
		CompileTimeout:   latex.DefaultTimeout,
		ThumbnailTimeout: raster.DefaultTimeout,
		CloneTimeout:     gitclone.DefaultTimeout,
	}
}

// Service runs render requests end to end. Every request gets an
// ephemeral workspace that is removed on all exit paths, and tool
// concurrency is capped by a shared bulkhead.
type Service struct {
	cfg        Config
	workspaces *workspace.Manager
	guard      bulkhead.Bulkhead[struct{}]
	tracer     trace.Tracer
	metrics    *telemetry.MetricsProvider

	latex  LatexInvoker
	raster RasterInvoker
	cloner CloneInvoker
}

// NewService wires an orchestrator over the given workspace manager.
// Invokers default to real tool invocations over a shared runner.
func NewService(cfg Config, ws *workspace.Manager, opts ...Option) *Service {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.Limits == (sandbox.Limits{}) {
		cfg.Limits = sandbox.DefaultLimits()
	}

	runner := process.NewRunner()
	s := &Service{
		cfg:        cfg,
		workspaces: ws,
		guard: bulkhead.New[struct{}](bulkhead.Config{
			MaxConcurrent: cfg.MaxConcurrent,
		}),
		tracer:  otel.Tracer("github.com/texgallery/renderd/application"),
		metrics: telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig()),
		latex:   latex.NewInvoker(runner),
		raster:  raster.NewInvoker(runner),
		cloner:  gitclone.NewInvoker(runner),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile validates the request, populates a workspace with the
// decoded resources, and runs the compiler. The returned error is one
// of the job error types; it never carries host filesystem paths.
func (s *Service) Compile(ctx context.Context, req job.CompileRequest) (job.CompileResult, error) {
	ctx, span := s.tracer.Start(ctx, "renderd.compile",
		trace.WithAttributes(attribute.String("compiler", string(req.Compiler))))
	defer span.End()

	target, err := sandbox.ValidateTarget(req.Target)
	if err != nil {
		return job.CompileResult{}, err
	}
	compiler := req.Compiler
	if compiler == "" {
		compiler = job.CompilerPDFLaTeX
	}
	if err := sandbox.ValidateCompiler(compiler); err != nil {
		return job.CompileResult{}, err
	}
	decoded, err := sandbox.DecodeResources(s.cfg.Limits, req.Resources)
	if err != nil {
		return job.CompileResult{}, err
	}
	if !hasPath(decoded, target) {
		return job.CompileResult{}, job.Invalid("target %q is not among the supplied resources", req.Target)
	}

	var result job.CompileResult
	err = s.withSlot(ctx, func(ctx context.Context) error {
		return s.withWorkspace(ctx, func(ws *workspace.Workspace) error {
			if err := writeResources(ws.Dir(), decoded); err != nil {
				return err
			}

			res, err := s.observe(ctx, "latexmk", func() (process.Result, error) {
				return s.latex.Compile(ctx, ws.Dir(), latex.Options{
					Target:         target,
					Compiler:       compiler,
					Recorder:       req.Recorder,
					Timeout:        s.cfg.CompileTimeout,
					MaxOutputBytes: s.cfg.MaxOutputBytes,
				})
			})
			if err != nil {
				return err
			}
			result.Log = res.CombinedLog()

			if req.Recorder {
				deps, err := readDependencies(ws.Dir(), target)
				if err != nil {
					return err
				}
				result.Dependencies = deps
			}

			pdf, err := readArtifact(ws.Dir(), latex.OutputPDF(target))
			if err != nil {
				return &job.ToolError{Tool: "latexmk", Log: "compiler exited cleanly but produced no PDF\n" + result.Log}
			}
			result.PDF = pdf
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return job.CompileResult{}, err
	}
	span.SetAttributes(attribute.Int("pdf_bytes", len(result.PDF)))
	return result, nil
}

// Thumbnail renders the first page of the uploaded PDF to a raster
// image at the requested width.
func (s *Service) Thumbnail(ctx context.Context, req job.ThumbnailRequest) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "renderd.thumbnail")
	defer span.End()

	format, width, err := sandbox.ValidateThumbnail(req.Format, req.Width)
	if err != nil {
		return nil, err
	}
	if len(req.PDF) == 0 {
		return nil, job.Invalid("pdf is empty")
	}
	if int64(len(req.PDF)) > s.cfg.Limits.MaxResourceBytes {
		return nil, job.Invalid("pdf exceeds limit of %d bytes", s.cfg.Limits.MaxResourceBytes)
	}

	var img []byte
	err = s.withSlot(ctx, func(ctx context.Context) error {
		return s.withWorkspace(ctx, func(ws *workspace.Workspace) error {
			abs, err := sandbox.ResolvePath(ws.Dir(), thumbnailInput)
			if err != nil {
				return err
			}
			if err := os.WriteFile(abs, req.PDF, 0o600); err != nil {
				return fmt.Errorf("write pdf: %w", err)
			}

			img, err = s.observeBytes(ctx, "pdftoppm", func() ([]byte, error) {
				return s.raster.FirstPage(ctx, ws.Dir(), thumbnailInput, raster.Options{
					Format:         format,
					Width:          width,
					Timeout:        s.cfg.ThumbnailTimeout,
					MaxOutputBytes: s.cfg.MaxOutputBytes,
				})
			})
			return err
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return img, nil
}

// Archive shallow-clones the repository and returns either a sorted
// file listing or, when a path is given, that file's content.
func (s *Service) Archive(ctx context.Context, req job.ArchiveRequest) (job.ArchiveResult, error) {
	ctx, span := s.tracer.Start(ctx, "renderd.archive")
	defer span.End()

	if req.GitURL == "" {
		return job.ArchiveResult{}, job.Invalid("gitUrl is required")
	}
	var wantPath string
	if req.Path != "" {
		cleaned, err := sandbox.CleanRelPath(req.Path)
		if err != nil {
			return job.ArchiveResult{}, err
		}
		wantPath = cleaned
	}

	var result job.ArchiveResult
	err := s.withSlot(ctx, func(ctx context.Context) error {
		return s.withWorkspace(ctx, func(ws *workspace.Workspace) error {
			start := time.Now()
			err := s.cloner.Clone(ctx, ws.Dir(), gitclone.Options{
				URL:            req.GitURL,
				Branch:         req.Branch,
				Timeout:        s.cfg.CloneTimeout,
				MaxOutputBytes: s.cfg.MaxOutputBytes,
			})
			s.record(ctx, "git", err, time.Since(start))
			if err != nil {
				return err
			}

			commit, err := gitclone.HeadCommit(ws.Dir())
			if err != nil {
				return fmt.Errorf("read clone: %w", err)
			}
			result.Commit = commit

			if wantPath != "" {
				content, err := gitclone.FileContent(ws.Dir(), wantPath)
				if err != nil {
					return job.Invalid("path %q not found in repository", wantPath)
				}
				result.Content = content
				return nil
			}

			entries, err := gitclone.ListFiles(ws.Dir())
			if err != nil {
				return fmt.Errorf("read clone: %w", err)
			}
			result.Entries = entries
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return job.ArchiveResult{}, err
	}
	return result, nil
}

// withSlot runs fn under the shared tool bulkhead.
func (s *Service) withSlot(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := s.guard.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// withWorkspace runs fn in a fresh workspace and keeps the active
// workspace gauge in step with the registry.
func (s *Service) withWorkspace(ctx context.Context, fn func(ws *workspace.Workspace) error) error {
	s.metrics.IncrementActiveWorkspaces(ctx)
	defer s.metrics.DecrementActiveWorkspaces(ctx)
	return s.workspaces.With(fn)
}

// observe times one compiler invocation and records it.
func (s *Service) observe(ctx context.Context, tool string, fn func() (process.Result, error)) (process.Result, error) {
	start := time.Now()
	res, err := fn()
	s.record(ctx, tool, err, time.Since(start))
	return res, err
}

// observeBytes times one byte-producing invocation and records it.
func (s *Service) observeBytes(ctx context.Context, tool string, fn func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	out, err := fn()
	s.record(ctx, tool, err, time.Since(start))
	return out, err
}

func (s *Service) record(ctx context.Context, tool string, err error, elapsed time.Duration) {
	s.metrics.RecordInvocation(ctx, tool, err == nil, elapsed)
	if errors.Is(err, job.ErrToolTimeout) {
		s.metrics.RecordTimeout(ctx, tool)
	}
	if err != nil {
		logging.Warn().
			Add(logging.Component("application")).
			Add(logging.Tool(tool)).
			Add(logging.Duration(elapsed)).
			Add(logging.ErrorField(err)).
			Msg("tool invocation failed")
	} else {
		logging.Debug().
			Add(logging.Component("application")).
			Add(logging.Tool(tool)).
			Add(logging.Duration(elapsed)).
			Msg("tool invocation completed")
	}
}

// writeResources materializes decoded resources under root. Paths are
// already cleaned; resolution against root is rechecked before every
// write.
func writeResources(root string, decoded []sandbox.Decoded) error {
	for _, d := range decoded {
		abs, err := sandbox.ResolvePath(root, d.Path)
		if err != nil {
			return err
		}
		if dir := filepath.Dir(abs); dir != root {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return fmt.Errorf("populate workspace: %w", err)
			}
		}
		if err := os.WriteFile(abs, d.Data, 0o600); err != nil {
			return fmt.Errorf("populate workspace: %w", err)
		}
	}
	return nil
}

// readArtifact reads a tool-produced file, rejecting symlinks that
// escape the workspace.
func readArtifact(root, rel string) ([]byte, error) {
	abs, err := sandbox.ResolveExistingPath(root, rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs) // #nosec G304 -- resolved inside the workspace
}

// readDependencies parses the recorder output for target.
func readDependencies(root, target string) ([]string, error) {
	abs, err := sandbox.ResolveExistingPath(root, latex.RecorderFile(target))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs) // #nosec G304 -- resolved inside the workspace
	if err != nil {
		return nil, &job.ToolError{Tool: "latexmk", Log: "recorder run produced no file-access log"}
	}
	defer f.Close()
	return latex.ParseRecorder(f)
}

func hasPath(decoded []sandbox.Decoded, target string) bool {
	for _, d := range decoded {
		if d.Path == target {
			return true
		}
	}
	return false
}
