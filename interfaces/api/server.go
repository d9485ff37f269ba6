// Package api exposes the render service over HTTP.
//
// Routes:
//   - POST /compile      compile LaTeX sources to PDF
//   - POST /thumbnail    render the first page of a PDF to an image
//   - POST /git/archive  shallow-clone a repository and list or read files
//   - GET  /healthz      liveness probe
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/texgallery/renderd/domain/job"
	"github.com/texgallery/renderd/infrastructure/limiter"
	"github.com/texgallery/renderd/infrastructure/telemetry"
)

// Renderer is the application surface the HTTP layer drives.
type Renderer interface {
	Compile(ctx context.Context, req job.CompileRequest) (job.CompileResult, error)
	Thumbnail(ctx context.Context, req job.ThumbnailRequest) ([]byte, error)
	Archive(ctx context.Context, req job.ArchiveRequest) (job.ArchiveResult, error)
}

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address (default ":8090").
	Addr string

	// MaxBodyBytes caps request bodies before JSON decoding.
	MaxBodyBytes int64

	// ReadTimeout is the HTTP read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is the HTTP write timeout. It must exceed the
	// longest tool deadline or in-flight compilations get cut off
	// mid-response.
	WriteTimeout time.Duration
}

// Server is the render HTTP server.
type Server struct {
	config     Config
	renderer   Renderer
	limiter    limiter.Limiter
	metrics    *telemetry.MetricsProvider
	mux        *http.ServeMux
	httpServer *http.Server
}

// Option customizes a Server.
type Option func(*Server)

// WithLimiter enables per-caller admission control.
func WithLimiter(l limiter.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithMetrics replaces the metrics provider.
func WithMetrics(mp *telemetry.MetricsProvider) Option {
	return func(s *Server) { s.metrics = mp }
}

// New creates a render server over the given renderer.
func New(cfg Config, renderer Renderer, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8090"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 48 << 20
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}

	s := &Server{
		config:   cfg,
		renderer: renderer,
		metrics:  telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig()),
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/compile", s.handleCompile)
	s.mux.HandleFunc("/thumbnail", s.handleThumbnail)
	s.mux.HandleFunc("/git/archive", s.handleArchive)
	s.mux.HandleFunc("/healthz", s.handleHealth)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.mux)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
