package application

import "github.com/texgallery/renderd/infrastructure/telemetry"

// Option customizes a Service.
type Option func(*Service)

// WithLatex replaces the compiler invoker.
func WithLatex(i LatexInvoker) Option {
	return func(s *Service) { s.latex = i }
}

// WithRaster replaces the rasterizer invoker.
func WithRaster(i RasterInvoker) Option {
	return func(s *Service) { s.raster = i }
}

// WithCloner replaces the clone invoker.
func WithCloner(i CloneInvoker) Option {
	return func(s *Service) { s.cloner = i }
}

// WithMetrics replaces the metrics provider.
func WithMetrics(mp *telemetry.MetricsProvider) Option {
	return func(s *Service) { s.metrics = mp }
}
