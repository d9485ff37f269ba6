// Package telemetry provides observability infrastructure including
// OpenTelemetry metrics for the render service.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	invocations   metric.Int64Counter
	timeouts      metric.Int64Counter
	rateLimitHits metric.Int64Counter
	cleanupErrors metric.Int64Counter

	// Histograms
	invocationDuration metric.Float64Histogram

	// Gauges (UpDownCounters)
	activeWorkspaces metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Attributes are default attributes to attach to all metrics.
	Attributes []attribute.KeyValue
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/texgallery/renderd",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	provider := otel.GetMeterProvider()
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{meter: meter}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.invocations, err = mp.meter.Int64Counter(
		"renderd.tool.invocations",
		metric.WithDescription("Number of external tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return err
	}

	mp.timeouts, err = mp.meter.Int64Counter(
		"renderd.tool.timeouts",
		metric.WithDescription("Number of tool invocations killed at their deadline"),
		metric.WithUnit("{timeout}"),
	)
	if err != nil {
		return err
	}

	mp.rateLimitHits, err = mp.meter.Int64Counter(
		"renderd.ratelimit.hits",
		metric.WithDescription("Number of rate limit rejections"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	mp.cleanupErrors, err = mp.meter.Int64Counter(
		"renderd.workspace.cleanup_errors",
		metric.WithDescription("Number of best-effort workspace removals that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	mp.invocationDuration, err = mp.meter.Float64Histogram(
		"renderd.tool.duration",
		metric.WithDescription("Duration of tool invocations"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.activeWorkspaces, err = mp.meter.Int64UpDownCounter(
		"renderd.workspaces.active",
		metric.WithDescription("Number of live ephemeral workspaces"),
		metric.WithUnit("{workspace}"),
	)
	return err
}

// Error returns any instrument initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordInvocation records one tool invocation and its duration.
func (mp *MetricsProvider) RecordInvocation(ctx context.Context, tool string, success bool, duration time.Duration) {
	if mp.initErr != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.Bool("success", success),
	)
	mp.invocations.Add(ctx, 1, attrs)
	mp.invocationDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordTimeout records a tool invocation killed at its deadline.
func (mp *MetricsProvider) RecordTimeout(ctx context.Context, tool string) {
	if mp.initErr != nil {
		return
	}
	mp.timeouts.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", tool)))
}

// RecordRateLimitHit records a rejected admission.
func (mp *MetricsProvider) RecordRateLimitHit(ctx context.Context, route string) {
	if mp.initErr != nil {
		return
	}
	mp.rateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

// RecordCleanupError records a failed workspace removal.
func (mp *MetricsProvider) RecordCleanupError(ctx context.Context) {
	if mp.initErr != nil {
		return
	}
	mp.cleanupErrors.Add(ctx, 1)
}

// IncrementActiveWorkspaces increments the live workspace gauge.
func (mp *MetricsProvider) IncrementActiveWorkspaces(ctx context.Context) {
	if mp.initErr != nil {
		return
	}
	mp.activeWorkspaces.Add(ctx, 1)
}

// DecrementActiveWorkspaces decrements the live workspace gauge.
func (mp *MetricsProvider) DecrementActiveWorkspaces(ctx context.Context) {
	if mp.initErr != nil {
		return
	}
	mp.activeWorkspaces.Add(ctx, -1)
}
