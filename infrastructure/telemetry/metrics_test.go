package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestNewMetricsProvider(t *testing.T) {
	t.Parallel()

	mp := NewMetricsProvider(DefaultMetricsConfig())
	if mp.Error() != nil {
		t.Fatalf("instrument init: %v", mp.Error())
	}

	// Recording against the no-op global provider must not panic.
	ctx := context.Background()
	mp.RecordInvocation(ctx, "latexmk", true, 200*time.Millisecond)
	mp.RecordInvocation(ctx, "pdftoppm", false, 10*time.Millisecond)
	mp.RecordTimeout(ctx, "latexmk")
	mp.RecordRateLimitHit(ctx, "/compile")
	mp.RecordCleanupError(ctx)
	mp.IncrementActiveWorkspaces(ctx)
	mp.DecrementActiveWorkspaces(ctx)
}

func TestNewMetricsProviderEmptyConfig(t *testing.T) {
	t.Parallel()

	mp := NewMetricsProvider(MetricsConfig{})
	if mp.Error() != nil {
		t.Fatalf("instrument init: %v", mp.Error())
	}
}
