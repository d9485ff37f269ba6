// Package limiter provides fixed-window admission control keyed by
// caller identity.
//
// The window is fixed, not sliding: a burst straddling a window
// boundary can pass up to twice MaxRequests in a short interval.
// That approximation is accepted and documented here.
package limiter

import (
	"context"
	"time"
)

// Decision is the outcome of an admission check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// RetryAfter hints when a rejected caller may try again.
	RetryAfter time.Duration

	// Remaining is the number of requests left in the current window.
	Remaining int
}

// Limiter admits or rejects requests per key.
type Limiter interface {
	// Admit records one request for key and decides whether to allow
	// it within the current window.
	Admit(ctx context.Context, key string) (Decision, error)
}

// Config bounds a fixed-window limiter.
type Config struct {
	// MaxRequests is the per-key quota per window.
	MaxRequests int

	// Window is the fixed window duration; it doubles as the entry
	// TTL, so idle keys are reclaimed without explicit bookkeeping.
	Window time.Duration

	// MaxKeys caps the number of tracked keys in the in-memory store.
	// Least-recently-used keys are evicted at capacity.
	MaxKeys int

	// FailOpen admits requests when a remote store is unreachable.
	FailOpen bool
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxRequests: 30,
		Window:      time.Minute,
		MaxKeys:     10_000,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxRequests <= 0 {
		c.MaxRequests = d.MaxRequests
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.MaxKeys <= 0 {
		c.MaxKeys = d.MaxKeys
	}
	return c
}
