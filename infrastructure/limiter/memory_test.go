package limiter

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// testClock lets tests advance the limiter's notion of time.
type testClock struct {
	now time.Time
}

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(cfg Config) (*Memory, *testClock) {
	m := NewMemory(cfg)
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	m.now = func() time.Time { return clock.now }
	return m, clock
}

func TestFixedWindowQuota(t *testing.T) {
	t.Parallel()

	m, clock := newTestLimiter(Config{MaxRequests: 3, Window: time.Minute, MaxKeys: 100})
	ctx := context.Background()

	for i := range 3 {
		d, err := m.Admit(ctx, "alice")
		if err != nil {
			t.Fatalf("Admit %d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("request %d rejected, want admit", i+1)
		}
	}

	d, err := m.Admit(ctx, "alice")
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if d.Allowed {
		t.Fatal("4th request admitted, want reject")
	}
	if d.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %s, want positive", d.RetryAfter)
	}

	// After the window elapses the key is fresh again.
	clock.advance(time.Minute + time.Second)
	d, err = m.Admit(ctx, "alice")
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if !d.Allowed {
		t.Error("request after window elapsed rejected")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	t.Parallel()

	m, _ := newTestLimiter(Config{MaxRequests: 1, Window: time.Minute, MaxKeys: 100})
	ctx := context.Background()

	if d, _ := m.Admit(ctx, "a"); !d.Allowed {
		t.Fatal("first request for key a rejected")
	}
	if d, _ := m.Admit(ctx, "a"); d.Allowed {
		t.Fatal("second request for key a admitted")
	}
	if d, _ := m.Admit(ctx, "b"); !d.Allowed {
		t.Error("exhausting key a must not affect key b")
	}
}

func TestCapacityBound(t *testing.T) {
	t.Parallel()

	const maxKeys = 8
	m, _ := newTestLimiter(Config{MaxRequests: 10, Window: time.Hour, MaxKeys: maxKeys})
	ctx := context.Background()

	for i := range 50 {
		if _, err := m.Admit(ctx, fmt.Sprintf("key-%d", i)); err != nil {
			t.Fatal(err)
		}
		if m.Len() > maxKeys {
			t.Fatalf("Len() = %d, exceeds capacity %d", m.Len(), maxKeys)
		}
	}
}

func TestLRUEvictionOrder(t *testing.T) {
	t.Parallel()

	m, _ := newTestLimiter(Config{MaxRequests: 10, Window: time.Hour, MaxKeys: 2})
	ctx := context.Background()

	_, _ = m.Admit(ctx, "old")
	_, _ = m.Admit(ctx, "mid")
	_, _ = m.Admit(ctx, "old") // touch: "mid" is now least recent
	_, _ = m.Admit(ctx, "new") // evicts "mid"

	// "old" kept its count (2), so a 10-quota limiter still tracks it.
	if d, _ := m.Admit(ctx, "old"); d.Remaining != 10-3 {
		t.Errorf("Remaining for old = %d, want %d; LRU state lost", d.Remaining, 10-3)
	}
}

func TestTTLReclaimsIdleKeys(t *testing.T) {
	t.Parallel()

	m, clock := newTestLimiter(Config{MaxRequests: 5, Window: time.Minute, MaxKeys: 100})
	ctx := context.Background()

	for i := range 10 {
		_, _ = m.Admit(ctx, fmt.Sprintf("idle-%d", i))
	}
	if m.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", m.Len())
	}

	// One window later every record has expired; the next Admit
	// reclaims them all without explicit bookkeeping.
	clock.advance(2 * time.Minute)
	_, _ = m.Admit(ctx, "fresh")
	if m.Len() != 1 {
		t.Errorf("Len() = %d after TTL, want 1", m.Len())
	}
}

func TestRetryAfterShrinksWithinWindow(t *testing.T) {
	t.Parallel()

	m, clock := newTestLimiter(Config{MaxRequests: 1, Window: time.Minute, MaxKeys: 10})
	ctx := context.Background()

	_, _ = m.Admit(ctx, "k")
	d1, _ := m.Admit(ctx, "k")
	clock.advance(20 * time.Second)
	d2, _ := m.Admit(ctx, "k")

	if d1.RetryAfter <= d2.RetryAfter {
		t.Errorf("RetryAfter should shrink: first %s, later %s", d1.RetryAfter, d2.RetryAfter)
	}
	if want := 40 * time.Second; d2.RetryAfter != want {
		t.Errorf("RetryAfter = %s, want %s", d2.RetryAfter, want)
	}
}
