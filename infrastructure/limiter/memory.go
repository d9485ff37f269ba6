package limiter

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Memory is an in-process fixed-window limiter backed by a bounded
// LRU cache with per-entry expiry. Memory use is bounded by MaxKeys
// regardless of how many distinct callers appear over time.
type Memory struct {
	cfg Config

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used

	now func() time.Time
}

type memoryEntry struct {
	key     string
	count   int
	resetAt time.Time
}

// NewMemory returns a Memory limiter.
func NewMemory(cfg Config) *Memory {
	return &Memory{
		cfg:     cfg.withDefaults(),
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Admit implements Limiter.
func (m *Memory) Admit(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.expire(now)

	el, ok := m.entries[key]
	if ok {
		e := el.Value.(*memoryEntry)
		if now.Before(e.resetAt) {
			if e.count >= m.cfg.MaxRequests {
				return Decision{RetryAfter: e.resetAt.Sub(now)}, nil
			}
			e.count++
			m.order.MoveToFront(el)
			return Decision{Allowed: true, Remaining: m.cfg.MaxRequests - e.count}, nil
		}
		// Window elapsed: treat the key as fresh.
		e.count = 1
		e.resetAt = now.Add(m.cfg.Window)
		m.order.MoveToFront(el)
		return Decision{Allowed: true, Remaining: m.cfg.MaxRequests - 1}, nil
	}

	m.evictAtCapacity()
	e := &memoryEntry{key: key, count: 1, resetAt: now.Add(m.cfg.Window)}
	m.entries[key] = m.order.PushFront(e)
	return Decision{Allowed: true, Remaining: m.cfg.MaxRequests - 1}, nil
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// expire drops entries whose window has passed, oldest first. Lazy
// reclamation on each Admit keeps the store bounded without a
// background goroutine.
func (m *Memory) expire(now time.Time) {
	for el := m.order.Back(); el != nil; {
		e := el.Value.(*memoryEntry)
		if now.Before(e.resetAt) {
			// Idle keys drift to the tail; stop at the first live one.
			break
		}
		prev := el.Prev()
		m.order.Remove(el)
		delete(m.entries, e.key)
		el = prev
	}
}

func (m *Memory) evictAtCapacity() {
	for m.order.Len() >= m.cfg.MaxKeys {
		el := m.order.Back()
		if el == nil {
			return
		}
		e := el.Value.(*memoryEntry)
		m.order.Remove(el)
		delete(m.entries, e.key)
	}
}
