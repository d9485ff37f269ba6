package process

import (
	"bytes"
	"sync"
)

// cappedBuffer buffers writes up to a byte budget and silently drops
// the rest. It always reports the full write length so the child's
// output pipe keeps draining after the cap is reached.
type cappedBuffer struct {
	mu        sync.Mutex
	max       int64
	buf       bytes.Buffer
	truncated bool
}

func newCappedBuffer(max int64) *cappedBuffer {
	return &cappedBuffer{max: max}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(p)
	remaining := b.max - int64(b.buf.Len())
	if remaining <= 0 {
		if n > 0 {
			b.truncated = true
		}
		return n, nil
	}
	if int64(n) > remaining {
		p = p[:remaining]
		b.truncated = true
	}
	b.buf.Write(p)
	return n, nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Truncated reports whether any output was dropped.
func (b *cappedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}
