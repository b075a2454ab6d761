// Package buffer provides the bounded in-process queue between log
// producers and the background batcher.
package buffer

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/CodingOX/plumelog-go/pkg/model"
)

// Buffer is a fixed-capacity FIFO queue of log records. It is safe for any
// number of concurrent producers calling Enqueue plus concurrent drainers.
//
// Overflow policy: when the buffer is full, Enqueue evicts the oldest record
// to make room for the incoming one. The newest data survives an outage; the
// eviction is counted and reported through Dropped.
type Buffer struct {
	mu    sync.Mutex
	data  []*model.LogRecord
	head  int // index of the oldest record
	count int

	dropped atomic.Uint64
}

// New creates a buffer holding at most capacity records.
func New(capacity int) (*Buffer, error) {
	if capacity < 1 {
		return nil, errors.New("buffer capacity must be positive")
	}
	return &Buffer{data: make([]*model.LogRecord, capacity)}, nil
}

// Enqueue appends rec. It never blocks on anything but the internal mutex
// and never panics. The return value is false when the buffer was full and
// the oldest record had to be evicted to accept rec.
func (b *Buffer) Enqueue(rec *model.LogRecord) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.data)
	if b.count == capacity {
		// Evict the oldest, keep the incoming record.
		b.data[b.head] = nil
		b.head = (b.head + 1) % capacity
		b.count--
		b.dropped.Add(1)
		b.data[(b.head+b.count)%capacity] = rec
		b.count++
		return false
	}

	b.data[(b.head+b.count)%capacity] = rec
	b.count++
	return true
}

// Drain atomically removes and returns up to max records in FIFO order.
// It returns nil when nothing is pending.
func (b *Buffer) Drain(max int) []*model.LogRecord {
	if max < 1 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.count
	if n > max {
		n = max
	}
	if n == 0 {
		return nil
	}

	out := make([]*model.LogRecord, n)
	capacity := len(b.data)
	for i := 0; i < n; i++ {
		idx := (b.head + i) % capacity
		out[i] = b.data[idx]
		b.data[idx] = nil
	}
	b.head = (b.head + n) % capacity
	b.count -= n
	return out
}

// Len returns the number of buffered records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Capacity returns the fixed maximum number of buffered records.
func (b *Buffer) Capacity() int { return len(b.data) }

// Dropped returns the number of records evicted on overflow.
func (b *Buffer) Dropped() uint64 { return b.dropped.Load() }
