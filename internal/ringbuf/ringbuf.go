// Package ringbuf provides a fixed-capacity ring that keeps the most
// recent values, overwriting the oldest on overflow. The gateway uses
// it to replay recent snapshots to stream clients that attach
// mid-playback.
package ringbuf

import "sync"

// Ring is a concurrency-safe most-recent-N buffer.
type Ring[T any] struct {
	mu   sync.Mutex
	buf  []T
	next int // next write slot
	n    int // filled count, <= len(buf)
}

// New creates a ring holding at most capacity values. Minimum
// capacity is 1.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest value when full.
func (r *Ring[T]) Push(v T) {
	r.mu.Lock()
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
	r.mu.Unlock()
}

// Recent returns the retained values, oldest first.
func (r *Ring[T]) Recent() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, r.n)
	start := r.next - r.n
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < r.n; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// Len returns the number of retained values.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}
