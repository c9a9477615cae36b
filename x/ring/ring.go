// Package ring is a bounded FIFO of values with one producer and any number
// of consumers.
//
// The producer never blocks: Push fails when the ring is full. Consumers are
// serialised by a mutex and can wait on Readable, which is signalled after
// every Push and coalesces.
package ring

import (
	"sync"
	"sync/atomic"
)

// Ring is a single-producer ring of T.
type Ring[T any] struct {
	buf  []T
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	mu       sync.Mutex // consumer side
	readable chan struct{}
}

// MaxSize is the largest capacity a ring can have.
const MaxSize uint64 = 1 << 31

// New returns a ring holding at least size values. size is rounded up to a
// power of two; sizes below 2 become 2. New panics if size exceeds MaxSize.
func New[T any](size int) *Ring[T] {
	if size > 0 && uint64(size) > MaxSize {
		panic("ring: size exceeds MaxSize")
	}
	n := 2
	for n < size {
		n <<= 1
	}
	return &Ring[T]{
		buf:      make([]T, n),
		mask:     uint32(n - 1),
		readable: make(chan struct{}, 1),
	}
}

func (r *Ring[T]) Cap() int { return len(r.buf) }

func (r *Ring[T]) Len() int {
	return int(r.wr.Load() - r.rd.Load())
}

// Push appends v. It returns false, leaving the ring unchanged, when full.
// Only one goroutine may push.
func (r *Ring[T]) Push(v T) bool {
	rd := r.rd.Load()
	wr := r.wr.Load()
	if int(wr-rd) >= len(r.buf) {
		return false
	}
	r.buf[wr&r.mask] = v
	r.wr.Store(wr + 1) // release

	select {
	case r.readable <- struct{}{}:
	default:
	}
	return true
}

// Pop removes the oldest value.
func (r *Ring[T]) Pop() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pop()
}

func (r *Ring[T]) pop() (T, bool) {
	var zero T
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	if wr == rd {
		return zero, false
	}
	idx := rd & r.mask
	v := r.buf[idx]
	r.buf[idx] = zero
	r.rd.Store(rd + 1)
	return v, true
}

// Drain removes and returns everything queued, oldest first.
func (r *Ring[T]) Drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for {
		v, ok := r.pop()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// Readable is signalled after each Push. A signal does not guarantee a value
// is still present when the receiver gets to Pop.
func (r *Ring[T]) Readable() <-chan struct{} { return r.readable }
