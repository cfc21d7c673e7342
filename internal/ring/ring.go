// Package ring implements the bounded lock-free SPSC queue that crosses the
// producer/consumer thread boundary between the feed decoder and the event
// loop, and between the strategy and the outbound sink.
//
// Contract: exactly one producer goroutine calls Push, exactly one consumer
// goroutine calls Pop. Any other access pattern is undefined, same as
// spec'd. Capacity is a power of two, fixed at construction.
package ring

import (
	"fmt"
	"sync/atomic"
)

// cacheLineSize is the assumed CPU cache line size, used to keep the write
// and read cursors on separate cache lines and avoid false sharing. Ported
// from the padding idiom in femto_go's RingBuffer and the striped-ring
// internals used by otter's lossy buffer.
const cacheLineSize = 64

// Ring is a single-producer/single-consumer bounded queue of T. The zero
// value is not usable; construct with New.
type Ring[T any] struct {
	mask uint64
	buf  []T

	_head [cacheLineSize]byte
	head  atomic.Uint64 // producer-owned write cursor

	_tail [cacheLineSize]byte
	tail  atomic.Uint64 // consumer-owned read cursor

	_pad [cacheLineSize]byte
}

// New allocates a ring of the given capacity, which must be a power of two.
func New[T any](capacity int) (*Ring[T], error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("ring: capacity %d is not a power of two", capacity)
	}
	return &Ring[T]{
		mask: uint64(capacity - 1),
		buf:  make([]T, capacity),
	}, nil
}

// Capacity returns the fixed capacity C the ring was constructed with.
func (r *Ring[T]) Capacity() int {
	return int(r.mask) + 1
}

// Push attempts to enqueue item. It never blocks: it returns false if the
// ring is full. Only the single producer goroutine may call Push.
func (r *Ring[T]) Push(item T) bool {
	head := r.head.Load()
	tail := r.tail.Load()

	if head+1-tail > r.mask+1 {
		return false // full
	}

	r.buf[head&r.mask] = item
	r.head.Store(head + 1)
	return true
}

// Pop attempts to dequeue the oldest item into out. It never blocks: it
// returns false if the ring is empty. Only the single consumer goroutine
// may call Pop.
func (r *Ring[T]) Pop(out *T) bool {
	tail := r.tail.Load()
	head := r.head.Load()

	if head == tail {
		return false // empty
	}

	*out = r.buf[tail&r.mask]
	r.tail.Store(tail + 1)
	return true
}

// Size returns an approximate element count; both cursors are read
// independently so the result may be stale by the time the caller observes
// it, but it is always within [0, capacity].
func (r *Ring[T]) Size() int {
	head := r.head.Load()
	tail := r.tail.Load()
	return int(head - tail)
}

// Empty reports whether the ring held no elements at the moment of the
// read.
func (r *Ring[T]) Empty() bool {
	return r.Size() == 0
}
