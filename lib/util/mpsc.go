package util

import (
	"sync/atomic"
)

// node is a single link of the queue
type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// LockFreeMPSC is an unbounded lock-free multi-producer single-consumer queue.
//
// Producers link new nodes with a single atomic swap on the head pointer,
// so Push never retries and never blocks. The consumer side (Pop, Drain) must
// only ever be driven by one goroutine at a time.
//
// Ordering is FIFO per producer. Items pushed by different producers are
// ordered by the moment their swap took effect.
type LockFreeMPSC[T any] struct {
	head   atomic.Pointer[node[T]] // most recently pushed node (producers)
	tail   *node[T]                // consumer cursor, sentinel before the next item
	size   atomic.Int64
	closed atomic.Bool
}

// NewLockFreeMPSC creates an empty queue.
func NewLockFreeMPSC[T any]() *LockFreeMPSC[T] {
	sentinel := &node[T]{}
	q := &LockFreeMPSC[T]{tail: sentinel}
	q.head.Store(sentinel)
	return q
}

// Push appends a value. It returns false if the queue has been closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *LockFreeMPSC[T]) Push(value T) bool {
	if q.closed.Load() {
		return false
	}

	n := &node[T]{value: value}
	prev := q.head.Swap(n)
	// between the swap and this store the consumer observes an empty queue
	prev.next.Store(n)
	q.size.Add(1)
	return true
}

// Pop removes the oldest linked value. The boolean is false if no value is
// currently available.
//
// Thread-safety: single consumer only.
func (q *LockFreeMPSC[T]) Pop() (T, bool) {
	next := q.tail.next.Load()
	if next == nil {
		var zero T
		return zero, false
	}

	value := next.value
	var zero T
	next.value = zero // the node becomes the new sentinel, drop its payload for the gc
	q.tail = next
	q.size.Add(-1)
	return value, true
}

// Drain pops until the queue is momentarily empty and calls fn for each
// value. It returns the number of values consumed.
//
// Thread-safety: single consumer only.
func (q *LockFreeMPSC[T]) Drain(fn func(T)) int {
	n := 0
	for {
		v, ok := q.Pop()
		if !ok {
			return n
		}
		fn(v)
		n++
	}
}

// Close rejects further pushes. Values already linked can still be popped.
func (q *LockFreeMPSC[T]) Close() {
	q.closed.Store(true)
}

// IsClosed returns true if the queue is closed.
func (q *LockFreeMPSC[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns an approximate number of queued values.
func (q *LockFreeMPSC[T]) Len() int {
	return int(q.size.Load())
}
