package lock

import "sync/atomic"

// Spin is an exclusive-only busy-wait lock over a single atomic word.
//
// Waiters probe the word up to 16 times and then yield with runtime.Gosched.
// There is no queueing, so Spin gives no fairness or starvation bound: a
// waiter can lose every race for an unbounded time under contention.
// Use it only for very short critical sections.
//
// The zero value is an unlocked lock. A Spin must not be copied after first use.
type Spin struct {
	state atomic.Uint32
}

// Lock acquires the lock, spinning until it is free.
func (s *Spin) Lock() {
	var b backoff
	for !s.TryLock() {
		// wait for a free word before retrying the CAS
		for s.state.Load() != 0 {
			b.wait()
		}
	}
}

// TryLock acquires the lock if it is free.
func (s *Spin) TryLock() bool {
	return s.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock. Unlocking a free Spin panics.
func (s *Spin) Unlock() {
	if s.state.Swap(0) != 1 {
		panic("lock: unlock of unlocked Spin")
	}
}
