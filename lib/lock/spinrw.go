package lock

import "sync/atomic"

// writerBit marks an exclusive holder in the SpinRW state word. The remaining
// 31 bits count the shared holders.
const writerBit uint32 = 0x80000000

// SpinRW is a reader/writer busy-wait lock that keeps its whole state in a
// single atomic uint32: the top bit is set while a writer holds the lock and
// the low 31 bits count active readers.
//
// A writer acquires only when the word is 0 (no writer, no readers). A reader
// acquires whenever the writer bit is clear. Consequently a continuous stream
// of readers can starve a writer indefinitely, and there is no fairness among
// writers either. Waiters spin for 16 probes and then call runtime.Gosched.
//
// The zero value is an unlocked lock. A SpinRW must not be copied after first use.
type SpinRW struct {
	state atomic.Uint32
}

// Lock acquires the lock exclusively.
func (s *SpinRW) Lock() {
	var b backoff
	for !s.TryLock() {
		for s.state.Load() != 0 {
			b.wait()
		}
	}
}

// TryLock acquires the lock exclusively if there are no holders at all.
func (s *SpinRW) TryLock() bool {
	return s.state.CompareAndSwap(0, writerBit)
}

// Unlock releases an exclusive hold.
func (s *SpinRW) Unlock() {
	if !s.state.CompareAndSwap(writerBit, 0) {
		panic("lock: unlock of SpinRW not held exclusively")
	}
}

// RLock acquires the lock in shared mode.
func (s *SpinRW) RLock() {
	var b backoff
	for !s.TryRLock() {
		for s.state.Load()&writerBit != 0 {
			b.wait()
		}
	}
}

// TryRLock acquires a shared hold if no writer is present. A CAS that loses
// against another reader is retried, since that is not a conflict.
func (s *SpinRW) TryRLock() bool {
	for {
		cur := s.state.Load()
		if cur&writerBit != 0 {
			return false
		}
		if cur+1 == writerBit {
			panic("lock: SpinRW reader count overflow")
		}
		if s.state.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// RUnlock releases a shared hold.
func (s *SpinRW) RUnlock() {
	for {
		cur := s.state.Load()
		if cur == 0 || cur&writerBit != 0 {
			panic("lock: runlock of SpinRW without shared holders")
		}
		if s.state.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}

// Readers returns the current number of shared holders. The value is only
// a snapshot and is meant for diagnostics and tests.
func (s *SpinRW) Readers() int {
	return int(s.state.Load() &^ writerBit)
}
