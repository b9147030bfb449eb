// Package lock provides the lock policies used by the thread-safe containers.
//
// A policy is any type implementing Locker (exclusive capability) or
// RWLocker (exclusive + shared capability). The method sets mirror the
// standard library, so *sync.Mutex is a Locker and *sync.RWMutex is an
// RWLocker without any adapter. Containers are parameterised with a
// constructor func() RWLocker and never depend on a concrete policy.
//
// Policies:
//
//   - sync.RWMutex: blocking reader/writer lock from the runtime (default)
//   - Spin: exclusive-only busy-wait lock over one atomic word
//   - SpinRW: reader/writer busy-wait lock (writer bit + reader count)
//   - Null: no-op lock for single goroutine use
//   - Exclusive: adapter giving an exclusive-only Locker an RWLocker surface
//
// The spin policies bound their busy-wait to 16 probes before yielding the
// processor, but they provide no starvation bound. A writer on SpinRW can be
// starved by a steady stream of readers.
//
// Striped is a fixed bank of RWLockers with key hashing (StripeIndex) and
// ordered multi-stripe acquisition (LockAll, RLockAll, LockSet). Ascending
// acquisition order is the deadlock-avoidance rule every multi-lock
// operation in this module follows.
//
// Policies expose no deadlines. Acquire and AcquireShared add one on top of
// the try-variants by polling with backoff until a context is done:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
//	defer cancel()
//	if err := lock.Acquire(ctx, l); errors.Is(err, lock.ErrTimeout) {
//	    // not acquired
//	}
package lock
