// Package mono implements the monolithic thread-safe array: a single slice
// guarded by a single lock policy instance.
//
// Every mutation holds the policy exclusively and every read holds it in
// shared mode, so all operations on one container are linearizable and
// appends from concurrent goroutines keep one global order. The lock policy
// is pluggable through Options.NewLock (sync.RWMutex by default, or any of
// the policies in package lock).
//
// On top of the locked API the container offers:
//
//   - OptimisticGet: a lock-free read validated by a sequence counter, with a
//     bounded number of retries before it falls back to the shared lock
//   - ConditionalAction: check-then-act over the whole slice in one exclusive
//     acquisition
//   - Swap: content exchange between two containers, locking both in
//     ascending container id order
//
// Example:
//
//	a := mono.New[int](nil)
//	a.PushBack(1)
//	v, err := a.Get(0)
package mono
