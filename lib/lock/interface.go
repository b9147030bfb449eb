package lock

import (
	"fmt"
	"strings"
	"sync"
)

// Locker is the exclusive capability of a lock policy.
// Unlock must only be called by the holder of the lock.
type Locker interface {
	// Lock blocks until the lock is held exclusively.
	Lock()

	// Unlock releases an exclusive hold.
	Unlock()

	// TryLock acquires the lock exclusively if it is free and reports
	// whether it did so. It never blocks.
	TryLock() bool
}

// RWLocker extends Locker with a shared capability. Any number of shared
// holders may coexist, but never together with an exclusive holder.
//
// The method set mirrors sync.RWMutex, so *sync.RWMutex is an RWLocker.
type RWLocker interface {
	Locker

	// RLock blocks until the lock is held in shared mode.
	RLock()

	// RUnlock releases a shared hold.
	RUnlock()

	// TryRLock acquires the lock in shared mode if no exclusive holder is
	// present and reports whether it did so. It never blocks.
	TryRLock() bool
}

// Compile-time checks
var (
	_ RWLocker = (*sync.RWMutex)(nil)
	_ Locker   = (*sync.Mutex)(nil)
	_ RWLocker = (*Null)(nil)
	_ Locker   = (*Spin)(nil)
	_ RWLocker = (*SpinRW)(nil)
)

// --------------------------------------------------------------------------
// Lock kinds
// --------------------------------------------------------------------------

// Kind names a lock policy so it can be selected from configuration.
type Kind string

const (
	KindMutex  Kind = "mutex"  // sync.RWMutex, blocks in the runtime scheduler
	KindSpin   Kind = "spin"   // Spin promoted via Exclusive (no shared mode)
	KindSpinRW Kind = "spinrw" // SpinRW reader/writer spin lock
	KindNull   Kind = "null"   // Null, single goroutine use only
)

// Kinds lists every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindMutex, KindSpin, KindSpinRW, KindNull}
}

// ParseKind converts a (case-insensitive) name to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid lock kind %q. must be one of %v", s, Kinds())
}

// Factory returns a constructor that creates fresh, unlocked RWLockers of the given kind.
func Factory(k Kind) (func() RWLocker, error) {
	switch k {
	case KindMutex:
		return func() RWLocker { return &sync.RWMutex{} }, nil
	case KindSpin:
		return func() RWLocker { return Exclusive(&Spin{}) }, nil
	case KindSpinRW:
		return func() RWLocker { return &SpinRW{} }, nil
	case KindNull:
		return func() RWLocker { return &Null{} }, nil
	default:
		return nil, fmt.Errorf("invalid lock kind %q", k)
	}
}

// NewRWLocker creates one RWLocker of the given kind. It panics on an unknown kind.
func NewRWLocker(k Kind) RWLocker {
	f, err := Factory(k)
	if err != nil {
		panic(err)
	}
	return f()
}
