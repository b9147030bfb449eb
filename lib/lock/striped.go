package lock

import (
	"sort"
	"sync"

	"github.com/ValentinKolb/tsarray/lib/util"
)

// DefaultStripes is the stripe count used when NewStriped is given n <= 0.
const DefaultStripes = 64

// Striped is a fixed bank of independent RWLockers. Keys or indices are
// mapped onto stripes so that unrelated work contends on different locks.
//
// Every operation that holds more than one stripe acquires them in ascending
// stripe order and releases them in descending order. As long as all callers
// go through Striped (or follow the same order), multi-stripe acquisition
// cannot deadlock.
type Striped struct {
	stripes []RWLocker
	seed    uint64
}

// NewStriped creates a bank of n stripes built with newLock. A nil newLock
// uses sync.RWMutex.
//
// Thread-safety: This function is not thread-safe, the returned bank is.
func NewStriped(n int, newLock func() RWLocker) *Striped {
	if n <= 0 {
		n = DefaultStripes
	}
	if newLock == nil {
		newLock = func() RWLocker { return &sync.RWMutex{} }
	}

	stripes := make([]RWLocker, n)
	for i := range stripes {
		stripes[i] = newLock()
	}

	return &Striped{
		stripes: stripes,
		seed:    util.GenerateSeed(),
	}
}

// Stripes returns the number of stripes in the bank.
func (s *Striped) Stripes() int {
	return len(s.stripes)
}

// Stripe returns the lock for position i (taken modulo the stripe count).
func (s *Striped) Stripe(i int) RWLocker {
	return s.stripes[uint(i)%uint(len(s.stripes))]
}

// StripeIndex maps a key onto a stripe. The mapping is stable for the
// lifetime of the bank but differs between banks (seeded hash).
func (s *Striped) StripeIndex(key string) int {
	return int(util.HashString(key, s.seed) % uint64(len(s.stripes)))
}

// LockKey locks the stripe owning key exclusively and returns its release function.
func (s *Striped) LockKey(key string) (unlock func()) {
	l := s.stripes[s.StripeIndex(key)]
	l.Lock()
	return l.Unlock
}

// RLockKey locks the stripe owning key in shared mode and returns its release function.
func (s *Striped) RLockKey(key string) (unlock func()) {
	l := s.stripes[s.StripeIndex(key)]
	l.RLock()
	return l.RUnlock
}

// --------------------------------------------------------------------------
// Multi-stripe acquisition
// --------------------------------------------------------------------------

// LockAll acquires every stripe exclusively in ascending order.
func (s *Striped) LockAll() {
	for _, l := range s.stripes {
		l.Lock()
	}
}

// UnlockAll releases every stripe in descending order.
func (s *Striped) UnlockAll() {
	for i := len(s.stripes) - 1; i >= 0; i-- {
		s.stripes[i].Unlock()
	}
}

// RLockAll acquires every stripe in shared mode in ascending order.
func (s *Striped) RLockAll() {
	for _, l := range s.stripes {
		l.RLock()
	}
}

// RUnlockAll releases every shared stripe in descending order.
func (s *Striped) RUnlockAll() {
	for i := len(s.stripes) - 1; i >= 0; i-- {
		s.stripes[i].RUnlock()
	}
}

// LockSet acquires the given stripes (duplicates allowed, any order) in
// ascending order and returns a function that releases them. shared selects
// RLock instead of Lock.
func (s *Striped) LockSet(indices []int, shared bool) (unlock func()) {
	set := normalize(indices, len(s.stripes))
	for _, i := range set {
		if shared {
			s.stripes[i].RLock()
		} else {
			s.stripes[i].Lock()
		}
	}

	return func() {
		for j := len(set) - 1; j >= 0; j-- {
			if shared {
				s.stripes[set[j]].RUnlock()
			} else {
				s.stripes[set[j]].Unlock()
			}
		}
	}
}

// normalize reduces indices modulo n, sorts them and removes duplicates.
func normalize(indices []int, n int) []int {
	set := make([]int, len(indices))
	for i, idx := range indices {
		set[i] = int(uint(idx) % uint(n))
	}
	sort.Ints(set)

	out := set[:0]
	for i, v := range set {
		if i == 0 || v != set[i-1] {
			out = append(out, v)
		}
	}
	return out
}
