package internal

import (
	"slices"
	"sort"
	"sync/atomic"
)

// cacheLinePad separates hot per-partition counters from their neighbours.
type cacheLinePad [64]byte

// --------------------------------------------------------------------------
// Partition Type (one stripe of the container)
// --------------------------------------------------------------------------

// Partition owns one ordered run of the container's elements together with
// an atomic mirror of its length. Data may only be touched while holding the
// partition's lock; Len may be read at any time.
//
// Every writer must call Sync before releasing its exclusive lock, so the
// count equals len(Data) whenever no exclusive holder is present.
type Partition[T any] struct {
	Data  []T
	count atomic.Int64
	_     cacheLinePad
}

// Len returns the mirrored element count without locking.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (p *Partition[T]) Len() int {
	return int(p.count.Load())
}

// Sync publishes len(Data) as the partition count. The caller holds the exclusive lock.
func (p *Partition[T]) Sync() {
	p.count.Store(int64(len(p.Data)))
}

// Delete removes Data[from:to] (clamped to the partition) and syncs the count.
// The caller holds the exclusive lock.
func (p *Partition[T]) Delete(from, to int) {
	from = max(from, 0)
	to = min(to, len(p.Data))
	if from < to {
		p.Data = slices.Delete(p.Data, from, to)
	}
	p.Sync()
}

// Reset drops all elements but keeps the capacity. The caller holds the exclusive lock.
func (p *Partition[T]) Reset() {
	clear(p.Data)
	p.Data = p.Data[:0]
	p.Sync()
}

// --------------------------------------------------------------------------
// Partition selection and index resolution
// --------------------------------------------------------------------------

// Selector maps a monotonically increasing ticket onto a partition index,
// using a mask when the partition count is a power of two.
type Selector struct {
	n    uint64
	mask uint64
	pow2 bool
}

// NewSelector creates a selector for n partitions (n > 0).
func NewSelector(n int) Selector {
	s := Selector{n: uint64(n)}
	if n&(n-1) == 0 {
		s.pow2 = true
		s.mask = uint64(n - 1)
	}
	return s
}

// Pick returns the partition for ticket.
func (s Selector) Pick(ticket uint64) int {
	if s.pow2 {
		return int(ticket & s.mask)
	}
	return int(ticket % s.n)
}

// PowerOfTwo reports whether the mask fast path is used.
func (s Selector) PowerOfTwo() bool {
	return s.pow2
}

// PrefixSums fills dst (len(parts)+1 entries) with the cumulative element
// counts of one snapshot of the partition counts: dst[0] = 0 and
// dst[k+1] = dst[k] + parts[k].Len(). It returns the total.
func PrefixSums[T any](parts []Partition[T], dst []int) int {
	dst[0] = 0
	for k := range parts {
		dst[k+1] = dst[k] + parts[k].Len()
	}
	return dst[len(parts)]
}

// Locate finds the partition whose cumulative range contains logical index
// i by binary search over prefix (as produced by PrefixSums) and returns the
// partition and the offset inside it. ok is false if i is outside the snapshot.
func Locate(prefix []int, i int) (part, off int, ok bool) {
	parts := len(prefix) - 1
	if i < 0 || i >= prefix[parts] {
		return 0, 0, false
	}

	// smallest k with prefix[k+1] > i; empty partitions are skipped naturally
	part = sort.Search(parts, func(k int) bool { return prefix[k+1] > i })
	return part, i - prefix[part], true
}
