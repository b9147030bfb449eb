package striped

import (
	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/ValentinKolb/tsarray/lib/array/engines/striped/internal"
)

// prefixBuffer returns a slice of len(parts)+1 ints, backed by buf when it fits.
func (s *Striped[T]) prefixBuffer(buf *[maxStackPartitions + 1]int) []int {
	if len(s.parts) <= maxStackPartitions {
		return buf[:len(s.parts)+1]
	}
	return make([]int, len(s.parts)+1)
}

// resolve maps logical index i to (partition, offset) against one snapshot
// of the partition counts. The prefix sums are built once in O(P) and then
// searched in O(log P). It also returns the snapshot total.
func (s *Striped[T]) resolve(i int) (part, off, total int, ok bool) {
	var buf [maxStackPartitions + 1]int
	prefix := s.prefixBuffer(&buf)
	total = internal.PrefixSums(s.parts, prefix)
	part, off, ok = internal.Locate(prefix, i)
	return part, off, total, ok
}

// withResolved resolves i, locks only the owning partition (shared or
// exclusive) and runs fn with the offset.
//
// The snapshot may be stale by the time the lock is held: a concurrent
// erase can shrink the partition below the resolved offset. This is
// detected under the lock and the resolution is retried a bounded number
// of times before IndexOutOfRange is reported. A stale snapshot that still
// lands inside the partition is accepted (best-effort mapping under
// concurrent writers).
func (s *Striped[T]) withResolved(i int, shared bool, fn func(part *internal.Partition[T], off int)) error {
	for attempt := 0; ; attempt++ {
		p, off, total, ok := s.resolve(i)
		if !ok {
			return array.OutOfRange(i, total)
		}

		l := s.locks.Stripe(p)
		if shared {
			l.RLock()
		} else {
			l.Lock()
		}

		part := &s.parts[p]
		hit := off < len(part.Data)
		if hit {
			fn(part, off)
		}

		if shared {
			l.RUnlock()
		} else {
			l.Unlock()
		}

		if hit {
			return nil
		}
		if attempt >= s.retries {
			return array.OutOfRange(i, total)
		}
		s.counters.ResolveRetries.Inc()
	}
}
