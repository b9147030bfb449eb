package striped

import (
	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/ValentinKolb/tsarray/lib/array/engines/striped/internal"
)

// location is one resolved batch entry
type location struct {
	part, off int
	ok        bool
}

// resolveBatch maps all idxs against a single snapshot of the partition
// counts and returns the locations plus the distinct partitions touched.
func (s *Striped[T]) resolveBatch(idxs []int) ([]location, []int) {
	var buf [maxStackPartitions + 1]int
	prefix := s.prefixBuffer(&buf)
	internal.PrefixSums(s.parts, prefix)

	locs := make([]location, len(idxs))
	touched := make([]bool, len(s.parts))
	var parts []int
	for k, i := range idxs {
		p, off, ok := internal.Locate(prefix, i)
		locs[k] = location{part: p, off: off, ok: ok}
		if ok && !touched[p] {
			touched[p] = true
			parts = append(parts, p)
		}
	}
	return locs, parts
}

// batch resolves idxs once, locks every touched partition once (ascending
// order, shared or exclusive) and calls fn for each entry whose location is
// still inside its partition. Entries whose partition shrank below the
// resolved offset are re-resolved in a further round, up to the retry bound.
// It returns which entries were served.
func (s *Striped[T]) batch(idxs []int, shared bool, fn func(k int, part *internal.Partition[T], off int)) []bool {
	done := make([]bool, len(idxs))
	pending := make([]int, len(idxs))
	for k := range idxs {
		pending[k] = k
	}

	for attempt := 0; len(pending) > 0; attempt++ {
		sub := make([]int, len(pending))
		for j, k := range pending {
			sub[j] = idxs[k]
		}
		locs, parts := s.resolveBatch(sub)

		var stale []int
		unlock := s.locks.LockSet(parts, shared)
		for j, loc := range locs {
			if !loc.ok {
				continue // outside the snapshot, stays not found
			}
			part := &s.parts[loc.part]
			if loc.off >= len(part.Data) {
				stale = append(stale, pending[j])
				continue
			}
			fn(pending[j], part, loc.off)
			done[pending[j]] = true
		}
		unlock()

		if len(stale) == 0 || attempt >= s.retries {
			break
		}
		s.counters.ResolveRetries.Add(len(stale))
		pending = stale
	}
	return done
}

// BatchGet reads idxs, taking each touched partition lock once. Only a
// concurrent erase that invalidates resolved offsets causes a further round
// for the affected entries.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) BatchGet(idxs []int) ([]T, []bool) {
	values := make([]T, len(idxs))
	found := s.batch(idxs, true, func(k int, part *internal.Partition[T], off int) {
		values[k] = part.Data[off]
	})
	return values, found
}

// BatchSet writes vals[k] to idxs[k] with the same lock coalescing as
// BatchGet. Repeated indices are applied in argument order.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) BatchSet(idxs []int, vals []T) ([]bool, error) {
	if len(idxs) != len(vals) {
		return nil, array.LengthMismatch(len(idxs), len(vals))
	}
	applied := s.batch(idxs, false, func(k int, part *internal.Partition[T], off int) {
		part.Data[off] = vals[k]
	})
	return applied, nil
}
