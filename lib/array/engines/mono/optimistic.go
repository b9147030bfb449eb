package mono

import (
	"runtime"

	"github.com/ValentinKolb/tsarray/lib/array"
)

// OptimisticGet reads the element at i without taking the lock when no
// writer is active.
//
// The read follows the sequence-lock protocol: load an even version, load
// the published slice header, copy the element, and accept the copy only if
// the version is unchanged. A torn copy is therefore never returned. After
// a bounded number of failed attempts (writer active or version moved) the
// read falls back to Get under the shared lock, so OptimisticGet always
// terminates with a validated value or error.
//
// The fast path is disabled in race-detector builds and when the container
// was created without Options.OptimisticReads; OptimisticGet then equals Get.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) OptimisticGet(i int) (T, error) {
	if raceEnabled || !m.optimistic {
		return m.Get(i)
	}

	for attempt := 0; attempt < m.retries; attempt++ {
		seq, stable := m.version.BeginRead()
		if !stable {
			runtime.Gosched()
			continue
		}

		view := *m.view.Load()
		if !array.InRange(i, len(view)) {
			if m.version.Validate(seq) {
				var zero T
				return zero, array.OutOfRange(i, len(view))
			}
			continue
		}

		v := view[i]
		if m.version.Validate(seq) {
			m.counters.OptimisticHits.Inc()
			return v, nil
		}
	}

	m.counters.OptimisticFallbacks.Inc()
	return m.Get(i)
}

// Version returns the raw sequence counter: even while idle, odd during a
// write, advanced by two per completed write region.
func (m *Mono[T]) Version() uint64 {
	return m.version.Load()
}
