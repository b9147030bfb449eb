// Package segmented implements a lock-free, append-only growable array.
//
// Storage is a fixed directory of geometrically growing segments: segment k
// holds base<<k slots, so the directory never has to be copied and an
// element never moves once written. Appending reserves a slot with a single
// atomic increment, allocates the segment on first touch with a CAS and
// publishes the element through a per-slot atomic pointer. Readers never
// block and never observe a partially written element: a slot is either
// unpublished (reported as missing) or points to a complete value.
//
// The array offers no erase or overwrite and is therefore not an
// array.Array. It is the lock-free counterpart of the locked engines for
// append-then-read workloads.
package segmented

import (
	"math/bits"
	"sync/atomic"

	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/ValentinKolb/tsarray/lib/util"
)

const (
	DefaultSegmentSize = 64
	maxSegments        = 40
)

// segment is one fixed-size run of slots
type segment[T any] struct {
	slots []atomic.Pointer[T]
}

// Segmented is a lock-free append-only array. The zero value is not usable,
// create instances with New.
type Segmented[T any] struct {
	baseBits int
	dir      [maxSegments]atomic.Pointer[segment[T]]
	reserved atomic.Uint64 // next free slot
}

// New creates an empty array whose first segment holds segmentSize slots
// (rounded up to a power of two, <= 0 uses DefaultSegmentSize).
func New[T any](segmentSize int) *Segmented[T] {
	if segmentSize <= 0 {
		segmentSize = DefaultSegmentSize
	}
	size := util.NextPowerOfTwo(segmentSize)
	return &Segmented[T]{baseBits: bits.TrailingZeros(uint(size))}
}

// locate maps a slot index to (segment, offset).
func (s *Segmented[T]) locate(i uint64) (seg int, off uint64) {
	p := i + 1<<s.baseBits
	seg = bits.Len64(p) - 1 - s.baseBits
	return seg, p - 1<<(seg+s.baseBits)
}

// segment returns segment k, allocating it if no producer did so yet.
func (s *Segmented[T]) segment(k int) *segment[T] {
	if seg := s.dir[k].Load(); seg != nil {
		return seg
	}
	fresh := &segment[T]{slots: make([]atomic.Pointer[T], 1<<(k+s.baseBits))}
	if s.dir[k].CompareAndSwap(nil, fresh) {
		return fresh
	}
	return s.dir[k].Load()
}

// PushBack appends v and returns its index. The value is visible to Get as
// soon as PushBack returns.
//
// Thread-safety: This method is lock-free and can be called concurrently.
func (s *Segmented[T]) PushBack(v T) int {
	i := s.reserved.Add(1) - 1
	k, off := s.locate(i)
	if k >= maxSegments {
		panic(array.NewError(array.RetCUnsupported, "segmented array capacity exhausted"))
	}
	s.segment(k).slots[off].Store(&v)
	return int(i)
}

// InsertRange appends vs and returns the index of the first element. The
// elements get consecutive indices but are published one by one.
//
// Thread-safety: This method is lock-free and can be called concurrently.
func (s *Segmented[T]) InsertRange(vs []T) int {
	if len(vs) == 0 {
		return int(s.reserved.Load())
	}
	first := s.reserved.Add(uint64(len(vs))) - uint64(len(vs))
	for j := range vs {
		k, off := s.locate(first + uint64(j))
		if k >= maxSegments {
			panic(array.NewError(array.RetCUnsupported, "segmented array capacity exhausted"))
		}
		v := vs[j]
		s.segment(k).slots[off].Store(&v)
	}
	return int(first)
}

// Get returns the element at i. ok is false if i was never reserved or its
// producer has not published it yet.
//
// Thread-safety: This method is wait-free and can be called concurrently.
func (s *Segmented[T]) Get(i int) (v T, ok bool) {
	if i < 0 || uint64(i) >= s.reserved.Load() {
		return v, false
	}
	k, off := s.locate(uint64(i))
	seg := s.dir[k].Load()
	if seg == nil {
		return v, false
	}
	p := seg.slots[off].Load()
	if p == nil {
		return v, false
	}
	return *p, true
}

// Len returns the number of reserved slots, including slots whose producer
// is still publishing.
func (s *Segmented[T]) Len() int {
	return int(s.reserved.Load())
}

// Cap returns the number of slots in allocated segments.
func (s *Segmented[T]) Cap() int {
	c := 0
	for k := range s.dir {
		if seg := s.dir[k].Load(); seg != nil {
			c += len(seg.slots)
		}
	}
	return c
}

// ForEach calls fn for the published prefix: every element in index order
// up to the first slot that is not yet published. It returns the prefix length.
func (s *Segmented[T]) ForEach(fn func(int, T)) int {
	n := s.Len()
	for i := 0; i < n; i++ {
		v, ok := s.Get(i)
		if !ok {
			return i
		}
		fn(i, v)
	}
	return n
}

// Snapshot copies the published prefix.
func (s *Segmented[T]) Snapshot() []T {
	out := make([]T, 0, s.Len())
	s.ForEach(func(_ int, v T) { out = append(out, v) })
	return out
}

// SupportsFeature reports whether every feature in the mask is supported.
func (s *Segmented[T]) SupportsFeature(feature array.Feature) bool {
	return feature&array.FeatureOrderedAppend == feature
}

// Info returns a description of the array.
func (s *Segmented[T]) Info() array.Info {
	segments := 0
	for k := range s.dir {
		if s.dir[k].Load() != nil {
			segments++
		}
	}
	return array.Info{
		Name:              "segmented",
		Impl:              array.ImplSegmented,
		Len:               s.Len(),
		Cap:               s.Cap(),
		Partitions:        segments,
		SupportedFeatures: []array.Feature{array.FeatureOrderedAppend},
		Metadata: map[string]int{
			"segment_size": 1 << s.baseBits,
		},
	}
}
