package striped

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/ValentinKolb/tsarray/lib/array/engines/striped/internal"
	arrintl "github.com/ValentinKolb/tsarray/lib/array/internal"
	"github.com/ValentinKolb/tsarray/lib/lock"
	"github.com/ValentinKolb/tsarray/lib/util"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sync/errgroup"
)

var Logger = logger.GetLogger("striped")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	DefaultPartitions     = 16
	defaultResolveRetries = 4
	maxStackPartitions    = 64 // prefix sums up to this partition count avoid a heap allocation
)

// nextID hands out container identities; Swap locks the lower id first.
var nextID atomic.Uint64

// sizeSnapshot is one cached aggregate size, valid while gen is current.
type sizeSnapshot struct {
	gen  uint64
	size int
}

// --------------------------------------------------------------------------
// Core structure
// --------------------------------------------------------------------------

// Striped is a thread-safe array split into a fixed number of partitions,
// each with its own element slice, its own lock and an atomic element count.
//
// The logical sequence is the concatenation of the partitions in index
// order. Appends are spread round-robin over the partitions, so the logical
// position of concurrently appended elements does not follow append order.
type Striped[T any] struct {
	id       uint64
	name     string
	parts    []internal.Partition[T]
	locks    *lock.Striped
	selector internal.Selector
	retries  int

	// round-robin ticket for write partition selection, owned by this instance
	next atomic.Uint64

	// sizeGen advances after every count change; the cache is valid for one generation
	sizeGen   atomic.Uint64
	sizeCache atomic.Pointer[sizeSnapshot]

	counters *arrintl.Counters
}

// Options configures a Striped container
type Options struct {
	Name            string               // Name used in metrics labels and Info
	Partitions      int                  // Number of partitions (0 = DefaultPartitions), a power of two is recommended
	NewLock         func() lock.RWLocker // Lock policy constructor per partition (nil = sync.RWMutex)
	InitialCapacity int                  // Total capacity reserved up front, spread over the partitions
	ResolveRetries  int                  // Re-resolutions of a stale index before giving up
	Metrics         *metrics.Set         // Set the counters are registered in (nil = private set)
}

// DefaultOptions returns the default Striped options
func DefaultOptions() *Options {
	return &Options{
		Name:           "striped",
		Partitions:     DefaultPartitions,
		NewLock:        func() lock.RWLocker { return &sync.RWMutex{} },
		ResolveRetries: defaultResolveRetries,
	}
}

// --------------------------------------------------------------------------
// Initialization
// --------------------------------------------------------------------------

// New creates an empty Striped container with the given options (nil = defaults).
//
// Thread-safety: This function is not thread-safe, the returned container is.
func New[T any](opts *Options) *Striped[T] {
	if opts == nil {
		opts = DefaultOptions()
	}

	n := opts.Partitions
	if n <= 0 {
		n = DefaultPartitions
	}
	if !util.IsPowerOfTwo(n) {
		Logger.Warningf("partition count %d is not a power of two (next is %d), write selection falls back to modulo",
			n, util.NextPowerOfTwo(n))
	}
	retries := opts.ResolveRetries
	if retries <= 0 {
		retries = defaultResolveRetries
	}

	s := &Striped[T]{
		id:       nextID.Add(1),
		name:     opts.Name,
		parts:    make([]internal.Partition[T], n),
		locks:    lock.NewStriped(n, opts.NewLock),
		selector: internal.NewSelector(n),
		retries:  retries,
		counters: arrintl.NewCounters(opts.Metrics, string(array.ImplStriped), opts.Name),
	}

	if opts.InitialCapacity > 0 {
		per := (opts.InitialCapacity + n - 1) / n
		for k := range s.parts {
			s.parts[k].Data = make([]T, 0, per)
		}
	}
	if !s.counters.Gauge("elements", func() float64 { return float64(s.Len()) }) {
		Logger.Warningf("striped array %q shares its metrics name, tsarray_elements reports the first array registered under it", opts.Name)
	}

	Logger.Debugf("created striped array %q with %d partitions", opts.Name, n)
	return s
}

// NewFrom creates a Striped container holding a copy of vs in one partition run.
func NewFrom[T any](vs []T, opts *Options) *Striped[T] {
	s := New[T](opts)
	s.InsertRange(vs)
	return s
}

// Partitions returns the fixed partition count.
func (s *Striped[T]) Partitions() int {
	return len(s.parts)
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// pick returns the next write partition (round-robin).
func (s *Striped[T]) pick() int {
	return s.selector.Pick(s.next.Add(1) - 1)
}

// sizeChanged invalidates the cached aggregate size. It must run after the
// partition count was updated.
func (s *Striped[T]) sizeChanged() {
	s.sizeGen.Add(1)
}

// write runs fn on partition p under its exclusive lock and syncs the count.
func (s *Striped[T]) write(p int, fn func(part *internal.Partition[T])) {
	l := s.locks.Stripe(p)
	l.Lock()
	defer s.release(p, l)
	fn(&s.parts[p])
}

// release resyncs partition p and drops its lock. Deferred, so a panicking
// fn still leaves the partition consistent and unlocked.
func (s *Striped[T]) release(p int, l lock.RWLocker) {
	s.parts[p].Sync()
	l.Unlock()
	s.sizeChanged()
}

// tryWrite is the non-blocking variant of write. On false fn did not run.
func (s *Striped[T]) tryWrite(p int, fn func(part *internal.Partition[T])) bool {
	l := s.locks.Stripe(p)
	if !l.TryLock() {
		s.counters.TryLockFailures.Inc()
		return false
	}
	defer s.release(p, l)
	fn(&s.parts[p])
	return true
}

// lockAll / unlockAll hold every partition exclusively (ascending order).
func (s *Striped[T]) lockAll()    { s.locks.LockAll() }
func (s *Striped[T]) unlockAll()  { s.locks.UnlockAll() }
func (s *Striped[T]) rlockAll()   { s.locks.RLockAll() }
func (s *Striped[T]) runlockAll() { s.locks.RUnlockAll() }

// heldLen sums the real partition lengths. The caller holds all partition locks.
func (s *Striped[T]) heldLen() int {
	n := 0
	for k := range s.parts {
		n += len(s.parts[k].Data)
	}
	return n
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// PushBack appends v to the next partition in round-robin order.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) PushBack(v T) {
	s.write(s.pick(), func(part *internal.Partition[T]) {
		part.Data = append(part.Data, v)
	})
}

// TryPushBack appends v if the chosen partition lock is free right now.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) TryPushBack(v T) bool {
	return s.tryWrite(s.pick(), func(part *internal.Partition[T]) {
		part.Data = append(part.Data, v)
	})
}

// EmplaceBack appends a zero T initialised in place by init.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) EmplaceBack(init func(*T)) {
	s.write(s.pick(), func(part *internal.Partition[T]) {
		emplace(part, init)
	})
}

// TryEmplaceBack is the non-blocking variant of EmplaceBack.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) TryEmplaceBack(init func(*T)) bool {
	return s.tryWrite(s.pick(), func(part *internal.Partition[T]) {
		emplace(part, init)
	})
}

func emplace[T any](part *internal.Partition[T], init func(*T)) {
	var v T
	if init != nil {
		init(&v)
	}
	part.Data = append(part.Data, v)
}

// InsertRange appends vs as one contiguous run to a single partition.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) InsertRange(vs []T) {
	if len(vs) == 0 {
		return
	}
	s.write(s.pick(), func(part *internal.Partition[T]) {
		part.Data = append(part.Data, vs...)
	})
}

// Set replaces the element at logical index i.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) Set(i int, v T) error {
	return s.withResolved(i, false, func(part *internal.Partition[T], off int) {
		part.Data[off] = v
	})
}

// Erase removes the element at logical index i. Out of range is a no-op.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) Erase(i int) bool {
	err := s.withResolved(i, false, func(part *internal.Partition[T], off int) {
		part.Delete(off, off+1)
	})
	if err != nil {
		return false
	}
	s.sizeChanged()
	return true
}

// EraseRange removes the logical range [first, last). All partitions are
// held exclusively, so the range refers to one consistent view.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) EraseRange(first, last int) bool {
	s.lockAll()
	total := s.heldLen()
	if first < 0 || first > last || last > total {
		s.unlockAll()
		return false
	}

	start := 0
	for k := range s.parts {
		part := &s.parts[k]
		end := start + len(part.Data)
		if first < end && last > start {
			part.Delete(first-start, last-start)
		}
		start = end
	}
	s.unlockAll()

	if first < last {
		s.sizeChanged()
	}
	return true
}

// Clear removes all elements from all partitions.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) Clear() {
	s.lockAll()
	for k := range s.parts {
		s.parts[k].Reset()
	}
	s.unlockAll()
	s.sizeChanged()
}

// Reserve grows every partition so that n elements in total fit when spread evenly.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) Reserve(n int) {
	per := (n + len(s.parts) - 1) / len(s.parts)
	s.lockAll()
	defer s.unlockAll()
	for k := range s.parts {
		part := &s.parts[k]
		if per > cap(part.Data) {
			grown := make([]T, len(part.Data), per)
			copy(grown, part.Data)
			part.Data = grown
		}
	}
}

// Swap exchanges the contents of s and other. Both containers must have the
// same partition count. All partitions of the container with the lower id
// are locked first, then those of the other, each in ascending order.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) Swap(other *Striped[T]) error {
	if other == nil || other == s {
		return nil
	}
	if len(other.parts) != len(s.parts) {
		return array.NewError(array.RetCIncompatible, "swap requires equal partition counts")
	}

	first, second := s, other
	if second.id < first.id {
		first, second = second, first
	}
	first.lockAll()
	second.lockAll()
	for k := range s.parts {
		a, b := &s.parts[k], &other.parts[k]
		a.Data, b.Data = b.Data, a.Data
		a.Sync()
		b.Sync()
	}
	second.unlockAll()
	first.unlockAll()

	s.sizeChanged()
	other.sizeChanged()
	return nil
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get returns a copy of the element at logical index i.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) Get(i int) (T, error) {
	var v T
	err := s.withResolved(i, true, func(part *internal.Partition[T], off int) {
		v = part.Data[off]
	})
	return v, err
}

// At is the unchecked variant of Get: it panics with an IndexOutOfRange
// error instead of returning it.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) At(i int) T {
	v, err := s.Get(i)
	if err != nil {
		panic(err)
	}
	return v
}

// FindIf scans the logical sequence under all shared locks and returns the
// first matching logical index, or array.NotFound.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) FindIf(pred func(T) bool) int {
	s.rlockAll()
	defer s.runlockAll()

	base := 0
	for k := range s.parts {
		for off, v := range s.parts[k].Data {
			if pred(v) {
				return base + off
			}
		}
		base += len(s.parts[k].Data)
	}
	return array.NotFound
}

// Len returns the aggregate size from the cache, recomputing it from the
// partition counts if a write happened since it was cached. It never blocks.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) Len() int {
	gen := s.sizeGen.Load()
	if c := s.sizeCache.Load(); c != nil && c.gen == gen {
		return c.size
	}

	size := 0
	for k := range s.parts {
		size += s.parts[k].Len()
	}
	s.counters.SizeRecomputes.Inc()

	// only ever replace the cache with a newer generation
	snap := &sizeSnapshot{gen: gen, size: size}
	for {
		cur := s.sizeCache.Load()
		if cur != nil && cur.gen >= gen {
			break
		}
		if s.sizeCache.CompareAndSwap(cur, snap) {
			break
		}
	}
	return size
}

// Empty reports whether Len() == 0.
func (s *Striped[T]) Empty() bool {
	return s.Len() == 0
}

// Cap returns the summed partition capacities.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) Cap() int {
	s.rlockAll()
	defer s.runlockAll()
	c := 0
	for k := range s.parts {
		c += cap(s.parts[k].Data)
	}
	return c
}

// --------------------------------------------------------------------------
// Bulk Operations
// --------------------------------------------------------------------------

// Snapshot copies the logical sequence while holding all partitions in shared mode.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) Snapshot() []T {
	s.rlockAll()
	defer s.runlockAll()

	out := make([]T, 0, s.heldLen())
	for k := range s.parts {
		out = append(out, s.parts[k].Data...)
	}
	return out
}

// ForEach calls fn for every element in logical order while holding all
// partitions in shared mode.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) ForEach(fn func(T)) {
	s.rlockAll()
	defer s.runlockAll()
	for k := range s.parts {
		for _, v := range s.parts[k].Data {
			fn(v)
		}
	}
}

// ForEachConcurrent runs one worker per partition; each worker holds only
// its own partition's shared lock. fn may run concurrently with itself.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Striped[T]) ForEachConcurrent(ctx context.Context, fn func(T) error) error {
	g, gctx := errgroup.WithContext(ctx)

	for k := range s.parts {
		g.Go(func() error {
			l := s.locks.Stripe(k)
			l.RLock()
			defer l.RUnlock()

			for _, v := range s.parts[k].Data {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(v); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// --------------------------------------------------------------------------
// Feature Support
// --------------------------------------------------------------------------

const features = array.FeatureTryOps |
	array.FeatureBatch |
	array.FeatureConcurrentForEach |
	array.FeatureSwap |
	array.FeatureErase

// SupportsFeature reports whether every feature in the mask is supported.
func (s *Striped[T]) SupportsFeature(feature array.Feature) bool {
	return feature&features == feature
}

// Info returns a description of the container including the partition balance.
func (s *Striped[T]) Info() array.Info {
	sizes := make([]int, len(s.parts))
	for k := range s.parts {
		sizes[k] = s.parts[k].Len()
	}

	return array.Info{
		Name:              s.name,
		Impl:              array.ImplStriped,
		Len:               s.Len(),
		Cap:               s.Cap(),
		Partitions:        len(s.parts),
		SupportedFeatures: array.Features(features),
		Counters:          s.counters.Snapshot(),
		Metadata: map[string]interface{}{
			"id":              s.id,
			"partition_sizes": sizes,
			"distribution":    util.NewDistributionStats(sizes),
			"power_of_two":    s.selector.PowerOfTwo(),
			"gomaxprocs":      runtime.GOMAXPROCS(0),
		},
	}
}

// Metrics returns the set the container counters are registered in.
func (s *Striped[T]) Metrics() *metrics.Set {
	return s.counters.Set()
}

// compile-time check
var _ array.Array[int] = (*Striped[int])(nil)
