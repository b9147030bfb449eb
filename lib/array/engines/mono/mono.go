package mono

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/ValentinKolb/tsarray/lib/array/internal"
	"github.com/ValentinKolb/tsarray/lib/lock"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("mono")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultOptimisticRetries = 8
)

// nextID hands out container identities; Swap locks the lower id first.
var nextID atomic.Uint64

// --------------------------------------------------------------------------
// Core structure
// --------------------------------------------------------------------------

// Mono is a thread-safe array guarded by one lock policy instance.
// Logical index equals physical offset, and every write is totally ordered.
type Mono[T any] struct {
	id   uint64
	name string
	lock lock.RWLocker
	data []T

	// optimistic read state, only maintained when enabled
	optimistic bool
	retries    int
	version    internal.Version
	view       atomic.Pointer[[]T] // slice header published at the end of every write

	counters *internal.Counters
}

// Options configures a Mono container
type Options struct {
	Name              string               // Name used in metrics labels and Info
	NewLock           func() lock.RWLocker // Lock policy constructor (nil = sync.RWMutex)
	InitialCapacity   int                  // Capacity reserved up front
	OptimisticReads   bool                 // Maintain the seqlock state for OptimisticGet
	OptimisticRetries int                  // Attempts before OptimisticGet falls back to the shared lock
	Metrics           *metrics.Set         // Set the counters are registered in (nil = private set)
}

// DefaultOptions returns the default Mono options
func DefaultOptions() *Options {
	return &Options{
		Name:              "mono",
		NewLock:           func() lock.RWLocker { return &sync.RWMutex{} },
		OptimisticReads:   true,
		OptimisticRetries: defaultOptimisticRetries,
	}
}

// --------------------------------------------------------------------------
// Initialization
// --------------------------------------------------------------------------

// New creates an empty Mono container with the given options (nil = defaults).
func New[T any](opts *Options) *Mono[T] {
	if opts == nil {
		opts = DefaultOptions()
	}
	newLock := opts.NewLock
	if newLock == nil {
		newLock = func() lock.RWLocker { return &sync.RWMutex{} }
	}
	retries := opts.OptimisticRetries
	if retries <= 0 {
		retries = defaultOptimisticRetries
	}

	m := &Mono[T]{
		id:         nextID.Add(1),
		name:       opts.Name,
		lock:       newLock(),
		data:       make([]T, 0, max(opts.InitialCapacity, 0)),
		optimistic: opts.OptimisticReads,
		retries:    retries,
		counters:   internal.NewCounters(opts.Metrics, string(array.ImplMono), opts.Name),
	}
	m.publish()
	if !m.counters.Gauge("elements", func() float64 { return float64(m.Len()) }) {
		Logger.Warningf("mono array %q shares its metrics name, tsarray_elements reports the first array registered under it", opts.Name)
	}

	Logger.Debugf("created mono array %q (optimistic reads: %t)", opts.Name, opts.OptimisticReads)
	return m
}

// NewFrom creates a Mono container holding a copy of vs.
func NewFrom[T any](vs []T, opts *Options) *Mono[T] {
	m := New[T](opts)
	m.InsertRange(vs)
	return m
}

// --------------------------------------------------------------------------
// Lock helpers
// --------------------------------------------------------------------------

// beginWrite takes the exclusive lock and enters the seqlock write region.
func (m *Mono[T]) beginWrite() {
	m.lock.Lock()
	m.version.BeginWrite()
}

// tryBeginWrite is the non-blocking variant of beginWrite.
func (m *Mono[T]) tryBeginWrite() bool {
	if !m.lock.TryLock() {
		m.counters.TryLockFailures.Inc()
		return false
	}
	m.version.BeginWrite()
	return true
}

// endWrite publishes the new slice header and releases the exclusive lock.
func (m *Mono[T]) endWrite() {
	m.publish()
	m.version.EndWrite()
	m.lock.Unlock()
}

// publish stores a private copy of the current slice header for optimistic readers.
func (m *Mono[T]) publish() {
	if !m.optimistic {
		return
	}
	view := m.data
	m.view.Store(&view)
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// PushBack appends v.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) PushBack(v T) {
	m.beginWrite()
	defer m.endWrite()
	m.data = append(m.data, v)
}

// TryPushBack appends v if the lock is free right now.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) TryPushBack(v T) bool {
	if !m.tryBeginWrite() {
		return false
	}
	defer m.endWrite()
	m.data = append(m.data, v)
	return true
}

// EmplaceBack appends a zero T initialised in place by init.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) EmplaceBack(init func(*T)) {
	m.beginWrite()
	defer m.endWrite()
	m.emplace(init)
}

// TryEmplaceBack is the non-blocking variant of EmplaceBack.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) TryEmplaceBack(init func(*T)) bool {
	if !m.tryBeginWrite() {
		return false
	}
	defer m.endWrite()
	m.emplace(init)
	return true
}

func (m *Mono[T]) emplace(init func(*T)) {
	var v T
	if init != nil {
		init(&v)
	}
	m.data = append(m.data, v)
}

// InsertRange appends all of vs under one lock acquisition.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) InsertRange(vs []T) {
	if len(vs) == 0 {
		return
	}
	m.beginWrite()
	defer m.endWrite()
	m.data = append(m.data, vs...)
}

// Set replaces the element at i.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) Set(i int, v T) error {
	m.beginWrite()
	defer m.endWrite()
	if !array.InRange(i, len(m.data)) {
		return array.OutOfRange(i, len(m.data))
	}
	m.data[i] = v
	return nil
}

// Erase removes the element at i. Out of range is a no-op.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) Erase(i int) bool {
	return m.EraseRange(i, i+1)
}

// EraseRange removes [first, last). Invalid ranges are a no-op.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) EraseRange(first, last int) bool {
	m.beginWrite()
	defer m.endWrite()
	if first < 0 || first > last || last > len(m.data) {
		return false
	}
	m.data = slices.Delete(m.data, first, last)
	return true
}

// Clear removes all elements but keeps the capacity.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) Clear() {
	m.beginWrite()
	defer m.endWrite()
	clear(m.data)
	m.data = m.data[:0]
}

// Reserve grows the capacity to at least n.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) Reserve(n int) {
	m.beginWrite()
	defer m.endWrite()
	if n > cap(m.data) {
		m.data = slices.Grow(m.data, n-len(m.data))
	}
}

// ConditionalAction runs pred and, if it returns true, action over the
// backing slice within one exclusive acquisition. action returns the new
// contents (it may append to, reslice, or modify its argument in place).
// Neither callback may retain the slice or call back into the container.
// The result reports whether action ran.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) ConditionalAction(pred func([]T) bool, action func([]T) []T) bool {
	m.beginWrite()
	defer m.endWrite()
	if !pred(m.data) {
		return false
	}
	m.data = action(m.data)
	return true
}

// Swap exchanges the contents of m and other. Both locks are taken in
// ascending container id order, so concurrent swaps in opposite directions
// cannot deadlock. Swapping a container with itself is a no-op.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) Swap(other *Mono[T]) {
	if other == nil || other == m {
		return
	}

	first, second := m, other
	if second.id < first.id {
		first, second = second, first
	}
	first.beginWrite()
	defer first.endWrite()
	second.beginWrite()
	defer second.endWrite()

	m.data, other.data = other.data, m.data
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get returns a copy of the element at i.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) Get(i int) (T, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if !array.InRange(i, len(m.data)) {
		var zero T
		return zero, array.OutOfRange(i, len(m.data))
	}
	return m.data[i], nil
}

// At returns the element at i without a bounds check of its own. The
// caller guarantees i < Len(); otherwise At panics with an IndexOutOfRange error.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) At(i int) T {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if uint(i) >= uint(len(m.data)) {
		panic(array.OutOfRange(i, len(m.data)))
	}
	return m.data[i]
}

// FindIf returns the first index whose element satisfies pred, or array.NotFound.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) FindIf(pred func(T) bool) int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return slices.IndexFunc(m.data, pred)
}

// Len returns the number of elements.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.data)
}

// Empty reports whether the container holds no elements.
func (m *Mono[T]) Empty() bool {
	return m.Len() == 0
}

// Cap returns the capacity of the backing slice.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) Cap() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return cap(m.data)
}

// --------------------------------------------------------------------------
// Batch Operations
// --------------------------------------------------------------------------

// BatchGet reads all idxs under a single shared acquisition.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) BatchGet(idxs []int) ([]T, []bool) {
	values := make([]T, len(idxs))
	found := make([]bool, len(idxs))

	m.lock.RLock()
	defer m.lock.RUnlock()
	for k, i := range idxs {
		if array.InRange(i, len(m.data)) {
			values[k] = m.data[i]
			found[k] = true
		}
	}
	return values, found
}

// BatchSet writes all pairs under a single exclusive acquisition. Later
// pairs win when an index repeats.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) BatchSet(idxs []int, vals []T) ([]bool, error) {
	if len(idxs) != len(vals) {
		return nil, array.LengthMismatch(len(idxs), len(vals))
	}
	applied := make([]bool, len(idxs))

	m.beginWrite()
	defer m.endWrite()
	for k, i := range idxs {
		if array.InRange(i, len(m.data)) {
			m.data[i] = vals[k]
			applied[k] = true
		}
	}
	return applied, nil
}

// --------------------------------------------------------------------------
// Bulk Operations
// --------------------------------------------------------------------------

// Snapshot returns a copy of the whole sequence.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) Snapshot() []T {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return slices.Clone(m.data)
}

// ForEach calls fn for each element in order under the shared lock.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) ForEach(fn func(T)) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	for _, v := range m.data {
		fn(v)
	}
}

// ForEachConcurrent has a single partition and therefore a single worker.
// It stops at the first error of fn or when ctx is done.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *Mono[T]) ForEachConcurrent(ctx context.Context, fn func(T) error) error {
	m.lock.RLock()
	defer m.lock.RUnlock()
	for _, v := range m.data {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Feature Support
// --------------------------------------------------------------------------

// SupportsFeature reports whether every feature in the mask is supported.
func (m *Mono[T]) SupportsFeature(feature array.Feature) bool {
	return feature&m.features() == feature
}

func (m *Mono[T]) features() array.Feature {
	f := array.FeatureOrderedAppend |
		array.FeatureTryOps |
		array.FeatureBatch |
		array.FeatureConditionalAction |
		array.FeatureSwap |
		array.FeatureErase
	if m.optimistic {
		f |= array.FeatureOptimisticRead
	}
	return f
}

// Info returns a description of the container.
func (m *Mono[T]) Info() array.Info {
	m.lock.RLock()
	n, c := len(m.data), cap(m.data)
	m.lock.RUnlock()

	return array.Info{
		Name:              m.name,
		Impl:              array.ImplMono,
		Len:               n,
		Cap:               c,
		Partitions:        1,
		SupportedFeatures: array.Features(m.features()),
		Counters:          m.counters.Snapshot(),
		Metadata: map[string]uint64{
			"id":     m.id,
			"writes": m.version.Writes(),
		},
	}
}

// Metrics returns the set the container counters are registered in.
func (m *Mono[T]) Metrics() *metrics.Set {
	return m.counters.Set()
}

// compile-time check
var _ array.Array[int] = (*Mono[int])(nil)
