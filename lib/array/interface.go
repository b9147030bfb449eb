package array

import "context"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// Implementation names a container engine.
type Implementation string

const (
	ImplMono      Implementation = "mono"
	ImplStriped   Implementation = "striped"
	ImplSegmented Implementation = "segmented"
)

// NotFound is returned by the find family when no element matches.
// It is never a valid index.
const NotFound = -1

// Feature represents engine capabilities as bit flags
type Feature uint64

const (
	FeatureOrderedAppend     Feature = 1 << iota // Concurrent appends keep a single global order (logical index = append order)
	FeatureTryOps                                // TryPushBack / TryEmplaceBack never block
	FeatureBatch                                 // BatchGet / BatchSet coalesce lock acquisitions
	FeatureOptimisticRead                        // OptimisticGet on the concrete type
	FeatureConcurrentForEach                     // ForEachConcurrent runs more than one worker
	FeatureConditionalAction                     // ConditionalAction on the concrete type
	FeatureSwap                                  // Swap on the concrete type
	FeatureErase                                 // Erase / EraseRange
)

func (f Feature) String() string {
	switch f {
	case FeatureOrderedAppend:
		return "OrderedAppend"
	case FeatureTryOps:
		return "TryOps"
	case FeatureBatch:
		return "Batch"
	case FeatureOptimisticRead:
		return "OptimisticRead"
	case FeatureConcurrentForEach:
		return "ConcurrentForEach"
	case FeatureConditionalAction:
		return "ConditionalAction"
	case FeatureSwap:
		return "Swap"
	case FeatureErase:
		return "Erase"
	default:
		return "Unknown"
	}
}

// Features splits a feature mask into its single flags (lowest bit first).
func Features(mask Feature) []Feature {
	var out []Feature
	for f := Feature(1); f != 0 && f <= mask; f <<= 1 {
		if mask&f != 0 {
			out = append(out, f)
		}
	}
	return out
}

// Info describes an engine instance at the moment Info was called.
type Info struct {
	Name              string            `json:"name"`
	Impl              Implementation    `json:"impl"`
	Len               int               `json:"len"`
	Cap               int               `json:"cap"`
	Partitions        int               `json:"partitions"`
	SupportedFeatures []Feature         `json:"supported_features"`
	Counters          map[string]uint64 `json:"counters"`
	Metadata          interface{}       `json:"metadata"`
}

// --------------------------------------------------------------------------
// Array Interface
// --------------------------------------------------------------------------

// Array is a thread-safe, resizable, indexable sequence of T.
//
// Every method is safe for concurrent use. Elements are stored and returned
// by value: callers always receive copies and no reference into the
// container outlives the lock that protected it. If T itself holds pointers,
// the pointees are shared and not protected by the container.
//
// Index arguments are logical indices in 0..Len()-1. On partitioned engines
// the mapping from logical index to storage is resolved against a snapshot
// of partition sizes, so single-index operations racing with writers on
// other partitions are best-effort. Snapshot gives a consistent view.
type Array[T any] interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// PushBack appends v. It blocks until the required lock is acquired.
	PushBack(v T)

	// TryPushBack appends v only if the required lock is free right now.
	// On false nothing was written.
	TryPushBack(v T) bool

	// EmplaceBack appends a zero T after letting init populate it in place
	// while the lock is held. init must not call back into the container.
	EmplaceBack(init func(*T))

	// TryEmplaceBack is the non-blocking variant of EmplaceBack. init is not
	// called if the lock is busy.
	TryEmplaceBack(init func(*T)) bool

	// InsertRange appends all of vs as one contiguous run under a single lock acquisition.
	InsertRange(vs []T)

	// Set replaces the element at i. It returns an IndexOutOfRange error if i >= Len().
	Set(i int, v T) error

	// Erase removes the element at i, shifting later elements down.
	// Out of range indices are a no-op and return false.
	Erase(i int) bool

	// EraseRange removes the elements [first, last). It is a no-op returning
	// false unless 0 <= first <= last <= Len().
	EraseRange(first, last int) bool

	// Clear removes all elements.
	Clear()

	// Reserve grows the capacity so at least n elements fit without reallocation.
	Reserve(n int)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get returns a copy of the element at i or an IndexOutOfRange error.
	Get(i int) (T, error)

	// At is the unchecked fast path of Get. The caller guarantees i < Len();
	// a violated precondition panics with an IndexOutOfRange *Error.
	At(i int) T

	// FindIf returns the first index whose element satisfies pred, or NotFound.
	FindIf(pred func(T) bool) int

	// Len returns the current number of elements (may be briefly stale on partitioned engines).
	Len() int

	// Empty reports whether Len() == 0.
	Empty() bool

	// Cap returns the number of elements that fit without reallocation.
	Cap() int

	// --------------------------------------------------------------------------
	// Batch Operations
	// --------------------------------------------------------------------------

	// BatchGet returns copies of the elements at idxs. found[k] is false
	// (and values[k] the zero value) for an out of range index.
	BatchGet(idxs []int) (values []T, found []bool)

	// BatchSet assigns vals[k] to idxs[k]. applied[k] is false for an out of
	// range index. It returns a LengthMismatch error, without writing
	// anything, if the slices differ in length.
	BatchSet(idxs []int, vals []T) (applied []bool, err error)

	// --------------------------------------------------------------------------
	// Bulk Operations
	// --------------------------------------------------------------------------

	// Snapshot returns a caller-owned copy of the whole logical sequence.
	Snapshot() []T

	// ForEach calls fn for every element in logical order while holding
	// shared locks. fn must not call back into the container for writing.
	ForEach(fn func(T))

	// ForEachConcurrent calls fn for every element, possibly from several
	// goroutines at once. Order is only guaranteed within a partition. The
	// first error returned by fn (or ctx) cancels the remaining work and is returned.
	ForEachConcurrent(ctx context.Context, fn func(T) error) error

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature reports whether every feature in the mask is supported.
	SupportsFeature(feature Feature) (ok bool)

	// Info returns a description of the instance.
	Info() (info Info)
}
