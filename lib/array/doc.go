// Package array provides a standardized interface for thread-safe, resizable,
// indexable sequences. It defines the Array interface that all container
// engines satisfy, so callers can switch between a single-lock engine and a
// partitioned engine without code changes.
//
// The package focuses on:
//   - A unified interface for sequence operations
//   - Feature discovery through capability flags
//   - Structured errors with stable return codes
//   - Comprehensive metadata reporting
//
// Key Components:
//
//   - Array Interface: The core interface that all engines must satisfy.
//     It provides write operations (PushBack, EmplaceBack, InsertRange, Set,
//     Erase, EraseRange, Clear, Reserve), their non-blocking variants
//     (TryPushBack, TryEmplaceBack), queries (Get, At, FindIf, Len, Empty, Cap),
//     batch operations (BatchGet, BatchSet) and bulk operations (Snapshot,
//     ForEach, ForEachConcurrent).
//
//   - Feature Flags: The Feature type defines capability flags that engines
//     advertise through the SupportsFeature method. Engine-specific operations
//     (OptimisticGet, ConditionalAction, Swap) live on the concrete types and
//     are discoverable through the same flags.
//
//   - Errors: Every failing operation returns an *Error carrying a RetCode.
//     The sentinels (ErrIndexOutOfRange, ErrLengthMismatch, ErrIncompatible,
//     ErrUnsupported) match by code with errors.Is, so a caller never needs to
//     compare messages.
//
//   - Container Information: The Info structure reports the engine, size,
//     capacity, partition count, operational counters and engine-specific
//     metadata (for example the partition balance of the striped engine).
//
// Note on Ordering and Consistency:
//   - Values are copied in and out. No reference into a container outlives
//     the lock that protected it.
//   - The monolithic engine orders every operation totally. Appends from
//     concurrent goroutines receive distinct, consecutive positions.
//   - The striped engine spreads appends over its partitions. The logical
//     position of concurrently appended elements therefore does not follow
//     append order, and single-index operations racing with writes on other
//     partitions are resolved best-effort. Snapshot, ForEach, FindIf and
//     EraseRange hold all partitions and see one consistent view.
//
// Related Packages:
//
// The engines/mono package (github.com/ValentinKolb/tsarray/lib/array/engines/mono)
// implements Array with one lock policy instance and optional optimistic reads.
//
// The engines/striped package (github.com/ValentinKolb/tsarray/lib/array/engines/striped)
// implements Array with a fixed number of independently locked partitions.
//
// The engines/segmented package (github.com/ValentinKolb/tsarray/lib/array/engines/segmented)
// provides a lock-free append-only sequence. It does not implement Array.
//
// The lock package (github.com/ValentinKolb/tsarray/lib/lock) provides the
// pluggable lock policies the engines are parameterized with.
package array
