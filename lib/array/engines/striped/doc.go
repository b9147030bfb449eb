// Package striped implements the partitioned thread-safe array.
//
// Storage is split into a fixed number of partitions (16 by default). Each
// partition owns a slice, a lock obtained from a lock.Striped bank and an
// atomic element count that mirrors the slice length. The logical sequence
// is the concatenation of the partitions in ascending partition order.
//
// Write path:
//
//	PushBack / TryPushBack / EmplaceBack / InsertRange pick a partition with a
//	per-instance atomic round-robin ticket (mask for power-of-two partition
//	counts, modulo otherwise), lock only that partition, append and update
//	its count. Concurrent appends therefore scale with the partition count,
//	but the logical position of an appended element does not reflect append
//	order across goroutines.
//
// Index resolution:
//
//	Get, Set and Erase take one snapshot of all partition counts, build the
//	prefix sums in a single O(P) pass, binary search them in O(log P) and
//	lock only the owning partition. An offset that became invalid before the
//	lock was obtained is detected and re-resolved a bounded number of
//	times. Under concurrent writers the mapping is best-effort; Snapshot is
//	the way to obtain a consistent view.
//
// Aggregate size:
//
//	Len never blocks. It returns a cached sum tagged with a write
//	generation; every count change advances the generation after updating
//	the count, so the cache is recomputed on the next call and can never
//	stay stale.
//
// Whole-container operations (Clear, EraseRange, Snapshot, ForEach, FindIf,
// Cap, Reserve, Swap) hold every partition lock, always acquired in
// ascending partition order. Swap additionally orders the two containers by
// id. Batch operations group indices by partition and acquire each touched
// partition once, again in ascending order. ForEachConcurrent runs one
// errgroup worker per partition under that partition's shared lock.
package striped
