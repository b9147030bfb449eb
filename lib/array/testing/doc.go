// Package testing provides standardised tests and benchmarks for container
// engines that satisfy the array.Array interface.
//
// The package contains:
//   - array_testing: a conformance suite covering the sequential contract
//     (checked against a slice model), concurrent appends, try-operation
//     atomicity, batch semantics, bulk reads and a liveness check
//   - array_benchmarks: parallel throughput benchmarks for the common operations
//
// Tests that depend on an optional capability are skipped when the engine
// does not report the matching array.Feature.
//
// Example usage:
//
//	factory := func() array.Array[int] {
//		return mono.New[int](nil)
//	}
//
//	arraytesting.RunArrayTests(t, "Mono", factory)
//	arraytesting.RunArrayBenchmarks(b, "Mono", factory)
package testing
