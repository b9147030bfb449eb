// Package util provides small helpers shared by the container engines and
// the benchmarking commands.
//
// The package contains:
//   - statistics: summary statistics over partition sizes (used for Info reports)
//   - functions: seed generation, string hashing and power-of-two helpers
//   - mpsc: a lock-free Multi-Producer Single-Consumer queue used to ship
//     latency samples from benchmark workers to a single collector
//
// None of the helpers log or allocate on the hot path of the containers.
package util
