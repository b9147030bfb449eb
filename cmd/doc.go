// Package cmd implements the command-line interface for the tsarray
// containers. It drives the engines under load and reports timings; it is a
// consumer of the public container contract only.
//
// The package is organized into several subpackages:
//
//   - bench: Barrier-synchronized workloads (push, read, mixed, batch, random)
//     and per-operation micro benchmarks with optional CSV export
//   - lock: Contention benchmark and deadline demo for the lock policies
//   - util: Shared utilities for configuration, logging and container construction (internal use)
//
// See tsarray -help for a list of all commands.
package cmd
