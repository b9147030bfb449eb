//go:build race

package mono

// raceEnabled disables the unsynchronized optimistic read path, whose
// element copy is a deliberate data race validated after the fact.
const raceEnabled = true
