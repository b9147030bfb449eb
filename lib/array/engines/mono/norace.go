//go:build !race

package mono

const raceEnabled = false
