package lock

import "runtime"

// spinLimit is the number of busy probes before a spinning waiter yields
// the processor to other goroutines.
const spinLimit = 16

// backoff is the wait state of a single spinning acquisition.
type backoff struct {
	probes int
}

// wait burns one probe, yielding to the scheduler once the probe budget is used.
func (b *backoff) wait() {
	if b.probes < spinLimit {
		b.probes++
		return
	}
	b.probes = 0
	runtime.Gosched()
}
