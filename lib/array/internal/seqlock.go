package internal

import "sync/atomic"

// Version is the state of a sequence lock. The counter is even while no
// write is in progress and odd while one is, so a reader that observes the
// same even value before and after reading knows no writer touched the data
// in between.
//
//	Idle(v even) --BeginWrite--> WriteInProgress(v+1) --EndWrite--> Idle(v+2)
//
// Writers must already be serialized by an external lock. Version only
// publishes their progress to optimistic readers.
type Version struct {
	seq atomic.Uint64
}

// BeginWrite enters WriteInProgress. It panics if a write is already in
// progress, which means the external write lock was not held.
func (v *Version) BeginWrite() {
	if v.seq.Add(1)&1 == 0 {
		panic("seqlock: BeginWrite during a write in progress")
	}
}

// EndWrite returns to Idle. It panics if no write is in progress.
func (v *Version) EndWrite() {
	if v.seq.Add(1)&1 != 0 {
		panic("seqlock: EndWrite without BeginWrite")
	}
}

// BeginRead returns the current sequence and reports whether it is stable
// (no write in progress). An unstable sequence must not be used for Validate.
func (v *Version) BeginRead() (seq uint64, stable bool) {
	seq = v.seq.Load()
	return seq, seq&1 == 0
}

// Validate reports whether no write started since BeginRead returned seq.
func (v *Version) Validate(seq uint64) bool {
	return v.seq.Load() == seq
}

// Load returns the raw sequence counter.
func (v *Version) Load() uint64 {
	return v.seq.Load()
}

// Writes returns the number of completed write regions.
func (v *Version) Writes() uint64 {
	return v.seq.Load() / 2
}
