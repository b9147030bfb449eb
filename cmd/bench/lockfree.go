package bench

import (
	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/ValentinKolb/tsarray/lib/array/engines/segmented"
	"github.com/ValentinKolb/tsarray/lib/lock"
)

// lockFreeKind labels the rows of the segmented engine, which takes no lock policy
const lockFreeKind lock.Kind = "lockfree"

// container is the part of the container API the workloads drive
type container interface {
	PushBack(v int)
	InsertRange(vs []int)
	Get(i int) (int, error)
	Len() int
}

// lockFree drives a segmented array through the workload API. A slot that
// is reserved but not yet published reads as out of range.
type lockFree struct {
	arr *segmented.Segmented[int]
}

func newLockFree() lockFree {
	return lockFree{arr: segmented.New[int](segmented.DefaultSegmentSize)}
}

func (l lockFree) PushBack(v int)       { l.arr.PushBack(v) }
func (l lockFree) InsertRange(vs []int) { l.arr.InsertRange(vs) }
func (l lockFree) Len() int             { return l.arr.Len() }

func (l lockFree) Get(i int) (int, error) {
	v, ok := l.arr.Get(i)
	if !ok {
		return 0, array.ErrIndexOutOfRange
	}
	return v, nil
}
