package bench

import (
	"math/rand/v2"
	"sync"
	"time"

	cmdUtil "github.com/ValentinKolb/tsarray/cmd/util"
	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/ValentinKolb/tsarray/lib/util"
	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"
)

// sampleEvery is the stride at which a worker records the latency of one operation
const sampleEvery = 64

// --------------------------------------------------------------------------
// Workload definitions
// --------------------------------------------------------------------------

// workload is one barrier-synchronized scenario. Every worker runs fn once.
type workload struct {
	name    string
	prefill bool // container holds N elements before the start
	writes  bool // mutates the container (single writer for the null policy)
	fn      func(w *worker)
}

var workloads = []workload{
	{name: "push", writes: true, fn: pushWorkload},
	{name: "read", prefill: true, fn: readWorkload},
	{name: "mixed", writes: true, fn: mixedWorkload},
	{name: "batch", writes: true, fn: batchWorkload},
	{name: "random", prefill: true, fn: randomWorkload},
}

// worker is the per-goroutine state of a workload run
type worker struct {
	tid, threads int
	conf         *cmdUtil.BenchConfig
	arr          container
	rng          *rand.Rand
	writeIdx     *xsync.Counter // shared by all workers of one run
	samples      *util.LockFreeMPSC[time.Duration]
	ops          int
	sink         int
}

// span returns the [from, to) share of n elements of this worker
func (w *worker) span() (int, int) {
	return w.tid * w.conf.N / w.threads, (w.tid + 1) * w.conf.N / w.threads
}

// measure runs op and records its latency for the first and then every
// sampleEvery'th call
func (w *worker) measure(op func()) {
	w.ops++
	if (w.ops-1)%sampleEvery != 0 {
		op()
		return
	}
	start := time.Now()
	op()
	w.samples.Push(time.Since(start))
}

func pushWorkload(w *worker) {
	from, to := w.span()
	for i := from; i < to; i++ {
		w.measure(func() { w.arr.PushBack(i) })
	}
}

func readWorkload(w *worker) {
	from, to := w.span()
	for i := from; i < to; i++ {
		w.measure(func() {
			if v, err := w.arr.Get(i); err == nil {
				w.sink += v
			}
		})
	}
}

// mixedWorkload interleaves one append with ReadRatio reads at random
// positions below the shared write index.
func mixedWorkload(w *worker) {
	per := w.conf.N / w.threads
	for i := 0; i < per; i++ {
		if i%(w.conf.ReadRatio+1) == 0 {
			v := i + w.tid*w.conf.N
			w.measure(func() { w.arr.PushBack(v) })
			w.writeIdx.Inc()
			continue
		}

		idx := w.rng.IntN(int(w.writeIdx.Value()) + 1)
		w.measure(func() {
			if v, err := w.arr.Get(idx); err == nil {
				w.sink += v
			}
		})
	}
}

func batchWorkload(w *worker) {
	from, to := w.span()
	batch := make([]int, 0, w.conf.BatchSize)
	for i := from; i < to; i += w.conf.BatchSize {
		batch = batch[:0]
		for j := i; j < min(i+w.conf.BatchSize, to); j++ {
			batch = append(batch, j)
		}
		w.measure(func() { w.arr.InsertRange(batch) })
	}
}

func randomWorkload(w *worker) {
	n := w.arr.Len()
	if n == 0 {
		return
	}
	per := w.conf.N / w.threads
	for i := 0; i < per; i++ {
		idx := w.rng.IntN(n)
		w.measure(func() {
			if v, err := w.arr.Get(idx); err == nil {
				w.sink += v
			}
		})
	}
}

// --------------------------------------------------------------------------
// Runner
// --------------------------------------------------------------------------

// result of one workload run
type result struct {
	workload string
	threads  int
	elapsed  time.Duration
	latency  gometrics.Timer
}

// runWorkload prepares a, starts threads workers behind a barrier and
// measures the wall-clock time until all of them finished. Latency samples
// flow through a lock-free queue into a go-metrics timer.
func runWorkload(a container, wl workload, conf *cmdUtil.BenchConfig, threads int) result {
	if wl.prefill {
		values := make([]int, conf.N)
		for i := range values {
			values[i] = i
		}
		if arr, ok := a.(array.Array[int]); ok {
			array.Fill(arr, values, conf.BatchSize)
		} else {
			a.InsertRange(values)
		}
	}

	samples := util.NewLockFreeMPSC[time.Duration]()
	timer := gometrics.NewTimer()
	collected := make(chan struct{})
	go collect(samples, timer, collected)

	writeIdx := xsync.NewCounter()
	seed := util.GenerateSeed()
	start := make(chan struct{})
	var ready, done sync.WaitGroup

	for tid := 0; tid < threads; tid++ {
		ready.Add(1)
		done.Add(1)
		go func() {
			defer done.Done()
			w := &worker{
				tid:      tid,
				threads:  threads,
				conf:     conf,
				arr:      a,
				rng:      rand.New(rand.NewPCG(seed, uint64(tid))),
				writeIdx: writeIdx,
				samples:  samples,
			}
			ready.Done()
			<-start
			wl.fn(w)
		}()
	}

	ready.Wait()
	begin := time.Now()
	close(start)
	done.Wait()
	elapsed := time.Since(begin)

	samples.Close()
	<-collected

	Logger.Debugf("%s finished in %s with %d latency samples", wl.name, elapsed, timer.Count())
	return result{workload: wl.name, threads: threads, elapsed: elapsed, latency: timer}
}

// collect is the single consumer of the sample queue
func collect(samples *util.LockFreeMPSC[time.Duration], timer gometrics.Timer, done chan<- struct{}) {
	defer close(done)
	record := func(d time.Duration) { timer.Update(d) }
	for {
		if samples.Drain(record) > 0 {
			continue
		}
		if samples.IsClosed() {
			// producers are finished once the queue is closed
			samples.Drain(record)
			return
		}
		time.Sleep(50 * time.Microsecond)
	}
}
