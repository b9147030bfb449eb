package bench

import (
	"testing"

	cmdUtil "github.com/ValentinKolb/tsarray/cmd/util"
	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/ValentinKolb/tsarray/lib/lock"
)

func testConfig() *cmdUtil.BenchConfig {
	return &cmdUtil.BenchConfig{
		Engines:    []array.Implementation{array.ImplMono, array.ImplStriped},
		Locks:      []lock.Kind{lock.KindMutex, lock.KindSpinRW},
		Partitions: 4,
		N:          2000,
		Threads:    4,
		ReadRatio:  10,
		BatchSize:  32,
		Optimistic: true,
	}
}

func TestWorkloads(t *testing.T) {
	conf := testConfig()
	benchConfig = conf

	for _, impl := range conf.Engines {
		for _, kind := range conf.Locks {
			for _, wl := range workloads {
				t.Run(string(impl)+"/"+string(kind)+"/"+wl.name, func(t *testing.T) {
					a, err := conf.NewArray(impl, kind, nil, wl.name)
					if err != nil {
						t.Fatalf("NewArray failed: %v", err)
					}

					res := runWorkload(a, wl, conf, conf.Threads)
					if res.elapsed <= 0 {
						t.Errorf("Expected a positive duration")
					}
					if res.latency.Count() == 0 {
						t.Errorf("Expected latency samples")
					}

					switch wl.name {
					case "push", "batch", "read", "random":
						// every element of the share is written exactly once
						if a.Len() != conf.N {
							t.Errorf("Expected %d elements, got %d", conf.N, a.Len())
						}
					case "mixed":
						writes := 0
						for i := 0; i < conf.N/conf.Threads; i++ {
							if i%(conf.ReadRatio+1) == 0 {
								writes++
							}
						}
						if a.Len() != writes*conf.Threads {
							t.Errorf("Expected %d elements, got %d", writes*conf.Threads, a.Len())
						}
					}
				})
			}
		}
	}
}

func TestLockFreeWorkloads(t *testing.T) {
	conf := testConfig()
	benchConfig = conf

	for _, wl := range workloads {
		t.Run(wl.name, func(t *testing.T) {
			c := newLockFree()
			res := runWorkload(c, wl, conf, conf.Threads)
			if res.latency.Count() == 0 {
				t.Errorf("Expected latency samples")
			}
			if wl.name != "mixed" && c.Len() != conf.N {
				t.Errorf("Expected %d elements, got %d", conf.N, c.Len())
			}
			// every reserved slot is published once the workers returned
			if got := len(c.arr.Snapshot()); got != c.Len() {
				t.Errorf("Expected a fully published array, got %d of %d", got, c.Len())
			}
		})
	}

	if _, err := newLockFree().Get(0); err == nil {
		t.Errorf("Expected an error for an unpublished slot")
	}
}

func TestNullPolicyRunsSingleWriter(t *testing.T) {
	benchConfig = testConfig()
	if workerThreads(lock.KindNull, true) != 1 {
		t.Errorf("Null policy writers must run on one goroutine")
	}
	if workerThreads(lock.KindNull, false) != benchConfig.Threads {
		t.Errorf("Null policy readers may run on all goroutines")
	}
}
