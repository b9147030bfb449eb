package mono

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/tsarray/lib/array"
	arraytesting "github.com/ValentinKolb/tsarray/lib/array/testing"
	"github.com/ValentinKolb/tsarray/lib/lock"
	"github.com/google/go-cmp/cmp"
)

func factoryFor(kind lock.Kind) arraytesting.ArrayFactory {
	return func() array.Array[int] {
		opts := DefaultOptions()
		opts.NewLock = func() lock.RWLocker { return lock.NewRWLocker(kind) }
		return New[int](opts)
	}
}

func Test(t *testing.T) {
	arraytesting.RunArrayTests(t, "Mono", func() array.Array[int] {
		return New[int](nil)
	})
	arraytesting.RunArrayTests(t, "Mono(spinrw)", factoryFor(lock.KindSpinRW))
	arraytesting.RunArrayTests(t, "Mono(spin)", factoryFor(lock.KindSpin))
}

func Benchmark(b *testing.B) {
	arraytesting.RunArrayBenchmarks(b, "Mono", func() array.Array[int] {
		return New[int](nil)
	})
}

// --------------------------------------------------------------------------
// Optimistic reads
// --------------------------------------------------------------------------

func TestOptimisticGet(t *testing.T) {
	m := NewFrom([]int{10, 20, 30}, nil)

	for i, want := range []int{10, 20, 30} {
		v, err := m.OptimisticGet(i)
		if err != nil || v != want {
			t.Errorf("OptimisticGet(%d) = (%d, %v), want %d", i, v, err, want)
		}
	}

	if _, err := m.OptimisticGet(3); !errors.Is(err, array.ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}

	hits := m.Info().Counters["optimistic_hits"]
	if raceEnabled && hits != 0 {
		t.Errorf("Optimistic fast path must be disabled under the race detector")
	}
	if !raceEnabled && hits != 3 {
		t.Errorf("Expected 3 optimistic hits without writers, got %d", hits)
	}
}

// Every element is a pair with equal halves. A torn read would surface as
// a pair with different halves.
func TestOptimisticGetNeverTorn(t *testing.T) {
	const n = 64
	m := New[[2]int](nil)
	for i := 0; i < n; i++ {
		m.PushBack([2]int{i, i})
	}

	stop := make(chan struct{})
	var writers sync.WaitGroup
	for w := 0; w < 2; w++ {
		writers.Add(1)
		go func(w int) {
			defer writers.Done()
			for k := 0; ; k++ {
				select {
				case <-stop:
					return
				default:
				}
				_ = m.Set(k%n, [2]int{k, k})
				if k%16 == 0 {
					m.PushBack([2]int{-k, -k})
					m.Erase(m.Len() - 1)
				}
			}
		}(w)
	}

	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func(r int) {
			defer readers.Done()
			for k := 0; k < 20000; k++ {
				v, err := m.OptimisticGet((k + r) % n)
				if err != nil {
					t.Errorf("OptimisticGet failed: %v", err)
					return
				}
				if v[0] != v[1] {
					t.Errorf("Torn read: %v", v)
					return
				}
			}
		}(r)
	}

	readers.Wait()
	close(stop)
	writers.Wait()

	c := m.Info().Counters
	if c["optimistic_hits"]+c["optimistic_fallbacks"] == 0 && !raceEnabled {
		t.Errorf("Expected optimistic reads to be counted")
	}
}

func TestOptimisticDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.OptimisticReads = false
	m := NewFrom([]string{"a", "b"}, opts)

	if m.SupportsFeature(array.FeatureOptimisticRead) {
		t.Errorf("Feature must not be reported when optimistic reads are disabled")
	}
	if v, err := m.OptimisticGet(1); err != nil || v != "b" {
		t.Errorf("OptimisticGet(1) = (%q, %v), want b", v, err)
	}
	if m.Info().Counters["optimistic_hits"] != 0 {
		t.Errorf("Disabled fast path must not count hits")
	}
}

func TestVersionAdvances(t *testing.T) {
	m := New[int](nil)
	start := m.Version()
	if start%2 != 0 {
		t.Fatalf("Idle version must be even, got %d", start)
	}

	m.PushBack(1)
	m.InsertRange([]int{2, 3})
	_ = m.Set(0, 5)

	if got := m.Version(); got != start+6 {
		t.Errorf("Expected version %d after three writes, got %d", start+6, got)
	}

	// reads do not touch the version
	_, _ = m.Get(0)
	_ = m.Snapshot()
	if got := m.Version(); got != start+6 {
		t.Errorf("Reads must not advance the version, got %d", got)
	}
}

// --------------------------------------------------------------------------
// Concrete-type operations
// --------------------------------------------------------------------------

func TestConditionalAction(t *testing.T) {
	m := NewFrom([]int{1, 2, 3}, nil)

	ran := m.ConditionalAction(
		func(data []int) bool { return len(data) > 5 },
		func(data []int) []int { return append(data, 99) },
	)
	if ran {
		t.Errorf("Action must not run when the predicate is false")
	}

	ran = m.ConditionalAction(
		func(data []int) bool { return data[len(data)-1] == 3 },
		func(data []int) []int { return append(data[:1], 4) },
	)
	if !ran {
		t.Errorf("Action should run when the predicate is true")
	}
	if diff := cmp.Diff([]int{1, 4}, m.Snapshot()); diff != "" {
		t.Errorf("Unexpected contents (-want +got):\n%s", diff)
	}
}

func TestTryPushBackWhileWriterHolds(t *testing.T) {
	m := New[int](nil)
	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		m.ConditionalAction(func([]int) bool {
			close(holding)
			<-release
			return false
		}, nil)
	}()

	<-holding
	if m.TryPushBack(1) {
		t.Errorf("TryPushBack must fail while a writer holds the lock")
	}
	if m.TryEmplaceBack(func(v *int) { *v = 2 }) {
		t.Errorf("TryEmplaceBack must fail while a writer holds the lock")
	}
	close(release)
	<-done

	if m.Len() != 0 {
		t.Errorf("Failed try operations must not write, length %d", m.Len())
	}
	if m.Info().Counters["try_lock_failures"] != 2 {
		t.Errorf("Expected 2 counted try-lock failures, got %d", m.Info().Counters["try_lock_failures"])
	}
}

func TestSwap(t *testing.T) {
	a := NewFrom([]int{1, 2, 3}, nil)
	b := NewFrom([]int{9}, nil)

	a.Swap(b)
	if diff := cmp.Diff([]int{9}, a.Snapshot()); diff != "" {
		t.Errorf("Unexpected a after swap (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, b.Snapshot()); diff != "" {
		t.Errorf("Unexpected b after swap (-want +got):\n%s", diff)
	}

	// optimistic readers see the swapped header
	if v, err := b.OptimisticGet(2); err != nil || v != 3 {
		t.Errorf("OptimisticGet after swap = (%d, %v), want 3", v, err)
	}

	a.Swap(a)
	a.Swap(nil)
	if a.Len() != 1 {
		t.Errorf("Self swap must be a no-op")
	}
}

func TestSwapClearTraversalLiveness(t *testing.T) {
	a := NewFrom([]int{1, 2, 3}, nil)
	b := NewFrom([]int{4, 5}, nil)
	deadline := time.Now().Add(100 * time.Millisecond)
	done := make(chan struct{})

	go func() {
		defer close(done)
		var wg sync.WaitGroup
		ops := []func(){
			func() { a.Swap(b) },
			func() { b.Swap(a) },
			func() { a.Clear(); a.PushBack(1) },
			func() { b.Clear(); b.PushBack(2) },
			func() { a.ForEach(func(int) {}) },
			func() { b.ForEach(func(int) {}) },
			func() { _ = a.Snapshot(); _ = b.Snapshot() },
		}
		for _, op := range ops {
			wg.Add(1)
			go func(op func()) {
				defer wg.Done()
				for time.Now().Before(deadline) {
					op()
				}
			}(op)
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Concurrent Swap/Clear/ForEach did not finish (deadlock?)")
	}
}

// --------------------------------------------------------------------------
// Lock policies and instrumentation
// --------------------------------------------------------------------------

func TestNullLockSingleGoroutine(t *testing.T) {
	opts := DefaultOptions()
	opts.NewLock = func() lock.RWLocker { return &lock.Null{} }
	m := New[int](opts)

	for i := 0; i < 10; i++ {
		m.PushBack(i)
	}
	m.EraseRange(2, 5)
	if diff := cmp.Diff([]int{0, 1, 5, 6, 7, 8, 9}, m.Snapshot()); diff != "" {
		t.Errorf("Unexpected contents (-want +got):\n%s", diff)
	}
	if !m.TryPushBack(10) {
		t.Errorf("Null lock try operations always succeed")
	}
}

func TestMetricsExport(t *testing.T) {
	opts := DefaultOptions()
	opts.Name = "export"
	m := NewFrom([]int{1, 2}, opts)

	var buf bytes.Buffer
	m.Metrics().WritePrometheus(&buf)
	out := buf.String()

	for _, want := range []string{
		`tsarray_elements{engine="mono",array="export"} 2`,
		`tsarray_try_lock_failures_total{engine="mono",array="export"} 0`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in:\n%s", want, out)
		}
	}
}

func BenchmarkOptimisticGet(b *testing.B) {
	m := New[int](nil)
	for i := 0; i < 1024; i++ {
		m.PushBack(i)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = m.OptimisticGet(i & 1023)
			i++
		}
	})
}
