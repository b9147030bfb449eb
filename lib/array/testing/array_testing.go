package testing

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/google/go-cmp/cmp"
	"github.com/puzpuzpuz/xsync/v3"
)

// ArrayFactory is a function that creates a new, empty container
type ArrayFactory func() array.Array[int]

// RunArrayTests runs the conformance suite for a container implementation.
// The factory must return containers backed by a real (non-null) lock policy.
func RunArrayTests(t *testing.T, name string, factory ArrayFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("PushGet", func(t *testing.T) {
			testPushGet(t, factory())
		})

		t.Run("ScenarioEraseRange", func(t *testing.T) {
			testScenarioEraseRange(t, factory())
		})

		t.Run("ModelBased", func(t *testing.T) {
			testModelBased(t, factory())
		})

		t.Run("Errors", func(t *testing.T) {
			testErrors(t, factory())
		})

		t.Run("EraseRangeProperties", func(t *testing.T) {
			testEraseRangeProperties(t, factory)
		})

		t.Run("FindIf", func(t *testing.T) {
			testFindIf(t, factory())
		})

		t.Run("Emplace", func(t *testing.T) {
			testEmplace(t, factory())
		})

		t.Run("EmplacePanic", func(t *testing.T) {
			testEmplacePanic(t, factory())
		})

		t.Run("ClearReserve", func(t *testing.T) {
			testClearReserve(t, factory())
		})

		t.Run("Batch", func(t *testing.T) {
			testBatch(t, factory())
		})

		t.Run("RoundTrip", func(t *testing.T) {
			testRoundTrip(t, factory)
		})

		t.Run("SelfConsistency", func(t *testing.T) {
			testSelfConsistency(t, factory())
		})

		t.Run("ForEachConcurrent", func(t *testing.T) {
			testForEachConcurrent(t, factory())
		})

		t.Run("TryWhileLocked", func(t *testing.T) {
			testTryWhileLocked(t, factory())
		})

		t.Run("ConcurrentPush", func(t *testing.T) {
			testConcurrentPush(t, factory(), 8, 1000)
		})

		t.Run("TryPushBackContention", func(t *testing.T) {
			testTryPushBackContention(t, factory())
		})

		t.Run("Liveness", func(t *testing.T) {
			testLiveness(t, factory())
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the container supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, a array.Array[int], feature array.Feature) {
	if !a.SupportsFeature(feature) {
		t.Skip()
	}
}

// sequence returns [from, from+1, ..., to-1]
func sequence(from, to int) []int {
	out := make([]int, 0, max(to-from, 0))
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

// insertionPoint returns the position p such that got == old[:p] + run + old[p:],
// or -1 if got is not such a sequence.
func insertionPoint(old, got, run []int) int {
	if len(got) != len(old)+len(run) {
		return -1
	}
	for p := 0; p <= len(old); p++ {
		if slices.Equal(got[:p], old[:p]) &&
			slices.Equal(got[p:p+len(run)], run) &&
			slices.Equal(got[p+len(run):], old[p:]) {
			return p
		}
	}
	return -1
}

// requireSequence fails the test if got differs from want (nil and empty are equal)
func requireSequence(t testing.TB, msg string, want, got []int) {
	t.Helper()
	if !slices.Equal(want, got) {
		t.Errorf("%s (-want +got):\n%s", msg, cmp.Diff(want, got))
	}
}

// multiset counts the occurrences of each value
func multiset(vs []int) map[int]int {
	m := make(map[int]int, len(vs))
	for _, v := range vs {
		m[v]++
	}
	return m
}

// recorder tracks values accepted by the container from many goroutines
type recorder struct {
	counts *xsync.MapOf[int, int]
}

func newRecorder() *recorder {
	return &recorder{counts: xsync.NewMapOf[int, int]()}
}

func (r *recorder) add(v int) {
	r.counts.Compute(v, func(old int, _ bool) (int, bool) {
		return old + 1, false
	})
}

func (r *recorder) toMap() map[int]int {
	m := make(map[int]int, r.counts.Size())
	r.counts.Range(func(k, v int) bool {
		m[k] = v
		return true
	})
	return m
}

func (r *recorder) total() int {
	n := 0
	r.counts.Range(func(_, v int) bool {
		n += v
		return true
	})
	return n
}

// --------------------------------------------------------------------------
// Sequential tests
// --------------------------------------------------------------------------

func testPushGet(t *testing.T, a array.Array[int]) {
	if !a.Empty() {
		t.Fatalf("New container should be empty")
	}

	const n = 100
	for i := 0; i < n; i++ {
		a.PushBack(i)
	}

	if a.Len() != n {
		t.Fatalf("Expected length %d, got %d", n, a.Len())
	}

	snap := a.Snapshot()
	if diff := cmp.Diff(multiset(sequence(0, n)), multiset(snap)); diff != "" {
		t.Errorf("Snapshot content mismatch (-want +got):\n%s", diff)
	}

	for i := 0; i < n; i++ {
		v, err := a.Get(i)
		if err != nil {
			t.Fatalf("Get(%d) failed: %v", i, err)
		}
		if v != snap[i] {
			t.Errorf("Get(%d) = %d, snapshot has %d", i, v, snap[i])
		}
		if a.At(i) != v {
			t.Errorf("At(%d) disagrees with Get", i)
		}
	}

	if a.SupportsFeature(array.FeatureOrderedAppend) {
		if diff := cmp.Diff(sequence(0, n), snap); diff != "" {
			t.Errorf("Ordered engine lost append order (-want +got):\n%s", diff)
		}
	}
}

func testScenarioEraseRange(t *testing.T, a array.Array[int]) {
	// one run keeps the values contiguous on every engine
	a.InsertRange(sequence(0, 10))

	for i := 0; i < 10; i++ {
		v, err := a.Get(i)
		if err != nil || v != i {
			t.Fatalf("Get(%d) = (%d, %v), want %d", i, v, err, i)
		}
	}

	if !a.EraseRange(2, 5) {
		t.Fatalf("EraseRange(2, 5) should succeed")
	}
	if diff := cmp.Diff([]int{0, 1, 5, 6, 7, 8, 9}, a.Snapshot()); diff != "" {
		t.Errorf("Unexpected sequence after EraseRange (-want +got):\n%s", diff)
	}
	if a.Len() != 7 {
		t.Errorf("Expected length 7, got %d", a.Len())
	}
}

func testModelBased(t *testing.T, a array.Array[int]) {
	rng := rand.New(rand.NewSource(42))
	ordered := a.SupportsFeature(array.FeatureOrderedAppend)
	var model []int
	next := 0

	for step := 0; step < 2000; step++ {
		op := rng.Intn(10)
		switch {
		case op < 4: // push
			v := next
			next++
			a.PushBack(v)
			got := a.Snapshot()
			p := insertionPoint(model, got, []int{v})
			if p < 0 || (ordered && p != len(model)) {
				t.Fatalf("step %d: push %d produced %v from %v", step, v, got, model)
			}
			model = got

		case op < 5: // insert range
			run := sequence(next, next+rng.Intn(5)+1)
			next += len(run)
			a.InsertRange(run)
			got := a.Snapshot()
			p := insertionPoint(model, got, run)
			if p < 0 || (ordered && p != len(model)) {
				t.Fatalf("step %d: insert range %v produced %v from %v", step, run, got, model)
			}
			model = got

		case op < 7: // set
			i := rng.Intn(len(model) + 2)
			v := -next
			next++
			err := a.Set(i, v)
			if i < len(model) {
				if err != nil {
					t.Fatalf("step %d: Set(%d) failed: %v", step, i, err)
				}
				model[i] = v
			} else if !errors.Is(err, array.ErrIndexOutOfRange) {
				t.Fatalf("step %d: Set(%d) out of range returned %v", step, i, err)
			}

		case op < 9: // erase
			i := rng.Intn(len(model) + 2)
			ok := a.Erase(i)
			if ok != (i < len(model)) {
				t.Fatalf("step %d: Erase(%d) = %v with length %d", step, i, ok, len(model))
			}
			if ok {
				model = slices.Delete(model, i, i+1)
			}

		default: // erase range
			first := rng.Intn(len(model) + 1)
			last := first + rng.Intn(len(model)-first+2)
			ok := a.EraseRange(first, last)
			valid := last <= len(model)
			if ok != valid {
				t.Fatalf("step %d: EraseRange(%d, %d) = %v with length %d", step, first, last, ok, len(model))
			}
			if ok {
				model = slices.Delete(model, first, last)
			}
		}

		if a.Len() != len(model) {
			t.Fatalf("step %d: length %d, model %d", step, a.Len(), len(model))
		}
		if got := a.Snapshot(); !slices.Equal(model, got) {
			t.Fatalf("step %d: sequence diverged from model (-want +got):\n%s", step, cmp.Diff(model, got))
		}
	}
}

func testErrors(t *testing.T, a array.Array[int]) {
	a.InsertRange([]int{1, 2, 3})

	for _, i := range []int{-1, 3, 100} {
		if _, err := a.Get(i); !errors.Is(err, array.ErrIndexOutOfRange) {
			t.Errorf("Get(%d): expected ErrIndexOutOfRange, got %v", i, err)
		}
		if err := a.Set(i, 0); !errors.Is(err, array.ErrIndexOutOfRange) {
			t.Errorf("Set(%d): expected ErrIndexOutOfRange, got %v", i, err)
		}
		if a.Erase(i) {
			t.Errorf("Erase(%d) should be a no-op", i)
		}
	}

	var aerr *array.Error
	if _, err := a.Get(7); !errors.As(err, &aerr) || aerr.Code != array.RetCIndexOutOfRange {
		t.Errorf("Expected *array.Error with IndexOutOfRange code, got %v", err)
	}

	func() {
		defer func() {
			r := recover()
			err, ok := r.(error)
			if !ok || !errors.Is(err, array.ErrIndexOutOfRange) {
				t.Errorf("At out of range should panic with ErrIndexOutOfRange, got %v", r)
			}
		}()
		a.At(3)
	}()

	if diff := cmp.Diff([]int{1, 2, 3}, a.Snapshot()); diff != "" {
		t.Errorf("Failed operations must not modify the container (-want +got):\n%s", diff)
	}
}

func testEraseRangeProperties(t *testing.T, factory ArrayFactory) {
	const n = 20

	tests := []struct {
		first, last int
		valid       bool
	}{
		{0, 0, true},
		{0, n, true},
		{5, 5, true},
		{0, 1, true},
		{n - 1, n, true},
		{3, 17, true},
		{n, n, true},
		{5, 4, false},
		{-1, 3, false},
		{0, n + 1, false},
		{n + 1, n + 2, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("[%d,%d)", tt.first, tt.last), func(t *testing.T) {
			a := factory()
			a.InsertRange(sequence(0, n))

			ok := a.EraseRange(tt.first, tt.last)
			if ok != tt.valid {
				t.Fatalf("EraseRange returned %v, want %v", ok, tt.valid)
			}

			want := sequence(0, n)
			if tt.valid {
				want = slices.Delete(want, tt.first, tt.last)
				if a.Len() != n-(tt.last-tt.first) {
					t.Errorf("Expected length %d, got %d", n-(tt.last-tt.first), a.Len())
				}
			}
			requireSequence(t, "Unexpected sequence", want, a.Snapshot())
		})
	}
}

func testFindIf(t *testing.T, a array.Array[int]) {
	if a.FindIf(func(int) bool { return true }) != array.NotFound {
		t.Errorf("FindIf on an empty container should return NotFound")
	}

	a.InsertRange([]int{4, 8, 15, 16, 23, 42})

	if idx := a.FindIf(func(v int) bool { return v > 10 }); idx != 2 {
		t.Errorf("Expected first match at 2, got %d", idx)
	}
	if idx := array.Find(a, 42); idx != 5 {
		t.Errorf("Find(42) = %d, want 5", idx)
	}
	if array.Contains(a, 7) {
		t.Errorf("Contains(7) should be false")
	}
	if array.Find(a, 7) != array.NotFound {
		t.Errorf("Find(7) should return NotFound")
	}
}

func testEmplace(t *testing.T, a array.Array[int]) {
	a.EmplaceBack(func(v *int) {
		if *v != 0 {
			t.Errorf("Emplaced slot should start as the zero value")
		}
		*v = 42
	})
	a.EmplaceBack(nil)

	if a.Len() != 2 {
		t.Fatalf("Expected length 2, got %d", a.Len())
	}
	if !array.Contains(a, 42) || !array.Contains(a, 0) {
		t.Errorf("Expected 42 and 0 in %v", a.Snapshot())
	}

	if !a.TryEmplaceBack(func(v *int) { *v = 7 }) {
		t.Errorf("TryEmplaceBack on an uncontended container should succeed")
	}
	if !array.Contains(a, 7) {
		t.Errorf("Expected 7 in %v", a.Snapshot())
	}
}

// testEmplacePanic checks that a panicking init leaves no element behind and
// releases every lock it took.
func testEmplacePanic(t *testing.T, a array.Array[int]) {
	a.PushBack(1)

	emplaces := map[string]func(func(*int)){
		"EmplaceBack":    func(init func(*int)) { a.EmplaceBack(init) },
		"TryEmplaceBack": func(init func(*int)) { a.TryEmplaceBack(init) },
	}
	for name, emplace := range emplaces {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected the init panic to propagate", name)
				}
			}()
			emplace(func(v *int) {
				*v = -1
				panic("init failed")
			})
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.PushBack(2)
		_ = a.Snapshot()
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("PushBack blocked after a panicking init")
	}

	if diff := cmp.Diff(map[int]int{1: 1, 2: 1}, multiset(a.Snapshot())); diff != "" {
		t.Errorf("Unexpected elements after a panicking init (-want +got):\n%s", diff)
	}
	if a.Len() != 2 {
		t.Errorf("Expected length 2, got %d", a.Len())
	}
}

func testClearReserve(t *testing.T, a array.Array[int]) {
	a.Reserve(128)
	if a.Cap() < 128 {
		t.Errorf("Expected capacity >= 128 after Reserve, got %d", a.Cap())
	}
	if a.Len() != 0 {
		t.Errorf("Reserve must not change the length")
	}

	array.Fill(a, sequence(0, 50), 8)
	if a.Len() != 50 {
		t.Fatalf("Expected length 50, got %d", a.Len())
	}

	a.Clear()
	if !a.Empty() || a.Len() != 0 {
		t.Errorf("Expected empty container after Clear, got length %d", a.Len())
	}
	if len(a.Snapshot()) != 0 {
		t.Errorf("Snapshot after Clear should be empty")
	}

	a.PushBack(1)
	if a.Len() != 1 {
		t.Errorf("Container should be usable after Clear")
	}
}

func testBatch(t *testing.T, a array.Array[int]) {
	requireFeature(t, a, array.FeatureBatch)

	a.InsertRange(sequence(0, 10))

	values, found := a.BatchGet([]int{9, 0, 10, 3, -1, 3})
	if diff := cmp.Diff([]bool{true, true, false, true, false, true}, found); diff != "" {
		t.Errorf("Unexpected found flags (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{9, 0, 0, 3, 0, 3}, values); diff != "" {
		t.Errorf("Unexpected values (-want +got):\n%s", diff)
	}

	applied, err := a.BatchSet([]int{1, 12, 5, 5}, []int{100, 200, 500, 501})
	if err != nil {
		t.Fatalf("BatchSet failed: %v", err)
	}
	if diff := cmp.Diff([]bool{true, false, true, true}, applied); diff != "" {
		t.Errorf("Unexpected applied flags (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 100, 2, 3, 4, 501, 6, 7, 8, 9}, a.Snapshot()); diff != "" {
		t.Errorf("Unexpected sequence after BatchSet (-want +got):\n%s", diff)
	}

	if _, err := a.BatchSet([]int{1, 2}, []int{1}); !errors.Is(err, array.ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
	if v, _ := a.Get(2); v != 2 {
		t.Errorf("A rejected BatchSet must not write, got %d at 2", v)
	}

	values, found = a.BatchGet(nil)
	if len(values) != 0 || len(found) != 0 {
		t.Errorf("Empty batch should return empty results")
	}
}

func testRoundTrip(t *testing.T, factory ArrayFactory) {
	a := factory()
	for i := 0; i < 64; i++ {
		a.PushBack(i * 3)
	}
	first := a.Snapshot()

	b := factory()
	b.InsertRange(first)
	second := b.Snapshot()

	requireSequence(t, "Round trip changed the sequence", first, second)

	// the copy is caller-owned
	first[0] = -1
	if v, _ := a.Get(0); v == -1 {
		t.Errorf("Snapshot must not alias container storage")
	}
}

func testSelfConsistency(t *testing.T, a array.Array[int]) {
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				a.PushBack(g*1000 + i)
			}
		}(g)
	}
	wg.Wait()

	snap := a.Snapshot()
	for i := range snap {
		v1, err1 := a.Get(i)
		v2, err2 := a.Get(i)
		if err1 != nil || err2 != nil {
			t.Fatalf("Get(%d) failed: %v / %v", i, err1, err2)
		}
		if v1 != v2 || v1 != snap[i] {
			t.Fatalf("Get(%d) not deterministic: %d, %d, snapshot %d", i, v1, v2, snap[i])
		}
	}
}

func testForEachConcurrent(t *testing.T, a array.Array[int]) {
	for i := 1; i <= 100; i++ {
		a.PushBack(i)
	}

	var sum atomic.Int64
	if err := a.ForEachConcurrent(context.Background(), func(v int) error {
		sum.Add(int64(v))
		return nil
	}); err != nil {
		t.Fatalf("ForEachConcurrent failed: %v", err)
	}
	if sum.Load() != 5050 {
		t.Errorf("Expected sum 5050, got %d", sum.Load())
	}

	var seq []int
	a.ForEach(func(v int) { seq = append(seq, v) })
	requireSequence(t, "ForEach order differs from Snapshot", a.Snapshot(), seq)

	errStop := errors.New("stop")
	err := a.ForEachConcurrent(context.Background(), func(v int) error {
		if v == 50 {
			return errStop
		}
		return nil
	})
	if !errors.Is(err, errStop) {
		t.Errorf("Expected callback error to be returned, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.ForEachConcurrent(ctx, func(int) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func testTryWhileLocked(t *testing.T, a array.Array[int]) {
	requireFeature(t, a, array.FeatureTryOps)

	a.PushBack(1)

	// ForEach holds the shared locks of the whole container
	a.ForEach(func(int) {
		if a.TryPushBack(2) {
			t.Errorf("TryPushBack should fail while the container is read-locked")
		}
		if a.TryEmplaceBack(func(v *int) { *v = 3 }) {
			t.Errorf("TryEmplaceBack should fail while the container is read-locked")
		}
	})

	requireSequence(t, "Failed try operations must not write", []int{1}, a.Snapshot())

	if !a.TryPushBack(2) {
		t.Errorf("TryPushBack should succeed once the lock is free")
	}
}

// --------------------------------------------------------------------------
// Concurrent tests
// --------------------------------------------------------------------------

func testConcurrentPush(t *testing.T, a array.Array[int], goroutines, perGoroutine int) {
	CheckConcurrentPush(t, a, goroutines, perGoroutine)
}

// CheckConcurrentPush runs goroutines*perGoroutine disjoint PushBack calls and
// checks the size and the multiset of the resulting snapshot. It is exported
// so engine packages can run it with their own dimensions.
func CheckConcurrentPush(t testing.TB, a array.Array[int], goroutines, perGoroutine int) {
	pushed := newRecorder()
	var wg sync.WaitGroup

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				v := g*perGoroutine + i
				a.PushBack(v)
				pushed.add(v)
			}
		}(g)
	}
	wg.Wait()

	if a.Len() != goroutines*perGoroutine {
		t.Errorf("Expected length %d, got %d", goroutines*perGoroutine, a.Len())
	}
	if diff := cmp.Diff(pushed.toMap(), multiset(a.Snapshot())); diff != "" {
		t.Errorf("Snapshot multiset differs from pushed values (-want +got):\n%s", diff)
	}
}

func testTryPushBackContention(t *testing.T, a array.Array[int]) {
	requireFeature(t, a, array.FeatureTryOps)

	accepted := newRecorder()
	var attempts atomic.Int64
	var wg sync.WaitGroup

	const writers = 8
	const perWriter = 2000

	for g := 0; g < writers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				v := g*perWriter + i
				attempts.Add(1)
				if g%2 == 0 {
					// blocking writers create contention for the try writers
					a.PushBack(v)
					accepted.add(v)
				} else if a.TryPushBack(v) {
					accepted.add(v)
				}
			}
		}(g)
	}

	// readers holding shared locks make try writers fail now and then
	stop := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = a.Snapshot()
			}
		}
	}()

	wg.Wait()
	close(stop)
	readers.Wait()

	if a.Len() != accepted.total() {
		t.Errorf("Length %d differs from the %d accepted writes", a.Len(), accepted.total())
	}
	if diff := cmp.Diff(accepted.toMap(), multiset(a.Snapshot())); diff != "" {
		t.Errorf("Contents differ from accepted writes (-want +got):\n%s", diff)
	}
	if attempts.Load() != writers*perWriter {
		t.Errorf("Expected %d attempts, got %d", writers*perWriter, attempts.Load())
	}
}

func testLiveness(t *testing.T, a array.Array[int]) {
	const duration = 100 * time.Millisecond
	done := make(chan struct{})

	go func() {
		defer close(done)
		deadline := time.Now().Add(duration)
		var wg sync.WaitGroup

		ops := []func(i int){
			func(i int) { a.PushBack(i) },
			func(i int) { a.InsertRange([]int{i, i + 1}) },
			func(i int) { _, _ = a.Get(i % 16) },
			func(i int) { a.Erase(i % 8) },
			func(i int) { a.EraseRange(0, min(2, a.Len())) },
			func(i int) { _, _ = a.BatchSet([]int{i % 4, i % 7}, []int{i, i}) },
			func(i int) { a.BatchGet([]int{i % 3, i % 11, i % 5}) },
			func(int) { a.ForEach(func(int) {}) },
			func(int) { _ = a.Snapshot() },
			func(int) { _ = a.Len() },
			func(int) {
				_ = a.ForEachConcurrent(context.Background(), func(int) error { return nil })
			},
			func(int) {
				if a.Len() > 512 {
					a.Clear()
				}
			},
		}

		for g, op := range ops {
			wg.Add(1)
			go func(g int, op func(int)) {
				defer wg.Done()
				for i := g; time.Now().Before(deadline); i++ {
					op(i)
				}
			}(g, op)
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Concurrent mixed operations did not finish (deadlock?)")
	}

	// the container must still be consistent afterwards
	if a.Len() != len(a.Snapshot()) {
		t.Errorf("Length %d disagrees with snapshot length %d", a.Len(), len(a.Snapshot()))
	}
}

func testInfo(t *testing.T, a array.Array[int]) {
	a.InsertRange(sequence(0, 5))
	info := a.Info()

	if info.Len != 5 {
		t.Errorf("Expected Info.Len 5, got %d", info.Len)
	}
	if info.Impl == "" {
		t.Errorf("Info.Impl should be set")
	}
	if info.Cap < info.Len {
		t.Errorf("Info.Cap %d smaller than Info.Len %d", info.Cap, info.Len)
	}
	if info.Partitions < 1 {
		t.Errorf("Expected at least one partition")
	}
	for _, f := range info.SupportedFeatures {
		if !a.SupportsFeature(f) {
			t.Errorf("Info lists %s but SupportsFeature denies it", f)
		}
	}
}
