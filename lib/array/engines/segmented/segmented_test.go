package segmented

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLocate(t *testing.T) {
	s := New[int](4)

	tests := []struct {
		i   uint64
		seg int
		off uint64
	}{
		{0, 0, 0},
		{3, 0, 3},
		{4, 1, 0},
		{11, 1, 7},
		{12, 2, 0},
		{27, 2, 15},
		{28, 3, 0},
	}

	for _, tt := range tests {
		seg, off := s.locate(tt.i)
		if seg != tt.seg || off != tt.off {
			t.Errorf("locate(%d) = (%d, %d), want (%d, %d)", tt.i, seg, off, tt.seg, tt.off)
		}
	}
}

func TestSequential(t *testing.T) {
	s := New[int](3) // rounded up to 4

	for i := 0; i < 100; i++ {
		if idx := s.PushBack(i * 10); idx != i {
			t.Fatalf("Expected index %d, got %d", i, idx)
		}
	}

	for i := 0; i < 100; i++ {
		v, ok := s.Get(i)
		if !ok || v != i*10 {
			t.Errorf("Get(%d) = (%d, %v), want (%d, true)", i, v, ok, i*10)
		}
	}

	if _, ok := s.Get(100); ok {
		t.Errorf("Get past the end should fail")
	}
	if _, ok := s.Get(-1); ok {
		t.Errorf("Get of a negative index should fail")
	}
	if s.Len() != 100 || s.Cap() < 100 {
		t.Errorf("Unexpected Len/Cap: %d/%d", s.Len(), s.Cap())
	}
	if s.Info().Metadata.(map[string]int)["segment_size"] != 4 {
		t.Errorf("Expected segment size 4")
	}
}

func TestInsertRange(t *testing.T) {
	s := New[string](0)
	s.PushBack("a")
	if first := s.InsertRange([]string{"b", "c", "d"}); first != 1 {
		t.Errorf("Expected first index 1, got %d", first)
	}

	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, s.Snapshot()); diff != "" {
		t.Errorf("Snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentPush(t *testing.T) {
	s := New[int](8)

	const goroutines = 8
	const perGoroutine = 5000

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				idx := s.PushBack(g*perGoroutine + i)
				// a producer always sees its own published value
				if v, ok := s.Get(idx); !ok || v != g*perGoroutine+i {
					t.Errorf("Get(%d) after push = (%d, %v)", idx, v, ok)
				}
			}
		}(g)
	}
	wg.Wait()

	snap := s.Snapshot()
	if len(snap) != goroutines*perGoroutine {
		t.Fatalf("Expected %d published elements, got %d", goroutines*perGoroutine, len(snap))
	}

	seen := make([]bool, goroutines*perGoroutine)
	for _, v := range snap {
		if seen[v] {
			t.Errorf("Duplicate value %d", v)
		}
		seen[v] = true
	}
}
