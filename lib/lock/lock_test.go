package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// --------------------------------------------------------------------------
// Policy conformance
// --------------------------------------------------------------------------

func TestPolicies(t *testing.T) {
	for _, kind := range Kinds() {
		factory, err := Factory(kind)
		if err != nil {
			t.Fatalf("Factory(%s): %v", kind, err)
		}

		t.Run(string(kind), func(t *testing.T) {
			t.Run("MutualExclusion", func(t *testing.T) {
				if kind == KindNull {
					t.Skip("null lock provides no exclusion")
				}
				testMutualExclusion(t, factory())
			})

			t.Run("TryLockWhileHeld", func(t *testing.T) {
				if kind == KindNull {
					t.Skip("null lock provides no exclusion")
				}
				testTryLockWhileHeld(t, factory())
			})

			t.Run("SharedAfterExclusive", func(t *testing.T) {
				testSharedAfterExclusive(t, factory())
			})
		})
	}
}

func testMutualExclusion(t *testing.T, l RWLocker) {
	const goroutines = 8
	const iterations = 2000

	counter := 0
	inside := 0
	var wg sync.WaitGroup

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				l.Lock()
				inside++
				if inside != 1 {
					t.Errorf("Expected exactly one holder, got %d", inside)
				}
				counter++
				inside--
				l.Unlock()
			}
		}()
	}
	wg.Wait()

	if counter != goroutines*iterations {
		t.Errorf("Expected counter %d, got %d", goroutines*iterations, counter)
	}
}

func testTryLockWhileHeld(t *testing.T, l RWLocker) {
	l.Lock()
	if l.TryLock() {
		t.Errorf("TryLock should fail while the lock is held exclusively")
	}
	if l.TryRLock() {
		t.Errorf("TryRLock should fail while the lock is held exclusively")
	}
	l.Unlock()

	if !l.TryLock() {
		t.Fatalf("TryLock should succeed on a free lock")
	}
	l.Unlock()

	l.RLock()
	if l.TryLock() {
		t.Errorf("TryLock should fail while the lock is held in shared mode")
	}
	l.RUnlock()
}

func testSharedAfterExclusive(t *testing.T, l RWLocker) {
	l.Lock()
	l.Unlock()

	if !l.TryRLock() {
		t.Fatalf("TryRLock should succeed on a free lock")
	}
	l.RUnlock()
}

func TestSharedHoldersCoexist(t *testing.T) {
	for _, kind := range []Kind{KindMutex, KindSpinRW} {
		t.Run(string(kind), func(t *testing.T) {
			l := NewRWLocker(kind)
			l.RLock()
			if !l.TryRLock() {
				t.Errorf("A second shared holder should be admitted")
			} else {
				l.RUnlock()
			}
			l.RUnlock()
		})
	}
}

func TestExclusiveAdapterSerializesReaders(t *testing.T) {
	l := Exclusive(&Spin{})
	l.RLock()
	if l.TryRLock() {
		t.Errorf("Shared mode of an exclusive-only policy must exclude other readers")
	}
	l.RUnlock()

	rw := &sync.RWMutex{}
	if Exclusive(rw) != RWLocker(rw) {
		t.Errorf("Exclusive should return an RWLocker unchanged")
	}
}

func TestSpinRWReaderCount(t *testing.T) {
	var l SpinRW
	l.RLock()
	l.RLock()
	if l.Readers() != 2 {
		t.Errorf("Expected 2 readers, got %d", l.Readers())
	}
	l.RUnlock()
	l.RUnlock()
	if l.Readers() != 0 {
		t.Errorf("Expected 0 readers, got %d", l.Readers())
	}
}

func TestSpinMisuse(t *testing.T) {
	cases := map[string]func(){
		"Spin.Unlock":     func() { var l Spin; l.Unlock() },
		"SpinRW.Unlock":   func() { var l SpinRW; l.Unlock() },
		"SpinRW.RUnlock":  func() { var l SpinRW; l.RUnlock() },
		"SpinRW.RUnlockW": func() { var l SpinRW; l.Lock(); l.RUnlock() },
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Expected panic")
				}
			}()
			fn()
		})
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" SpinRW "); err != nil || k != KindSpinRW {
		t.Errorf("Expected spinrw, got %q (%v)", k, err)
	}
	if _, err := ParseKind("ticket"); err == nil {
		t.Errorf("Expected error for unknown kind")
	}
}

// --------------------------------------------------------------------------
// Striped bank
// --------------------------------------------------------------------------

func TestStripedIndexing(t *testing.T) {
	s := NewStriped(8, nil)
	if s.Stripes() != 8 {
		t.Fatalf("Expected 8 stripes, got %d", s.Stripes())
	}
	if s.Stripe(3) != s.Stripe(11) {
		t.Errorf("Stripe should wrap modulo the stripe count")
	}

	for _, key := range []string{"", "a", "partition", "some/longer/key"} {
		idx := s.StripeIndex(key)
		if idx < 0 || idx >= 8 {
			t.Errorf("StripeIndex(%q) = %d out of range", key, idx)
		}
		if idx != s.StripeIndex(key) {
			t.Errorf("StripeIndex(%q) not stable", key)
		}
	}

	if NewStriped(0, nil).Stripes() != DefaultStripes {
		t.Errorf("Expected default stripe count %d", DefaultStripes)
	}
}

func TestStripedLockAll(t *testing.T) {
	s := NewStriped(4, nil)
	s.LockAll()
	for i := 0; i < s.Stripes(); i++ {
		if s.Stripe(i).TryRLock() {
			t.Errorf("Stripe %d should be held", i)
		}
	}
	s.UnlockAll()

	s.RLockAll()
	for i := 0; i < s.Stripes(); i++ {
		if s.Stripe(i).TryLock() {
			t.Errorf("Stripe %d should be held in shared mode", i)
		}
	}
	s.RUnlockAll()

	unlock := s.LockKey("k")
	if s.Stripe(s.StripeIndex("k")).TryLock() {
		t.Errorf("Stripe of key should be held")
	}
	unlock()

	runlock := s.RLockKey("k")
	if !s.Stripe(s.StripeIndex("k")).TryRLock() {
		t.Errorf("Shared stripe of key should admit another reader")
	} else {
		s.Stripe(s.StripeIndex("k")).RUnlock()
	}
	if s.Stripe(s.StripeIndex("k")).TryLock() {
		t.Errorf("Shared stripe of key should exclude writers")
	}
	runlock()
	if !s.Stripe(s.StripeIndex("k")).TryLock() {
		t.Errorf("Stripe of key should be released")
	} else {
		s.Stripe(s.StripeIndex("k")).Unlock()
	}
}

func TestStripedLockSetDeduplicates(t *testing.T) {
	s := NewStriped(4, nil)
	// duplicates and wrap-around would self-deadlock without normalisation
	unlock := s.LockSet([]int{3, 1, 7, 1, 5}, false)
	if !s.Stripe(0).TryLock() {
		t.Errorf("Stripe 0 should be free")
	} else {
		s.Stripe(0).Unlock()
	}
	if s.Stripe(1).TryLock() || s.Stripe(3).TryLock() {
		t.Errorf("Stripes 1 and 3 should be held")
	}
	unlock()

	if !s.Stripe(1).TryLock() {
		t.Errorf("Stripe 1 should be released")
	} else {
		s.Stripe(1).Unlock()
	}
}

func TestStripedNoDeadlock(t *testing.T) {
	s := NewStriped(8, func() RWLocker { return &SpinRW{} })
	done := make(chan struct{})

	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 500; i++ {
					switch (g + i) % 3 {
					case 0:
						s.LockAll()
						s.UnlockAll()
					case 1:
						unlock := s.LockSet([]int{g, i, g + i}, i%2 == 0)
						unlock()
					default:
						s.RLockAll()
						s.RUnlockAll()
					}
				}
			}(g)
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Ordered multi-stripe acquisition did not finish (deadlock?)")
	}
}

// --------------------------------------------------------------------------
// Context acquisition
// --------------------------------------------------------------------------

func TestAcquireTimeout(t *testing.T) {
	l := &sync.RWMutex{}
	l.Lock()
	defer l.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	err := Acquire(ctx, l)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected error to wrap context.DeadlineExceeded, got %v", err)
	}
}

func TestAcquireCanceled(t *testing.T) {
	l := &SpinRW{}
	l.Lock()
	defer l.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := AcquireShared(ctx, l); !errors.Is(err, ErrCanceled) {
		t.Errorf("Expected ErrCanceled, got %v", err)
	}
}

func TestAcquireAfterRelease(t *testing.T) {
	l := &Spin{}
	l.Lock()
	go func() {
		time.Sleep(2 * time.Millisecond)
		l.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Acquire(ctx, l); err != nil {
		t.Fatalf("Expected acquisition after release, got %v", err)
	}
	l.Unlock()
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

func BenchmarkPolicies(b *testing.B) {
	for _, kind := range []Kind{KindMutex, KindSpin, KindSpinRW} {
		b.Run(string(kind)+"/Lock", func(b *testing.B) {
			l := NewRWLocker(kind)
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					l.Lock()
					l.Unlock()
				}
			})
		})
		b.Run(string(kind)+"/RLock", func(b *testing.B) {
			l := NewRWLocker(kind)
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					l.RLock()
					l.RUnlock()
				}
			})
		})
	}
}
