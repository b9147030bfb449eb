package testing

import (
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/tsarray/lib/array"
)

const (
	benchBatchSize = 128
	benchReadRatio = 10
	benchPrefill   = 100_000
)

// RunArrayBenchmarks runs all benchmarks for a container implementation
func RunArrayBenchmarks(b *testing.B, name string, factory ArrayFactory) {
	b.Run("PushBack", func(b *testing.B) {
		benchmarkPushBack(b, factory())
	})

	b.Run("TryPushBack", func(b *testing.B) {
		benchmarkTryPushBack(b, factory())
	})

	b.Run("InsertRange", func(b *testing.B) {
		benchmarkInsertRange(b, factory())
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory())
	})

	b.Run("BatchGet", func(b *testing.B) {
		benchmarkBatchGet(b, factory())
	})

	b.Run("Mixed", func(b *testing.B) {
		benchmarkMixed(b, factory())
	})

	b.Run("Snapshot", func(b *testing.B) {
		benchmarkSnapshot(b, factory())
	})
}

// prefill inserts benchPrefill values in batches
func prefill(a array.Array[int]) {
	batch := make([]int, benchBatchSize)
	for i := 0; i < benchPrefill; i += benchBatchSize {
		for j := range batch {
			batch[j] = i + j
		}
		a.InsertRange(batch)
	}
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for PushBack operation
func benchmarkPushBack(b *testing.B, a array.Array[int]) {
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			a.PushBack(counter)
			counter++
		}
	})
}

// Benchmark for TryPushBack operation, reports the failure ratio
func benchmarkTryPushBack(b *testing.B, a array.Array[int]) {
	requireFeature(b, a, array.FeatureTryOps)

	var failed atomic.Int64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			if !a.TryPushBack(counter) {
				failed.Add(1)
			}
			counter++
		}
	})
	b.ReportMetric(float64(failed.Load())/float64(b.N), "fail/op")
}

// Benchmark for InsertRange with benchBatchSize elements per call
func benchmarkInsertRange(b *testing.B, a array.Array[int]) {
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		batch := make([]int, benchBatchSize)
		for pb.Next() {
			a.InsertRange(batch)
		}
	})
}

// Benchmark for random Get on a prefilled container
func benchmarkGet(b *testing.B, a array.Array[int]) {
	prefill(a)
	n := a.Len()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rng := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			_, _ = a.Get(rng.Intn(n))
		}
	})
}

// Benchmark for BatchGet of benchBatchSize random indices
func benchmarkBatchGet(b *testing.B, a array.Array[int]) {
	requireFeature(b, a, array.FeatureBatch)
	prefill(a)
	n := a.Len()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rng := rand.New(rand.NewSource(rand.Int63()))
		idxs := make([]int, benchBatchSize)
		for pb.Next() {
			for j := range idxs {
				idxs[j] = rng.Intn(n)
			}
			a.BatchGet(idxs)
		}
	})
}

// Benchmark for a read-heavy mix (benchReadRatio reads per write)
func benchmarkMixed(b *testing.B, a array.Array[int]) {
	prefill(a)
	n := a.Len()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rng := rand.New(rand.NewSource(rand.Int63()))
		counter := 0
		for pb.Next() {
			if counter%(benchReadRatio+1) == 0 {
				a.PushBack(counter)
			} else {
				_, _ = a.Get(rng.Intn(n))
			}
			counter++
		}
	})
}

// Benchmark for Snapshot of a prefilled container
func benchmarkSnapshot(b *testing.B, a array.Array[int]) {
	prefill(a)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = a.Snapshot()
	}
}
