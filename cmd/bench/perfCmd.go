package bench

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	cmdUtil "github.com/ValentinKolb/tsarray/cmd/util"
	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/ValentinKolb/tsarray/lib/lock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const perfPrefill = 100_000

var perfTestCmd = &cobra.Command{
	Use:   "perf",
	Short: "Per-operation micro benchmarks (ns/op, ops/sec)",
	RunE:  runPerf,
}

func init() {
	key := "csv"
	perfTestCmd.Flags().String(key, "", cmdUtil.WrapString("Optional path to save benchmark results as CSV"))
}

// optimisticReader is implemented by engines with a lock-free read path
type optimisticReader interface {
	OptimisticGet(i int) (int, error)
}

// perfCase is one operation benchmarked against a fresh container
type perfCase struct {
	name    string
	prefill bool
	writes  bool
	op      func(a array.Array[int], i int)
}

var perfCases = []perfCase{
	{name: "push", writes: true, op: func(a array.Array[int], i int) { a.PushBack(i) }},
	{name: "try-push", writes: true, op: func(a array.Array[int], i int) { a.TryPushBack(i) }},
	{name: "get", prefill: true, op: func(a array.Array[int], i int) { _, _ = a.Get(i % perfPrefill) }},
	{name: "optimistic-get", prefill: true, op: func(a array.Array[int], i int) {
		if r, ok := a.(optimisticReader); ok {
			_, _ = r.OptimisticGet(i % perfPrefill)
		}
	}},
	{name: "batch-get", prefill: true, op: func(a array.Array[int], i int) {
		base := i % (perfPrefill - 8)
		_, _ = a.BatchGet([]int{base, base + 1, base + 2, base + 3, base + 4, base + 5, base + 6, base + 7})
	}},
	{name: "set", prefill: true, writes: true, op: func(a array.Array[int], i int) { _ = a.Set(i%perfPrefill, i) }},
	{name: "len", prefill: true, op: func(a array.Array[int], _ int) { _ = a.Len() }},
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for tsarray containers")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(benchConfig.String())

	fmt.Println("starting tests...")

	results := make(map[string]testing.BenchmarkResult)

	for _, impl := range benchConfig.Engines {
		if impl == array.ImplSegmented {
			// perf cases cover erase and set, which the append-only engine lacks
			Logger.Infof("skipping engine %s, run it through bench run", impl)
			continue
		}
		for _, kind := range benchConfig.Locks {
			for _, pc := range perfCases {
				if benchConfig.ShouldSkip(pc.name) {
					continue
				}
				name := fmt.Sprintf("%s/%s/%s", impl, kind, pc.name)

				a, err := benchConfig.NewArray(impl, kind, nil, name)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", name, err)
				}
				if pc.name == "optimistic-get" && !a.SupportsFeature(array.FeatureOptimisticRead) {
					continue
				}

				res := testing.Benchmark(func(b *testing.B) {
					if pc.prefill && a.Len() == 0 {
						values := make([]int, perfPrefill)
						for i := range values {
							values[i] = i
						}
						array.Fill(a, values, benchConfig.BatchSize)
					}
					b.ResetTimer()
					drive(b, kind == lock.KindNull && pc.writes, func(i int) { pc.op(a, i) })
				})

				results[name] = res
				printResult(name, res)
			}
		}
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %w", err)
		}
		fmt.Println("Export complete")
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// drive runs op b.N times, sequentially for single-goroutine policies and
// with benchConfig.Threads goroutines per GOMAXPROCS otherwise
func drive(b *testing.B, sequential bool, op func(i int)) {
	if sequential {
		for i := 0; i < b.N; i++ {
			op(i)
		}
		return
	}

	var ticket atomic.Int64
	b.SetParallelism(benchConfig.Threads)
	b.RunParallel(func(pb *testing.PB) {
		i := int(ticket.Add(perfPrefill / 16))
		for pb.Next() {
			op(i)
			i++
		}
	})
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-32sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-32s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Partitions", "Threads", "BatchSize", "Optimistic",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	tests := make([]string, 0, len(results))
	for test := range results {
		tests = append(tests, test)
	}
	sort.Strings(tests)

	for _, test := range tests {
		result := results[test]
		var nsPerOp, opsPerSec float64
		skipped := "true"
		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strconv.Itoa(benchConfig.Partitions),
			strconv.Itoa(benchConfig.Threads),
			strconv.Itoa(benchConfig.BatchSize),
			strconv.FormatBool(benchConfig.Optimistic),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %w", test, err)
		}
	}
	return nil
}
