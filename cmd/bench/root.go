package bench

import (
	"fmt"
	"os"
	"time"

	cmdUtil "github.com/ValentinKolb/tsarray/cmd/util"
	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/ValentinKolb/tsarray/lib/lock"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var Logger = logger.GetLogger("bench")

var (
	benchConfig *cmdUtil.BenchConfig

	// BenchCommands represents the bench command group
	BenchCommands = &cobra.Command{
		Use:               "bench",
		Short:             "Benchmark the container engines",
		Long:              "Benchmark the container engines. The configuration can be set via command line flags or environment variables in the format TSARRAY_<flag> (e.g. TSARRAY_THREADS=16)",
		PersistentPreRunE: setupBench,
	}

	// runCmd represents the workload command
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the barrier-synchronized workloads",
		Long:  "Run the push, read, mixed, batch and random workloads for every configured engine and lock policy and print the wall-clock time per workload. The segmented engine is lock-free and runs once per workload",
		RunE:  runWorkloads,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	cmdUtil.SetupBenchFlags(BenchCommands)

	BenchCommands.AddCommand(runCmd)
	BenchCommands.AddCommand(perfTestCmd)
}

// setupBench binds the flags, configures the loggers and reads the benchmark configuration
func setupBench(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	conf, err := cmdUtil.GetBenchConfig()
	if err != nil {
		return err
	}
	if err := cmdUtil.InitLoggers(conf.LogLevel); err != nil {
		return err
	}

	benchConfig = conf
	return nil
}

func runWorkloads(_ *cobra.Command, _ []string) error {
	fmt.Println("Workload benchmark for tsarray containers")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(benchConfig.String())

	set := metrics.NewSet()

	for _, impl := range benchConfig.Engines {
		if impl == array.ImplSegmented {
			for _, wl := range workloads {
				if benchConfig.ShouldSkip(wl.name) {
					continue
				}
				res := runWorkload(newLockFree(), wl, benchConfig, benchConfig.Threads)
				printWorkload(impl, lockFreeKind, res)
			}
			continue
		}

		for _, kind := range benchConfig.Locks {
			for _, wl := range workloads {
				if benchConfig.ShouldSkip(wl.name) {
					continue
				}

				name := fmt.Sprintf("%s-%s-%s", impl, kind, wl.name)
				a, err := benchConfig.NewArray(impl, kind, set, name)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", name, err)
				}

				res := runWorkload(a, wl, benchConfig, workerThreads(kind, wl.writes))
				printWorkload(impl, kind, res)
			}
		}
	}

	if benchConfig.Metrics {
		fmt.Println()
		fmt.Println("Metrics:")
		set.WritePrometheus(os.Stdout)
	}
	return nil
}

// workerThreads limits writers of the null policy to a single goroutine
func workerThreads(kind lock.Kind, writes bool) int {
	if kind == lock.KindNull && writes {
		return 1
	}
	return benchConfig.Threads
}

// printWorkload prints one workload result in a formatted way
func printWorkload(impl array.Implementation, kind lock.Kind, res result) {
	p := res.latency.Percentiles([]float64{0.5, 0.99})
	fmt.Printf("%-8s %-7s %-7s %3d threads %8d ms   p50 %-10s p99 %s\n",
		impl, kind, res.workload, res.threads, res.elapsed.Milliseconds(),
		time.Duration(p[0]), time.Duration(p[1]))
}
