package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/tsarray/lib/array"
	"github.com/ValentinKolb/tsarray/lib/array/engines/mono"
	"github.com/ValentinKolb/tsarray/lib/array/engines/striped"
	"github.com/ValentinKolb/tsarray/lib/lock"
	"github.com/VictoriaMetrics/metrics"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (TSARRAY_<FLAG>)
	EnvPrefix = "tsarray"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}
		currentLine.WriteString(word)
		lineWidth += len(word)
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}
	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and lets viper read TSARRAY_* environment variables
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// --------------------------------------------------------------------------
// Benchmark configuration
// --------------------------------------------------------------------------

// BenchConfig holds the parameters shared by all benchmark commands
type BenchConfig struct {
	Engines    []array.Implementation
	Locks      []lock.Kind
	Partitions int
	N          int
	Threads    int
	ReadRatio  int
	BatchSize  int
	Optimistic bool
	Skip       []string
	LogLevel   string
	Metrics    bool
}

// SetupBenchFlags adds the benchmark flags to a command group
func SetupBenchFlags(cmd *cobra.Command) {
	key := "engines"
	cmd.PersistentFlags().String(key, "mono,striped,segmented", WrapString("Comma-separated list of engines to benchmark (mono, striped, segmented). The lock-free segmented engine only runs the bench run workloads"))

	key = "locks"
	cmd.PersistentFlags().String(key, "mutex,spinrw", WrapString("Comma-separated list of lock policies (mutex, spin, spinrw, null). The null policy only runs single-threaded writers"))

	key = "partitions"
	cmd.PersistentFlags().Int(key, striped.DefaultPartitions, WrapString("Number of partitions of the striped engine (a power of two is recommended)"))

	key = "n"
	cmd.PersistentFlags().Int(key, 1_000_000, WrapString("Total number of elements per workload"))

	key = "threads"
	cmd.PersistentFlags().Int(key, 8, WrapString("Number of worker goroutines per workload"))

	key = "read-ratio"
	cmd.PersistentFlags().Int(key, 10, WrapString("Reads per write in the mixed workload"))

	key = "batch-size"
	cmd.PersistentFlags().Int(key, 128, WrapString("Batch size of the batch workload"))

	key = "optimistic"
	cmd.PersistentFlags().Bool(key, true, WrapString("Enable optimistic reads on the mono engine"))

	key = "skip"
	cmd.PersistentFlags().String(key, "", WrapString("Workloads to skip (comma separated - e.g. mixed,random)"))
}

// GetBenchConfig reads the benchmark configuration from viper
func GetBenchConfig() (*BenchConfig, error) {
	conf := &BenchConfig{
		Partitions: viper.GetInt("partitions"),
		N:          viper.GetInt("n"),
		Threads:    viper.GetInt("threads"),
		ReadRatio:  viper.GetInt("read-ratio"),
		BatchSize:  viper.GetInt("batch-size"),
		Optimistic: viper.GetBool("optimistic"),
		Skip:       splitList(viper.GetString("skip")),
		LogLevel:   viper.GetString("log-level"),
		Metrics:    viper.GetBool("metrics"),
	}

	for _, e := range splitList(viper.GetString("engines")) {
		switch impl := array.Implementation(e); impl {
		case array.ImplMono, array.ImplStriped, array.ImplSegmented:
			conf.Engines = append(conf.Engines, impl)
		default:
			return nil, fmt.Errorf("invalid engine %s (expected mono, striped or segmented)", e)
		}
	}

	for _, l := range splitList(viper.GetString("locks")) {
		kind, err := lock.ParseKind(l)
		if err != nil {
			return nil, err
		}
		conf.Locks = append(conf.Locks, kind)
	}

	switch {
	case conf.N <= 0:
		return nil, fmt.Errorf("invalid n %d (must be positive)", conf.N)
	case conf.Threads <= 0:
		return nil, fmt.Errorf("invalid threads %d (must be positive)", conf.Threads)
	case conf.BatchSize <= 0:
		return nil, fmt.Errorf("invalid batch-size %d (must be positive)", conf.BatchSize)
	case conf.ReadRatio < 0:
		return nil, fmt.Errorf("invalid read-ratio %d (must not be negative)", conf.ReadRatio)
	}
	return conf, nil
}

// ShouldSkip reports whether the workload is in the skip list
func (c *BenchConfig) ShouldSkip(workload string) bool {
	for _, skip := range c.Skip {
		if skip == workload {
			return true
		}
	}
	return false
}

// String returns a formatted string representation of the configuration
func (c *BenchConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	engines := make([]string, len(c.Engines))
	for i, e := range c.Engines {
		engines[i] = string(e)
	}
	locks := make([]string, len(c.Locks))
	for i, l := range c.Locks {
		locks[i] = string(l)
	}

	addSection("Containers")
	addField("Engines", strings.Join(engines, ", "))
	addField("Lock Policies", strings.Join(locks, ", "))
	addField("Partitions", strconv.Itoa(c.Partitions))
	addField("Optimistic Reads", strconv.FormatBool(c.Optimistic))

	addSection("Workloads")
	addField("Elements", strconv.Itoa(c.N))
	addField("Threads", strconv.Itoa(c.Threads))
	addField("Read Ratio", fmt.Sprintf("%d:1", c.ReadRatio))
	addField("Batch Size", strconv.Itoa(c.BatchSize))
	if len(c.Skip) > 0 {
		addField("Skipped", strings.Join(c.Skip, ", "))
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	addField("Export Metrics", strconv.FormatBool(c.Metrics))

	return sb.String()
}

// NewArray creates a container for the given engine and lock policy. All
// containers register their counters in set under name.
func (c *BenchConfig) NewArray(impl array.Implementation, kind lock.Kind, set *metrics.Set, name string) (array.Array[int], error) {
	newLock, err := lock.Factory(kind)
	if err != nil {
		return nil, err
	}

	switch impl {
	case array.ImplMono:
		opts := mono.DefaultOptions()
		opts.Name = name
		opts.NewLock = newLock
		opts.OptimisticReads = c.Optimistic
		opts.Metrics = set
		return mono.New[int](opts), nil
	case array.ImplStriped:
		opts := striped.DefaultOptions()
		opts.Name = name
		opts.NewLock = newLock
		opts.Partitions = c.Partitions
		opts.Metrics = set
		return striped.New[int](opts), nil
	default:
		return nil, fmt.Errorf("invalid engine %s", impl)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
