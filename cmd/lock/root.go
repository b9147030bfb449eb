package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	cmdUtil "github.com/ValentinKolb/tsarray/cmd/util"
	"github.com/ValentinKolb/tsarray/lib/lock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:               "lock",
		Short:             "Inspect and benchmark the lock policies",
		PersistentPreRunE: setupLock,
	}

	// benchCmd represents the contention benchmark
	benchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Contention benchmark per lock policy",
		Long:  "Run threads goroutines that each enter a critical section ops times, once exclusively, once in shared mode and through a striped lock bank in both modes, and verify mutual exclusion via an unsynchronized counter",
		RunE:  runBench,
	}

	// acquireCmd represents the deadline demo
	acquireCmd = &cobra.Command{
		Use:   "acquire",
		Short: "Acquire a held lock with a deadline",
		Long:  "Hold a lock of every policy and show that a deadline-bounded acquire gives up with a timeout instead of blocking",
		RunE:  runAcquire,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	LockCommands.AddCommand(benchCmd)
	LockCommands.AddCommand(acquireCmd)

	key := "kinds"
	LockCommands.PersistentFlags().String(key, "mutex,spin,spinrw", cmdUtil.WrapString("Comma-separated list of lock policies (mutex, spin, spinrw, null). The null policy is only exercised single-threaded"))

	key = "threads"
	benchCmd.Flags().Int(key, 8, cmdUtil.WrapString("Number of contending goroutines"))

	key = "ops"
	benchCmd.Flags().Int(key, 100_000, cmdUtil.WrapString("Critical sections per goroutine"))

	key = "keys"
	benchCmd.Flags().Int(key, 1024, cmdUtil.WrapString("Distinct keys for the striped lock bank"))

	key = "timeout"
	acquireCmd.Flags().Duration(key, 10*time.Millisecond, cmdUtil.WrapString("Deadline of the acquire attempt"))
}

// setupLock binds the flags and configures the loggers
func setupLock(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}
	return cmdUtil.InitLoggers(viper.GetString("log-level"))
}

func kinds() ([]lock.Kind, error) {
	var out []lock.Kind
	for _, s := range strings.Split(viper.GetString("kinds"), ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		k, err := lock.ParseKind(s)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Contention benchmark
// --------------------------------------------------------------------------

func runBench(_ *cobra.Command, _ []string) error {
	ks, err := kinds()
	if err != nil {
		return err
	}
	threads, ops, keys := viper.GetInt("threads"), viper.GetInt("ops"), viper.GetInt("keys")
	if threads <= 0 || ops <= 0 || keys <= 0 {
		return fmt.Errorf("threads, ops and keys must be positive")
	}

	fmt.Printf("Lock contention benchmark (%d goroutines x %d ops)\n\n", threads, ops)

	for _, kind := range ks {
		newLock, err := lock.Factory(kind)
		if err != nil {
			return err
		}
		n := threads
		if kind == lock.KindNull {
			n = 1
		}

		l := newLock()
		elapsed, counter := contend(n, ops, func(_, _ int, critical func()) {
			l.Lock()
			critical()
			l.Unlock()
		})
		if err := report(kind, "exclusive", n, ops, elapsed, counter); err != nil {
			return err
		}

		// shared holders only read, the counter is unchanged
		elapsed, _ = contend(n, ops, func(_, _ int, _ func()) {
			l.RLock()
			l.RUnlock()
		})
		fmt.Printf("%-8s %-10s %8d ms  %6.1f ns/op\n", kind, "shared", elapsed.Milliseconds(), nsPerOp(elapsed, n*ops))

		bank := lock.NewStriped(lock.DefaultStripes, newLock)
		perStripe := make([]int, bank.Stripes())
		names := make([]string, keys)
		for i := range names {
			names[i] = fmt.Sprintf("key-%d", i)
		}
		elapsed, _ = contend(n, ops, func(g, i int, _ func()) {
			key := names[(g*ops+i)%keys]
			unlock := bank.LockKey(key)
			perStripe[bank.StripeIndex(key)]++
			unlock()
		})
		total := 0
		for _, c := range perStripe {
			total += c
		}
		if total != n*ops {
			return fmt.Errorf("%s striped: lost updates (%d of %d)", kind, total, n*ops)
		}
		fmt.Printf("%-8s %-10s %8d ms  %6.1f ns/op\n", kind, "striped", elapsed.Milliseconds(), nsPerOp(elapsed, n*ops))

		// shared stripe holders read the per-stripe counters, which must stay put
		elapsed, _ = contend(n, ops, func(g, i int, _ func()) {
			key := names[(g*ops+i)%keys]
			unlock := bank.RLockKey(key)
			_ = perStripe[bank.StripeIndex(key)]
			unlock()
		})
		after := 0
		for _, c := range perStripe {
			after += c
		}
		if after != total {
			return fmt.Errorf("%s striped-r: counters changed under shared locks (%d != %d)", kind, after, total)
		}
		fmt.Printf("%-8s %-10s %8d ms  %6.1f ns/op\n", kind, "striped-r", elapsed.Milliseconds(), nsPerOp(elapsed, n*ops))
	}
	return nil
}

// contend runs n goroutines behind a barrier, each calling op ops times.
// critical increments an unsynchronized counter that only stays exact under
// mutual exclusion.
func contend(n, ops int, op func(g, i int, critical func())) (time.Duration, int) {
	counter := 0
	critical := func() { counter++ }

	start := make(chan struct{})
	var ready, done sync.WaitGroup
	for g := 0; g < n; g++ {
		ready.Add(1)
		done.Add(1)
		go func() {
			defer done.Done()
			ready.Done()
			<-start
			for i := 0; i < ops; i++ {
				op(g, i, critical)
			}
		}()
	}

	ready.Wait()
	begin := time.Now()
	close(start)
	done.Wait()
	return time.Since(begin), counter
}

func report(kind lock.Kind, mode string, n, ops int, elapsed time.Duration, counter int) error {
	if counter != n*ops {
		return fmt.Errorf("%s %s: lost updates (%d of %d)", kind, mode, counter, n*ops)
	}
	fmt.Printf("%-8s %-10s %8d ms  %6.1f ns/op\n", kind, mode, elapsed.Milliseconds(), nsPerOp(elapsed, n*ops))
	return nil
}

func nsPerOp(d time.Duration, ops int) float64 {
	return float64(d.Nanoseconds()) / float64(max(ops, 1))
}

// --------------------------------------------------------------------------
// Deadline demo
// --------------------------------------------------------------------------

func runAcquire(_ *cobra.Command, _ []string) error {
	ks, err := kinds()
	if err != nil {
		return err
	}
	timeout := viper.GetDuration("timeout")

	for _, kind := range ks {
		if kind == lock.KindNull {
			fmt.Printf("%-8s never blocks\n", kind)
			continue
		}
		l := lock.NewRWLocker(kind)
		l.Lock()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		begin := time.Now()
		err := lock.Acquire(ctx, l)
		cancel()

		switch {
		case errors.Is(err, lock.ErrTimeout):
			fmt.Printf("%-8s gave up after %s\n", kind, time.Since(begin).Round(time.Microsecond))
		case err == nil:
			l.Unlock()
			return fmt.Errorf("%s: acquired a held lock", kind)
		default:
			return fmt.Errorf("%s: %w", kind, err)
		}
		l.Unlock()
	}
	return nil
}
