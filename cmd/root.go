package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/tsarray/cmd/bench"
	"github.com/ValentinKolb/tsarray/cmd/lock"
	"github.com/ValentinKolb/tsarray/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "tsarray",
		Short: "thread-safe array containers",
		Long: fmt.Sprintf(`tsarray (v%s)

Thread-safe, resizable arrays for Go with pluggable lock policies:
a monolithic single-lock engine with optimistic reads and a striped
engine with independently locked partitions.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of tsarray",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tsarray v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(bench.BenchCommands)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
	key = "metrics"
	RootCmd.PersistentFlags().Bool(key, false, util.WrapString("Print the container counters in Prometheus text format after the run"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
