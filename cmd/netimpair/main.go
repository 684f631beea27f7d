package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	version = "dev" // Will be set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "netimpair",
	Short: "A user-space network-impairment proxy for loopback testing",
	Long: `netimpair sits on the loopback path between a sender and a receiver and
emulates a degraded wide-area link: bandwidth throttling, one-way latency,
stochastic loss, and bit-level corruption, driven by a named Best/Average/
Worst/Testing scenario and logged to a CSV trace.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (built-in defaults when omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
}

// Commands are defined in separate files:
// - runCmd in run.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
