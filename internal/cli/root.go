package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/LeJamon/goLamportSim/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	debug      bool
	verbose    bool
	quiet      bool

	// v collects defaults, the config file, VMSIM_ environment variables
	// and bound flags.
	v = config.NewViper()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vmsim",
	Short: "vmsim - Lamport clock virtual machine simulator",
	Long: `vmsim runs one simulated machine of a small distributed system. Each machine
advances a Lamport logical clock at a randomly drawn rate, exchanges timestamped
messages with its peers over gRPC and writes every event to an append-only log
for offline merging and analysis.

Start one vmsim process per machine and give each the addresses of the others.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initLogging)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log every delivery and acknowledgement")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "echo event log lines to the console")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress console output")
}

// initLogging configures the process logger from the global flags.
func initLogging() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if quiet {
		log.SetOutput(io.Discard)
	}
	if verbose {
		v.Set("log.echo", true)
	}
}
