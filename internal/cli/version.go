package cli

import (
	"fmt"
	"runtime"

	"github.com/LeJamon/goLamportSim/internal/storage/archive"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for vmsim including the Go version and available archive backends.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "vmsim version %s\n", rootCmd.Version)
		fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
		fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Archive backends: %v\n", archive.AvailableBackends())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
