package cli

import (
	"fmt"

	"github.com/LeJamon/goLamportSim/internal/config"
	"github.com/spf13/cobra"
)

var exampleOut string

// initConfigCmd writes an example configuration file
var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write an example configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SaveExampleConfig(exampleOut); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote example configuration to %s\n", exampleOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
	initConfigCmd.Flags().StringVarP(&exampleOut, "out", "o", "vmsim.toml", "output path")
}
