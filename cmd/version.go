package cmd

import (
	"fmt"

	"github.com/FooFooDamon/kmodflags/config"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the kmodflags version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "kmodflags", config.DefaultConfig.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
