package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twinoai/twino/cmd/twino/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("output") || jqQuery != "" {
			return printResult(build.Get())
		}
		fmt.Println(build.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
