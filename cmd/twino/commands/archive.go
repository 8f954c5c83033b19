package commands

import (
	"github.com/spf13/cobra"

	"github.com/twinoai/twino/pkg/archive"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect archived interview sessions",
	Long: `Every interview is archived with its transcript and outcome, on the
local disk or in S3 depending on the archive settings of the context.

Examples:
  twino archive list anna-rossi
  twino archive get anna-rossi 3f0c...`,
}

var archiveListCmd = &cobra.Command{
	Use:   "list [slug]",
	Short: "List session IDs of a twin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := archive.Anonymous
		if len(args) == 1 {
			slug = args[0]
		}
		arch, err := currentArchive()
		if err != nil {
			return err
		}
		ids, err := arch.List(cmd.Context(), slug)
		if err != nil {
			return err
		}
		if ids == nil {
			ids = []string{}
		}
		return printResult(ids)
	},
}

var archiveGetCmd = &cobra.Command{
	Use:   "get <slug> <id>",
	Short: "Show an archived session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		arch, err := currentArchive()
		if err != nil {
			return err
		}
		rec, err := arch.Load(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printResult(rec)
	},
}

func init() {
	archiveCmd.AddCommand(archiveListCmd, archiveGetCmd)
	rootCmd.AddCommand(archiveCmd)
}

func currentArchive() (*archive.Archive, error) {
	cctx, err := GetContext()
	if err != nil {
		return nil, err
	}
	return openArchive(cctx)
}
