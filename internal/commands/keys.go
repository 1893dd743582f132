package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/filevault/internal/logic"
)

// NewKeysCommand creates a new cobra command for the keys subcommand.
func NewKeysCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keys [flags]",
		Short:   "List the files with a stored key, or forget one",
		Args:    cobra.NoArgs,
		PreRunE: s.preRun(false),
		RunE: s.runE(func(streams logic.Streams) error {
			return logic.RunKeys(&s.cfg, s.logger, streams)
		}),
	}

	cmd.Flags().String("forget", "", "Remove the stored key of the given file or artifact")

	return cmd
}
