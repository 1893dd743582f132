package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/filevault/internal/logic"
)

// NewStatusCommand creates a new cobra command for the status subcommand.
func NewStatusCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status [flags] paths...",
		Aliases: []string{"st"},
		Short:   "Report whether a key is on file for each artifact",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: s.preRun(true),
		RunE: s.runE(func(streams logic.Streams) error {
			return logic.RunStatus(&s.cfg, s.logger, streams)
		}),
	}

	addExcludeFlag(cmd)

	return cmd
}
