package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/filevault/internal/logic"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encrypt [flags] paths...",
		Aliases: []string{"enc"},
		Short:   "Encrypt files, storing a fresh key for each",
		Long: `Encrypt files, storing a fresh key for each.
Directories are walked recursively and files already carrying the suffix are skipped.`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: s.preRun(false),
		RunE: s.runE(func(streams logic.Streams) error {
			return logic.Run(&s.cfg, s.logger, streams)
		}),
	}

	addProcessingFlags(cmd)

	return cmd
}
