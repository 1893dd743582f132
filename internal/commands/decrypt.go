package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/filevault/internal/logic"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
func NewDecryptCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "decrypt [flags] paths...",
		Aliases: []string{"dec"},
		Short:   "Decrypt files with their stored keys",
		Long: `Decrypt files with their stored keys.
Directories are walked recursively for files carrying the suffix. When no key is
on file for an artifact, the key given with --key is used instead.`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: s.preRun(true),
		RunE: s.runE(func(streams logic.Streams) error {
			return logic.Run(&s.cfg, s.logger, streams)
		}),
	}

	addProcessingFlags(cmd)

	cmd.Flags().StringP("key", "k", "", "Fallback key (32 bytes, hex-encoded) for artifacts without a stored key")

	return cmd
}
