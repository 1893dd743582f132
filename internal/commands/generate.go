package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/filevault/internal/logic"
)

// NewGenerateCommand creates a new cobra command for the generate subcommand.
func NewGenerateCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Print a new random key, hex-encoded",
		Args:    cobra.NoArgs,
		RunE: s.runE(func(streams logic.Streams) error {
			return logic.RunGenerate(streams)
		}),
	}
}
