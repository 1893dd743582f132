package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/idelchi/filevault/internal/config"
	"github.com/idelchi/filevault/internal/encryption"
	"github.com/idelchi/filevault/internal/registry"
)

// NewRootCommand creates the root command with common configuration.
// It sets up environment variable binding and flag handling.
func NewRootCommand(version string) *cobra.Command {
	s := &state{}

	root := &cobra.Command{
		Use:   "filevault [flags] command [flags]",
		Short: "File encryption utility with a built-in key store",
		Long: `Encrypts files with AES-256-CBC under a fresh key per file.
Keys are kept in a database encrypted under a master key, so artifacts can be
decrypted later by name without handling keys by hand.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.load(cmd)
		},
	}

	flags := root.PersistentFlags()

	flags.String("dir", config.DefaultDir(), "Directory holding the master key and the key database")
	flags.String("master-key", "", "Path to the master key, defaults to <dir>/"+config.MasterKeyFile)
	flags.String("database", "", "Path to the key database, defaults to <dir>/"+config.DatabaseFile)
	flags.String("suffix", registry.DefaultSuffix, "Suffix appended to encrypted files")
	flags.Int("chunk-size", encryption.DefaultChunkSize, "Bytes read per step, a positive multiple of 16")
	flags.IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	flags.BoolP("quiet", "q", false, "Suppress non-error output")
	flags.String("log-level", "warn", "Log level (trace, debug, info, warn, error, disabled)")
	flags.BoolP("show", "s", false, "Show the configuration and exit")

	root.AddCommand(
		NewEncryptCommand(s),
		NewDecryptCommand(s),
		NewStatusCommand(s),
		NewKeysCommand(s),
		NewGenerateCommand(s),
	)

	return root
}

// addProcessingFlags registers the flags shared by encrypt and decrypt.
func addProcessingFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("delete", "d", false, "Delete the original file after successful encryption/decryption")
	cmd.Flags().BoolP("preserve-timestamps", "p", false, "Preserve the modification time of the original file")
	cmd.Flags().Bool("stats", false, "Print a summary after processing")
	cmd.Flags().Bool("dry", false, "Show what would be processed without writing anything")
	addExcludeFlag(cmd)
}

// addExcludeFlag registers the patterns skipped while walking directories.
func addExcludeFlag(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("exclude", "e", nil, "Skip walked files matching the pattern (find -path syntax, repeatable)")
}
