// Package logic implements the core business logic for the encryption/decryption.
package logic

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/idelchi/filevault/internal/config"
	"github.com/idelchi/filevault/internal/encryption"
	"github.com/idelchi/filevault/internal/filter"
	"github.com/idelchi/filevault/internal/keystore"
	"github.com/idelchi/filevault/internal/registry"
)

// Run encrypts or decrypts the configured files.
func Run(cfg *config.Config, logger zerolog.Logger, streams Streams) error {
	scanned, excluded, start, done, err := preamble(cfg, streams)
	if done || err != nil {
		return err
	}

	vault, err := Open(cfg, logger)
	if err != nil {
		return err
	}

	proc, err := NewProcessor(cfg, vault, logger, streams)
	if err != nil {
		return fmt.Errorf("creating processor: %w", err)
	}

	processed, errored, totalSize, err := proc.ProcessFiles()

	if cfg.Stats {
		printStats(streams.Err, scanned, excluded, processed, errored, totalSize, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("running logic: %w", err)
	}

	return nil
}

// preamble resolves files and handles dry run. Returns done=true if dry run was executed.
func preamble(cfg *config.Config, streams Streams) (int, int, time.Time, bool, error) {
	start := time.Now()

	scanned, err := resolveFiles(cfg, cfg.Decrypt)
	if err != nil {
		return 0, 0, start, false, fmt.Errorf("resolving files: %w", err)
	}

	excluded := scanned - len(cfg.Files)

	if cfg.Dry {
		return scanned, excluded, start, true, dryRun(cfg, streams, scanned, excluded, start)
	}

	return scanned, excluded, start, false, nil
}

// resolveFiles expands the positional args into the files to process.
// Returns the total number of files scanned before filtering.
// The key material is never selected, whichever directory is walked.
func resolveFiles(cfg *config.Config, artifacts bool) (int, error) {
	f, err := filter.New(cfg.Suffix, artifacts,
		filter.WithExcludes(cfg.Exclude...),
		filter.WithProtected(cfg.MasterKeyPath(), cfg.DatabasePath(), registry.LockPath(cfg.DatabasePath())),
	)
	if err != nil {
		return 0, err
	}

	files, scanned, err := f.Resolve(cfg.Files)
	if err != nil {
		return scanned, fmt.Errorf("filtering files: %w", err)
	}

	cfg.Files = files

	return scanned, nil
}

// dryRun previews what would be processed without actually encrypting/decrypting.
// Sizes are the exact artifact sizes on encryption and the artifact sizes on decryption.
func dryRun(cfg *config.Config, streams Streams, scanned, excluded int, start time.Time) error {
	var (
		totalSize int64
		processed int
		errored   int
	)

	reg := newRegistry(cfg, keystore.NewMasterKey(cfg.MasterKeyPath()), keystore.NewDatabase(cfg.DatabasePath()), zerolog.Nop())
	conflicts := batchConflicts(cfg, reg)

	for _, file := range cfg.Files {
		out, err := outputPath(file, cfg)
		if err == nil {
			err = conflicts[file]
		}

		if err != nil {
			errored++

			fmt.Fprintf(streams.Err, "Error processing %q: %v\n", file, err)

			continue
		}

		processed++

		if !cfg.Quiet {
			fmt.Fprintf(streams.Out, "Processed %q -> %q\n", file, out)
		}

		if cfg.Stats {
			if info, err := os.Stat(file); err == nil {
				size := info.Size()
				if !cfg.Decrypt {
					size = encryption.EncryptedSize(size)
				}

				totalSize += size
			}
		}
	}

	if cfg.Stats {
		printStats(streams.Err, scanned, excluded, processed, errored, totalSize, time.Since(start))
	}

	if errored > 0 {
		return fmt.Errorf("%d file(s) cannot be processed", errored) //nolint:err113
	}

	return nil
}

func printStats(w io.Writer, scanned, excluded, processed, errored int, totalSize int64, duration time.Duration) {
	fmt.Fprintf(w, "\nStats\n")
	fmt.Fprintf(w, "  Scanned:   %d\n", scanned)
	fmt.Fprintf(w, "  Excluded:  %d\n", excluded)
	fmt.Fprintf(w, "  Processed: %d\n", processed)
	fmt.Fprintf(w, "  Errors:    %d\n", errored)
	//nolint:gosec // totalSize is always non-negative (sum of file sizes)
	fmt.Fprintf(w, "  Size:      %s\n", humanize.IBytes(uint64(max(0, totalSize))))
	fmt.Fprintf(w, "  Duration:  %s\n", duration.Round(time.Millisecond))
}
