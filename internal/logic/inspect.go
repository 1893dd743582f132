package logic

import (
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/idelchi/filevault/internal/config"
	"github.com/idelchi/filevault/internal/encryption"
	"github.com/idelchi/filevault/internal/registry"
)

// RunStatus reports for every artifact whether its key is on file.
// Directories are walked for artifacts, explicit files are checked as given.
func RunStatus(cfg *config.Config, logger zerolog.Logger, streams Streams) error {
	if _, err := resolveFiles(cfg, true); err != nil {
		return fmt.Errorf("resolving files: %w", err)
	}

	vault, err := Open(cfg, logger)
	if err != nil {
		return err
	}

	var missing int

	for _, file := range cfg.Files {
		_, ok, err := vault.Registry.Lookup(file)
		if err != nil {
			return err
		}

		if !ok {
			missing++

			fmt.Fprintf(streams.Err, "%s: no key on file (ERROR)\n", file)

			continue
		}

		if !cfg.Quiet {
			fmt.Fprintf(streams.Out, "%s: key on file for %q\n", file, vault.Registry.OriginalName(file))
		}
	}

	if missing > 0 {
		return fmt.Errorf("%w: %d file(s) have no key on file", registry.ErrKeyNotFound, missing)
	}

	return nil
}

// RunKeys lists the names of all files with a stored key,
// or forgets the key of a single file when --forget is set.
func RunKeys(cfg *config.Config, logger zerolog.Logger, streams Streams) error {
	vault, err := Open(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Forget != "" {
		removed, err := vault.Registry.Forget(cfg.Forget)
		if err != nil {
			return err
		}

		if !removed {
			return fmt.Errorf("%w: %q", registry.ErrKeyNotFound, filepath.Base(cfg.Forget))
		}

		if !cfg.Quiet {
			fmt.Fprintf(streams.Out, "Forgot %q\n", vault.Registry.OriginalName(cfg.Forget))
		}

		return nil
	}

	names, err := vault.Registry.Names()
	if err != nil {
		return err
	}

	for _, name := range names {
		fmt.Fprintln(streams.Out, name)
	}

	return nil
}

// RunGenerate prints a fresh hex encoded key.
func RunGenerate(streams Streams) error {
	key, err := encryption.GenerateKey()
	if err != nil {
		return err
	}

	fmt.Fprintln(streams.Out, hex.EncodeToString(key))

	return nil
}
