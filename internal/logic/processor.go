package logic

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/filevault/internal/config"
	"github.com/idelchi/filevault/internal/encryption"
	"github.com/idelchi/filevault/internal/fileutil"
	"github.com/idelchi/filevault/internal/registry"
)

// ErrNotArtifact is returned when a file selected for decryption does not carry the artifact suffix.
var ErrNotArtifact = errors.New("not an encrypted artifact")

// Result is the outcome of processing one file, handed to the printer goroutine.
type Result struct {
	Input      string
	Output     string
	OutputSize int64 // bytes written to Output
	Error      error
}

// Processor handles the encryption and decryption of files.
type Processor struct {
	// cfg contains runtime configuration options
	cfg *config.Config

	// vault provides the engine and the key registry
	vault *Vault

	// manualKey is the --key fallback used when no key is on file
	manualKey []byte

	logger  zerolog.Logger
	streams Streams

	// results channels processing outcomes to the printer goroutine
	results chan Result
}

// NewProcessor creates a new Processor with the given configuration.
func NewProcessor(cfg *config.Config, vault *Vault, logger zerolog.Logger, streams Streams) (*Processor, error) {
	manualKey, err := cfg.ManualKey()
	if err != nil {
		return nil, fmt.Errorf("reading key: %w", err)
	}

	if manualKey != nil && len(manualKey) != encryption.KeySize {
		return nil, fmt.Errorf("%w: --key must be %d bytes (%d hex characters)",
			encryption.ErrKeyLength, encryption.KeySize, 2*encryption.KeySize)
	}

	return &Processor{
		cfg:       cfg,
		vault:     vault,
		manualKey: manualKey,
		logger:    logger,
		streams:   streams,
		results:   make(chan Result, len(cfg.Files)),
	}, nil
}

// ProcessFiles concurrently processes all files specified in the configuration.
// It encrypts or decrypts files based on the configuration settings.
// Returns the number of successfully processed files and the number of errors.
//
//nolint:cyclop,gocognit
func (p *Processor) ProcessFiles() (processed, errored int, totalSize int64, err error) {
	group := errgroup.Group{}
	group.SetLimit(p.cfg.Parallel)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for result := range p.results {
			if result.Error != nil {
				errored++

				fmt.Fprintf(p.streams.Err, "Error processing %q: %v\n", result.Input, result.Error)
			} else {
				processed++

				totalSize += result.OutputSize

				if !p.cfg.Quiet {
					fmt.Fprintf(p.streams.Out, "Processed %q -> %q\n", result.Input, result.Output)
				}
			}

			if p.cfg.Delete && result.Error == nil {
				if err := os.Remove(result.Input); err != nil {
					fmt.Fprintf(p.streams.Err, "Error deleting %q: %v\n", result.Input, err)
				} else if !p.cfg.Quiet {
					fmt.Fprintf(p.streams.Out, "Deleted %q\n", result.Input)
				}
			}
		}
	}()

	conflicts := batchConflicts(p.cfg, p.vault.Registry)

	for _, file := range p.cfg.Files {
		group.Go(func() error {
			if err := conflicts[file]; err != nil {
				p.results <- Result{Input: file, Error: err}

				return err
			}

			outPath, err := p.outputPath(file)
			if err != nil {
				p.results <- Result{Input: file, Error: err}

				return err
			}

			size, err := p.processFile(file, outPath)
			if err != nil {
				p.results <- Result{Input: file, Error: err}

				return err
			}

			p.results <- Result{Input: file, Output: outPath, OutputSize: size}

			return nil
		})
	}

	err = group.Wait()

	close(p.results)

	<-done // Wait for printer to finish

	if err != nil {
		return processed, errored, totalSize, fmt.Errorf("processing files: %w", err)
	}

	return processed, errored, totalSize, nil
}

// processFile handles the encryption or decryption of a single file.
// It writes to a temporary file and performs an atomic rename on completion.
func (p *Processor) processFile(filename, outPath string) (size int64, err error) {
	tc, err := fileutil.NewTempContext(filename, outPath)
	if err != nil {
		return 0, fmt.Errorf("preparing atomic write: %w", err)
	}

	defer tc.CleanupOnError(&err)

	inFile, err := os.Open(filepath.Clean(filename))
	if err != nil {
		return 0, &encryption.IOError{Op: "opening input", Path: filename, Err: err}
	}
	defer inFile.Close()

	if p.cfg.Decrypt {
		err = p.decrypt(inFile, tc, filename)
	} else {
		err = p.encrypt(inFile, tc, filename)
	}

	if err != nil {
		return 0, err
	}

	if err := tc.Commit(outPath); err != nil {
		return 0, err
	}

	size, err = fileutil.FinalizeOutput(outPath, p.cfg.PreserveTimestamps, tc.SrcInfo.ModTime())
	if err != nil {
		return 0, fmt.Errorf("finalizing output: %w", err)
	}

	return size, nil
}

// encrypt encrypts the input under a fresh key and records the key before the
// artifact becomes visible, so an artifact never exists without its key.
func (p *Processor) encrypt(inFile *os.File, tc *fileutil.TempContext, filename string) error {
	key, err := encryption.GenerateKey()
	if err != nil {
		return err
	}
	defer clear(key)

	if err := p.vault.Engine.Encrypt(key, inFile, tc.TmpFile); err != nil {
		return fmt.Errorf("encrypting file: %w", err)
	}

	id, err := p.vault.Registry.Store(key, filename)
	if err != nil {
		return err
	}

	p.logger.Debug().Str("file", filename).Str("id", id).Msg("encrypted")

	return nil
}

// decrypt decrypts the artifact with the key on file, falling back to the manual key.
func (p *Processor) decrypt(inFile *os.File, tc *fileutil.TempContext, filename string) error {
	key, ok, err := p.vault.Registry.Lookup(filename)
	if err != nil {
		return err
	}

	if !ok {
		if p.manualKey == nil {
			return fmt.Errorf("%w: %q", registry.ErrKeyNotFound, filepath.Base(filename))
		}

		p.logger.Info().Str("file", filename).Msg("no key on file, using the provided key")

		key = p.manualKey
	}

	if err := p.vault.Engine.Decrypt(key, inFile, tc.TmpFile); err != nil {
		return fmt.Errorf("decrypting file: %w", err)
	}

	p.logger.Debug().Str("file", filename).Bool("manual", !ok).Msg("decrypted")

	return nil
}

// outputPath appends the suffix on encryption and strips it on decryption.
func (p *Processor) outputPath(filename string) (string, error) {
	return outputPath(filename, p.cfg)
}

func outputPath(filename string, cfg *config.Config) (string, error) {
	if !cfg.Decrypt {
		return filename + cfg.Suffix, nil
	}

	base := filepath.Base(filename)
	if len(base) <= len(cfg.Suffix) || !strings.HasSuffix(base, cfg.Suffix) {
		return "", fmt.Errorf("%w: %q does not end in %q", ErrNotArtifact, filename, cfg.Suffix)
	}

	return filepath.Join(filepath.Dir(filename), strings.TrimSuffix(base, cfg.Suffix)), nil
}
