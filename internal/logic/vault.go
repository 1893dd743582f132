package logic

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/idelchi/filevault/internal/config"
	"github.com/idelchi/filevault/internal/encryption"
	"github.com/idelchi/filevault/internal/keystore"
	"github.com/idelchi/filevault/internal/registry"
)

// Streams are the destinations of user-facing output.
type Streams struct {
	Out io.Writer
	Err io.Writer
}

// StdStreams writes to the process's standard output and error.
func StdStreams() Streams {
	return Streams{Out: os.Stdout, Err: os.Stderr}
}

// Vault bundles the cipher engine with the key storage it relies on.
type Vault struct {
	Engine   *encryption.Engine
	Master   *keystore.MasterKey
	Database *keystore.Database
	Registry *registry.Registry
}

// Open initializes the master key if needed and wires the engine and registry
// from the configuration.
func Open(cfg *config.Config, logger zerolog.Logger) (*Vault, error) {
	if err := encryption.ValidateChunkSize(cfg.ChunkSize); err != nil {
		return nil, err
	}

	master := keystore.NewMasterKey(cfg.MasterKeyPath())
	if err := master.EnsureInitialized(); err != nil {
		return nil, fmt.Errorf("initializing master key: %w", err)
	}

	logger.Debug().Str("master", master.Path()).Str("database", cfg.DatabasePath()).Msg("opened vault")

	db := keystore.NewDatabase(cfg.DatabasePath())

	return &Vault{
		Engine:   encryption.New(encryption.WithChunkSize(cfg.ChunkSize)),
		Master:   master,
		Database: db,
		Registry: newRegistry(cfg, master, db, logger),
	}, nil
}

func newRegistry(cfg *config.Config, master *keystore.MasterKey, db *keystore.Database, logger zerolog.Logger) *registry.Registry {
	return registry.New(master, db,
		registry.WithSuffix(cfg.Suffix),
		registry.WithLogger(logger.With().Str("component", "registry").Logger()),
	)
}

// batchConflicts reports the files of an encryption batch whose identifiers collide.
// Decryption only reads keys, so it never conflicts.
func batchConflicts(cfg *config.Config, reg *registry.Registry) map[string]error {
	if cfg.Decrypt {
		return nil
	}

	return collisions(cfg.Files, reg.DeriveIdentifier)
}
