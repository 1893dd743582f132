// Package registry maps file names to their encryption keys.
//
// A Registry sits on top of the keystore: every operation loads the encrypted
// database, reads or modifies it and writes it back, all while holding a lock
// on a sibling lock file so concurrent goroutines and processes never lose
// updates.
package registry

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/idelchi/filevault/internal/encryption"
	"github.com/idelchi/filevault/internal/keystore"
)

// DefaultSuffix marks encrypted artifacts.
const DefaultSuffix = ".encrypted"

// ErrKeyNotFound is returned by callers when a lookup miss must abort the operation.
var ErrKeyNotFound = errors.New("key not found")

// Registry stores and retrieves per-file keys.
type Registry struct {
	master *keystore.MasterKey
	db     *keystore.Database
	suffix string
	logger zerolog.Logger

	mu   sync.Mutex
	lock *flock.Flock
}

// Option configures a Registry.
type Option func(*Registry)

// WithSuffix sets the artifact suffix stripped by ArtifactIdentifier.
func WithSuffix(suffix string) Option {
	return func(r *Registry) {
		r.suffix = suffix
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// LockPath returns the lock file guarding the database at path.
func LockPath(path string) string {
	return path + ".lock"
}

// New returns a Registry backed by the given master key and database.
func New(master *keystore.MasterKey, db *keystore.Database, opts ...Option) *Registry {
	r := &Registry{
		master: master,
		db:     db,
		suffix: DefaultSuffix,
		logger: zerolog.Nop(),
		lock:   flock.New(LockPath(db.Path())),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Suffix returns the artifact suffix.
func (r *Registry) Suffix() string {
	return r.suffix
}

// DeriveIdentifier returns the identifier for the file at path.
// Only the base name is used, so the same name in two directories shares an entry.
func (r *Registry) DeriveIdentifier(path string) string {
	return base64.StdEncoding.EncodeToString([]byte(filepath.Base(path)))
}

// ArtifactIdentifier returns the identifier of the file an artifact was produced from.
// One trailing suffix is stripped from the base name when present.
func (r *Registry) ArtifactIdentifier(path string) string {
	return r.DeriveIdentifier(r.OriginalName(path))
}

// OriginalName returns the base name of path without one trailing suffix.
func (r *Registry) OriginalName(path string) string {
	name := filepath.Base(path)

	if r.suffix != "" && len(name) > len(r.suffix) && strings.HasSuffix(name, r.suffix) {
		return strings.TrimSuffix(name, r.suffix)
	}

	return name
}

// Store records key for the file at path, replacing any previous entry,
// and returns the identifier it was stored under.
func (r *Registry) Store(key []byte, path string) (string, error) {
	if len(key) != encryption.KeySize {
		return "", fmt.Errorf("%w: got %d bytes, want %d", encryption.ErrKeyLength, len(key), encryption.KeySize)
	}

	id := r.DeriveIdentifier(path)

	err := r.update(func(entries map[string][]byte) bool {
		_, replaced := entries[id]
		entries[id] = append([]byte(nil), key...)

		r.logger.Debug().Str("path", path).Str("id", id).Bool("replaced", replaced).Msg("storing key")

		return true
	})
	if err != nil {
		return "", fmt.Errorf("storing key for %q: %w", path, err)
	}

	return id, nil
}

// Lookup returns the key stored for the artifact at path.
// A miss reports ok=false without an error.
func (r *Registry) Lookup(path string) (key []byte, ok bool, err error) {
	id := r.ArtifactIdentifier(path)

	err = r.view(func(entries map[string][]byte) {
		key, ok = entries[id]
	})
	if err != nil {
		return nil, false, fmt.Errorf("looking up key for %q: %w", path, err)
	}

	r.logger.Debug().Str("path", path).Str("id", id).Bool("found", ok).Msg("looking up key")

	return key, ok, nil
}

// Names returns the sorted base names of every file with a stored key.
// Entries whose identifier does not decode are listed as stored.
func (r *Registry) Names() ([]string, error) {
	var names []string

	err := r.view(func(entries map[string][]byte) {
		names = make([]string, 0, len(entries))

		for id := range entries {
			name, err := base64.StdEncoding.DecodeString(id)
			if err != nil {
				names = append(names, id)

				continue
			}

			names = append(names, string(name))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}

	sort.Strings(names)

	return names, nil
}

// Forget removes the entry for the artifact or file at path.
// It reports whether an entry existed.
func (r *Registry) Forget(path string) (bool, error) {
	id := r.ArtifactIdentifier(path)

	var removed bool

	err := r.update(func(entries map[string][]byte) bool {
		if _, removed = entries[id]; removed {
			delete(entries, id)
		}

		return removed
	})
	if err != nil {
		return false, fmt.Errorf("forgetting key for %q: %w", path, err)
	}

	r.logger.Debug().Str("path", path).Str("id", id).Bool("removed", removed).Msg("forgetting key")

	return removed, nil
}

// view runs fn on the current entries under a shared lock.
func (r *Registry) view(fn func(map[string][]byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.acquire(r.lock.RLock); err != nil {
		return err
	}
	defer r.lock.Unlock() //nolint:errcheck // released on close at worst

	master, entries, err := r.load()
	if err != nil {
		return err
	}

	clear(master)

	fn(entries)

	return nil
}

// update runs fn on the current entries under an exclusive lock
// and saves them when fn reports a change.
func (r *Registry) update(fn func(map[string][]byte) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.acquire(r.lock.Lock); err != nil {
		return err
	}
	defer r.lock.Unlock() //nolint:errcheck // released on close at worst

	master, entries, err := r.load()
	if err != nil {
		return err
	}
	defer clear(master)

	if !fn(entries) {
		return nil
	}

	return r.db.Save(master, entries)
}

// acquire takes the file lock, creating the database directory if needed.
func (r *Registry) acquire(lock func() error) error {
	if err := os.MkdirAll(filepath.Dir(r.lock.Path()), 0o700); err != nil {
		return fmt.Errorf("creating %q: %w", filepath.Dir(r.lock.Path()), err)
	}

	if err := lock(); err != nil {
		return fmt.Errorf("locking %q: %w", r.lock.Path(), err)
	}

	return nil
}

func (r *Registry) load() ([]byte, map[string][]byte, error) {
	master, err := r.master.Read()
	if err != nil {
		return nil, nil, err
	}

	entries, err := r.db.Load(master)
	if err != nil {
		clear(master)

		return nil, nil, err
	}

	return master, entries, nil
}
