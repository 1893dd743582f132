package keystore

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/idelchi/filevault/internal/encryption"
	"github.com/idelchi/filevault/internal/fileutil"
)

// MasterKeySize is the size of the master secret in bytes.
const MasterKeySize = 32

// MasterKey owns the master secret file.
// Anyone able to read the file can decrypt the key database.
type MasterKey struct {
	path string
}

// NewMasterKey returns a MasterKey backed by the file at path.
func NewMasterKey(path string) *MasterKey {
	return &MasterKey{path: path}
}

// Path returns the location of the master secret file.
func (m *MasterKey) Path() string {
	return m.path
}

// EnsureInitialized creates the master secret if it does not exist yet.
// An existing secret is never overwritten, so calling it repeatedly is safe.
func (m *MasterKey) EnsureInitialized() error {
	if _, err := os.Stat(m.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return ioError("checking master key", m.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return ioError("creating master key directory", m.path, err)
	}

	secret := make([]byte, MasterKeySize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return fmt.Errorf("generating master key: %w", err)
	}

	if _, err := fileutil.WriteFileOnce(m.path, secret, fileutil.OwnerReadWrite); err != nil {
		return ioError("writing master key", m.path, err)
	}

	return nil
}

// Read returns the persisted master secret.
func (m *MasterKey) Read() ([]byte, error) {
	secret, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMasterKeyMissing, m.path)
	}

	if err != nil {
		return nil, ioError("reading master key", m.path, err)
	}

	if len(secret) != MasterKeySize {
		return nil, fmt.Errorf("%w: master key %s has %d bytes, want %d",
			encryption.ErrKeyLength, m.path, len(secret), MasterKeySize)
	}

	return secret, nil
}
