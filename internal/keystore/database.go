package keystore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/idelchi/filevault/internal/fileutil"
)

// Database is the encrypted identifier to key mapping stored in a single file.
// It has no in-memory state: every Load and Save touches the file.
type Database struct {
	path string
}

// NewDatabase returns a Database backed by the file at path.
func NewDatabase(path string) *Database {
	return &Database{path: path}
}

// Path returns the location of the database file.
func (d *Database) Path() string {
	return d.path
}

// Load decrypts and decodes the database.
// A missing file yields an empty mapping.
func (d *Database) Load(master []byte) (map[string][]byte, error) {
	blob, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]byte{}, nil
	}

	if err != nil {
		return nil, ioError("reading key database", d.path, err)
	}

	primitive, err := newDatabaseAEAD(master)
	if err != nil {
		return nil, err
	}

	header, payload, err := splitDatabaseBlob(blob)
	if err != nil {
		return nil, err
	}

	plaintext, err := primitive.Decrypt(payload, header)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrDatabaseCorrupt)
	}

	return decodeEntries(plaintext)
}

// Save encrypts the complete mapping and atomically replaces the database file.
func (d *Database) Save(master []byte, entries map[string][]byte) error {
	primitive, err := newDatabaseAEAD(master)
	if err != nil {
		return err
	}

	plaintext, err := encodeEntries(entries)
	if err != nil {
		return err
	}

	header := newDatabaseHeader()

	payload, err := primitive.Encrypt(plaintext, header)
	if err != nil {
		return fmt.Errorf("encrypting key database: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(d.path), 0o700); err != nil {
		return ioError("creating key database directory", d.path, err)
	}

	blob := make([]byte, 0, len(header)+len(payload))
	blob = append(blob, header...)
	blob = append(blob, payload...)

	if err := fileutil.WriteFileAtomic(d.path, blob, fileutil.OwnerReadWrite); err != nil {
		return ioError("writing key database", d.path, err)
	}

	return nil
}
