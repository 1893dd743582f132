package keystore

import (
	"errors"

	"github.com/idelchi/filevault/internal/encryption"
)

var (
	// ErrMasterKeyMissing is returned when the master secret file does not exist.
	ErrMasterKeyMissing = errors.New("master key missing")
	// ErrDatabaseCorrupt is returned when the key database cannot be authenticated or decoded.
	ErrDatabaseCorrupt = errors.New("key database corrupt")
	// ErrInvalidIdentifier is returned when an identifier is not standard base64.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

func ioError(op, path string, err error) error {
	return &encryption.IOError{Op: op, Path: path, Err: err}
}
