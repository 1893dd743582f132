package encryption

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyLength is returned when a key is not exactly KeySize bytes long.
	ErrKeyLength = errors.New("invalid key length")
	// ErrCorruptData is returned when a ciphertext cannot be decrypted into valid plaintext.
	// Malformed padding, a truncated stream and a wrong key all end up here.
	ErrCorruptData = errors.New("corrupt data or wrong key")
	// ErrChunkSize is returned when the configured chunk size is not a positive multiple of the block size.
	ErrChunkSize = errors.New("chunk size must be a positive multiple of the block size")
)

// IOError reports a read or write failure on the underlying storage.
type IOError struct {
	Op   string // "reading plaintext", "writing IV", ...
	Path string // File path, if known
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("io error: %s %q: %v", e.Op, e.Path, e.Err)
	}

	return fmt.Sprintf("io error: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
