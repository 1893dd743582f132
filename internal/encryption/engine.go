package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// KeySize is the required key size for AES-256.
	KeySize = 32
	// DefaultChunkSize is the number of bytes read from the input per step.
	DefaultChunkSize = 1024 * aes.BlockSize
)

// Engine encrypts and decrypts byte streams with AES-256 in CBC mode.
// The chaining state lives in each Encrypt or Decrypt call, so a single Engine
// may serve several files concurrently.
type Engine struct {
	// chunkSize is the read size, a positive multiple of aes.BlockSize
	chunkSize int
}

// Option configures an Engine.
type Option func(*Engine)

// WithChunkSize sets the number of bytes read per step.
func WithChunkSize(size int) Option {
	return func(e *Engine) {
		e.chunkSize = size
	}
}

// New creates an Engine with the default chunk size unless overridden.
func New(opts ...Option) *Engine {
	engine := &Engine{chunkSize: DefaultChunkSize}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// ChunkSize returns the configured read size.
func (e *Engine) ChunkSize() int {
	return e.chunkSize
}

// ValidateChunkSize reports whether size can be used as a read size.
func ValidateChunkSize(size int) error {
	if size <= 0 || size%aes.BlockSize != 0 {
		return fmt.Errorf("%w: got %d", ErrChunkSize, size)
	}

	return nil
}

// GenerateKey returns a new random 256-bit key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	return key, nil
}

// EncryptedSize returns the artifact size for a plaintext of n bytes:
// the IV plus the plaintext rounded up to the next block, with a full
// padding block when n is already block aligned.
//
// This is one block more than 16 + ceil(n/16)*16 whenever the final chunk is
// block aligned: a 40000 byte input yields 40032 bytes, not 40016. Padding the
// aligned final chunk is what lets Decrypt strip padding unconditionally, so
// every plaintext round-trips.
func EncryptedSize(n int64) int64 {
	const blockSize = int64(aes.BlockSize)

	return blockSize + (n/blockSize+1)*blockSize
}

// newBlock validates the key and the chunk size and creates the AES block cipher.
func (e *Engine) newBlock(key []byte) (cipher.Block, error) {
	if err := ValidateChunkSize(e.chunkSize); err != nil {
		return nil, err
	}

	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrKeyLength, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	return block, nil
}
