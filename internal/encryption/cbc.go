package encryption

import (
	"bufio"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Encrypt reads plaintext from r and writes the IV followed by the ciphertext to w.
//
// Full chunks are encrypted as they are. The first chunk shorter than the
// chunk size ends the stream and is padded, even when it is block aligned or
// empty, so that Decrypt can always strip the padding from the final chunk.
func (e *Engine) Encrypt(key []byte, r io.Reader, w io.Writer) error {
	block, err := e.newBlock(key)
	if err != nil {
		return err
	}

	// Generate and write IV
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return fmt.Errorf("generating IV: %w", err)
	}

	if _, err := w.Write(iv); err != nil {
		return &IOError{Op: "writing IV", Err: err}
	}

	cbcMode := cipher.NewCBCEncrypter(block, iv)

	buf, release := e.buffer()
	defer release()

	for {
		n, err := io.ReadFull(r, buf[:e.chunkSize])

		switch {
		case err == nil:
			chunk := buf[:n]
			cbcMode.CryptBlocks(chunk, chunk)

			if _, err := w.Write(chunk); err != nil {
				return &IOError{Op: "writing encrypted chunk", Err: err}
			}
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			// Short read: this is the final chunk. The buffer has room for the padding.
			final := pkcs7Pad(buf[:n], aes.BlockSize)
			cbcMode.CryptBlocks(final, final)

			if _, err := w.Write(final); err != nil {
				return &IOError{Op: "writing final encrypted chunk", Err: err}
			}

			return nil
		default:
			return &IOError{Op: "reading plaintext", Err: err}
		}
	}
}

// Decrypt reads an artifact produced by Encrypt from r and writes the plaintext to w.
//
// A chunk is final when the read returned fewer bytes than the chunk size or
// when the stream is exhausted right after it. Only the final chunk is unpadded.
// On error, w may hold a partial plaintext that the caller must discard.
func (e *Engine) Decrypt(key []byte, r io.Reader, w io.Writer) error {
	block, err := e.newBlock(key)
	if err != nil {
		return err
	}

	// Read IV
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(r, iv); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: missing initialization vector", ErrCorruptData)
		}

		return &IOError{Op: "reading IV", Err: err}
	}

	cbcMode := cipher.NewCBCDecrypter(block, iv)
	bufReader := bufio.NewReader(r)

	buf, release := e.buffer()
	defer release()

	for {
		n, err := io.ReadFull(bufReader, buf[:e.chunkSize])

		var final bool

		switch {
		case err == nil:
			// A full chunk is final only if nothing follows it.
			if _, peekErr := bufReader.Peek(1); errors.Is(peekErr, io.EOF) {
				final = true
			} else if peekErr != nil {
				return &IOError{Op: "reading ciphertext", Err: peekErr}
			}
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			final = true
		default:
			return &IOError{Op: "reading ciphertext", Err: err}
		}

		// An empty final read can only happen when no ciphertext follows the IV,
		// since a full chunk followed by EOF is already marked final above.
		if n == 0 {
			return fmt.Errorf("%w: missing final block", ErrCorruptData)
		}

		if n%aes.BlockSize != 0 {
			return fmt.Errorf("%w: ciphertext is not a multiple of the block size", ErrCorruptData)
		}

		plaintext := buf[:n]
		cbcMode.CryptBlocks(plaintext, plaintext)

		if final {
			if plaintext, err = pkcs7Unpad(plaintext, aes.BlockSize); err != nil {
				return err
			}
		}

		if _, err := w.Write(plaintext); err != nil {
			return &IOError{Op: "writing decrypted chunk", Err: err}
		}

		if final {
			return nil
		}
	}
}
