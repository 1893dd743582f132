// Package encryption provides streaming AES-256 CBC file encryption.
//
// An encrypted artifact is the 16 byte initialization vector followed by the
// ciphertext. The plaintext is read in fixed-size chunks, so memory use is
// bounded by the chunk size regardless of the file size. The final chunk
// carries PKCS#7 padding, which is validated and stripped on decryption.
package encryption
