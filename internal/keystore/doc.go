// Package keystore persists per-file keys in a database encrypted under a master secret.
//
// The master secret is a raw 32 byte file created once and never overwritten.
// The database is a single blob: a short header followed by an AES-256-GCM
// payload produced by Tink with a key derived from the master secret. The
// payload is a deterministic protobuf encoding of every identifier and key,
// so the database is always read and written as a whole.
package keystore
