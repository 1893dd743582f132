package keystore_test

import (
	"bytes"
	"crypto/rand"
	"maps"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/filevault/internal/encryption"
	"github.com/idelchi/filevault/internal/keystore"
)

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()

	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)

	return b
}

func sampleEntries(t *testing.T) map[string][]byte {
	t.Helper()

	return map[string][]byte{
		"cmVwb3J0LnBkZg==": randomBytes(t, encryption.KeySize),
		"bm90ZXMudHh0":     randomBytes(t, encryption.KeySize),
		"YQ==":             bytes.Repeat([]byte{0x42}, encryption.KeySize),
	}
}

func TestDatabaseMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	db := keystore.NewDatabase(filepath.Join(t.TempDir(), "keys.db"))

	entries, err := db.Load(randomBytes(t, keystore.MasterKeySize))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDatabaseRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries map[string][]byte
	}{
		{name: "empty", entries: map[string][]byte{}},
		{name: "single", entries: map[string][]byte{"YQ==": randomBytes(t, encryption.KeySize)}},
		{name: "several", entries: sampleEntries(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			master := randomBytes(t, keystore.MasterKeySize)
			db := keystore.NewDatabase(filepath.Join(dir, "keys.db"))

			require.NoError(t, db.Save(master, tt.entries))

			got, err := db.Load(master)
			require.NoError(t, err)
			assert.Equal(t, tt.entries, got)

			files, err := os.ReadDir(dir)
			require.NoError(t, err)
			require.Len(t, files, 1, "no temporary files should remain")
			assert.Equal(t, "keys.db", files[0].Name())
		})
	}
}

func TestDatabaseOverwrite(t *testing.T) {
	t.Parallel()

	master := randomBytes(t, keystore.MasterKeySize)
	db := keystore.NewDatabase(filepath.Join(t.TempDir(), "keys.db"))

	require.NoError(t, db.Save(master, sampleEntries(t)))

	replacement := map[string][]byte{"Yg==": randomBytes(t, encryption.KeySize)}
	require.NoError(t, db.Save(master, replacement))

	got, err := db.Load(master)
	require.NoError(t, err)
	assert.Equal(t, replacement, got)
}

func TestDatabaseBlobLayout(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys.db")
	require.NoError(t, keystore.NewDatabase(path).Save(randomBytes(t, keystore.MasterKeySize), sampleEntries(t)))

	blob, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []byte("FVKD\x01\x00"), blob[:6])
	assert.NotContains(t, string(blob), "cmVwb3J0LnBkZg==", "identifiers must not be stored in the clear")
}

func TestDatabaseTamperedByte(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keys.db")
	master := randomBytes(t, keystore.MasterKeySize)
	db := keystore.NewDatabase(path)

	require.NoError(t, db.Save(master, sampleEntries(t)))

	original, err := os.ReadFile(path)
	require.NoError(t, err)

	for i := range original {
		tampered := bytes.Clone(original)
		tampered[i] ^= 0x01

		require.NoError(t, os.WriteFile(path, tampered, 0o600))

		_, err := db.Load(master)
		require.ErrorIs(t, err, keystore.ErrDatabaseCorrupt, "flipped byte %d", i)
	}
}

func TestDatabaseWrongMaster(t *testing.T) {
	t.Parallel()

	db := keystore.NewDatabase(filepath.Join(t.TempDir(), "keys.db"))
	require.NoError(t, db.Save(randomBytes(t, keystore.MasterKeySize), sampleEntries(t)))

	_, err := db.Load(randomBytes(t, keystore.MasterKeySize))
	require.ErrorIs(t, err, keystore.ErrDatabaseCorrupt)
}

func TestDatabaseMalformed(t *testing.T) {
	t.Parallel()

	master := randomBytes(t, keystore.MasterKeySize)

	source := filepath.Join(t.TempDir(), "keys.db")
	require.NoError(t, keystore.NewDatabase(source).Save(master, sampleEntries(t)))

	valid, err := os.ReadFile(source)
	require.NoError(t, err)

	tests := []struct {
		name string
		blob []byte
	}{
		{name: "empty file", blob: nil},
		{name: "header only", blob: valid[:6]},
		{name: "short header", blob: []byte("FVK")},
		{name: "truncated payload", blob: valid[:len(valid)-1]},
		{name: "garbage", blob: randomBytes(t, 128)},
		{name: "plain text", blob: []byte(`{"version": 1, "keys": {}}`)},
		{name: "future version", blob: append([]byte("FVKD\x02\x00"), valid[6:]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "keys.db")
			require.NoError(t, os.WriteFile(path, tt.blob, 0o600))

			_, err := keystore.NewDatabase(path).Load(master)
			require.ErrorIs(t, err, keystore.ErrDatabaseCorrupt)
		})
	}
}

func TestDatabaseMasterLength(t *testing.T) {
	t.Parallel()

	db := keystore.NewDatabase(filepath.Join(t.TempDir(), "keys.db"))

	err := db.Save(randomBytes(t, 16), sampleEntries(t))
	require.ErrorIs(t, err, encryption.ErrKeyLength)
}

func TestDatabaseSaveRejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      string
		key     []byte
		wantErr error
	}{
		{name: "identifier not base64", id: "other", key: bytes.Repeat([]byte{1}, encryption.KeySize), wantErr: keystore.ErrInvalidIdentifier},
		{name: "short key", id: "b3RoZXI=", key: bytes.Repeat([]byte{1}, 16), wantErr: encryption.ErrKeyLength},
		{name: "empty key", id: "b3RoZXI=", key: nil, wantErr: encryption.ErrKeyLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "keys.db")
			master := randomBytes(t, keystore.MasterKeySize)
			db := keystore.NewDatabase(path)

			good := sampleEntries(t)
			require.NoError(t, db.Save(master, good))

			before, err := os.ReadFile(path)
			require.NoError(t, err)

			bad := maps.Clone(good)
			bad[tt.id] = tt.key

			require.ErrorIs(t, db.Save(master, bad), tt.wantErr)

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, before, after, "a rejected save must leave the database untouched")

			got, err := db.Load(master)
			require.NoError(t, err)
			assert.Equal(t, good, got)
		})
	}
}
