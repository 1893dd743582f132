package encryption

import (
	"crypto/aes"
	"encoding/hex"
	"fmt"
	"os"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unpadCase is a single test case from testdata/unpad.yml.
type unpadCase struct {
	Description string `yaml:"description"`
	Input       string `yaml:"input"`
	Want        string `yaml:"want"`
	Invalid     bool   `yaml:"invalid"`
}

// unpadGroup is a named collection of unpad cases.
type unpadGroup struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Cases       []unpadCase `yaml:"cases"`
}

func loadUnpadGroups(t *testing.T) []unpadGroup {
	t.Helper()

	data, err := os.ReadFile("testdata/unpad.yml")
	require.NoError(t, err)

	var groups []unpadGroup
	require.NoError(t, yaml.Unmarshal(data, &groups))
	require.NotEmpty(t, groups)

	return groups
}

func TestPkcs7Unpad(t *testing.T) {
	t.Parallel()

	for _, group := range loadUnpadGroups(t) {
		t.Run(group.Name, func(t *testing.T) {
			t.Parallel()

			for i, tc := range group.Cases {
				desc := tc.Description
				if desc == "" {
					desc = fmt.Sprintf("case_%d", i)
				}

				t.Run(desc, func(t *testing.T) {
					t.Parallel()

					input, err := hex.DecodeString(tc.Input)
					require.NoError(t, err)

					got, err := pkcs7Unpad(input, aes.BlockSize)
					if tc.Invalid {
						require.ErrorIs(t, err, ErrCorruptData)

						return
					}

					require.NoError(t, err)

					want, err := hex.DecodeString(tc.Want)
					require.NoError(t, err)
					assert.Equal(t, want, got)
				})
			}
		})
	}
}

func TestPkcs7Pad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		length  int
		wantPad int
	}{
		{"empty", 0, 16},
		{"one byte", 1, 15},
		{"one short of a block", 15, 1},
		{"block aligned", 16, 16},
		{"two blocks and a bit", 35, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			padded := pkcs7Pad(make([]byte, tt.length), aes.BlockSize)

			require.Len(t, padded, tt.length+tt.wantPad)

			for _, b := range padded[tt.length:] {
				assert.Equal(t, byte(tt.wantPad), b)
			}

			unpadded, err := pkcs7Unpad(padded, aes.BlockSize)
			require.NoError(t, err)
			assert.Len(t, unpadded, tt.length)
		})
	}
}
