package config_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/filevault/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Dir:       "/var/lib/filevault",
		Suffix:    ".encrypted",
		ChunkSize: 16384,
		Parallel:  4,
		LogLevel:  "warn",
		Files:     []string{"a.txt"},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr string
	}{
		{name: "defaults", modify: func(*config.Config) {}},
		{name: "manual key", modify: func(c *config.Config) { c.Key = strings.Repeat("ab", 32) }},
		{name: "small chunk", modify: func(c *config.Config) { c.ChunkSize = 16 }},
		{name: "zero chunk", modify: func(c *config.Config) { c.ChunkSize = 0 }, wantErr: "--chunk-size must be a positive multiple of 16"},
		{name: "negative chunk", modify: func(c *config.Config) { c.ChunkSize = -16 }, wantErr: "--chunk-size"},
		{name: "unaligned chunk", modify: func(c *config.Config) { c.ChunkSize = 1000 }, wantErr: "--chunk-size"},
		{name: "no parallelism", modify: func(c *config.Config) { c.Parallel = 0 }, wantErr: "--parallel must be at least 1"},
		{name: "empty suffix", modify: func(c *config.Config) { c.Suffix = "" }, wantErr: "--suffix is required"},
		{name: "suffix with separator", modify: func(c *config.Config) { c.Suffix = "/x" }, wantErr: "--suffix must not contain"},
		{name: "missing dir", modify: func(c *config.Config) { c.Dir = "" }, wantErr: "--dir is required"},
		{name: "bad log level", modify: func(c *config.Config) { c.LogLevel = "loud" }, wantErr: "--log-level must be one of"},
		{name: "short key", modify: func(c *config.Config) { c.Key = "abcd" }, wantErr: "--key must be 64 characters long"},
		{name: "non hex key", modify: func(c *config.Config) { c.Key = strings.Repeat("zz", 32) }, wantErr: "invalid key format"},
		{
			name:    "delete during dry run",
			modify:  func(c *config.Config) { c.Delete, c.Dry = true, true },
			wantErr: "--delete is mutually exclusive with --dry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPaths(t *testing.T) {
	t.Parallel()

	cfg := validConfig()

	assert.Equal(t, filepath.Join(cfg.Dir, "master.key"), cfg.MasterKeyPath())
	assert.Equal(t, filepath.Join(cfg.Dir, "keys.db"), cfg.DatabasePath())

	cfg.MasterKey = "/secrets/m.key"
	cfg.Database = "/data/k.db"

	assert.Equal(t, "/secrets/m.key", cfg.MasterKeyPath())
	assert.Equal(t, "/data/k.db", cfg.DatabasePath())
}

func TestManualKey(t *testing.T) {
	t.Parallel()

	cfg := validConfig()

	key, err := cfg.ManualKey()
	require.NoError(t, err)
	assert.Nil(t, key)

	cfg.Key = strings.Repeat("0f", 32)

	key, err = cfg.ManualKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)
	assert.Equal(t, byte(0x0f), key[0])
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	assert.Equal(t, filepath.Join("/home/tester", ".filevault"), config.DefaultDir())
}

func TestRedacted(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Key = strings.Repeat("ab", 32)

	redacted := cfg.Redacted()

	assert.Equal(t, "<redacted>", redacted.Key)
	assert.Equal(t, strings.Repeat("ab", 32), cfg.Key, "the original must be untouched")

	redacted.Files[0] = "changed"
	assert.Equal(t, "a.txt", cfg.Files[0])

	assert.Empty(t, validConfig().Redacted().Key)
}
