// Package config holds the command line configuration and its validation.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// DirName is the directory below the home directory holding the key material.
	DirName = ".filevault"
	// MasterKeyFile is the default master key file name.
	MasterKeyFile = "master.key"
	// DatabaseFile is the default key database file name.
	DatabaseFile = "keys.db"

	redactedKey = "<redacted>"
)

// Config is the resolved configuration of a single invocation.
type Config struct {
	// Storage locations
	Dir       string `label:"--dir"        mapstructure:"dir"        validate:"required" yaml:"dir"`
	MasterKey string `label:"--master-key" mapstructure:"master-key" yaml:"master-key"`
	Database  string `label:"--database"   mapstructure:"database"   yaml:"database"`

	// Common flags
	Suffix    string `label:"--suffix"     mapstructure:"suffix"     validate:"required,excludesall=/"                     yaml:"suffix"`
	ChunkSize int    `label:"--chunk-size" mapstructure:"chunk-size" validate:"chunk"                                      yaml:"chunk-size"`
	Parallel  int    `label:"--parallel"   mapstructure:"parallel"   validate:"min=1"                                      yaml:"parallel"`
	Quiet     bool   `label:"--quiet"      mapstructure:"quiet"      yaml:"quiet"`
	LogLevel  string `label:"--log-level"  mapstructure:"log-level"  validate:"oneof=trace debug info warn error disabled" yaml:"log-level"`
	Show      bool   `label:"--show"       mapstructure:"show"       yaml:"-"`

	// Command-specific flags
	Key                string   `label:"--key"                 mapstructure:"key"                 validate:"omitempty,len=64" yaml:"key,omitempty"` // hex encoded, so 32 bytes = 64 chars
	Delete             bool     `label:"--delete"              mapstructure:"delete"              validate:"exclusive=Dry"    yaml:"delete"`
	PreserveTimestamps bool     `label:"--preserve-timestamps" mapstructure:"preserve-timestamps" yaml:"preserve-timestamps"`
	Stats              bool     `label:"--stats"               mapstructure:"stats"               yaml:"stats"`
	Dry                bool     `label:"--dry"                 mapstructure:"dry"                 yaml:"dry"`
	Forget             string   `label:"--forget"              mapstructure:"forget"              yaml:"forget,omitempty"`
	Exclude            []string `label:"--exclude"             mapstructure:"exclude"             yaml:"exclude,omitempty"`
	Decrypt            bool     `label:"-"                     mapstructure:"-"                   yaml:"decrypt"`

	// Positional arguments
	Files []string `label:"paths" mapstructure:"-" yaml:"files,omitempty"`
}

// DefaultDir returns the default storage directory below the user's home.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}

	return filepath.Join(home, DirName)
}

// MasterKeyPath returns the master key location, defaulting to a file in Dir.
func (c Config) MasterKeyPath() string {
	if c.MasterKey != "" {
		return c.MasterKey
	}

	return filepath.Join(c.Dir, MasterKeyFile)
}

// DatabasePath returns the key database location, defaulting to a file in Dir.
func (c Config) DatabasePath() string {
	if c.Database != "" {
		return c.Database
	}

	return filepath.Join(c.Dir, DatabaseFile)
}

// ManualKey decodes the --key flag. It returns nil when no key was given.
func (c Config) ManualKey() ([]byte, error) {
	if c.Key == "" {
		return nil, nil
	}

	key, err := hex.DecodeString(c.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}

	return key, nil
}

// Validate validates the configuration against the struct tags.
func (c Config) Validate() error {
	validate, err := newValidator()
	if err != nil {
		return err
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("validating configuration: %s", describe(verrs)) //nolint:err113
		}

		return fmt.Errorf("validating configuration: %w", err)
	}

	// Additional key validation
	if _, err := c.ManualKey(); err != nil {
		return err
	}

	return nil
}

// Redacted returns a copy safe to display, with the manual key masked.
func (c Config) Redacted() Config {
	if c.Key != "" {
		c.Key = redactedKey
	}

	c.Files = append([]string(nil), c.Files...)
	c.Exclude = append([]string(nil), c.Exclude...)

	return c
}

func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))

	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}

	return strings.Join(msgs, "; ")
}
