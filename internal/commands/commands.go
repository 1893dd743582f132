package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/filevault/internal/config"
	"github.com/idelchi/filevault/internal/logic"
)

// EnvPrefix is the prefix of environment variables overriding flags.
const EnvPrefix = "FILEVAULT"

// state is shared by the root command and its subcommands.
type state struct {
	cfg    config.Config
	logger zerolog.Logger
}

// load binds the flags of the executing command and the environment into the configuration.
// Fields not backed by flags, such as the positional files, are left untouched.
func (s *state) load(cmd *cobra.Command) error {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	if err := v.Unmarshal(&s.cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	s.logger = newLogger(cmd.ErrOrStderr(), s.cfg.LogLevel)

	return nil
}

// preRun returns a PreRunE handler that stores positional args in cfg.Files
// and validates the configuration.
func (s *state) preRun(decrypt bool) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		s.cfg.Decrypt = decrypt
		s.cfg.Files = args

		return s.cfg.Validate()
	}
}

// runE wraps fn so that --show prints the configuration instead of running it.
func (s *state) runE(fn func(logic.Streams) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		streams := logic.Streams{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}

		if s.cfg.Show {
			return show(streams.Out, s.cfg)
		}

		s.logger.Debug().Strs("files", s.cfg.Files).Bool("decrypt", s.cfg.Decrypt).Msg("running " + cmd.Name())

		return fn(streams)
	}
}

func show(w io.Writer, cfg config.Config) error {
	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("marshalling configuration: %w", err)
	}

	_, err = w.Write(out)

	return err
}

// newLogger returns a console logger on w. Unknown levels fall back to warn.
func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}

	if w == nil {
		w = os.Stderr
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
