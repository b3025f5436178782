// Package config resolves kingdomcore settings from defaults, an optional
// kingdomcore.yaml, KINGDOMCORE_* environment variables and bound flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Keys shared by viper, the config file and cobra flag bindings.
const (
	KeyContentDir  = "content_dir"
	KeyKingdomFile = "kingdom_file"
	KeySeed        = "seed"
	KeyJournalPath = "journal_path"
	KeySaveDir     = "save_dir"
	KeyLogLevel    = "log_level"
	KeyLogFormat   = "log_format"
	KeyPlain       = "plain"
	KeyTrace       = "trace"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "KINGDOMCORE"

// Config is the resolved set of runtime settings.
type Config struct {
	ContentDir  string
	KingdomFile string
	Seed        int64
	JournalPath string
	SaveDir     string
	LogLevel    string
	LogFormat   string
	Plain       bool
	Trace       bool
}

// New returns a viper instance with defaults and environment binding set up.
// configFile may be empty, in which case kingdomcore.yaml is searched for in
// the working directory and ~/.kingdomcore.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	home, _ := os.UserHomeDir()

	v.SetDefault(KeyContentDir, "")
	v.SetDefault(KeyKingdomFile, "")
	v.SetDefault(KeySeed, int64(0))
	v.SetDefault(KeyJournalPath, "")
	v.SetDefault(KeySaveDir, filepath.Join(home, ".kingdomcore", "saves"))
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyPlain, false)
	v.SetDefault(KeyTrace, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("kingdomcore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home != "" {
			v.AddConfigPath(filepath.Join(home, ".kingdomcore"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// FromViper snapshots v into a Config and checks it.
func FromViper(v *viper.Viper) (Config, error) {
	c := Config{
		ContentDir:  v.GetString(KeyContentDir),
		KingdomFile: v.GetString(KeyKingdomFile),
		Seed:        v.GetInt64(KeySeed),
		JournalPath: v.GetString(KeyJournalPath),
		SaveDir:     v.GetString(KeySaveDir),
		LogLevel:    strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:   strings.ToLower(v.GetString(KeyLogFormat)),
		Plain:       v.GetBool(KeyPlain),
		Trace:       v.GetBool(KeyTrace),
	}
	if c.KingdomFile == "" && c.ContentDir != "" {
		c.KingdomFile = filepath.Join(c.ContentDir, "kingdom.yaml")
	}
	if _, err := c.Level(); err != nil {
		return c, err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return c, fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	return c, nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return l, nil
}

// Logger builds the structured logger described by the config.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
