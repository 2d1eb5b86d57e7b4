package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the tool-wide settings loaded from file, environment, and
// flags.
type Config struct {
	Color        string        `mapstructure:"color"`
	Icons        bool          `mapstructure:"icons"`
	LogLevel     string        `mapstructure:"log_level"`
	DSN          string        `mapstructure:"dsn"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	Diff         DiffConfig    `mapstructure:"diff"`
}

// DiffConfig defines thresholds for diff summaries.
type DiffConfig struct {
	MinSelfDelta     float64 `mapstructure:"min_self_delta"`
	MinPercentChange float64 `mapstructure:"min_percent_change"`
	MaxItems         int     `mapstructure:"max_items"`
}

var (
	mu     sync.RWMutex
	active = Default()
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Color:        "auto",
		Icons:        true,
		LogLevel:     "info",
		DSN:          "",
		QueryTimeout: 30 * time.Second,
		Diff: DiffConfig{
			MinSelfDelta:     1.0,
			MinPercentChange: 10.0,
			MaxItems:         20,
		},
	}
}

// Active returns the currently applied configuration.
func Active() Config {
	mu.RLock()
	defer mu.RUnlock()
	return active
}

// Use replaces the active configuration.
func Use(cfg Config) {
	mu.Lock()
	active = cfg
	mu.Unlock()
}

// Load reads the configuration from an optional file, PGPRISM_* environment
// variables, and the bound flag set, then installs the result as the active
// configuration. An empty path searches the user config directory and the
// working directory; a missing file is only an error when the path was given
// explicitly.
func Load(path string, flags *pflag.FlagSet) error {
	v := viper.New()

	def := Default()
	v.SetDefault("color", def.Color)
	v.SetDefault("icons", def.Icons)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("dsn", def.DSN)
	v.SetDefault("query_timeout", def.QueryTimeout)
	v.SetDefault("diff.min_self_delta", def.Diff.MinSelfDelta)
	v.SetDefault("diff.min_percent_change", def.Diff.MinPercentChange)
	v.SetDefault("diff.max_items", def.Diff.MaxItems)

	v.SetEnvPrefix("PGPRISM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "pgprism"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	Use(cfg)
	return nil
}

// Validate normalizes empty fields to their defaults and rejects values no
// component can act on.
func (c *Config) Validate() error {
	switch c.Color {
	case "auto", "always", "never":
	case "":
		c.Color = "auto"
	default:
		return fmt.Errorf("config: unknown color mode %q", c.Color)
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log level: %w", err)
	}

	if c.QueryTimeout < 0 {
		return fmt.Errorf("config: negative query timeout %s", c.QueryTimeout)
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = Default().QueryTimeout
	}

	def := Default().Diff
	if c.Diff.MinSelfDelta <= 0 {
		c.Diff.MinSelfDelta = def.MinSelfDelta
	}
	if c.Diff.MinPercentChange <= 0 {
		c.Diff.MinPercentChange = def.MinPercentChange
	}
	if c.Diff.MaxItems <= 0 {
		c.Diff.MaxItems = def.MaxItems
	}
	return nil
}
