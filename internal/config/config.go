// Package config loads elcairo settings from defaults, an optional YAML file
// and ELCAIRO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "ELCAIRO"

// Config holds every tunable of the pipeline and the CLI
type Config struct {
	Feed     FeedConfig     `mapstructure:"feed"`
	Detail   DetailConfig   `mapstructure:"detail"`
	Enricher EnricherConfig `mapstructure:"enricher"`
	Pager    PagerConfig    `mapstructure:"pager"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Images   ImagesConfig   `mapstructure:"images"`
	Log      LogConfig      `mapstructure:"log"`
	Timezone string         `mapstructure:"timezone"`
}

// FeedConfig describes the monthly calendar feed
type FeedConfig struct {
	BaseURL string        `mapstructure:"baseurl"`
	Timeout time.Duration `mapstructure:"timeout"`
	Delay   time.Duration `mapstructure:"delay"`
}

// DetailConfig describes detail page scraping
type DetailConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cachettl"`
}

// EnricherConfig bounds the parallel detail fetches
type EnricherConfig struct {
	Workers int `mapstructure:"workers"`
}

// PagerConfig tunes the month walk. Zero means no cap on consecutive failures.
type PagerConfig struct {
	MaxConsecutiveFailures int `mapstructure:"maxconsecutivefailures"`
}

// StorageConfig locates the SQLite cache and images
type StorageConfig struct {
	DataDir string `mapstructure:"datadir"`
}

// ImagesConfig controls poster downloads
type ImagesConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig controls the default logger
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Location resolves Timezone, falling back to the local zone
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.baseurl", "https://elcairocinepublico.gob.ar/cartelera-de-sala")
	v.SetDefault("feed.timeout", 10*time.Second)
	v.SetDefault("feed.delay", 500*time.Millisecond)

	v.SetDefault("detail.timeout", 10*time.Second)
	v.SetDefault("detail.cachettl", 30*time.Minute)

	v.SetDefault("enricher.workers", 4)

	v.SetDefault("pager.maxconsecutivefailures", 0)

	v.SetDefault("storage.datadir", "~/.local/share/elcairo")

	v.SetDefault("images.enabled", true)
	v.SetDefault("images.timeout", 3*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("timezone", "America/Argentina/Buenos_Aires")
}

// New returns a viper instance with defaults and environment bindings applied
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. When path is empty, elcairo.yaml is looked up
// in the working directory and ~/.config/elcairo; a missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("elcairo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "elcairo"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Feed.BaseURL == "" {
		return fmt.Errorf("feed.baseurl must not be empty")
	}
	if c.Feed.Timeout <= 0 || c.Detail.Timeout <= 0 {
		return fmt.Errorf("feed.timeout and detail.timeout must be positive")
	}
	if c.Enricher.Workers < 1 {
		return fmt.Errorf("enricher.workers must be at least 1, got %d", c.Enricher.Workers)
	}
	if c.Pager.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("pager.maxconsecutivefailures must not be negative")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.datadir must not be empty")
	}
	return nil
}
