// Package config loads wpasc settings from flags, environment, an optional
// YAML file and a .env file.
//
// Precedence, highest first: flags bound by the caller, WPASC_* environment
// variables, the config file, defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. WPASC_DB.
const EnvPrefix = "WPASC"

// Config holds the resolved settings.
type Config struct {
	DB            string                 `mapstructure:"db"`
	Editor        string                 `mapstructure:"editor"`
	LogFile       string                 `mapstructure:"log_file"`
	Verbose       bool                   `mapstructure:"verbose"`
	PullDelay     time.Duration          `mapstructure:"pull_delay"`
	PageSize      int                    `mapstructure:"page_size"`
	WatchDebounce time.Duration          `mapstructure:"watch_debounce"`
	Asciidoc      map[string]interface{} `mapstructure:"asciidoc"`
}

// SetDefaults registers default values relative to home.
func SetDefaults(v *viper.Viper, home string) {
	v.SetDefault("db", filepath.Join(home, ".wp-asciidoc.db"))
	v.SetDefault("editor", "")
	v.SetDefault("log_file", filepath.Join(home, ".wpasc", "wpasc.log"))
	v.SetDefault("verbose", false)
	v.SetDefault("pull_delay", 100*time.Millisecond)
	v.SetDefault("page_size", 100)
	v.SetDefault("watch_debounce", 500*time.Millisecond)
	v.SetDefault("asciidoc", map[string]interface{}{})
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads settings into v and decodes them.
//
// cfgFile names an explicit config file, which must exist. Without it,
// $HOME/.wpasc.yaml is used when present.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to find home directory: %w", err)
	}
	SetDefaults(v, home)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".wpasc")
		v.SetConfigType("yaml")
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Editor == "" {
		cfg.Editor = os.Getenv("EDITOR")
	}
	cfg.DB = ExpandHome(cfg.DB, home)
	cfg.LogFile = ExpandHome(cfg.LogFile, home)
	if cfg.Asciidoc == nil {
		cfg.Asciidoc = map[string]interface{}{}
	}

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page_size must be positive (got %d)", cfg.PageSize)
	}
	if cfg.PullDelay < 0 {
		return nil, fmt.Errorf("pull_delay must not be negative (got %v)", cfg.PullDelay)
	}

	return &cfg, nil
}

// ExpandHome replaces a leading ~ with home.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
