// Package config loads the milepost configuration from the config file,
// MILEPOST_* environment variables, and command-line flags, in ascending
// precedence.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete milepost configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Cache  CacheConfig  `mapstructure:"cache"`
	TUI    TUIConfig    `mapstructure:"tui"`
}

// ServerConfig locates the task server.
type ServerConfig struct {
	// BaseURL is the root of the task server's HTTP API.
	BaseURL string `mapstructure:"base_url"`
	// TimeoutSeconds bounds each request (0 = no client timeout).
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// CacheConfig controls the local sqlite mirror.
type CacheConfig struct {
	// Dir holds the cache database. Empty means the user cache dir.
	Dir string `mapstructure:"dir"`
}

// TUIConfig controls terminal UI behavior.
type TUIConfig struct {
	// Theme is the color theme name (default: "default")
	Theme string `mapstructure:"theme"`
	// ResizeDebounceMs delays graph re-layout after a terminal resize so a
	// drag that fires many resize events triggers one relayout.
	ResizeDebounceMs int `mapstructure:"resize_debounce_ms"`
}

// Timeout returns the request timeout as a time.Duration.
func (s *ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ResizeDebounce returns the debounce interval as a time.Duration.
func (t *TUIConfig) ResizeDebounce() time.Duration {
	return time.Duration(t.ResizeDebounceMs) * time.Millisecond
}

// ResolveDir returns the cache directory, falling back to the platform
// user cache dir when unset. Supports ~ expansion.
func (c *CacheConfig) ResolveDir() string {
	if c.Dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return ".milepost"
		}
		return filepath.Join(base, "milepost")
	}
	dir := c.Dir
	if strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[2:])
		}
	}
	return dir
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:12345",
			TimeoutSeconds: 15,
		},
		Cache: CacheConfig{
			Dir: "",
		},
		TUI: TUIConfig{
			Theme:            "default",
			ResizeDebounceMs: 100,
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("server.base_url", defaults.Server.BaseURL)
	viper.SetDefault("server.timeout_seconds", defaults.Server.TimeoutSeconds)

	viper.SetDefault("cache.dir", defaults.Cache.Dir)

	viper.SetDefault("tui.theme", defaults.TUI.Theme)
	viper.SetDefault("tui.resize_debounce_ms", defaults.TUI.ResizeDebounceMs)
}

// Init wires viper to the config file and the MILEPOST_* environment.
// A missing config file is not an error; anything else is.
func Init(cfgFile string) error {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(ConfigDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MILEPOST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if cfgFile == "" && os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

// Load reads the configuration from viper into a Config struct and
// validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.BaseURL) == "" {
		return errors.New("server.base_url must not be empty")
	}
	if c.Server.TimeoutSeconds < 0 {
		return errors.New("server.timeout_seconds must not be negative")
	}
	if c.TUI.ResizeDebounceMs < 0 {
		return errors.New("tui.resize_debounce_ms must not be negative")
	}
	return nil
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "milepost")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".milepost"
	}
	return filepath.Join(home, ".config", "milepost")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
