// Package config loads server configuration with viper (env vars, an
// optional config file, and hardcoded defaults), grounded in
// sam-saffron-jarvis-term-llm's internal/config (SetConfigName/SetDefault/
// Unmarshal, defaults-as-a-map-literal, XDG config dir resolution).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the altdocs-server process configuration.
type Config struct {
	Listen string `mapstructure:"listen"`

	SQLitePath string `mapstructure:"sqlite_path"`

	MaxHistoryLength    int           `mapstructure:"max_history_length"`
	BroadcastBufferSize int           `mapstructure:"broadcast_buffer_size"`
	HeartbeatInterval   time.Duration `mapstructure:"heartbeat_interval"`

	SnapshotDir      string        `mapstructure:"snapshot_dir"`
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`

	LogLevel string `mapstructure:"log_level"`
}

// GetDefaults returns the single source of truth for default values,
// registered with viper.SetDefault before any config file or env var is
// read.
func GetDefaults() map[string]any {
	return map[string]any{
		"listen":                ":8080",
		"sqlite_path":           "altdocs.db",
		"max_history_length":    1000,
		"broadcast_buffer_size": 64,
		"heartbeat_interval":    "30s",
		"snapshot_dir":          "",
		"snapshot_interval":     "0s",
		"log_level":             "info",
	}
}

// Load resolves configuration from (in ascending precedence) defaults, an
// optional config.yaml in the current directory or the XDG config
// directory, and ALTDOCS_-prefixed environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := configDir(); err == nil {
		v.AddConfigPath(dir)
	}

	for key, value := range GetDefaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("altdocs")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// configDir resolves $XDG_CONFIG_HOME/altdocs, falling back to
// ~/.config/altdocs. Unexported: Load is its only caller, and a second
// lookup path (current directory) is already tried first, so there's no
// case where a caller needs this independent of Load.
func configDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "altdocs"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "altdocs"), nil
}
