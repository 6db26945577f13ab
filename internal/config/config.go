// Package config loads settings from $HOME/.rdo/config.yaml with RDO_
// environment overrides.
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

// Config holds everything the CLI, daemon and dashboard need.
type Config struct {
	StorePath     string        `mapstructure:"store_path"`
	RemoteURL     string        `mapstructure:"remote_url"`
	APIKey        string        `mapstructure:"api_key"`
	AccessToken   string        `mapstructure:"access_token"`
	AdminPassword string        `mapstructure:"admin_password"`
	SyncInterval  time.Duration `mapstructure:"sync_interval"`
	Debounce      time.Duration `mapstructure:"debounce"`
	DashboardPort int           `mapstructure:"dashboard_port"`
	LogFile       string        `mapstructure:"log_file"`
	UserID        string        `mapstructure:"user_id"`
}

// Dir returns the per-user config/data directory, creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving home dir: %w", err)
	}
	dir := filepath.Join(home, ".rdo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("config: creating %s: %w", dir, err)
	}
	return dir, nil
}

// Load reads config.yaml from the rdo directory, applies defaults and RDO_
// environment overrides. A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("store_path", filepath.Join(dir, "rdo.db"))
	v.SetDefault("remote_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("access_token", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("sync_interval", 5*time.Minute)
	v.SetDefault("debounce", 2*time.Second)
	v.SetDefault("dashboard_port", 8844)
	v.SetDefault("log_file", filepath.Join(dir, "rdo.log"))
	v.SetDefault("user_id", "")

	v.SetEnvPrefix("RDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	return &cfg, nil
}

// Online reports whether remote credentials are configured at all.
func (c *Config) Online() bool {
	return c.RemoteURL != "" && c.APIKey != ""
}
