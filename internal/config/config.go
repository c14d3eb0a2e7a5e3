// Package config loads sync engine configuration from flags, an optional
// config file, and environment variables. For a setting that appears in
// more than one source, a flag set on the command line wins over an
// environment variable, which wins over the config file, which wins over
// the built-in default.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds every setting the sync engine needs to start.
type Config struct {
	Listen               string `mapstructure:"listen"`
	DataDir              string `mapstructure:"data_dir"`
	LogLevel             string `mapstructure:"log_level"`
	SyncIntervalSecs     int    `mapstructure:"sync_interval_secs"`
	RequestTimeoutSecs   int    `mapstructure:"request_timeout_secs"`
	MetricsIntervalSecs  int    `mapstructure:"metrics_interval_secs"`

	RemoteBaseURL     string `mapstructure:"remote_base_url"`
	RemoteToken       string `mapstructure:"remote_token"`
	RemoteCoursesDBID string `mapstructure:"remote_courses_db_id"`
	RemoteTodosDBID   string `mapstructure:"remote_todos_db_id"`
}

// DBPath is the local SQLite file path derived from DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "syncengine.db")
}

// Load builds a Config from defaults, bound flags, an optional config
// file, and environment variables, then validates the result.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := bindFlags(cmd, v); err != nil {
		return nil, fmt.Errorf("config: bind flags: %w", err)
	}

	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	bindEnv(v)
	v.SetEnvPrefix("SYNCENGINE")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "127.0.0.1:8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("sync_interval_secs", 300)
	v.SetDefault("request_timeout_secs", 30)
	v.SetDefault("metrics_interval_secs", 15)
	v.SetDefault("remote_base_url", "https://api.notion.com")
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := map[string]string{
		"listen":               "listen",
		"data-dir":             "data_dir",
		"log-level":            "log_level",
		"sync-interval-secs":   "sync_interval_secs",
		"remote-base-url":      "remote_base_url",
	}

	for flag, key := range flags {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// bindEnv wires the spec's literal environment variable names, which don't
// follow the SYNCENGINE_ prefix convention applied to everything else.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("remote_token", "NOTION_TOKEN")
	_ = v.BindEnv("remote_courses_db_id", "NOTION_COURSES_DB_ID")
	_ = v.BindEnv("remote_todos_db_id", "NOTION_TODOS_DB_ID")
	_ = v.BindEnv("data_dir", "DATABASE_URL")
	_ = v.BindEnv("sync_interval_secs", "SYNC_INTERVAL_SECS")
}

func validate(cfg *Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir is required: specify via --data-dir flag, config file, or DATABASE_URL")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if cfg.RemoteToken == "" {
		return fmt.Errorf("remote_token is required: set NOTION_TOKEN")
	}
	if cfg.RemoteCoursesDBID == "" || cfg.RemoteTodosDBID == "" {
		return fmt.Errorf("remote_courses_db_id and remote_todos_db_id are required: set NOTION_COURSES_DB_ID and NOTION_TODOS_DB_ID")
	}
	if cfg.SyncIntervalSecs <= 0 {
		return fmt.Errorf("sync_interval_secs must be positive, got %d", cfg.SyncIntervalSecs)
	}
	return nil
}
