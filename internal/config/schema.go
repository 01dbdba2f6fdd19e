// Package config loads and saves the tasklist configuration file.
package config

import "time"

// Config is the full tasklist configuration.
type Config struct {
	Trello   TrelloConfig   `mapstructure:"trello"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Probe    ProbeConfig    `mapstructure:"probe"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
	Watch    WatchConfig    `mapstructure:"watch"`

	// path is the file the configuration was read from, if any.
	path string
}

// TrelloConfig holds board credentials and ids.
type TrelloConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Token   string `mapstructure:"token"`
	BoardID string `mapstructure:"board_id"`
	// ListID is the default list for new cards.
	ListID string `mapstructure:"list_id"`
}

// DefaultsConfig holds defaults applied to new tasks.
type DefaultsConfig struct {
	Priority int    `mapstructure:"priority"`
	Category string `mapstructure:"category"`
}

// RemoteConfig tunes board requests.
type RemoteConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// Retries is the retry count for idempotent reads.
	Retries int `mapstructure:"retries"`
}

// ProbeConfig tunes the connectivity check.
type ProbeConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig locates local state.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LogConfig controls the rotating log file.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// WatchConfig tunes the watch daemon.
type WatchConfig struct {
	// Interval is how often failed tasks are retried.
	Interval time.Duration `mapstructure:"interval"`
	// Debounce delays a drain after store changes settle.
	Debounce time.Duration `mapstructure:"debounce"`
}
