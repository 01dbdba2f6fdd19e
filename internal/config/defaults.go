package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	appName = "tasklist"

	// DBFile is the pending store file name inside the data dir.
	DBFile = "tasks.db"
	// LogFile is the default log file name inside the data dir.
	LogFile = "tasklist.log"
)

// DefaultConfig returns a Config with every default applied and no
// credentials.
func DefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Priority: 1,
			Category: "General",
		},
		Remote: RemoteConfig{
			Timeout: 10 * time.Second,
			Retries: 3,
		},
		Probe: ProbeConfig{
			Timeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: DefaultDataDir(),
		},
		Log: LogConfig{
			MaxSizeMB:  5,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Watch: WatchConfig{
			Interval: time.Minute,
			Debounce: 500 * time.Millisecond,
		},
	}
}

// DefaultPath returns ~/.config/tasklist/config.toml, honoring
// XDG_CONFIG_HOME.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName, "config.toml")
}

// DefaultDataDir returns ~/.local/share/tasklist, honoring XDG_DATA_HOME.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// Path returns the file the configuration was loaded from, or "".
func (c *Config) Path() string {
	return c.path
}

// DBPath returns the pending store location.
func (c *Config) DBPath() string {
	return filepath.Join(c.Storage.DataDir, DBFile)
}

// LogPath returns the log file location.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.Storage.DataDir, LogFile)
}
