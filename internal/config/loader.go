package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/tasklist-cli/tasklist/internal/types"
)

// envAliases are the variable names older setups export.
var envAliases = map[string]string{
	"trello.api_key": "TRELLO_API_KEY",
	"trello.token":   "TRELLO_API_TOKEN",
}

// Load reads the configuration at path, or DefaultPath when path is empty.
//
// A missing file is not an error: defaults and environment variables still
// apply. Every key can be set with TASKLIST_<SECTION>_<KEY>, for example
// TASKLIST_TRELLO_BOARD_ID.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("TASKLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		envKey := "TASKLIST_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, alias); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", alias, err)
		}
	}

	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: failed to read config %s: %v", types.ErrInvalidInput, path, err)
		}
		cfg.path = path
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config %s: %v", types.ErrInvalidInput, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment variables apply even when
// the file does not mention them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("trello.api_key", "")
	v.SetDefault("trello.token", "")
	v.SetDefault("trello.board_id", "")
	v.SetDefault("trello.list_id", "")
	v.SetDefault("defaults.priority", d.Defaults.Priority)
	v.SetDefault("defaults.category", d.Defaults.Category)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("remote.retries", d.Remote.Retries)
	v.SetDefault("probe.timeout", d.Probe.Timeout)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("watch.interval", d.Watch.Interval)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
}

// Validate checks value ranges. Missing credentials are not an error here;
// see RequireBoard.
func (c *Config) Validate() error {
	if err := types.ValidatePriority(c.Defaults.Priority); err != nil {
		return fmt.Errorf("defaults.priority: %w", err)
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("%w: remote.timeout must be positive", types.ErrInvalidInput)
	}
	if c.Remote.Retries < 0 {
		return fmt.Errorf("%w: remote.retries cannot be negative", types.ErrInvalidInput)
	}
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("%w: probe.timeout must be positive", types.ErrInvalidInput)
	}
	if c.Watch.Interval <= 0 || c.Watch.Debounce < 0 {
		return fmt.Errorf("%w: watch.interval must be positive", types.ErrInvalidInput)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("%w: storage.data_dir is empty", types.ErrInvalidInput)
	}
	return nil
}

// RequireBoard checks that the board credentials and ids are present.
func (c *Config) RequireBoard() error {
	var missing []string
	if c.Trello.APIKey == "" {
		missing = append(missing, "trello.api_key")
	}
	if c.Trello.Token == "" {
		missing = append(missing, "trello.token")
	}
	if c.Trello.BoardID == "" {
		missing = append(missing, "trello.board_id")
	}
	if c.Trello.ListID == "" {
		missing = append(missing, "trello.list_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s (run 'tasklist configure')", types.ErrNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}
