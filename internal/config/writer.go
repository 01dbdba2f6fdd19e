package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Write saves cfg to path as TOML, readable only by the owner since it
// holds the board token.
func Write(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict config permissions: %w", err)
	}
	if err := toml.NewEncoder(tmp).Encode(fileLayout(cfg)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	cfg.path = path
	return nil
}

// fileLayout mirrors the key layout Load reads. Durations are written as
// strings such as "10s".
func fileLayout(cfg *Config) map[string]interface{} {
	log := map[string]interface{}{
		"max_size_mb":  cfg.Log.MaxSizeMB,
		"max_backups":  cfg.Log.MaxBackups,
		"max_age_days": cfg.Log.MaxAgeDays,
	}
	if cfg.Log.File != "" {
		log["file"] = cfg.Log.File
	}

	return map[string]interface{}{
		"trello": map[string]interface{}{
			"api_key":  cfg.Trello.APIKey,
			"token":    cfg.Trello.Token,
			"board_id": cfg.Trello.BoardID,
			"list_id":  cfg.Trello.ListID,
		},
		"defaults": map[string]interface{}{
			"priority": cfg.Defaults.Priority,
			"category": cfg.Defaults.Category,
		},
		"remote": map[string]interface{}{
			"timeout": cfg.Remote.Timeout.String(),
			"retries": cfg.Remote.Retries,
		},
		"probe": map[string]interface{}{
			"timeout": cfg.Probe.Timeout.String(),
		},
		"storage": map[string]interface{}{
			"data_dir": cfg.Storage.DataDir,
		},
		"log": log,
		"watch": map[string]interface{}{
			"interval": cfg.Watch.Interval.String(),
			"debounce": cfg.Watch.Debounce.String(),
		},
	}
}
