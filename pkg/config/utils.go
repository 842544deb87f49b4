package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"loot-tracker/pkg/core"
)

// initializeConfig creates or loads the configuration.
func initializeConfig(providedPath string, defaultPath string, log core.Logger) (*Config, error) {
	// Try provided path first if specified
	if providedPath != "" {
		config, err := LoadFromFile(providedPath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from provided path: %w", err)
		}
		return config, nil
	}

	// Try default path, create if doesn't exist
	if _, err := os.Stat(defaultPath); os.IsNotExist(err) {
		data, err := json.MarshalIndent(defaultFileConfig(), "", "    ")
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(defaultPath, data, 0644); err != nil {
			return nil, err
		}
		log.Info("Wrote default configuration", "path", defaultPath)
		return DefaultConfig(log)
	}

	config, err := LoadFromFile(defaultPath, log)
	if err != nil {
		log.Warn("Falling back to default configuration", "path", defaultPath, "error", err)
		return DefaultConfig(log)
	}
	return config, nil
}

// FindConfig locates and initializes the configuration:
// the provided path, else ~/.config/loot-tracker/config.json (written with
// defaults when missing), else the defaults.
func FindConfig(providedPath string, log core.Logger) (*Config, error) {
	log.Info("Looking for configuration", "provided_path", providedPath)

	homeConfigDir, err := os.UserConfigDir()
	if err != nil {
		log.Error("Failed to get user config directory", err)
		return nil, err
	}

	defaultConfigDir := filepath.Join(homeConfigDir, "loot-tracker")
	defaultConfigPath := filepath.Join(defaultConfigDir, "config.json")

	log.Debug("Configuration paths",
		"config_dir", defaultConfigDir,
		"config_path", defaultConfigPath)

	if err := os.MkdirAll(defaultConfigDir, 0755); err != nil {
		log.Error("Failed to create directory", err, "path", defaultConfigDir)
		return nil, err
	}

	return initializeConfig(providedPath, defaultConfigPath, log)
}
