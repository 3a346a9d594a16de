package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"steward/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/steward"
	configFileName = "config.yaml"
)

// DefaultConfigPath returns the per-user configuration directory.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// Load reads config.yaml from the given directory on top of the defaults.
// A missing file is not an error; a malformed one is.
func Load(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	cfg := Default()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("Config", "No config.yaml at %s, using defaults", configFilePath)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading %s: %w", configFilePath, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", configFilePath, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration in %s: %w", configFilePath, err)
	}

	logging.Debug("Config", "Loaded configuration from %s", configFilePath)
	return cfg, nil
}
