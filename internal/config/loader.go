package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadWatcher reads a watcher YAML config file, expands ${VAR}
// environment variables, applies defaults, and validates. A missing file
// is not an error: the defaults describe a local relay.
func LoadWatcher(path string) (*WatcherConfig, error) {
	var cfg WatcherConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadRelay reads a relay YAML config file the same way.
func LoadRelay(path string) (*RelayConfig, error) {
	var cfg RelayConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func loadYAML(path string, out any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), out); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}
