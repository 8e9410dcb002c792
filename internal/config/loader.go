package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load loads the station's bootstrap configuration from a YAML file (with
// environment-variable overrides) or, absent one, from the environment
// alone, mirroring the teacher's internal/config.Load file-then-env
// fallback.
func Load(configPath string) (*Config, error) {
	var cfg Config

	path := configPath
	if path == "" {
		defaultPaths := []string{
			"./configs/config.yaml",
			"./config.yaml",
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	if cfg.Station.ID == "" {
		return fmt.Errorf("station.id is required")
	}
	if cfg.Station.Protocol != "1.6" && cfg.Station.Protocol != "2.0.1" {
		return fmt.Errorf("station.protocol must be \"1.6\" or \"2.0.1\", got %q", cfg.Station.Protocol)
	}
	if len(cfg.Station.ConnectorIDs) == 0 {
		return fmt.Errorf("station.connector_ids must list at least one connector")
	}

	if cfg.CSMS.URL == "" {
		return fmt.Errorf("csms.url is required")
	}

	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
