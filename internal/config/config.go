// Package config loads the client configuration: upstream API location and
// credentials, wire schema generation, and local tool settings.
//
// Values resolve in order: compiled defaults, then the config file backend,
// then SALESCRM_* environment variables. The API key is env-only so it never
// lands in a world-readable file.
package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	API  APIConfig
	Mock MockConfig
}

type APIConfig struct {
	BaseURL string
	Key     string
	Schema  string // "current" or "legacy" wire schema generation
}

type MockConfig struct {
	Port int
}

func defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:7070",
			Schema:  "current",
		},
		Mock: MockConfig{
			Port: 7070,
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/salescrm/config.json, with SALESCRM_* environment
// variables taking precedence.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "salescrm", "config.json")
}
