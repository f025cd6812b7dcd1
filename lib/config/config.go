// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for strata components.
//
// Configuration is loaded from a single YAML file passed explicitly by
// the caller. There are no fallbacks or automatic discovery; every
// field has a default so an empty file is valid.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/strata-db/strata/lib/store"
)

// Config is the master configuration for a strata server process.
type Config struct {
	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Store configures the local storage backend.
	Store StoreConfig `yaml:"store"`

	// Backfill configures secondary backfill admission.
	Backfill BackfillConfig `yaml:"backfill"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// BasePath is the directory holding per-table database files.
	BasePath string `yaml:"base_path"`
}

// StoreConfig configures the local storage backend.
type StoreConfig struct {
	// Durability selects the SQLite synchronous mode: "full",
	// "normal", or "off".
	Durability store.Durability `yaml:"durability"`

	// PoolSize is the SQLite connection pool size. Zero means
	// automatic.
	PoolSize int `yaml:"pool_size"`
}

// BackfillConfig configures secondary backfill admission.
type BackfillConfig struct {
	// MaxConcurrent bounds how many secondaries backfill at once.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			BasePath: "/var/lib/strata",
		},
		Store: StoreConfig{
			Durability: store.DurabilityNormal,
		},
		Backfill: BackfillConfig{
			MaxConcurrent: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values without touching the filesystem.
func (c *Config) Validate() error {
	switch c.Store.Durability {
	case store.DurabilityFull, store.DurabilityNormal, store.DurabilityOff, "":
	default:
		return fmt.Errorf("store.durability: unknown mode %q", c.Store.Durability)
	}
	if c.Backfill.MaxConcurrent < 1 {
		return fmt.Errorf("backfill.max_concurrent: %d < 1", c.Backfill.MaxConcurrent)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	if c.Paths.BasePath == "" {
		return fmt.Errorf("paths.base_path: must not be empty")
	}
	return nil
}
