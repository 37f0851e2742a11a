// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DataDirEnvVar is the environment variable that overrides Config.DataDir.
// It is the only override the entry database recognizes directly; all other
// fields are set via config file or the generic RHYTHMDB_ prefix below.
const DataDirEnvVar = "RHYTHMDB_DATA_DIR"

// ConfigPathEnvVar names a config file to load in place of the default
// search paths.
const ConfigPathEnvVar = "RHYTHMDB_CONFIG"

// DefaultConfigPaths are searched in order when ConfigPathEnvVar is unset.
var DefaultConfigPaths = []string{
	"./rhythmdb.yaml",
	"/etc/rhythmdb/rhythmdb.yaml",
}

// Config holds the tunables for a running entry database instance. Every
// field has a usable default; nothing here is required for Load to succeed.
type Config struct {
	// DataDir is the directory containing rhythmdb.xml and its write-ahead
	// temp files. Defaults to the current directory.
	DataDir string `koanf:"data_dir"`

	// ActionQueueDepth is the capacity of the buffered channel between
	// readers proposing actions and the single writer goroutine that
	// applies them. Proposers block once the queue is full.
	ActionQueueDepth int `koanf:"action_queue_depth"`

	// CommitBatchEntries is validated and carried in the configuration, but
	// no package reads it: the writer runs one commit pass per KindCommit
	// action, and persistence's Load uses its own CommitBatchEntries constant
	// (1000) as its commit cadence.
	CommitBatchEntries int `koanf:"commit_batch_entries"`

	// BloomFilterSize is the expected number of distinct atoms used to size
	// the atom pool's membership filter. Undersizing only costs extra false
	// positives, never correctness.
	BloomFilterSize int `koanf:"bloom_filter_size"`
}

func defaultConfig() *Config {
	return &Config{
		DataDir:            ".",
		ActionQueueDepth:   1024,
		CommitBatchEntries: 256,
		BloomFilterSize:    100000,
	}
}

// Load builds a Config by layering, in increasing priority: built-in
// defaults, an optional YAML config file, and environment variables
// prefixed RHYTHMDB_. This mirrors the provider-chain approach used
// throughout the codebase for every other configurable component.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("RHYTHMDB_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations that would make the entry database
// unusable. It does not attempt to validate DataDir's existence; persistence
// creates it on first save if needed.
func (c *Config) Validate() error {
	if c.ActionQueueDepth <= 0 {
		return fmt.Errorf("action_queue_depth must be positive, got %d", c.ActionQueueDepth)
	}
	if c.CommitBatchEntries <= 0 {
		return fmt.Errorf("commit_batch_entries must be positive, got %d", c.CommitBatchEntries)
	}
	if c.BloomFilterSize <= 0 {
		return fmt.Errorf("bloom_filter_size must be positive, got %d", c.BloomFilterSize)
	}
	return nil
}

// findConfigFile searches for a config file, preferring an explicit
// RHYTHMDB_CONFIG override over the default search paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps RHYTHMDB_DATA_DIR -> data_dir,
// RHYTHMDB_ACTION_QUEUE_DEPTH -> action_queue_depth, and so on: strip the
// RHYTHMDB_ prefix koanf matched on, then lowercase the remainder.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, "RHYTHMDB_")
	return strings.ToLower(key)
}
