// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv(DataDirEnvVar, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DataDir != "." {
		t.Errorf("expected default DataDir '.', got %q", cfg.DataDir)
	}
	if cfg.ActionQueueDepth != 1024 {
		t.Errorf("expected default ActionQueueDepth 1024, got %d", cfg.ActionQueueDepth)
	}
	if cfg.CommitBatchEntries != 256 {
		t.Errorf("expected default CommitBatchEntries 256, got %d", cfg.CommitBatchEntries)
	}
	if cfg.BloomFilterSize != 100000 {
		t.Errorf("expected default BloomFilterSize 100000, got %d", cfg.BloomFilterSize)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv(DataDirEnvVar, "/var/lib/rhythmdb")
	t.Setenv("RHYTHMDB_ACTION_QUEUE_DEPTH", "4096")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DataDir != "/var/lib/rhythmdb" {
		t.Errorf("expected env override DataDir, got %q", cfg.DataDir)
	}
	if cfg.ActionQueueDepth != 4096 {
		t.Errorf("expected env override ActionQueueDepth 4096, got %d", cfg.ActionQueueDepth)
	}
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	cfg := defaultConfig()
	cfg.ActionQueueDepth = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero ActionQueueDepth, got nil")
	}

	cfg = defaultConfig()
	cfg.CommitBatchEntries = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative CommitBatchEntries, got nil")
	}

	cfg = defaultConfig()
	cfg.BloomFilterSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero BloomFilterSize, got nil")
	}
}
