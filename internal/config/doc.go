// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for rigchat.
//
// # Key Types
//
//   - Config: main configuration structure
//   - CompletionConfig: API endpoint, model, temperature and pacing
//   - StorageConfig: data directory and storage backend
//   - UIConfig, LogConfig: presentation and logging
//
// # Configuration Precedence
//
//   - Environment variables (RIGCHAT_*)
//   - ~/.rigchat/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
//	}
//	dataDir, _ := cfg.ResolveDataDir()
package config
