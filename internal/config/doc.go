// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatbook.
//
// Configuration file locations (in order of precedence):
//   - ~/.chatbook/config.toml
//   - ~/.chatbook/config.json
//   - Built-in defaults
//
// Environment variables override file values:
//
//   - CHATBOOK_API_KEY (falls back to OPENAI_API_KEY)
//   - CHATBOOK_BASE_URL
//   - CHATBOOK_MODEL
//   - CHATBOOK_DB
//   - CHATBOOK_LOG_LEVEL
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Completion.DefaultModel)
//
// # Security
//
// Config files are written with 0600 permissions. String() redacts the
// API key.
package config
