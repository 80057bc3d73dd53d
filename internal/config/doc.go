// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for aloha.
//
// One TOML file holds both the user preferences edited on the settings
// screen ([settings]) and application configuration ([ollama], [storage],
// [logging]).
//
// # Key Types
//
//   - Config: Main configuration structure
//   - Settings: User preferences (theme, sounds, system prompt, titles)
//   - SettingsPatch: Partial settings update
//   - Watcher: Reloads the file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (ALOHA_*), including those from a .env file
//   - ~/.aloha/config.toml (or $ALOHA_HOME/config.toml)
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Change one setting and persist it:
//
//	err := cfg.UpdateSettings(config.SettingsPatch{Theme: config.Ptr("dark")})
//	err = config.Save(cfg)
package config
