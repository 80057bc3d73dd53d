// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ALOHA_"

// ApplyEnvOverrides applies environment variable overrides to the config.
// Only variables that are set change anything.
//
// Variables follow the file layout, for example:
//   - ALOHA_OLLAMA_URL: overrides ollama.url
//   - ALOHA_OLLAMA_MODEL: overrides ollama.model
//   - ALOHA_OLLAMA_TIMEOUT: overrides ollama.timeout
//   - ALOHA_SETTINGS_THEME: overrides settings.theme
//   - ALOHA_SETTINGS_SOUND_ENABLED: overrides settings.sound_enabled
//   - ALOHA_STORAGE_DATABASE: overrides storage.database
//   - ALOHA_LOG_LEVEL: overrides logging.level
func (c *Config) ApplyEnvOverrides() error {
	return env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix})
}

// LoadDotEnv loads .env files from the working directory and the config
// directory. Variables already set in the environment are not replaced and
// missing files are ignored.
func LoadDotEnv() {
	files := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, ".env"))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}
