// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, EnvPrefix) && name != HomeEnv {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return dir
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()
	s := cfg.Settings

	if s.Theme != "light" {
		t.Errorf("Theme = %q, want light", s.Theme)
	}
	if !s.SoundEnabled || !s.MessageSound || !s.TypingSound || !s.AutoScroll {
		t.Error("sound and auto-scroll defaults should all be on")
	}
	if s.SystemPrompt != "" || !s.EnableSystemPrompt {
		t.Errorf("system prompt defaults = %q/%v", s.SystemPrompt, s.EnableSystemPrompt)
	}
	if s.TitleGenerationMethod != "llm" {
		t.Errorf("TitleGenerationMethod = %q, want llm", s.TitleGenerationMethod)
	}
	if cfg.Ollama.URL != DefaultOllamaURL {
		t.Errorf("Ollama.URL = %q", cfg.Ollama.URL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestSettings_SystemPromptActive(t *testing.T) {
	tests := []struct {
		prompt  string
		enabled bool
		want    bool
	}{
		{"Be terse.", true, true},
		{"Be terse.", false, false},
		{"   ", true, false},
		{"", true, false},
	}
	for _, tc := range tests {
		s := Settings{SystemPrompt: tc.prompt, EnableSystemPrompt: tc.enabled}
		if got := s.SystemPromptActive(); got != tc.want {
			t.Errorf("SystemPromptActive(%q, %v) = %v, want %v", tc.prompt, tc.enabled, got, tc.want)
		}
		if !tc.want && s.ActiveSystemPrompt() != "" {
			t.Errorf("ActiveSystemPrompt should be empty when inactive")
		}
	}
}

func TestSettings_SoundGates(t *testing.T) {
	s := Settings{SoundEnabled: false, MessageSound: true, TypingSound: true}
	if s.MessageSoundOn() || s.TypingSoundOn() {
		t.Error("master switch off should silence everything")
	}
	s.SoundEnabled = true
	s.TypingSound = false
	if !s.MessageSoundOn() || s.TypingSoundOn() {
		t.Error("individual switches should apply when master is on")
	}
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

func TestLoadFromPath_MissingFile(t *testing.T) {
	dir := isolate(t)

	cfg, err := LoadFromPath(filepath.Join(dir, "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Settings != DefaultSettings() {
		t.Errorf("missing file should give defaults, got %+v", cfg.Settings)
	}
}

func TestLoadFromPath_FileWinsOverDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	content := `
[settings]
theme = "dark"
sound_enabled = false
system_prompt = "You are a pirate."

[ollama]
model = "llama3.2"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Settings.Theme != "dark" || cfg.Settings.SoundEnabled {
		t.Errorf("file values not applied: %+v", cfg.Settings)
	}
	if cfg.Settings.SystemPrompt != "You are a pirate." || cfg.Ollama.Model != "llama3.2" {
		t.Errorf("file values not applied: %+v %+v", cfg.Settings, cfg.Ollama)
	}
	// Keys absent from the file keep defaults.
	if !cfg.Settings.TypingSound || cfg.Settings.TitleGenerationMethod != "llm" || cfg.Ollama.URL != DefaultOllamaURL {
		t.Errorf("absent keys should keep defaults: %+v %+v", cfg.Settings, cfg.Ollama)
	}
}

func TestLoadFromPath_EnvWinsOverFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	os.WriteFile(path, []byte("[ollama]\nurl = \"http://file:1\"\n"), 0600)

	t.Setenv("ALOHA_OLLAMA_URL", "http://env:2")
	t.Setenv("ALOHA_SETTINGS_THEME", "dark")
	t.Setenv("ALOHA_SETTINGS_TYPING_SOUND", "false")
	t.Setenv("ALOHA_LOG_LEVEL", "debug")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Ollama.URL != "http://env:2" {
		t.Errorf("Ollama.URL = %q, want env value", cfg.Ollama.URL)
	}
	if cfg.Settings.Theme != "dark" || cfg.Settings.TypingSound {
		t.Errorf("settings env overrides not applied: %+v", cfg.Settings)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, want debug", cfg.LogLevel())
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	dir := isolate(t)

	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("[settings\ntheme ="), 0600)
	if _, err := LoadFromPath(bad); err == nil {
		t.Error("expected decode error")
	}

	invalid := filepath.Join(dir, "invalid.toml")
	os.WriteFile(invalid, []byte("[settings]\ntheme = \"neon\"\n"), 0600)
	_, err := LoadFromPath(invalid)
	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidateErrors, got %v", err)
	}
	if verrs[0].Field != "settings.theme" {
		t.Errorf("Field = %q, want settings.theme", verrs[0].Field)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	cfg.Settings.Theme = "dark"
	cfg.Settings.SystemPrompt = "multi\nline \"quoted\""
	cfg.Settings.AutoScroll = false
	cfg.Ollama.Model = "qwen2.5:7b"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	path := filepath.Join(dir, "config.toml")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 600", info.Mode().Perm())
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Settings != cfg.Settings || loaded.Ollama != cfg.Ollama {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestPaths(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	db, _ := cfg.DatabasePath()
	if db != filepath.Join(dir, "aloha.db") {
		t.Errorf("DatabasePath() = %q", db)
	}
	logPath, _ := cfg.LogPath()
	if logPath != filepath.Join(dir, "aloha.log") {
		t.Errorf("LogPath() = %q", logPath)
	}

	cfg.Storage.Database = "/tmp/custom.db"
	db, _ = cfg.DatabasePath()
	if db != "/tmp/custom.db" {
		t.Errorf("DatabasePath() = %q, want custom", db)
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad theme", func(c *Config) { c.Settings.Theme = "blue" }, "settings.theme"},
		{"bad title method", func(c *Config) { c.Settings.TitleGenerationMethod = "magic" }, "settings.title_generation_method"},
		{"bad url scheme", func(c *Config) { c.Ollama.URL = "ftp://x" }, "ollama.url"},
		{"url without host", func(c *Config) { c.Ollama.URL = "http://" }, "ollama.url"},
		{"zero timeout", func(c *Config) { c.Ollama.Timeout = 0 }, "ollama.timeout"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			var verrs ValidateErrors
			if !errors.As(err, &verrs) || len(verrs) != 1 {
				t.Fatalf("Validate() = %v, want one error", err)
			}
			if verrs[0].Field != tc.field {
				t.Errorf("Field = %q, want %q", verrs[0].Field, tc.field)
			}
		})
	}
}

// =============================================================================
// PARTIAL UPDATE
// =============================================================================

func TestUpdateSettings_Partial(t *testing.T) {
	cfg := Default()
	cfg.Settings.SystemPrompt = "keep me"

	err := cfg.UpdateSettings(SettingsPatch{
		Theme:        Ptr("dark"),
		TypingSound:  Ptr(false),
		SoundEnabled: nil,
	})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	s := cfg.Settings
	if s.Theme != "dark" || s.TypingSound {
		t.Errorf("patched fields not applied: %+v", s)
	}
	if !s.SoundEnabled || !s.MessageSound || s.SystemPrompt != "keep me" {
		t.Errorf("unpatched fields changed: %+v", s)
	}
}

func TestUpdateSettings_InvalidLeavesUnchanged(t *testing.T) {
	cfg := Default()
	err := cfg.UpdateSettings(SettingsPatch{
		Theme:                 Ptr("dark"),
		TitleGenerationMethod: Ptr("bogus"),
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if cfg.Settings.Theme != "light" {
		t.Error("a rejected patch must not apply any field")
	}
}

// =============================================================================
// GET / SET
// =============================================================================

func TestGetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("settings.theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("settings.sound_enabled", "off"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("ollama.timeout", "90"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("ollama.url", "http://gpu-box:11434"); err != nil {
		t.Fatal(err)
	}

	checks := map[string]interface{}{
		"settings.theme":         "dark",
		"settings.sound_enabled": false,
		"ollama.timeout":         90,
		"ollama.url":             "http://gpu-box:11434",
	}
	for key, want := range checks {
		got, err := cfg.Get(key)
		if err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
			continue
		}
		if got != want {
			t.Errorf("Get(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestGetSet_Errors(t *testing.T) {
	cfg := Default()

	for _, key := range []string{"", "nope", "settings.nope", "settings", "settings.theme.deeper"} {
		if _, err := cfg.Get(key); err == nil {
			t.Errorf("Get(%q) should fail", key)
		}
	}
	if err := cfg.Set("settings.sound_enabled", "maybe"); err == nil {
		t.Error("invalid bool should fail")
	}
	if err := cfg.Set("ollama.timeout", "soon"); err == nil {
		t.Error("invalid int should fail")
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	cfg := Default()

	want := []string{"settings.theme", "settings.title_generation_method", "ollama.url", "storage.database", "logging.level"}
	for _, w := range want {
		found := false
		for _, k := range keys {
			if k == w {
				found = true
			}
		}
		if !found {
			t.Errorf("Keys() missing %q", w)
		}
	}
	for _, k := range keys {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("Get(%q) for listed key failed: %v", k, err)
		}
	}
}

// =============================================================================
// LOGGING
// =============================================================================

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var console, file bytes.Buffer
	logger := SetupLoggerWithWriters(&console, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("chat saved", "id", "abc")

	if strings.Contains(console.String(), "hidden") {
		t.Error("debug line should be filtered")
	}
	if !strings.Contains(console.String(), "chat saved") {
		t.Errorf("console = %q", console.String())
	}
	if !strings.Contains(file.String(), `"msg":"chat saved"`) {
		t.Errorf("file should be JSON, got %q", file.String())
	}
}

func TestSetupLogger_FileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "aloha.log")
	logger, cleanup := SetupLogger(path, slog.LevelInfo, nil)
	logger.Info("hello")
	if err := cleanup(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file = %q", data)
	}
}

// =============================================================================
// WATCHER
// =============================================================================

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	if err := SaveTOML(Default(), path); err != nil {
		t.Fatal(err)
	}

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, 20*time.Millisecond, func(c *Config) { changes <- c }, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	cfg := Default()
	cfg.Settings.Theme = "dark"
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		if got.Settings.Theme != "dark" {
			t.Errorf("reloaded theme = %q, want dark", got.Settings.Theme)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after the file changed")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")

	changes := make(chan *Config, 1)
	w, err := NewWatcher(path, 10*time.Millisecond, func(c *Config) { changes <- c }, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600)

	select {
	case <-changes:
		t.Error("unrelated file should not trigger a reload")
	case <-time.After(200 * time.Millisecond):
	}
}
