// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/aloha-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete aloha configuration.
type Config struct {
	// Settings are the user preferences edited on the settings screen.
	Settings Settings `toml:"settings" json:"settings" envPrefix:"SETTINGS_"`

	// Ollama connection
	Ollama OllamaConfig `toml:"ollama" json:"ollama" envPrefix:"OLLAMA_"`

	// Chat store
	Storage StorageConfig `toml:"storage" json:"storage" envPrefix:"STORAGE_"`

	// Logging
	Logging LoggingConfig `toml:"logging" json:"logging" envPrefix:"LOG_"`
}

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Title generation methods.
const (
	TitleMethodPrompt = "prompt"
	TitleMethodLLM    = "llm"
)

// Settings is the user preference record.
type Settings struct {
	Theme                 string `toml:"theme" json:"theme" env:"THEME"`
	SoundEnabled          bool   `toml:"sound_enabled" json:"sound_enabled" env:"SOUND_ENABLED"`
	MessageSound          bool   `toml:"message_sound" json:"message_sound" env:"MESSAGE_SOUND"`
	TypingSound           bool   `toml:"typing_sound" json:"typing_sound" env:"TYPING_SOUND"`
	AutoScroll            bool   `toml:"auto_scroll" json:"auto_scroll" env:"AUTO_SCROLL"`
	SystemPrompt          string `toml:"system_prompt" json:"system_prompt" env:"SYSTEM_PROMPT"`
	EnableSystemPrompt    bool   `toml:"enable_system_prompt" json:"enable_system_prompt" env:"ENABLE_SYSTEM_PROMPT"`
	TitleGenerationMethod string `toml:"title_generation_method" json:"title_generation_method" env:"TITLE_GENERATION_METHOD"`
}

// SystemPromptActive reports whether the system prompt should be sent.
func (s Settings) SystemPromptActive() bool {
	return s.EnableSystemPrompt && strings.TrimSpace(s.SystemPrompt) != ""
}

// ActiveSystemPrompt returns the prompt to send, or "" when none applies.
func (s Settings) ActiveSystemPrompt() string {
	if !s.SystemPromptActive() {
		return ""
	}
	return s.SystemPrompt
}

// MessageSoundOn reports whether the message sound plays.
func (s Settings) MessageSoundOn() bool {
	return s.SoundEnabled && s.MessageSound
}

// TypingSoundOn reports whether the typing sound plays.
func (s Settings) TypingSoundOn() bool {
	return s.SoundEnabled && s.TypingSound
}

// OllamaConfig contains the Ollama connection configuration.
type OllamaConfig struct {
	URL string `toml:"url" json:"url" env:"URL"`

	// Model is the last selected chat model.
	Model string `toml:"model" json:"model" env:"MODEL"`

	// Timeout in seconds for non-streaming requests.
	Timeout int `toml:"timeout" json:"timeout" env:"TIMEOUT"`
}

// StorageConfig contains chat store configuration.
type StorageConfig struct {
	// Database path. Empty means <config dir>/aloha.db.
	Database string `toml:"database" json:"database" env:"DATABASE"`
}

// LoggingConfig contains log configuration.
type LoggingConfig struct {
	Level string `toml:"level" json:"level" env:"LEVEL"`

	// File path. Empty means <config dir>/aloha.log.
	File string `toml:"file" json:"file" env:"FILE"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultOllamaURL is the address of a local Ollama server.
const DefaultOllamaURL = "http://127.0.0.1:11434"

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Settings: DefaultSettings(),
		Ollama: OllamaConfig{
			URL:     DefaultOllamaURL,
			Timeout: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultSettings returns the default user preferences.
func DefaultSettings() Settings {
	return Settings{
		Theme:                 ThemeLight,
		SoundEnabled:          true,
		MessageSound:          true,
		TypingSound:           true,
		AutoScroll:            true,
		SystemPrompt:          "",
		EnableSystemPrompt:    true,
		TitleGenerationMethod: TitleMethodLLM,
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// HomeEnv names the variable that relocates the configuration directory.
const HomeEnv = "ALOHA_HOME"

// ConfigDir returns the aloha configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".aloha"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// HistoryPath returns the path of the line-mode input history.
func HistoryPath() (string, error) {
	return inConfigDir("history")
}

// CatalogPath returns the path of the user model catalogue.
func CatalogPath() (string, error) {
	return inConfigDir("catalog.json")
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// DatabasePath returns the resolved chat database path.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.Database != "" {
		return expandHome(c.Storage.Database), nil
	}
	return inConfigDir("aloha.db")
}

// LogPath returns the resolved log file path.
func (c *Config) LogPath() (string, error) {
	if c.Logging.File != "" {
		return expandHome(c.Logging.File), nil
	}
	return inConfigDir("aloha.log")
}

// LogLevel parses the configured log level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	level, _ := ParseLevel(c.Logging.Level)
	return level
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, applying a .env
// file and environment overrides on top. A missing file yields defaults.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file. Values in the
// file win over defaults; environment variables win over the file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if err := LoadTOML(cfg, path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	LoadDotEnv()
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes the TOML file at path onto cfg. Keys absent from the file
// keep their current values.
func LoadTOML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML atomically writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# aloha configuration file\n")
	buf.WriteString("# Written by aloha; edits are picked up while it runs.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch c.Settings.Theme {
	case ThemeLight, ThemeDark:
	default:
		errs = append(errs, ValidationError{
			Field:   "settings.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: light, dark", c.Settings.Theme),
		})
	}

	switch c.Settings.TitleGenerationMethod {
	case TitleMethodPrompt, TitleMethodLLM:
	default:
		errs = append(errs, ValidationError{
			Field:   "settings.title_generation_method",
			Message: fmt.Sprintf("invalid method '%s', must be one of: prompt, llm", c.Settings.TitleGenerationMethod),
		})
	}

	if u, err := url.Parse(c.Ollama.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "ollama.url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[:port]", c.Ollama.URL),
		})
	}

	if c.Ollama.Timeout <= 0 || c.Ollama.Timeout > 3600 {
		errs = append(errs, ValidationError{
			Field:   "ollama.timeout",
			Message: fmt.Sprintf("timeout must be between 1 and 3600 seconds, got %d", c.Ollama.Timeout),
		})
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: err.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// PARTIAL SETTINGS UPDATE
// =============================================================================

// SettingsPatch names the settings fields to change. Nil fields are left
// as they are.
type SettingsPatch struct {
	Theme                 *string
	SoundEnabled          *bool
	MessageSound          *bool
	TypingSound           *bool
	AutoScroll            *bool
	SystemPrompt          *string
	EnableSystemPrompt    *bool
	TitleGenerationMethod *string
}

// UpdateSettings merges patch into the settings. Only the fields set in the
// patch change. The result is validated; on error nothing changes.
func (c *Config) UpdateSettings(patch SettingsPatch) error {
	next := c.Settings
	setIf(&next.Theme, patch.Theme)
	setIf(&next.SoundEnabled, patch.SoundEnabled)
	setIf(&next.MessageSound, patch.MessageSound)
	setIf(&next.TypingSound, patch.TypingSound)
	setIf(&next.AutoScroll, patch.AutoScroll)
	setIf(&next.SystemPrompt, patch.SystemPrompt)
	setIf(&next.EnableSystemPrompt, patch.EnableSystemPrompt)
	setIf(&next.TitleGenerationMethod, patch.TitleGenerationMethod)

	trial := *c
	trial.Settings = next
	if err := trial.Validate(); err != nil {
		return err
	}
	c.Settings = next
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v, for building a SettingsPatch.
func Ptr[T any](v T) *T {
	return &v
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "settings.theme").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ollama.url").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
			}
			return field, nil
		}

		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strings.TrimSpace(strVal), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := parseBool(strVal)
			if err != nil {
				return err
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value: %q", s)
}

// Keys returns every configuration key in dot notation, in file order.
func Keys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		prefix := tomlName(section)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, prefix+"."+tomlName(section.Type.Field(j)))
		}
	}
	return keys
}

func tomlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
