// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete rigchat configuration.
type Config struct {
	Completion CompletionConfig `toml:"completion" json:"completion"`
	Storage    StorageConfig    `toml:"storage" json:"storage"`
	UI         UIConfig         `toml:"ui" json:"ui"`
	Log        LogConfig        `toml:"log" json:"log"`
}

// CompletionConfig configures the chat completions API.
type CompletionConfig struct {
	BaseURL     string  `toml:"base_url" json:"base_url"`
	APIKey      string  `toml:"api_key,omitempty" json:"api_key,omitempty"`
	Model       string  `toml:"model" json:"model"`
	Temperature float64 `toml:"temperature" json:"temperature"`
	Stream      bool    `toml:"stream" json:"stream"`
	TimeoutSecs int     `toml:"timeout_secs" json:"timeout_secs"`

	// RequestsPerMinute paces outgoing calls; 0 disables pacing.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// StorageConfig configures persistence.
type StorageConfig struct {
	// DataDir defaults to the config directory (~/.rigchat).
	DataDir string `toml:"data_dir" json:"data_dir"`
	// Backend is "dir", "bolt" or "sqlite".
	Backend string `toml:"backend" json:"backend"`
}

// UIConfig configures the terminal front end.
type UIConfig struct {
	Markdown bool `toml:"markdown" json:"markdown"`
	WordWrap int  `toml:"word_wrap" json:"word_wrap"`
	Color    bool `toml:"color" json:"color"`
}

// LogConfig configures diagnostics on stderr.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Completion: CompletionConfig{
			BaseURL:           "https://api.openai.com/v1",
			Model:             model.DefaultModel,
			Temperature:       model.DefaultTemperature,
			Stream:            true,
			TimeoutSecs:       60,
			RequestsPerMinute: 0,
		},
		Storage: StorageConfig{
			DataDir: "",
			Backend: "dir",
		},
		UI: UIConfig{
			Markdown: true,
			WordWrap: 80,
			Color:    true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the rigchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".rigchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ResolveDataDir returns the absolute data directory, expanding a leading "~".
func (c *Config) ResolveDataDir() (string, error) {
	dir := strings.TrimSpace(c.Storage.DataDir)
	if dir == "" {
		return ConfigDir()
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") || strings.HasPrefix(dir, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		dir = filepath.Join(home, dir[1:])
	}
	return filepath.Abs(dir)
}

// ensureSecurePermissions tightens a config file to 0600 since it may hold an API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.rigchat/config.toml when present, then applies environment
// overrides, defaults and validation. A config file that fails to parse is
// reported alongside a usable default configuration.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, err
	}

	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		fillDefaults(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		var verrs ValidateErrors
		if errors.As(err, &verrs) {
			return nil, err
		}
		fallback := Default()
		fallback.ApplyEnvOverrides()
		fillDefaults(fallback)
		return fallback, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific TOML file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg. Keys it does not recognise are logged.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		logger.Warn("could not ensure secure permissions on config file", "path", path, "error", err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	for _, key := range md.Undecoded() {
		logger.Warn("unknown config key ignored", "key", key.String(), "path", path)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Completion.BaseURL == "" {
		cfg.Completion.BaseURL = defaults.Completion.BaseURL
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = defaults.Completion.Model
	}
	if cfg.Completion.Temperature == 0 {
		cfg.Completion.Temperature = defaults.Completion.Temperature
	}
	if cfg.Completion.TimeoutSecs == 0 {
		cfg.Completion.TimeoutSecs = defaults.Completion.TimeoutSecs
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# rigchat configuration file")
	fmt.Fprintln(&buf, "# Generated by rigchat - edit with care")
	fmt.Fprintln(&buf, "")

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

// Validate validates the configuration and returns ValidateErrors when
// anything is wrong.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Completion
	if u, err := url.Parse(c.Completion.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "completion.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[/path]", c.Completion.BaseURL),
		})
	}
	if _, ok := model.LookupModel(c.Completion.Model); !ok {
		errs = append(errs, ValidationError{
			Field:   "completion.model",
			Message: fmt.Sprintf("unknown model '%s', must be one of: %s", c.Completion.Model, strings.Join(model.ModelIDs(), ", ")),
		})
	}
	if !model.ValidTemperature(c.Completion.Temperature) {
		errs = append(errs, ValidationError{
			Field:   "completion.temperature",
			Message: fmt.Sprintf("%.2f is outside [%.1f, %.1f]", c.Completion.Temperature, model.MinTemperature, model.MaxTemperature),
		})
	}
	if c.Completion.TimeoutSecs < 1 || c.Completion.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "completion.timeout_secs",
			Message: fmt.Sprintf("%d is outside [1, 600]", c.Completion.TimeoutSecs),
		})
	}
	if c.Completion.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "completion.requests_per_minute",
			Message: "must not be negative",
		})
	}

	// Storage
	switch strings.ToLower(c.Storage.Backend) {
	case "dir", "bolt", "sqlite":
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: dir, bolt, sqlite", c.Storage.Backend),
		})
	}

	// UI
	if c.UI.WordWrap != 0 && (c.UI.WordWrap < 20 || c.UI.WordWrap > 400) {
		errs = append(errs, ValidationError{
			Field:   "ui.word_wrap",
			Message: fmt.Sprintf("%d must be 0 (terminal width) or within [20, 400]", c.UI.WordWrap),
		})
	}

	// Log
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{Field: "log.level", Message: err.Error()})
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be text or json", c.Log.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - RIGCHAT_API_KEY (or OPENAI_API_KEY): completion.api_key
//   - RIGCHAT_MODEL: completion.model
//   - RIGCHAT_TEMPERATURE: completion.temperature
//   - RIGCHAT_BASE_URL: completion.base_url
//   - RIGCHAT_DATA_DIR: storage.data_dir
//   - RIGCHAT_BACKEND: storage.backend
//   - RIGCHAT_LOG_LEVEL: log.level
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("RIGCHAT_API_KEY"); key != "" {
		c.Completion.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Completion.APIKey = key
	}

	if m := os.Getenv("RIGCHAT_MODEL"); m != "" {
		c.Completion.Model = m
	}

	if t := os.Getenv("RIGCHAT_TEMPERATURE"); t != "" {
		if v, err := strconv.ParseFloat(t, 64); err == nil {
			c.Completion.Temperature = v
		} else {
			logger.Warn("ignoring invalid RIGCHAT_TEMPERATURE", "value", t)
		}
	}

	if u := os.Getenv("RIGCHAT_BASE_URL"); u != "" {
		c.Completion.BaseURL = u
	}

	if dir := os.Getenv("RIGCHAT_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}

	if backend := os.Getenv("RIGCHAT_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}

	if level := os.Getenv("RIGCHAT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "completion.model").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
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
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"completion.base_url",
		"completion.api_key",
		"completion.model",
		"completion.temperature",
		"completion.stream",
		"completion.timeout_secs",
		"completion.requests_per_minute",
		"storage.data_dir",
		"storage.backend",
		"ui.markdown",
		"ui.word_wrap",
		"ui.color",
		"log.level",
		"log.format",
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a copy of the configuration. Config holds no reference types.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as JSON with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Completion.APIKey != "" {
		safe.Completion.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first access.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
