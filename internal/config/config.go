// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatbook.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/chatbook/internal/model"
	"github.com/jeranaias/chatbook/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatbook configuration.
type Config struct {
	Completion CompletionConfig `toml:"completion" json:"completion"`
	Storage    StorageConfig    `toml:"storage" json:"storage"`
	Log        LogConfig        `toml:"log" json:"log"`
	UI         UIConfig         `toml:"ui" json:"ui"`
	Server     ServerConfig     `toml:"server" json:"server"`
}

// CompletionConfig configures the completion service.
type CompletionConfig struct {
	// BaseURL is the root of the OpenAI-compatible API.
	BaseURL string `toml:"base_url" json:"base_url"`

	// APIKey authenticates requests. Prefer CHATBOOK_API_KEY over storing it here.
	APIKey string `toml:"api_key" json:"api_key"`

	// Models are the selectable chat models.
	Models []string `toml:"models" json:"models"`

	// DefaultModel is selected at startup. Must be one of Models.
	DefaultModel string `toml:"default_model" json:"default_model"`

	// TitleModel generates conversation titles.
	TitleModel string `toml:"title_model" json:"title_model"`

	// TimeoutSecs bounds each completion request.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// RequestsPerMinute limits the client-side request rate.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// StorageConfig configures the conversation database.
type StorageConfig struct {
	Path string `toml:"path" json:"path"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	Path       string `toml:"path" json:"path"`
	Level      string `toml:"level" json:"level"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	// RenderMarkdown renders assistant replies with glamour.
	RenderMarkdown bool `toml:"render_markdown" json:"render_markdown"`

	// RecentLimit is the number of conversations in the sidebar.
	RecentLimit int `toml:"recent_limit" json:"recent_limit"`
}

// ServerConfig configures the optional HTTP API ("chatbook serve").
type ServerConfig struct {
	// Addr is the listen address. Keep it on loopback unless Token is set.
	Addr string `toml:"addr" json:"addr"`

	// Token, when set, is required as "Authorization: Bearer <token>".
	// Prefer CHATBOOK_SERVER_TOKEN over storing it here.
	Token string `toml:"token" json:"token"`

	// AllowedOrigins are the CORS origins allowed to call the API.
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`

	// RequestsPerMinute limits each client IP. 0 disables the limit.
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// Timeout returns the completion timeout as a duration.
func (c CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Default returns a configuration with built-in defaults.
func Default() *Config {
	dir, err := ConfigDir()
	if err != nil {
		dir = ".chatbook"
	}
	return &Config{
		Completion: CompletionConfig{
			BaseURL:           "https://api.openai.com/v1",
			Models:            append([]string(nil), model.DefaultChatModels...),
			DefaultModel:      model.ModelGPT35Turbo,
			TitleModel:        model.DefaultTitleModel,
			TimeoutSecs:       60,
			RequestsPerMinute: 60,
		},
		Storage: StorageConfig{
			Path: filepath.Join(dir, "chat.db"),
		},
		Log: LogConfig{
			Path:       filepath.Join(dir, "chatbook.log"),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		UI: UIConfig{
			RenderMarkdown: true,
			RecentLimit:    10,
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8787",
			RequestsPerMinute: 120,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatbook configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatbook"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ensureSecurePermissions tightens config file permissions to 0600.
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

// Load loads configuration from the default location.
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	return finish(cfg)
}

// LoadFromPath loads configuration from a specific file. Paths ending in
// ".json" are decoded as JSON, everything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	if strings.HasSuffix(path, ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults and expands paths.
func fillDefaults(cfg *Config) {
	defaults := Default()

	// Completion
	if strings.TrimSpace(cfg.Completion.BaseURL) == "" {
		cfg.Completion.BaseURL = defaults.Completion.BaseURL
	}
	if len(cfg.Completion.Models) == 0 {
		cfg.Completion.Models = defaults.Completion.Models
	}
	if cfg.Completion.DefaultModel == "" {
		cfg.Completion.DefaultModel = cfg.Completion.Models[0]
	}
	if cfg.Completion.TitleModel == "" {
		cfg.Completion.TitleModel = defaults.Completion.TitleModel
	}
	if cfg.Completion.TimeoutSecs == 0 {
		cfg.Completion.TimeoutSecs = defaults.Completion.TimeoutSecs
	}
	if cfg.Completion.RequestsPerMinute == 0 {
		cfg.Completion.RequestsPerMinute = defaults.Completion.RequestsPerMinute
	}

	// Storage
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaults.Storage.Path
	}
	cfg.Storage.Path = ExpandPath(cfg.Storage.Path)

	// Log
	if cfg.Log.Path == "" {
		cfg.Log.Path = defaults.Log.Path
	}
	cfg.Log.Path = ExpandPath(cfg.Log.Path)
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}

	// UI
	if cfg.UI.RecentLimit == 0 {
		cfg.UI.RecentLimit = defaults.UI.RecentLimit
	}

	// Server
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
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

// SaveTOML writes the configuration to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# chatbook configuration file")
	fmt.Fprintln(&buf, "# Set CHATBOOK_API_KEY instead of storing api_key here.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
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
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Completion
	if u, err := url.Parse(c.Completion.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "completion.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[/path]", c.Completion.BaseURL),
		})
	}
	if len(c.Completion.Models) == 0 {
		errs = append(errs, ValidationError{Field: "completion.models", Message: "at least one model is required"})
	}
	seen := make(map[string]bool, len(c.Completion.Models))
	for _, m := range c.Completion.Models {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, ValidationError{Field: "completion.models", Message: "model names cannot be empty"})
			continue
		}
		if seen[m] {
			errs = append(errs, ValidationError{Field: "completion.models", Message: fmt.Sprintf("duplicate model '%s'", m)})
		}
		seen[m] = true
	}
	if len(c.Completion.Models) > 0 && !seen[c.Completion.DefaultModel] {
		errs = append(errs, ValidationError{
			Field:   "completion.default_model",
			Message: fmt.Sprintf("'%s' is not one of completion.models", c.Completion.DefaultModel),
		})
	}
	if strings.TrimSpace(c.Completion.TitleModel) == "" {
		errs = append(errs, ValidationError{Field: "completion.title_model", Message: "title model is required"})
	}
	if c.Completion.TimeoutSecs < 1 || c.Completion.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "completion.timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 600, got %d", c.Completion.TimeoutSecs),
		})
	}
	if c.Completion.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "completion.requests_per_minute",
			Message: fmt.Sprintf("cannot be negative, got %d", c.Completion.RequestsPerMinute),
		})
	}

	// Storage
	if strings.TrimSpace(c.Storage.Path) == "" {
		errs = append(errs, ValidationError{Field: "storage.path", Message: "database path is required"})
	}

	// Log
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{Field: "log", Message: "rotation limits cannot be negative"})
	}

	// UI
	if c.UI.RecentLimit < 1 || c.UI.RecentLimit > 100 {
		errs = append(errs, ValidationError{
			Field:   "ui.recent_limit",
			Message: fmt.Sprintf("must be between 1 and 100, got %d", c.UI.RecentLimit),
		})
	}

	// Server
	if host, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		errs = append(errs, ValidationError{
			Field:   "server.addr",
			Message: fmt.Sprintf("invalid address '%s', must be host:port", c.Server.Addr),
		})
	} else if c.Server.Token == "" && !isLoopback(host) {
		errs = append(errs, ValidationError{
			Field:   "server.token",
			Message: "a token is required when listening beyond loopback",
		})
	}
	if c.Server.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.requests_per_minute",
			Message: fmt.Sprintf("cannot be negative, got %d", c.Server.RequestsPerMinute),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - CHATBOOK_API_KEY: overrides completion.api_key
//   - OPENAI_API_KEY: used when neither CHATBOOK_API_KEY nor api_key is set
//   - CHATBOOK_BASE_URL: overrides completion.base_url
//   - CHATBOOK_MODEL: overrides completion.default_model
//   - CHATBOOK_DB: overrides storage.path
//   - CHATBOOK_LOG_LEVEL: overrides log.level
//   - CHATBOOK_SERVER_TOKEN: overrides server.token
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("CHATBOOK_API_KEY"); key != "" {
		c.Completion.APIKey = key
	} else if c.Completion.APIKey == "" {
		c.Completion.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if baseURL := os.Getenv("CHATBOOK_BASE_URL"); baseURL != "" {
		c.Completion.BaseURL = baseURL
	}

	if m := os.Getenv("CHATBOOK_MODEL"); m != "" {
		c.Completion.DefaultModel = m
	}

	if db := os.Getenv("CHATBOOK_DB"); db != "" {
		c.Storage.Path = db
	}

	if level := os.Getenv("CHATBOOK_LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}

	if token := os.Getenv("CHATBOOK_SERVER_TOKEN"); token != "" {
		c.Server.Token = token
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// HasModel reports whether m is one of the configured chat models.
func (c *Config) HasModel(m string) bool {
	for _, known := range c.Completion.Models {
		if known == m {
			return true
		}
	}
	return false
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Completion.Models = append([]string(nil), c.Completion.Models...)
	clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return &clone
}

// String returns the configuration as TOML with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Completion.APIKey != "" {
		safe.Completion.APIKey = "[REDACTED]"
	}
	if safe.Server.Token != "" {
		safe.Server.Token = "[REDACTED]"
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}
