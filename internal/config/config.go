// Package config handles application configuration
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"taskdesk/backend"
)

//go:embed config.sample.yaml
var sampleConfig string

// EnvBaseURL overrides api.base_url when set.
const EnvBaseURL = "TASKDESK_API_BASE_URL"

// Defaults applied when a field is not set.
const (
	DefaultBaseURL        = "http://localhost:3000"
	DefaultTimeout        = 10 * time.Second
	DefaultPageSize       = 5
	DefaultSearchDebounce = 300 * time.Millisecond
)

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// Config represents the application configuration
type Config struct {
	Backend      string         `yaml:"backend"`
	API          APIConfig      `yaml:"api"`
	Backends     BackendsConfig `yaml:"backends"`
	Session      SessionConfig  `yaml:"session"`
	UI           UIConfig       `yaml:"ui"`
	OutputFormat string         `yaml:"output_format"`
	Logging      LoggingConfig  `yaml:"logging"`
}

// APIConfig holds REST API settings
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// BackendsConfig holds configuration for local backends
type BackendsConfig struct {
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig holds SQLite backend configuration
type SQLiteConfig struct {
	Path  string         `yaml:"path"`
	Users []backend.User `yaml:"users"`
}

// SessionConfig selects where the login session is persisted
type SessionConfig struct {
	Store string `yaml:"store"` // auto, keyring, file
	Path  string `yaml:"path"`
}

// UIConfig holds user interface settings
type UIConfig struct {
	PageSize       int    `yaml:"page_size"`
	SearchDebounce string `yaml:"search_debounce"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Backends.SQLite.Users = []backend.User{{ID: "1", Name: "Admin"}}
	return cfg
}

// applyDefaults fills unset fields.
func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = "rest"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == "" {
		c.API.Timeout = DefaultTimeout.String()
	}
	if c.Backends.SQLite.Path == "" {
		c.Backends.SQLite.Path = filepath.Join(GetDataDir(), "tasks.db")
	}
	if c.Session.Store == "" {
		c.Session.Store = "auto"
	}
	if c.Session.Path == "" {
		c.Session.Path = filepath.Join(GetDataDir(), "session.yaml")
	}
	if c.UI.PageSize <= 0 {
		c.UI.PageSize = DefaultPageSize
	}
	if c.UI.SearchDebounce == "" {
		c.UI.SearchDebounce = DefaultSearchDebounce.String()
	}
	if c.OutputFormat == "" {
		c.OutputFormat = "text"
	}
}

// DefaultPath returns the XDG config file location.
func DefaultPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it creates one from the sample.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath()
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeSample(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML, applies defaults, expands paths and the environment override.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.Backends.SQLite.Path = ExpandPath(cfg.Backends.SQLite.Path)
	cfg.Session.Path = ExpandPath(cfg.Session.Path)

	if env := strings.TrimSpace(os.Getenv(EnvBaseURL)); env != "" {
		cfg.API.BaseURL = env
	}

	return cfg, nil
}

// writeSample writes the embedded sample configuration to path
func writeSample(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %q (must be 'text' or 'json')", c.OutputFormat)
	}

	switch c.Backend {
	case "rest":
		if c.API.BaseURL == "" {
			return errors.New("api.base_url is required for the rest backend")
		}
	case "sqlite":
		if c.Backends.SQLite.Path == "" {
			return errors.New("backends.sqlite.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}

	switch c.Session.Store {
	case "auto", "keyring", "file":
	default:
		return fmt.Errorf("unknown session.store: %q (must be auto, keyring or file)", c.Session.Store)
	}

	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		return fmt.Errorf("invalid duration for api.timeout: %q", c.API.Timeout)
	}

	if _, err := time.ParseDuration(c.UI.SearchDebounce); err != nil {
		return fmt.Errorf("invalid duration for ui.search_debounce: %q", c.UI.SearchDebounce)
	}

	for _, u := range c.Backends.SQLite.Users {
		if u.ID == "" || u.Name == "" {
			return fmt.Errorf("backends.sqlite.users entries need both id and name")
		}
	}

	return nil
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(jsonOutput, verbose bool) {
	if jsonOutput {
		c.OutputFormat = "json"
	}
	if verbose {
		c.Logging.Verbose = true
	}
}

// GetTimeout returns api.timeout as a duration, 10s when unparsable.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// GetSearchDebounce returns ui.search_debounce as a duration.
func (c *Config) GetSearchDebounce() time.Duration {
	d, err := time.ParseDuration(c.UI.SearchDebounce)
	if err != nil || d < 0 {
		return DefaultSearchDebounce
	}
	return d
}

// getXDGDir returns a directory path following the XDG base directory layout.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, "taskdesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, "taskdesk")
	}
	return filepath.Join(home, fallbackPath, "taskdesk")
}

// GetConfigDir returns the configuration directory following the XDG base directory layout
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following the XDG base directory layout
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
