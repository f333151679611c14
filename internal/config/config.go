// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Environment variables read by FromEnv.
const (
	EnvAPIURL            = "PIPELINE_API_URL"
	EnvAPIToken          = "PIPELINE_API_TOKEN"
	EnvCompanyID         = "PIPELINE_COMPANY_ID"
	EnvDatabaseURL       = "DATABASE_URL"
	EnvLogMode           = "LOG_MODE"
	EnvTransitionTimeout = "TRANSITION_TIMEOUT"
	EnvPort              = "PORT"
)

// Defaults applied by Defaults().
const (
	DefaultLogMode           = "dev"
	DefaultPort              = 8080
	DefaultTransitionTimeout = 30 * time.Second
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Source: exactly one of APIURL or BoardFile
	APIURL    string `json:"api_url,omitempty"`    // Base URL of the candidate service
	APIToken  string `json:"api_token,omitempty"`  // Bearer token for the candidate service
	BoardFile string `json:"board_file,omitempty"` // Offline board file (JSON)

	// Board
	CompanyID string `json:"company_id,omitempty"` // Company UUID
	PhaseID   string `json:"phase_id,omitempty"`   // Phase UUID shown first

	// Behavior
	TransitionTimeout string `json:"transition_timeout,omitempty"` // Go duration, e.g. "30s"
	LogMode           string `json:"log_mode,omitempty"`           // "dev" or "prod"
	DatabaseURL       string `json:"database_url,omitempty"`       // PostgreSQL connection URL for the journal
	Port              int    `json:"port,omitempty"`               // HTTP port for serve
}

// Defaults returns the built-in defaults.
func Defaults() Config {
	return Config{
		TransitionTimeout: DefaultTransitionTimeout.String(),
		LogMode:           DefaultLogMode,
		Port:              DefaultPort,
	}
}

// FromEnv returns the values set in the environment. Unset variables stay empty.
func FromEnv() Config {
	return Config{
		APIURL:            os.Getenv(EnvAPIURL),
		APIToken:          os.Getenv(EnvAPIToken),
		CompanyID:         os.Getenv(EnvCompanyID),
		DatabaseURL:       os.Getenv(EnvDatabaseURL),
		LogMode:           os.Getenv(EnvLogMode),
		TransitionTimeout: getEnvDurationString(EnvTransitionTimeout),
		Port:              getEnvInt(EnvPort, 0),
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	// Validate mutually exclusive fields
	if c.APIURL != "" && c.BoardFile != "" {
		return fmt.Errorf("config error: 'api_url' and 'board_file' are mutually exclusive")
	}

	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: invalid api_url: %s", c.APIURL)
		}
	}

	if c.CompanyID != "" {
		if _, err := uuid.Parse(c.CompanyID); err != nil {
			return fmt.Errorf("config error: invalid company_id: %w", err)
		}
	}
	if c.PhaseID != "" {
		if _, err := uuid.Parse(c.PhaseID); err != nil {
			return fmt.Errorf("config error: invalid phase_id: %w", err)
		}
	}

	if c.TransitionTimeout != "" {
		d, err := time.ParseDuration(c.TransitionTimeout)
		if err != nil {
			return fmt.Errorf("config error: invalid transition_timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("config error: 'transition_timeout' must be positive")
		}
	}

	switch c.LogMode {
	case "", "dev", "prod":
	default:
		return fmt.Errorf("config error: 'log_mode' must be dev or prod, got %q", c.LogMode)
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}

	// Validate file paths exist (if specified)
	if c.BoardFile != "" {
		if _, err := os.Stat(c.BoardFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: board file not found: %s", c.BoardFile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer config file, environment and built-in values under CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIURL == "" && result.BoardFile == "" {
		result.APIURL = defaults.APIURL
		result.BoardFile = defaults.BoardFile
	}
	if result.APIToken == "" {
		result.APIToken = defaults.APIToken
	}
	if result.CompanyID == "" {
		result.CompanyID = defaults.CompanyID
	}
	if result.PhaseID == "" {
		result.PhaseID = defaults.PhaseID
	}
	if result.TransitionTimeout == "" {
		result.TransitionTimeout = defaults.TransitionTimeout
	}
	if result.LogMode == "" {
		result.LogMode = defaults.LogMode
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	return result
}

// Timeout returns the parsed transition timeout, or the default when unset or invalid.
func (c *Config) Timeout() time.Duration {
	if d, err := time.ParseDuration(c.TransitionTimeout); err == nil && d > 0 {
		return d
	}
	return DefaultTransitionTimeout
}

// Company returns the parsed company id, uuid.Nil when unset or invalid.
func (c *Config) Company() uuid.UUID {
	id, err := uuid.Parse(c.CompanyID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Phase returns the parsed phase id, uuid.Nil when unset or invalid.
func (c *Config) Phase() uuid.UUID {
	id, err := uuid.Parse(c.PhaseID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDurationString returns the variable only if it parses as a duration.
func getEnvDurationString(key string) string {
	if value := os.Getenv(key); value != "" {
		if _, err := time.ParseDuration(value); err == nil {
			return value
		}
	}
	return ""
}
