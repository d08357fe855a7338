// Package config
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/airmonitor/airmonitor/internal/model"
)

const (
	DefaultStateURL  = "https://alexa.amazon.co.uk/api/phoenix/state"
	DefaultUserAgent = "AppleWebKit PitanguiBridge/2.2.454039.0-[HARDWARE=iPhone8_1][SOFTWARE=14.4][DEVICE=iPhone]"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Upstream    UpstreamConfig    `yaml:"upstream"`
	Credentials model.Credentials `yaml:"credentials"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms" validate:"min=0"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms" validate:"min=0"`
}

type UpstreamConfig struct {
	StateURL  string `yaml:"state_url" validate:"required,url"`
	UserAgent string `yaml:"user_agent" validate:"required"`
	// TimeoutMS of 0 leaves the HTTP client default in place
	TimeoutMS int `yaml:"timeout_ms" validate:"min=0"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json text"`
}

var validate = validator.New()

// Error is returned when the configuration is unusable. The process must
// not start serving when Load returns one.
type Error struct {
	Fields []string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "invalid configuration"
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Fields, "; "))
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           5000,
			ReadTimeoutMS:  30000,
			WriteTimeoutMS: 30000,
		},
		Upstream: UpstreamConfig{
			StateURL:  DefaultStateURL,
			UserAgent: DefaultUserAgent,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads an optional YAML file and an optional .env file, then applies
// environment variable overrides and validates the result. A missing file is
// not an error; missing credentials are.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// godotenv never overwrites variables that are already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration values are set
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Error{Fields: []string{err.Error()}}
	}

	cfgErr := &Error{}
	for _, fe := range fieldErrs {
		cfgErr.Fields = append(cfgErr.Fields, formatFieldError(fe))
	}
	return cfgErr
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.StructNamespace() {
	case "Config.Credentials.ATACBUK":
		return "AT_ACBUK is required"
	case "Config.Credentials.UBIDACBUK":
		return "UBID_ACBUK is required"
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Namespace())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Namespace(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag())
	}
}

// applyEnvOverrides reads the session cookies and AIRMON_ prefixed settings
func applyEnvOverrides(cfg *Config) {
	// Credentials
	if v := os.Getenv("AT_ACBUK"); v != "" {
		cfg.Credentials.ATACBUK = v
	}
	if v := os.Getenv("UBID_ACBUK"); v != "" {
		cfg.Credentials.UBIDACBUK = v
	}

	// Server overrides
	if v := os.Getenv("AIRMON_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("AIRMON_SERVER_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Server.Port)
	}

	// Upstream overrides
	if v := os.Getenv("AIRMON_UPSTREAM_STATE_URL"); v != "" {
		cfg.Upstream.StateURL = v
	}
	if v := os.Getenv("AIRMON_UPSTREAM_TIMEOUT_MS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Upstream.TimeoutMS)
	}

	// Logging overrides
	if v := os.Getenv("AIRMON_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("AIRMON_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
}

// Addr returns the listen address
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ReadTimeout returns the read timeout as a duration
func (s *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

// WriteTimeout returns the write timeout as a duration
func (s *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

// Timeout returns the upstream request timeout as a duration
func (u *UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutMS) * time.Millisecond
}

// IsLogLevelValid checks if the log level is valid
func (l *LoggingConfig) IsLogLevelValid() bool {
	validLevels := []string{"debug", "info", "warn", "error"}
	return slices.Contains(validLevels, strings.ToLower(l.Level))
}
