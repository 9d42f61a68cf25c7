package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8000
	DefaultInterval        = 10 * time.Second
	DefaultRetryDelay      = 2 * time.Second
	DefaultMaxRetryDelay   = time.Minute
	DefaultCredentialsFile = "cmd/.env"
	DefaultDialTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 5 * time.Second
	DefaultLogLevel        = "info"
)

// DefaultPath is where LoadConfig looks when no explicit path is given.
var DefaultPath = filepath.Join(".inject", "config.yaml")

// DefaultConfig returns a Config with the values the receiving service
// expects out of the box.
func DefaultConfig() Config {
	return Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		Interval:        DefaultInterval,
		RetryDelay:      DefaultRetryDelay,
		MaxRetryDelay:   DefaultMaxRetryDelay,
		Backoff:         BackoffFixed,
		CredentialsFile: DefaultCredentialsFile,
		Framing:         FramingNone,
		DialTimeout:     DefaultDialTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		LogLevel:        DefaultLogLevel,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// LoadConfig reads and parses the YAML config at path. If path is empty,
// DefaultPath is used. A missing file yields DefaultConfig. Fields absent
// from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateConfig checks that all config values are usable.
func ValidateConfig(cfg *Config) error {
	if cfg.Host == "" {
		return ValidationError{Field: "host", Message: "required field is empty"}
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return ValidationError{Field: "port", Message: "must be between 1 and 65535"}
	}
	if cfg.Interval <= 0 {
		return ValidationError{Field: "interval", Message: "must be positive"}
	}
	if cfg.RetryDelay <= 0 {
		return ValidationError{Field: "retry_delay", Message: "must be positive"}
	}
	switch cfg.Backoff {
	case BackoffFixed:
	case BackoffExponential:
		// max_retry_delay only caps exponential growth
		if cfg.MaxRetryDelay < cfg.RetryDelay {
			return ValidationError{Field: "max_retry_delay", Message: "must be at least retry_delay"}
		}
	default:
		return ValidationError{Field: "backoff", Message: fmt.Sprintf("unknown strategy %q", cfg.Backoff)}
	}
	if cfg.CredentialsFile == "" {
		return ValidationError{Field: "credentials_file", Message: "required field is empty"}
	}
	switch cfg.Framing {
	case FramingNone, FramingNewline, FramingLength:
	default:
		return ValidationError{Field: "framing", Message: fmt.Sprintf("unknown framing %q", cfg.Framing)}
	}
	if cfg.DialTimeout <= 0 {
		return ValidationError{Field: "dial_timeout", Message: "must be positive"}
	}
	if cfg.WriteTimeout <= 0 {
		return ValidationError{Field: "write_timeout", Message: "must be positive"}
	}
	return nil
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
