package cli

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/thruflo/inject/internal/config"
)

// resolveConfig loads the config file at path and applies every flag or
// environment variable the operator actually set.
func resolveConfig(v *viper.Viper, path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if v.IsSet("host") {
		cfg.Host = v.GetString("host")
	}
	if v.IsSet("port") {
		cfg.Port = v.GetInt("port")
	}
	if v.IsSet("interval") {
		cfg.Interval = v.GetDuration("interval")
	}
	if v.IsSet("retry-delay") {
		cfg.RetryDelay = v.GetDuration("retry-delay")
	}
	if v.IsSet("max-retry-delay") {
		cfg.MaxRetryDelay = v.GetDuration("max-retry-delay")
	}
	if v.IsSet("backoff") {
		cfg.Backoff = v.GetString("backoff")
	}
	if v.IsSet("credentials") {
		cfg.CredentialsFile = v.GetString("credentials")
	}
	if v.IsSet("framing") {
		cfg.Framing = v.GetString("framing")
	}
	if v.IsSet("dial-timeout") {
		cfg.DialTimeout = v.GetDuration("dial-timeout")
	}
	if v.IsSet("write-timeout") {
		cfg.WriteTimeout = v.GetDuration("write-timeout")
	}
	if v.IsSet("log-level") {
		cfg.LogLevel = v.GetString("log-level")
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}
