package config

import "time"

// Backoff strategy names accepted in Config.Backoff.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// Framing names accepted in Config.Framing.
const (
	FramingNone    = "none"
	FramingNewline = "newline"
	FramingLength  = "length"
)

// Config represents the inject config file (.inject/config.yaml by default).
type Config struct {
	// Host and Port locate the receiving service.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Interval between resends of the secret map.
	Interval time.Duration `yaml:"interval"`

	// RetryDelay is the penalty wait after a failed send or connect.
	RetryDelay time.Duration `yaml:"retry_delay"`

	// MaxRetryDelay caps the delay when Backoff is exponential.
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`

	Backoff string `yaml:"backoff"`

	// CredentialsFile lists one identifier per line, relative to the
	// working directory.
	CredentialsFile string `yaml:"credentials_file"`

	Framing string `yaml:"framing"`

	DialTimeout  time.Duration `yaml:"dial_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	LogLevel string `yaml:"log_level"`
}

// Address returns host:port for dialing.
func (c *Config) Address() string {
	return joinHostPort(c.Host, c.Port)
}
