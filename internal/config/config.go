package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults
type RelayEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=120s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestBodyBytes   int64         `env:"MAX_REQUEST_BODY_BYTES,default=1048576"`

	// WriteTimeout must exceed PollMaxTimeout or long polls are cut off
	// mid-response.
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=90s"`

	// PublicBaseURL is the externally reachable base URL of this relay.
	// It is used to build the signUrl returned when a session is created.
	PublicBaseURL string `env:"PUBLIC_BASE_URL,default=http://localhost:8080"`

	// signature session settings
	SessionTTL       time.Duration `env:"SESSION_TTL,default=60m"`
	SessionRetention time.Duration `env:"SESSION_RETENTION,default=1h"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL,default=60s"`

	// long-poll settings
	PollDefaultTimeout time.Duration `env:"POLL_DEFAULT_TIMEOUT,default=30s"`
	PollMaxTimeout     time.Duration `env:"POLL_MAX_TIMEOUT,default=60s"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewRelayConfig loads environment variables and returns a RelayEnvironment struct that contains the values
func NewRelayConfig() (*RelayEnvironment, error) {
	var cfg RelayEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateConfig checks the loaded env variables are usable
func validateConfig(cfg *RelayEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	if _, err := url.ParseRequestURI(cfg.PublicBaseURL); err != nil {
		return fmt.Errorf("invalid PUBLIC_BASE_URL: %w", err)
	}

	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be greater than 0")
	}
	if cfg.SessionRetention <= 0 {
		return fmt.Errorf("SESSION_RETENTION must be greater than 0")
	}
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be greater than 0")
	}

	if cfg.PollMaxTimeout <= 0 {
		return fmt.Errorf("POLL_MAX_TIMEOUT must be greater than 0")
	}
	if cfg.PollDefaultTimeout <= 0 || cfg.PollDefaultTimeout > cfg.PollMaxTimeout {
		return fmt.Errorf("POLL_DEFAULT_TIMEOUT (%s) must be between 0 and POLL_MAX_TIMEOUT (%s)",
			cfg.PollDefaultTimeout, cfg.PollMaxTimeout)
	}

	if cfg.WriteTimeout <= cfg.PollMaxTimeout {
		return fmt.Errorf("WRITE_TIMEOUT (%s) must be greater than POLL_MAX_TIMEOUT (%s)",
			cfg.WriteTimeout, cfg.PollMaxTimeout)
	}

	if cfg.MaxRequestBodyBytes < 1024 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be at least 1024")
	}

	return nil
}
