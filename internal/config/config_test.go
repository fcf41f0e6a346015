package config

import (
	"testing"
	"time"
)

func TestNewRelayConfigDefaults(t *testing.T) {
	cfg, err := NewRelayConfig()
	if err != nil {
		t.Fatalf("NewRelayConfig() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Environment != "dev" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "dev")
	}
	if cfg.SessionTTL != 60*time.Minute {
		t.Errorf("SessionTTL = %v, want 60m", cfg.SessionTTL)
	}
	if cfg.PollDefaultTimeout != 30*time.Second {
		t.Errorf("PollDefaultTimeout = %v, want 30s", cfg.PollDefaultTimeout)
	}
	if cfg.PollMaxTimeout != 60*time.Second {
		t.Errorf("PollMaxTimeout = %v, want 60s", cfg.PollMaxTimeout)
	}
	if cfg.WriteTimeout <= cfg.PollMaxTimeout {
		t.Error("default WriteTimeout must exceed PollMaxTimeout")
	}
}

func TestNewRelayConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "port out of range",
			env:  map[string]string{"PORT": "70000"},
		},
		{
			name: "unknown environment",
			env:  map[string]string{"ENVIRONMENT": "production-east"},
		},
		{
			name: "invalid public base URL",
			env:  map[string]string{"PUBLIC_BASE_URL": "not a url"},
		},
		{
			name: "zero session TTL",
			env:  map[string]string{"SESSION_TTL": "0s"},
		},
		{
			name: "poll default above max",
			env:  map[string]string{"POLL_DEFAULT_TIMEOUT": "90s", "POLL_MAX_TIMEOUT": "60s"},
		},
		{
			name: "write timeout not above poll max",
			env:  map[string]string{"WRITE_TIMEOUT": "30s", "POLL_MAX_TIMEOUT": "60s"},
		},
		{
			name: "request body limit too small",
			env:  map[string]string{"MAX_REQUEST_BODY_BYTES": "100"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			if _, err := NewRelayConfig(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestNewRelayConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("PUBLIC_BASE_URL", "https://relay.example.com")

	cfg, err := NewRelayConfig()
	if err != nil {
		t.Fatalf("NewRelayConfig() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Environment != "prod" {
		t.Errorf("Environment = %q, want %q", cfg.Environment, "prod")
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("SessionTTL = %v, want 15m", cfg.SessionTTL)
	}
	if cfg.PublicBaseURL != "https://relay.example.com" {
		t.Errorf("PublicBaseURL = %q, want the override", cfg.PublicBaseURL)
	}
}
