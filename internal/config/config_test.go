package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		APIBaseURL:  "http://localhost:8090/api",
		HTTPTimeout: 30 * time.Second,
		WorkerCron:  "0 6 1 * *",
		LogLevel:    "info",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIBaseURL != "http://localhost:8090/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.AMQPURL != "" {
		t.Errorf("AMQPURL = %q, want disabled by default", cfg.AMQPURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VAAD_API_URL", "https://api.example.com")
	t.Setenv("VAAD_HTTP_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	t.Setenv("VAAD_HTTP_TIMEOUT", "not-a-duration")

	if got := Load().HTTPTimeout; got != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want the 30s fallback", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing scheme", func(c *Config) { c.APIBaseURL = "localhost:8090" }, "invalid API base URL"},
		{"bad scheme", func(c *Config) { c.APIBaseURL = "ftp://x" }, "scheme must be http or https"},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }, "timeout must be positive"},
		{"bad cron", func(c *Config) { c.WorkerCron = "every tuesday" }, "invalid worker cron spec"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.APIBaseURL = "bad"
	cfg.HTTPTimeout = -time.Second
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want errors")
	}
	for _, want := range []string{"invalid API base URL", "timeout must be positive", "invalid log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q missing %q", err, want)
		}
	}
}
