package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// Remote API
	APIBaseURL  string
	APIToken    string // optional service token; overrides the session file
	HTTPTimeout time.Duration

	// Local state
	SessionFile    string
	SnapshotDBPath string

	// AMQP (optional; empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Recurring-charge worker
	WorkerCron  string
	MetricsAddr string

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		APIBaseURL:  getEnv("VAAD_API_URL", "http://localhost:8090/api"),
		APIToken:    getEnv("VAAD_API_TOKEN", ""),
		HTTPTimeout: getEnvDuration("VAAD_HTTP_TIMEOUT", 30*time.Second),

		SessionFile:    getEnv("VAAD_SESSION_FILE", "./data/session.json"),
		SnapshotDBPath: getEnv("VAAD_SNAPSHOT_DB", "./data/vaad.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "vaad"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "billing_events"),

		// 06:00 on the first of the month
		WorkerCron:  getEnv("WORKER_CRON", "0 6 1 * *"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("invalid API base URL %q", c.APIBaseURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Sprintf("API base URL %q: scheme must be http or https", c.APIBaseURL))
	}

	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("HTTP timeout must be positive, got %v", c.HTTPTimeout))
	}

	if _, err := cron.ParseStandard(c.WorkerCron); err != nil {
		errs = append(errs, fmt.Sprintf("invalid worker cron spec %q: %v", c.WorkerCron, err))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level %q: must be debug, info, warn, or error", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
