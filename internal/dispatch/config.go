package dispatch

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Defaults for the collector connection. Every value can be overridden per
// invocation by environment or flag.
const (
	DefaultServerURL  = "http://localhost:4000"
	DefaultSourceApp  = "claude-agent"
	DefaultTimeout    = 5 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
)

// Config holds the collector connection settings. It is passed explicitly
// into NewDispatcher — there is no module-level mutable state, so parallel
// tests and parallel hook invocations never interfere.
type Config struct {
	// ServerURL is the collector base URL; events go to ServerURL + "/events".
	ServerURL string

	// SourceApp identifies the emitting agent instance.
	SourceApp string

	// SessionID is stable for the lifetime of one agent run. Empty means
	// generate a fresh one.
	SessionID string

	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration
}

// ConfigFromEnv builds a Config from the environment, falling back to the
// package defaults. The session ID is inherited from CLAUDE_SESSION_ID when
// the agent provides one, otherwise freshly generated — each hook process
// within one agent run then reports the same session.
func ConfigFromEnv() Config {
	return Config{
		ServerURL:  envOrDefault("OBSERVABILITY_SERVER_URL", DefaultServerURL),
		SourceApp:  envOrDefault("SOURCE_APP", DefaultSourceApp),
		SessionID:  envOrDefault("CLAUDE_SESSION_ID", ""),
		Timeout:    envDurationOrDefault("OBSERVABILITY_TIMEOUT", DefaultTimeout),
		MaxRetries: envIntOrDefault("OBSERVABILITY_MAX_RETRIES", DefaultMaxRetries),
		RetryDelay: envDurationOrDefault("OBSERVABILITY_RETRY_DELAY", DefaultRetryDelay),
	}
}

// withDefaults fills unset connection fields so a partially populated
// Config is always usable. Zero is a valid explicit value for MaxRetries
// and RetryDelay (no retries, no delay between attempts); the env-derived
// defaults for those come from ConfigFromEnv, not from here.
func (c Config) withDefaults() Config {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.SourceApp == "" {
		c.SourceApp = DefaultSourceApp
	}
	if c.SessionID == "" {
		c.SessionID = uuid.New().String()
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}
