package dispatch

import (
	"testing"
	"time"
)

func TestConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"OBSERVABILITY_SERVER_URL", "SOURCE_APP", "CLAUDE_SESSION_ID",
		"OBSERVABILITY_TIMEOUT", "OBSERVABILITY_MAX_RETRIES", "OBSERVABILITY_RETRY_DELAY",
	} {
		t.Setenv(key, "")
	}

	cfg := ConfigFromEnv()
	if cfg.ServerURL != DefaultServerURL {
		t.Errorf("ServerURL = %q, want %q", cfg.ServerURL, DefaultServerURL)
	}
	if cfg.SourceApp != DefaultSourceApp {
		t.Errorf("SourceApp = %q, want %q", cfg.SourceApp, DefaultSourceApp)
	}
	if cfg.SessionID != "" {
		t.Errorf("SessionID = %q, want empty (generated later)", cfg.SessionID)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", cfg.MaxRetries, DefaultMaxRetries)
	}
	if cfg.RetryDelay != DefaultRetryDelay {
		t.Errorf("RetryDelay = %v, want %v", cfg.RetryDelay, DefaultRetryDelay)
	}
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("OBSERVABILITY_SERVER_URL", "http://collector:9999")
	t.Setenv("SOURCE_APP", "ci-agent")
	t.Setenv("CLAUDE_SESSION_ID", "sess-env")
	t.Setenv("OBSERVABILITY_TIMEOUT", "250ms")
	t.Setenv("OBSERVABILITY_MAX_RETRIES", "7")
	t.Setenv("OBSERVABILITY_RETRY_DELAY", "10ms")

	cfg := ConfigFromEnv()
	if cfg.ServerURL != "http://collector:9999" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.SourceApp != "ci-agent" {
		t.Errorf("SourceApp = %q", cfg.SourceApp)
	}
	if cfg.SessionID != "sess-env" {
		t.Errorf("SessionID = %q", cfg.SessionID)
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 10*time.Millisecond {
		t.Errorf("RetryDelay = %v", cfg.RetryDelay)
	}
}

func TestConfigFromEnv_BadValuesFallBack(t *testing.T) {
	t.Setenv("OBSERVABILITY_TIMEOUT", "not-a-duration")
	t.Setenv("OBSERVABILITY_MAX_RETRIES", "-4")
	t.Setenv("OBSERVABILITY_RETRY_DELAY", "banana")

	cfg := ConfigFromEnv()
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want default on parse failure", cfg.Timeout)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want default on negative value", cfg.MaxRetries)
	}
	if cfg.RetryDelay != DefaultRetryDelay {
		t.Errorf("RetryDelay = %v, want default on parse failure", cfg.RetryDelay)
	}
}

func TestConfig_GeneratedSessionIDIsStable(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(Config{}, nil)
	if d.SessionID() == "" {
		t.Fatal("session id should be generated when not supplied")
	}
	if len(d.SessionID()) != 36 {
		t.Errorf("session id %q, want UUID v4 shape", d.SessionID())
	}
	// Stable for the dispatcher's lifetime.
	if d.SessionID() != d.SessionID() {
		t.Error("session id changed between reads")
	}

	other := NewDispatcher(Config{}, nil)
	if other.SessionID() == d.SessionID() {
		t.Error("two dispatchers should not share a generated session id")
	}
}
