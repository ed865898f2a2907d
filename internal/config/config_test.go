package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"BLUESKY_IDENTIFIER", "BLUESKY_APP_PASSWORD", "BLUESKY_SERVICE",
		"REQUEST_TIMEOUT", "PUBLISH_DELAY", "RESOLVE_TIMEOUT", "RESOLVE_ATTEMPTS",
		"RESOLVE_BACKOFF", "DRAFT_LIST_DEFAULT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	if cfg.Service != "https://bsky.social" {
		t.Errorf("Expected default service, got %s", cfg.Service)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected 30s request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.PublishDelay != 500*time.Millisecond {
		t.Errorf("Expected 500ms publish delay, got %s", cfg.PublishDelay)
	}
	if cfg.ResolveTimeout != 10*time.Second || cfg.ResolveAttempts != 5 {
		t.Errorf("Unexpected resolve settings %s / %d", cfg.ResolveTimeout, cfg.ResolveAttempts)
	}
	if cfg.DraftListDefault != 10 {
		t.Errorf("Expected draft list default 10, got %d", cfg.DraftListDefault)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected info log level, got %s", cfg.LogLevel)
	}
	if cfg.HasAppPassword() {
		t.Error("Expected no app password configured")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("BLUESKY_IDENTIFIER", " alice.bsky.social ")
	t.Setenv("BLUESKY_APP_PASSWORD", "xxxx-xxxx-xxxx-xxxx")
	t.Setenv("PUBLISH_DELAY", "2s")
	t.Setenv("RESOLVE_ATTEMPTS", "9")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()

	if cfg.Identifier != "alice.bsky.social" {
		t.Errorf("Expected trimmed identifier, got %q", cfg.Identifier)
	}
	if !cfg.HasAppPassword() {
		t.Error("Expected app password to be configured")
	}
	if cfg.PublishDelay != 2*time.Second {
		t.Errorf("Expected 2s publish delay, got %s", cfg.PublishDelay)
	}
	if cfg.ResolveAttempts != 9 {
		t.Errorf("Expected 9 resolve attempts, got %d", cfg.ResolveAttempts)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected debug log level, got %s", cfg.LogLevel)
	}
}

func TestGetEnvHelpers_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("TEST_INT", "not-a-number")
	t.Setenv("TEST_NEG_INT", "-3")
	t.Setenv("TEST_DURATION", "soon")

	if got := getEnvInt("TEST_INT", 7); got != 7 {
		t.Errorf("Expected fallback 7, got %d", got)
	}
	if got := getEnvInt("TEST_NEG_INT", 7); got != 7 {
		t.Errorf("Expected negative value to be rejected, got %d", got)
	}
	if got := getEnvDuration("TEST_DURATION", "3s"); got != 3*time.Second {
		t.Errorf("Expected fallback 3s, got %s", got)
	}
}
