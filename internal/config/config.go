// Package config provides configuration management
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Account settings
	Identifier  string
	AppPassword string
	Service     string

	// HTTP client settings
	RequestTimeout time.Duration

	// Thread publishing
	PublishDelay    time.Duration
	ResolveTimeout  time.Duration
	ResolveAttempts uint
	ResolveBackoff  time.Duration

	// Server settings
	DraftListDefault int
	LogLevel         string
}

// LoadConfig loads configuration from environment variables with defaults.
// A .env file in the working directory is read first when present; variables
// already set in the environment take precedence over it.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Identifier:       strings.TrimSpace(os.Getenv("BLUESKY_IDENTIFIER")),
		AppPassword:      os.Getenv("BLUESKY_APP_PASSWORD"),
		Service:          getEnvString("BLUESKY_SERVICE", "https://bsky.social"),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", "30s"),
		PublishDelay:     getEnvDuration("PUBLISH_DELAY", "500ms"),
		ResolveTimeout:   getEnvDuration("RESOLVE_TIMEOUT", "10s"),
		ResolveAttempts:  uint(getEnvInt("RESOLVE_ATTEMPTS", 5)),
		ResolveBackoff:   getEnvDuration("RESOLVE_BACKOFF", "250ms"),
		DraftListDefault: getEnvInt("DRAFT_LIST_DEFAULT", 10),
		LogLevel:         getEnvString("LOG_LEVEL", "info"),
	}
}

// HasAppPassword reports whether an app-password login was configured
func (c *Config) HasAppPassword() bool {
	return c.Identifier != "" && c.AppPassword != ""
}

func getEnvString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets a non-negative int from environment or returns default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration from environment or returns default
func getEnvDuration(key string, defaultValue string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil && duration >= 0 {
		return duration
	}

	// Parse default if parsing failed
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}

	return time.Second
}
