package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"postdirectory/app/repositories"
)

// Config holds the settings read from the environment.
type Config struct {
	// APIURL is the base URL of the posts API the directory talks to.
	APIURL string
	// Payload selects multipart (image uploads) or json bodies.
	Payload repositories.PayloadMode
	// Timeout bounds each request to the posts API.
	Timeout time.Duration

	// Addr is the listen address of the reference posts API.
	Addr string
	// DataDir holds the Badger store and uploaded images.
	DataDir string
	// PublicURL prefixes image paths returned by the reference API.
	PublicURL string

	LogLevel slog.Level
}

// Load reads the configuration from POSTS_* environment variables.
func Load() (*Config, error) {
	payload := repositories.PayloadMode(strings.ToLower(getEnv("POSTS_PAYLOAD", string(repositories.PayloadMultipart))))
	if payload != repositories.PayloadMultipart && payload != repositories.PayloadJSON {
		return nil, fmt.Errorf("POSTS_PAYLOAD must be %q or %q, got %q",
			repositories.PayloadMultipart, repositories.PayloadJSON, payload)
	}

	timeout, err := time.ParseDuration(getEnv("POSTS_HTTP_TIMEOUT", repositories.DefaultTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid POSTS_HTTP_TIMEOUT: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("POSTS_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid POSTS_LOG_LEVEL: %w", err)
	}

	return &Config{
		APIURL:    strings.TrimRight(getEnv("POSTS_API_URL", repositories.DefaultBaseURL), "/"),
		Payload:   payload,
		Timeout:   timeout,
		Addr:      getEnv("POSTS_ADDR", ":3000"),
		DataDir:   getEnv("POSTS_DATA_DIR", "data"),
		PublicURL: strings.TrimRight(getEnv("POSTS_PUBLIC_URL", ""), "/"),
		LogLevel:  level,
	}, nil
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}
