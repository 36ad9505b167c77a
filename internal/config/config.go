// Package config handles application configuration and environment loading.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when the environment leaves a knob unset.
const (
	DefaultListenAddr   = ":8080"
	DefaultS3Region     = "us-west-2"
	DefaultRelease      = "2026-01-21.0"
	DefaultCancelGrace  = 3 * time.Second
	DefaultPollInterval = 4 * time.Second
)

// Config holds the configuration for the placequery server and CLI.
type Config struct {
	ListenAddr   string        // HTTP listen address (default ":8080")
	LogLevel     string        // log level: debug, info, warn, error (default "info")
	Env          string        // environment: "development" (default) or "production"
	S3Region     string        // AWS region of the Overture bucket
	Release      string        // default Overture dataset release
	CancelGrace  time.Duration // cancellation grace before forced abandonment
	PollInterval time.Duration // controller poll pacing while Executing
	MaxMemoryGB  int           // DuckDB memory limit, 0 = unbounded

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables, applying
// defaults and collecting warnings for values that fail to parse.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:   os.Getenv("LISTEN_ADDR"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		Env:          os.Getenv("ENV"),
		S3Region:     os.Getenv("S3_REGION"),
		Release:      os.Getenv("OVERTURE_RELEASE"),
		CancelGrace:  DefaultCancelGrace,
		PollInterval: DefaultPollInterval,
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.S3Region == "" {
		cfg.S3Region = DefaultS3Region
	}
	if cfg.Release == "" {
		cfg.Release = DefaultRelease
	}

	cfg.CancelGrace = envDuration(cfg, "CANCEL_GRACE", DefaultCancelGrace)
	cfg.PollInterval = envDuration(cfg, "POLL_INTERVAL", DefaultPollInterval)
	cfg.MaxMemoryGB = envInt(cfg, "MAX_MEMORY_GB", 0)
	cfg.RateLimitRPS = envFloat(cfg, "RATE_LIMIT_RPS", 100)
	cfg.RateLimitBurst = envInt(cfg, "RATE_LIMIT_BURST", 200)

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, trimmed)
			}
		}
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if cfg.CancelGrace <= 0 {
		return nil, fmt.Errorf("CANCEL_GRACE must be positive")
	}
	return cfg, nil
}

func envDuration(cfg *Config, key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid %s %q, using %s", key, raw, fallback))
		return fallback
	}
	return d
}

func envInt(cfg *Config, key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid %s %q, using %d", key, raw, fallback))
		return fallback
	}
	return n
}

func envFloat(cfg *Config, key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid %s %q, using %g", key, raw, fallback))
		return fallback
	}
	return f
}
