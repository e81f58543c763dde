// Package config loads CLI settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/codeGROOVE-dev/sociolink/pkg/platform"
)

// Config holds the settings shared by the CLI subcommands.
type Config struct {
	DBPath          string
	CacheTTL        time.Duration
	DefaultPlatform platform.Platform
	Concurrency     int
	LogLevel        slog.Level
}

// DefaultDBPath returns the link database path under the XDG data directory.
func DefaultDBPath() string {
	return filepath.Join(xdg.DataHome, "sociolink", "links.db")
}

// Load reads .env from the working directory if present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	cfg := &Config{
		DBPath:      getEnv("SOCIOLINK_DB", DefaultDBPath()),
		CacheTTL:    getEnvDuration("SOCIOLINK_CACHE_TTL", 24*time.Hour),
		Concurrency: getEnvInt("SOCIOLINK_CONCURRENCY", 8),
	}

	name := getEnv("SOCIOLINK_DEFAULT_PLATFORM", platform.Instagram.String())
	p, ok := platform.Parse(name)
	if !ok {
		return nil, fmt.Errorf("SOCIOLINK_DEFAULT_PLATFORM: unknown platform %q", name)
	}
	cfg.DefaultPlatform = p

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("SOCIOLINK_LOG_LEVEL", "warn"))); err != nil {
		return nil, fmt.Errorf("SOCIOLINK_LOG_LEVEL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that settings are usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("SOCIOLINK_DB is empty")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("SOCIOLINK_CONCURRENCY must be at least 1, got %d", c.Concurrency)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("SOCIOLINK_CACHE_TTL must not be negative, got %s", c.CacheTTL)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
