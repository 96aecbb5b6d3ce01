// Package config reads process configuration from the environment. A .env
// file in the working directory is loaded first.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port               int
	ConfigPath         string
	LogLevel           slog.Level
	LogFormat          string
	MetaPollInterval   time.Duration
	ConnectRetries     int
	ConnectRetryDelay  time.Duration
	RedisAddr          string
	SnapshotCacheTTL   time.Duration
	HistoryDatabaseURL string
	CORSAllowedOrigins []string
}

// Load reads the configuration, applying defaults for unset variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               8080,
		LogLevel:           slog.LevelInfo,
		LogFormat:          "text",
		MetaPollInterval:   10 * time.Second,
		ConnectRetries:     3,
		ConnectRetryDelay:  time.Second,
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		SnapshotCacheTTL:   10 * time.Minute,
		HistoryDatabaseURL: os.Getenv("HISTORY_DATABASE_URL"),
		CORSAllowedOrigins: []string{"*"},
	}

	var err error
	if cfg.Port, err = intEnv("PORT", cfg.Port); err != nil {
		return nil, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.ConnectRetries, err = intEnv("CONNECT_RETRIES", cfg.ConnectRetries); err != nil {
		return nil, err
	}
	if cfg.MetaPollInterval, err = durationEnv("META_POLL_INTERVAL", cfg.MetaPollInterval); err != nil {
		return nil, err
	}
	if cfg.ConnectRetryDelay, err = durationEnv("CONNECT_RETRY_DELAY", cfg.ConnectRetryDelay); err != nil {
		return nil, err
	}
	if cfg.SnapshotCacheTTL, err = durationEnv("SNAPSHOT_CACHE_TTL", cfg.SnapshotCacheTTL); err != nil {
		return nil, err
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if cfg.LogLevel, err = ParseLevel(v); err != nil {
			return nil, err
		}
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		v = strings.ToLower(v)
		if v != "text" && v != "json" {
			return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", v)
		}
		cfg.LogFormat = v
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
			}
		}
	}

	cfg.ConfigPath = os.Getenv("PGLENS_CONFIG_PATH")
	if cfg.ConfigPath == "" {
		if cfg.ConfigPath, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// DefaultConfigPath is config.json under the user's configuration directory.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, "pglens", "config.json"), nil
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return d, nil
}
