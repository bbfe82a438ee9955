// Package config reads the application configuration from the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/etnz/networth/advisor"
	"github.com/etnz/networth/slot"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Storage kinds accepted by NW_STORAGE.
const (
	StorageDir    = "dir"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds application configuration
type Config struct {
	Storage      string
	DataDir      string
	RedisAddr    string
	PollInterval time.Duration
	ChatURL      string // remote chat backend, the local assistant is used when empty
	Model        string
	APIKey       string
	Listen       string
	LogLevel     string
}

// Load reads configuration from environment variables, and from a .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Storage:      strings.ToLower(getEnv("NW_STORAGE", StorageDir)),
		DataDir:      getEnv("NW_DATA_DIR", ".networth"),
		RedisAddr:    getEnv("NW_REDIS_ADDR", "localhost:6379"),
		PollInterval: getEnvAsDuration("NW_POLL_INTERVAL", time.Second),
		ChatURL:      getEnv("NW_CHAT_URL", ""),
		Model:        getEnv("NW_MODEL", advisor.DefaultModel),
		APIKey:       getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		Listen:       getEnv("NW_LISTEN", ":8080"),
		LogLevel:     getEnv("NW_LOG_LEVEL", "info"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is consistent.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageDir, StorageSQLite:
		if c.DataDir == "" {
			return fmt.Errorf("NW_DATA_DIR is required with %s storage", c.Storage)
		}
	case StorageRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("NW_REDIS_ADDR is required with redis storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown NW_STORAGE %q, want one of dir, sqlite, redis, memory", c.Storage)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("NW_POLL_INTERVAL must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid NW_LOG_LEVEL: %w", err)
	}
	return nil
}

// OpenBackend opens the configured storage backend.
func (c *Config) OpenBackend() (slot.Backend, error) {
	switch c.Storage {
	case StorageDir:
		return slot.NewDir(c.DataDir, c.PollInterval)
	case StorageSQLite:
		if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
			return nil, err
		}
		return slot.NewSQLite(filepath.Join(c.DataDir, "networth.db"), c.PollInterval)
	case StorageRedis:
		return slot.DialRedis(c.RedisAddr, "networth")
	case StorageMemory:
		return slot.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage %q", c.Storage)
}

// Logger returns a logger writing to w at the configured level.
// A pretty console output is used when pretty is set.
func (c *Config) Logger(w io.Writer, pretty bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
