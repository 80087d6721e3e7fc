// Package config loads configuration from environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	localstore "github.com/fruitsalade/saladefs/internal/kvstore/local"
	pgstore "github.com/fruitsalade/saladefs/internal/kvstore/postgres"
	redisstore "github.com/fruitsalade/saladefs/internal/kvstore/redis"
	s3store "github.com/fruitsalade/saladefs/internal/kvstore/s3"
)

// Config holds all daemon configuration.
type Config struct {
	// Server
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Store backend ("local", "postgres", "redis", "s3" or "memory")
	StoreBackend string
	Collection   string

	// Postgres
	DatabaseURL string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// S3
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool

	// Local filesystem
	LocalStorePath string

	// Persistence
	ConnectTimeout   time.Duration
	AutosaveInterval time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		MetricsAddr:      envOr("METRICS_ADDR", ":9090"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		LogFormat:        envOr("LOG_FORMAT", "json"),
		StoreBackend:     envOr("STORE_BACKEND", "local"),
		Collection:       envOr("STORE_COLLECTION", "saladefs"),
		DatabaseURL:      envOr("DATABASE_URL", ""),
		RedisAddr:        envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    envOr("REDIS_PASSWORD", ""),
		RedisDB:          envInt("REDIS_DB", 0),
		S3Endpoint:       envOr("S3_ENDPOINT", "http://localhost:9000"),
		S3Bucket:         envOr("S3_BUCKET", "saladefs"),
		S3AccessKey:      envOr("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      envOr("S3_SECRET_KEY", "minioadmin"),
		S3Region:         envOr("S3_REGION", "us-east-1"),
		S3UseSSL:         envBool("S3_USE_SSL", false),
		LocalStorePath:   envOr("LOCAL_STORE_PATH", "/data/saladefs"),
		ConnectTimeout:   envDuration("CONNECT_TIMEOUT", 10*time.Second),
		AutosaveInterval: envDuration("AUTOSAVE_INTERVAL", 30*time.Second),
	}

	switch cfg.StoreBackend {
	case "local", "postgres", "redis", "s3", "memory":
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND: %s", cfg.StoreBackend)
	}
	if cfg.StoreBackend == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
	}

	return cfg, nil
}

// StoreConfig returns the backend type and its JSON config for the
// kvstore factory.
func (c *Config) StoreConfig() (string, json.RawMessage, error) {
	var backendCfg interface{}
	switch c.StoreBackend {
	case "local":
		backendCfg = localstore.Config{
			RootPath:   c.LocalStorePath,
			Collection: c.Collection,
			CreateDirs: true,
		}
	case "postgres":
		backendCfg = pgstore.Config{
			DatabaseURL: c.DatabaseURL,
			Collection:  c.Collection,
		}
	case "redis":
		backendCfg = redisstore.Config{
			Addr:       c.RedisAddr,
			Password:   c.RedisPassword,
			DB:         c.RedisDB,
			Collection: c.Collection,
		}
	case "s3":
		backendCfg = s3store.Config{
			Endpoint:   c.S3Endpoint,
			Bucket:     c.S3Bucket,
			AccessKey:  c.S3AccessKey,
			SecretKey:  c.S3SecretKey,
			Region:     c.S3Region,
			UseSSL:     c.S3UseSSL,
			Collection: c.Collection,
		}
	case "memory":
		backendCfg = struct{}{}
	default:
		return "", nil, fmt.Errorf("unknown backend type: %s", c.StoreBackend)
	}

	raw, err := json.Marshal(backendCfg)
	if err != nil {
		return "", nil, fmt.Errorf("marshal %s config: %w", c.StoreBackend, err)
	}
	return c.StoreBackend, raw, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
