// Package redis provides a Redis-backed key-value store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fruitsalade/saladefs/internal/kvstore"
	"github.com/fruitsalade/saladefs/internal/logging"
	"github.com/fruitsalade/saladefs/internal/metrics"
)

// Config holds Redis backend settings.
type Config struct {
	Addr       string `json:"addr"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	Collection string `json:"collection"`
}

// Store is a Redis key-value store. Keys are namespaced by collection
// as "<collection>:<key>".
type Store struct {
	client     *redis.Client
	collection string
}

// New creates a new Redis store. The connection is verified by Open.
func New(cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("addr is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Store{client: client, collection: cfg.Collection}, nil
}

// NewFromJSON creates a Store from raw JSON config.
func NewFromJSON(raw json.RawMessage) (*Store, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse redis config: %w", err)
	}
	return New(cfg)
}

func (s *Store) namespaced(key string) string {
	return s.collection + ":" + key
}

// Open verifies connectivity with a ping.
func (s *Store) Open(ctx context.Context) error {
	start := time.Now()

	if err := s.client.Ping(ctx).Err(); err != nil {
		metrics.RecordStoreOperation("redis", "open", time.Since(start), false)
		return fmt.Errorf("ping redis: %w", err)
	}

	metrics.RecordStoreOperation("redis", "open", time.Since(start), true)
	logging.Debug("redis store opened", zap.String("collection", s.collection))
	return nil
}

// Get returns the value stored under key, or kvstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	value, err := s.client.Get(ctx, s.namespaced(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordStoreOperation("redis", "get", time.Since(start), true)
		return nil, kvstore.ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreOperation("redis", "get", time.Since(start), false)
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	metrics.RecordStoreOperation("redis", "get", time.Since(start), true)
	return value, nil
}

// Put stores value under key with no expiry.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()

	if err := s.client.Set(ctx, s.namespaced(key), value, 0).Err(); err != nil {
		metrics.RecordStoreOperation("redis", "put", time.Since(start), false)
		return fmt.Errorf("put %s: %w", key, err)
	}

	metrics.RecordStoreOperation("redis", "put", time.Since(start), true)
	logging.Debug("redis put", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// Type returns "redis".
func (s *Store) Type() string { return "redis" }

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
