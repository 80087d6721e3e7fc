// Package postgres provides a PostgreSQL-backed key-value store.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fruitsalade/saladefs/internal/kvstore"
	"github.com/fruitsalade/saladefs/internal/logging"
	"github.com/fruitsalade/saladefs/internal/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_records (
	collection TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, key)
)`

// Config holds PostgreSQL backend settings.
type Config struct {
	DatabaseURL string `json:"database_url"`
	Collection  string `json:"collection"`
}

// Store is a PostgreSQL key-value store. Records live in the kv_records
// table, scoped by collection.
type Store struct {
	db         *sql.DB
	collection string
}

// New creates a new PostgreSQL store. The connection is established by
// Open, not here.
func New(cfg Config) (*Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database_url is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Store{db: db, collection: cfg.Collection}, nil
}

// NewFromJSON creates a Store from raw JSON config.
func NewFromJSON(raw json.RawMessage) (*Store, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	return New(cfg)
}

// NewWithDB wraps an existing database handle. Tests use it with a mock.
func NewWithDB(db *sql.DB, collection string) *Store {
	return &Store{db: db, collection: collection}
}

// Open verifies connectivity and ensures the kv_records table exists.
func (s *Store) Open(ctx context.Context) error {
	start := time.Now()

	if err := s.db.PingContext(ctx); err != nil {
		metrics.RecordStoreOperation("postgres", "open", time.Since(start), false)
		return fmt.Errorf("ping database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		metrics.RecordStoreOperation("postgres", "open", time.Since(start), false)
		return fmt.Errorf("ensure kv_records table: %w", err)
	}

	metrics.RecordStoreOperation("postgres", "open", time.Since(start), true)
	logging.Debug("postgres store opened", zap.String("collection", s.collection))
	return nil
}

// Get returns the value stored under key, or kvstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_records WHERE collection = $1 AND key = $2`,
		s.collection, key).Scan(&value)
	if err == sql.ErrNoRows {
		metrics.RecordStoreOperation("postgres", "get", time.Since(start), true)
		return nil, kvstore.ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreOperation("postgres", "get", time.Since(start), false)
		return nil, fmt.Errorf("get %s/%s: %w", s.collection, key, err)
	}

	metrics.RecordStoreOperation("postgres", "get", time.Since(start), true)
	return value, nil
}

// Put upserts value under key inside a transaction.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordStoreOperation("postgres", "put", time.Since(start), false)
		return fmt.Errorf("begin tx: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO kv_records (collection, key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (collection, key)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.collection, key, value)
	if err != nil {
		tx.Rollback()
		metrics.RecordStoreOperation("postgres", "put", time.Since(start), false)
		return fmt.Errorf("put %s/%s: %w", s.collection, key, err)
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordStoreOperation("postgres", "put", time.Since(start), false)
		return fmt.Errorf("commit put %s/%s: %w", s.collection, key, err)
	}

	metrics.RecordStoreOperation("postgres", "put", time.Since(start), true)
	logging.Debug("postgres put", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// Type returns "postgres".
func (s *Store) Type() string { return "postgres" }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
