// Package local provides a local filesystem key-value backend: one file
// per key under <root>/<collection>/, written atomically.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fruitsalade/saladefs/internal/kvstore"
)

// Config holds local filesystem backend settings.
type Config struct {
	RootPath   string `json:"root_path"`
	Collection string `json:"collection"`
	CreateDirs bool   `json:"create_dirs"`
}

// LocalStore implements kvstore.Store on the local filesystem.
type LocalStore struct {
	rootPath   string
	collection string
	createDirs bool
}

// New creates a new local filesystem store.
func New(cfg Config) (*LocalStore, error) {
	if cfg.RootPath == "" {
		return nil, fmt.Errorf("root_path is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	return &LocalStore{
		rootPath:   cfg.RootPath,
		collection: cfg.Collection,
		createDirs: cfg.CreateDirs,
	}, nil
}

// NewFromJSON creates a LocalStore from raw JSON config.
func NewFromJSON(raw json.RawMessage) (*LocalStore, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse local config: %w", err)
	}
	return New(cfg)
}

func (s *LocalStore) dir() string {
	return filepath.Join(s.rootPath, s.collection)
}

func (s *LocalStore) keyPath(key string) string {
	return filepath.Join(s.dir(), key)
}

// Open ensures the collection directory exists.
func (s *LocalStore) Open(_ context.Context) error {
	info, err := os.Stat(s.dir())
	if err != nil {
		if os.IsNotExist(err) && s.createDirs {
			if mkErr := os.MkdirAll(s.dir(), 0755); mkErr != nil {
				return fmt.Errorf("create collection dir %s: %w", s.dir(), mkErr)
			}
			return nil
		}
		return fmt.Errorf("stat collection dir %s: %w", s.dir(), err)
	}
	if !info.IsDir() {
		return fmt.Errorf("collection path %s is not a directory", s.dir())
	}
	return nil
}

// Get reads the value file for key.
func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kvstore.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put writes the value file for key atomically (temp file then rename),
// so a crashed write never leaves a torn record behind.
func (s *LocalStore) Put(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.dir(), ".saladefs-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", key, err)
	}

	if err := os.Rename(tmpName, s.keyPath(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", key, err)
	}
	return nil
}

// Type returns "local".
func (s *LocalStore) Type() string { return "local" }

// Close is a no-op for local stores.
func (s *LocalStore) Close() error { return nil }
