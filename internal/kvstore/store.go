// Package kvstore defines the durable key-value store the persistence
// layer writes the filesystem record into, and a factory over the
// available backends. Backends store opaque byte values inside a named
// collection; every Get/Put reports completion or failure and never
// partially applies.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the interface all key-value backends implement.
type Store interface {
	// Open establishes the backend connection. It must be called (and
	// succeed) before Get or Put.
	Open(ctx context.Context) error

	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Type returns the backend type identifier ("postgres", "redis",
	// "s3", "local", "memory").
	Type() string

	// Close releases any resources held by the backend.
	Close() error
}
