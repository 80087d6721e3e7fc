// Package factory constructs kvstore backends from configuration.
package factory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fruitsalade/saladefs/internal/kvstore"
	"github.com/fruitsalade/saladefs/internal/kvstore/local"
	"github.com/fruitsalade/saladefs/internal/kvstore/postgres"
	redisstore "github.com/fruitsalade/saladefs/internal/kvstore/redis"
	s3store "github.com/fruitsalade/saladefs/internal/kvstore/s3"
)

// NewStoreFromConfig creates a Store from a backend type string and JSON config.
func NewStoreFromConfig(ctx context.Context, backendType string, config json.RawMessage) (kvstore.Store, error) {
	switch backendType {
	case "s3":
		return s3store.NewFromJSON(ctx, config)
	case "postgres":
		return postgres.NewFromJSON(config)
	case "redis":
		return redisstore.NewFromJSON(config)
	case "local":
		return local.NewFromJSON(config)
	case "memory":
		return kvstore.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend type: %s", backendType)
	}
}
