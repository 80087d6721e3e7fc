// Package s3 provides an S3/MinIO-backed key-value store. Each key maps
// to one object at <collection>/<key>.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/fruitsalade/saladefs/internal/kvstore"
	"github.com/fruitsalade/saladefs/internal/logging"
	"github.com/fruitsalade/saladefs/internal/metrics"
)

// Config is a JSON-serializable config for S3 stores.
type Config struct {
	Endpoint   string `json:"endpoint"`
	Bucket     string `json:"bucket"`
	AccessKey  string `json:"access_key"`
	SecretKey  string `json:"secret_key"`
	Region     string `json:"region"`
	UseSSL     bool   `json:"use_ssl"`
	Collection string `json:"collection"`
}

// Store implements kvstore.Store using S3/MinIO.
type Store struct {
	client     *s3.Client
	bucket     string
	collection string
}

// New creates a new S3 store from a Config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
			}, nil
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &Store{
		client:     client,
		bucket:     cfg.Bucket,
		collection: cfg.Collection,
	}, nil
}

// NewFromJSON creates a Store from raw JSON config.
func NewFromJSON(ctx context.Context, raw json.RawMessage) (*Store, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse s3 config: %w", err)
	}
	return New(ctx, cfg)
}

func (s *Store) objectKey(key string) string {
	return s.collection + "/" + key
}

// Open ensures the bucket exists, creating it if it does not.
func (s *Store) Open(ctx context.Context) error {
	start := time.Now()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		_, createErr := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(s.bucket),
		})
		if createErr != nil {
			metrics.RecordStoreOperation("s3", "open", time.Since(start), false)
			return fmt.Errorf("bucket %s does not exist and cannot create: %w", s.bucket, createErr)
		}
		logging.Info("created S3 bucket", zap.String("bucket", s.bucket))
	}

	metrics.RecordStoreOperation("s3", "open", time.Since(start), true)
	return nil
}

// Get retrieves the object for key, or kvstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			metrics.RecordStoreOperation("s3", "get", time.Since(start), true)
			return nil, kvstore.ErrNotFound
		}
		metrics.RecordStoreOperation("s3", "get", time.Since(start), false)
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer result.Body.Close()

	value, err := io.ReadAll(result.Body)
	if err != nil {
		metrics.RecordStoreOperation("s3", "get", time.Since(start), false)
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}

	metrics.RecordStoreOperation("s3", "get", time.Since(start), true)
	return value, nil
}

// Put uploads value as the object for key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(value),
		ContentLength: aws.Int64(int64(len(value))),
	})
	if err != nil {
		metrics.RecordStoreOperation("s3", "put", time.Since(start), false)
		return fmt.Errorf("put object %s: %w", key, err)
	}

	metrics.RecordStoreOperation("s3", "put", time.Since(start), true)
	logging.Debug("s3 put object", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// Type returns "s3".
func (s *Store) Type() string { return "s3" }

// Close is a no-op for S3 stores.
func (s *Store) Close() error { return nil }
