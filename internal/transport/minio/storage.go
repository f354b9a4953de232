// Package minio stores uploaded images in an S3-compatible bucket.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Config holds the object storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Storage writes objects into one bucket.
type Storage struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// New creates a Storage.
func New(cfg Config, logger *zap.Logger) (*Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("object storage endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("object storage bucket is required")
	}

	opts := &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	}
	if cfg.Transport != nil {
		opts.Transport = cfg.Transport
	}

	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Storage{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Bucket returns the bucket name.
func (s *Storage) Bucket() string { return s.bucket }

// Put uploads an object. Existing objects are never overwritten by name
// reuse because callers generate unique names.
func (s *Storage) Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) error {
	info, err := s.client.PutObject(ctx, s.bucket, name, body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "max-age=3600",
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", name, err)
	}
	s.logger.Debug("Object stored",
		zap.String("bucket", s.bucket), zap.String("key", name), zap.Int64("size", info.Size))
	return nil
}

// EnsureBucket creates the bucket when it does not exist.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("Bucket created", zap.String("bucket", s.bucket))
	return nil
}

// HealthCheck verifies the bucket is reachable.
func (s *Storage) HealthCheck(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}
