// Package storage holds profile documents in a MinIO (S3-compatible)
// bucket. Objects are written privately and read back through short-lived
// presigned URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultPresignExpiry = 15 * time.Minute

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// DocumentStore wraps one bucket of the object store.
type DocumentStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewDocumentStore connects to the object store and makes sure the
// bucket exists.
func NewDocumentStore(ctx context.Context, cfg Config, logger *slog.Logger) (*DocumentStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
		logger.Info("created document bucket", "bucket", cfg.Bucket)
	}

	return &DocumentStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With("component", "document_store"),
	}, nil
}

func (s *DocumentStore) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", objectName, err)
	}
	return nil
}

// PresignedURL returns a time-limited download link for a stored
// document.
func (s *DocumentStore) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (*url.URL, error) {
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return nil, fmt.Errorf("presign object %q: %w", objectName, err)
	}
	return u, nil
}

func (s *DocumentStore) Delete(ctx context.Context, objectName string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
}

func (s *DocumentStore) Exists(ctx context.Context, objectName string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
