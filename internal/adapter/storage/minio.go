package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL prefixes returned object URLs. Defaults to the endpoint.
	PublicURL string
}

type MinioAdapter struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    ports.LoggerPort
}

// NewMinioAdapter connects to the S3-compatible endpoint and makes sure the bucket exists.
func NewMinioAdapter(ctx context.Context, cfg Config, logger ports.LoggerPort) (*MinioAdapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("Bucket created", map[string]interface{}{
			"bucket": cfg.Bucket,
		})
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return &MinioAdapter{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}, nil
}

func (m *MinioAdapter) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		m.logger.Error("Failed to upload object", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	m.logger.Debug("Object uploaded", map[string]interface{}{
		"key":  info.Key,
		"size": info.Size,
	})
	return m.ObjectURL(key), nil
}

func (m *MinioAdapter) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, key)
}
