package storage

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/adapter/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectURL(t *testing.T) {
	m := &MinioAdapter{bucket: "webike", publicURL: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/webike/profile-pictures/a.png", m.ObjectURL("profile-pictures/a.png"))
}

// Requires a running minio; skipped unless TEST_MINIO_ENDPOINT is set.
func TestMinioAdapter_Integration(t *testing.T) {
	endpoint := os.Getenv("TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping object storage integration test - TEST_MINIO_ENDPOINT not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	adapter, err := NewMinioAdapter(ctx, Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("TEST_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("TEST_MINIO_SECRET_KEY"),
		Bucket:    "webike-test",
	}, logger.NewNopLogger())
	require.NoError(t, err)

	body := []byte("not really a png")
	url, err := adapter.Upload(ctx, "profile-pictures/test.png", bytes.NewReader(body), int64(len(body)), "image/png")
	require.NoError(t, err)
	assert.Contains(t, url, "/webike-test/profile-pictures/test.png")
}
