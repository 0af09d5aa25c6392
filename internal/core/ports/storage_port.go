package ports

import (
	"context"
	"io"
)

type ObjectStorage interface {
	// Upload stores the object and returns its public URL.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}
