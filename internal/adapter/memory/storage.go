package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// ObjectStorage keeps uploaded objects in memory and hands out fake URLs.
type ObjectStorage struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
}

func NewObjectStorage(baseURL string) *ObjectStorage {
	return &ObjectStorage{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (o *ObjectStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, size); err != nil && err != io.EOF {
		return "", fmt.Errorf("read object: %w", err)
	}

	o.mu.Lock()
	o.objects[key] = buf.Bytes()
	o.mu.Unlock()

	return fmt.Sprintf("%s/%s", o.baseURL, key), nil
}

// Object returns a stored object, for tests.
func (o *ObjectStorage) Object(key string) ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	data, ok := o.objects[key]
	return data, ok
}
