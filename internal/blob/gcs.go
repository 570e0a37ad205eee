package blob

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSStore is a Store backed by Google Cloud Storage; containers map to
// buckets.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore wraps an existing storage client.
func NewGCSStore(client *storage.Client) *GCSStore {
	return &GCSStore{client: client}
}

func (s *GCSStore) Download(ctx context.Context, container, name string) ([]byte, error) {
	r, err := s.client.Bucket(container).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s/%s: %w", container, name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", container, name, err)
	}
	return data, nil
}

// Upload overwrites any existing object of the same name.
func (s *GCSStore) Upload(ctx context.Context, container, name string, data []byte) (string, error) {
	w := s.client.Bucket(container).Object(name).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write %s/%s: %w", container, name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize %s/%s: %w", container, name, err)
	}

	return fmt.Sprintf("gs://%s/%s", container, name), nil
}
