// Package blob abstracts binary object storage. Objects live in named
// containers; writes overwrite in place, which keeps re-uploads under job
// redelivery idempotent.
package blob

import (
	"context"
	"errors"
)

// ErrBlobNotFound is returned when the requested object does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// Store reads and writes binary objects. Upload returns a stable reference
// URL for the stored object.
type Store interface {
	Download(ctx context.Context, container, name string) ([]byte, error)
	Upload(ctx context.Context, container, name string, data []byte) (string, error)
}
