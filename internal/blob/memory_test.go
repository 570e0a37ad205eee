package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUploadDownload(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	url, err := store.Upload(ctx, "inbox", "scan.pdf", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "mem://inbox/scan.pdf", url)

	data, err := store.Download(ctx, "inbox", "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestMemoryStoreDownloadMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Download(ctx, "inbox", "absent.pdf")
	assert.ErrorIs(t, err, ErrBlobNotFound)

	_, _ = store.Upload(ctx, "inbox", "scan.pdf", []byte("x"))
	_, err = store.Download(ctx, "other", "scan.pdf")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Upload(ctx, "inbox", "scan.pdf", []byte("v1"))
	require.NoError(t, err)
	_, err = store.Upload(ctx, "inbox", "scan.pdf", []byte("v2"))
	require.NoError(t, err)

	data, err := store.Download(ctx, "inbox", "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestMemoryStoreCopiesData(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	original := []byte("payload")
	_, err := store.Upload(ctx, "inbox", "scan.pdf", original)
	require.NoError(t, err)

	// Mutating the caller's slice must not reach the stored copy.
	original[0] = 'X'

	data, err := store.Download(ctx, "inbox", "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
