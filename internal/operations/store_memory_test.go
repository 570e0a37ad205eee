package operations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOperation(id string, createdAt time.Time) *Operation {
	return &Operation{
		ID:              id,
		Status:          StatusNotStarted,
		ContainerName:   "inbox",
		BlobName:        id + ".pdf",
		IdentifierField: DefaultIdentifierField,
		CreatedAt:       createdAt,
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	op := testOperation("op-1", time.Now().UTC())
	require.NoError(t, store.Create(ctx, op))

	got, err := store.Get(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, op.ID, got.ID)
	assert.Equal(t, op.BlobName, got.BlobName)
}

func TestMemoryStoreCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	op := testOperation("op-1", time.Now().UTC())
	require.NoError(t, store.Create(ctx, op))
	assert.ErrorIs(t, store.Create(ctx, op), ErrOperationExists)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, testOperation("op-1", time.Now().UTC())))

	got, err := store.Get(ctx, "op-1")
	require.NoError(t, err)
	got.Status = StatusFailed

	fresh, err := store.Get(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, StatusNotStarted, fresh.Status)
}

func TestMemoryStoreUpdateUnknown(t *testing.T) {
	store := NewMemoryStore()
	err := store.Update(context.Background(), testOperation("ghost", time.Now().UTC()))
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

func TestMemoryStoreListOrderingAndFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Now().UTC()
	oldest := testOperation("op-1", base)
	middle := testOperation("op-2", base.Add(time.Second))
	middle.Status = StatusRunning
	newest := testOperation("op-3", base.Add(2*time.Second))

	for _, op := range []*Operation{oldest, middle, newest} {
		require.NoError(t, store.Create(ctx, op))
	}

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "op-3", all[0].ID)
	assert.Equal(t, "op-2", all[1].ID)
	assert.Equal(t, "op-1", all[2].ID)

	running, err := store.List(ctx, Filter{Status: StatusRunning})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, "op-2", running[0].ID)

	limited, err := store.List(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusNotStarted.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusSucceeded.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestParseStatus(t *testing.T) {
	status, ok := ParseStatus("running")
	assert.True(t, ok)
	assert.Equal(t, StatusRunning, status)

	_, ok = ParseStatus("bogus")
	assert.False(t, ok)
}
