package operations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsplit/internal/queue"
)

func newTestService(t *testing.T) (*Service, *queue.MemoryQueue) {
	t.Helper()
	q := queue.NewMemoryQueue(1, 8, 3, nil)
	return NewService(NewMemoryStore(), q, nil), q
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	op, err := svc.Create(ctx, "inbox", "scan.pdf", "invoice_number")
	require.NoError(t, err)

	assert.NotEmpty(t, op.ID)
	assert.Equal(t, StatusNotStarted, op.Status)
	assert.Equal(t, "inbox", op.ContainerName)
	assert.Equal(t, "scan.pdf", op.BlobName)
	assert.Equal(t, "invoice_number", op.IdentifierField)
	assert.False(t, op.CreatedAt.IsZero())
	assert.Nil(t, op.StartedAt)
	assert.Nil(t, op.CompletedAt)

	stored, err := svc.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, op.ID, stored.ID)
}

func TestServiceCreateDefaultsIdentifierField(t *testing.T) {
	svc, _ := newTestService(t)

	op, err := svc.Create(context.Background(), "inbox", "scan.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultIdentifierField, op.IdentifierField)
}

func TestServiceGetUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

func TestServiceRequestCancelNotStarted(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	op, err := svc.Create(ctx, "inbox", "scan.pdf", "")
	require.NoError(t, err)

	// No worker is running, so the operation finishes immediately.
	cancelled, err := svc.RequestCancel(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.True(t, cancelled.CancelRequested)
	require.NotNil(t, cancelled.CompletedAt)
}

func TestServiceRequestCancelRunning(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	op, err := svc.Create(ctx, "inbox", "scan.pdf", "")
	require.NoError(t, err)

	now := time.Now().UTC()
	op.Status = StatusRunning
	op.StartedAt = &now
	require.NoError(t, svc.Update(ctx, op))

	// A running operation only gets the flag; the worker moves the status
	// at its next checkpoint.
	flagged, err := svc.RequestCancel(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, flagged.Status)
	assert.True(t, flagged.CancelRequested)
	assert.Nil(t, flagged.CompletedAt)
}

func TestServiceRequestCancelTerminal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, status := range []Status{StatusSucceeded, StatusFailed, StatusCancelled} {
		op, err := svc.Create(ctx, "inbox", "scan.pdf", "")
		require.NoError(t, err)
		op.Status = status
		require.NoError(t, svc.Update(ctx, op))

		_, err = svc.RequestCancel(ctx, op.ID)
		require.ErrorIs(t, err, ErrInvalidState)

		var stateErr *InvalidStateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, status, stateErr.Status)
		assert.Contains(t, stateErr.Error(), string(status))
	}
}

func TestServiceRetryTerminal(t *testing.T) {
	ctx := context.Background()
	svc, q := newTestService(t)

	src, err := svc.Create(ctx, "inbox", "scan.pdf", "invoice_number")
	require.NoError(t, err)
	src.Status = StatusFailed
	require.NoError(t, svc.Update(ctx, src))

	retried, err := svc.Retry(ctx, src.ID)
	require.NoError(t, err)

	// Retry is a fresh submission, never a resume.
	assert.NotEqual(t, src.ID, retried.ID)
	assert.Equal(t, StatusNotStarted, retried.Status)
	assert.Equal(t, "inbox", retried.ContainerName)
	assert.Equal(t, "scan.pdf", retried.BlobName)
	assert.Equal(t, "invoice_number", retried.IdentifierField)
	assert.Equal(t, "/api/operations/"+retried.ID, retried.PollingURL)
	assert.Zero(t, retried.ProcessedCount)
	assert.Empty(t, retried.Error)

	assert.Equal(t, 1, q.Depth())
}

func TestServiceRetryNonTerminal(t *testing.T) {
	ctx := context.Background()
	svc, q := newTestService(t)

	for _, status := range []Status{StatusNotStarted, StatusRunning} {
		op, err := svc.Create(ctx, "inbox", "scan.pdf", "")
		require.NoError(t, err)
		op.Status = status
		require.NoError(t, svc.Update(ctx, op))

		_, err = svc.Retry(ctx, op.ID)
		require.ErrorIs(t, err, ErrInvalidState)

		var stateErr *InvalidStateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, "retry", stateErr.Action)
	}

	assert.Zero(t, q.Depth())
}

func TestServiceRetryUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Retry(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

func TestServiceList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first, err := svc.Create(ctx, "inbox", "a.pdf", "")
	require.NoError(t, err)
	second, err := svc.Create(ctx, "inbox", "b.pdf", "")
	require.NoError(t, err)

	// Force distinct creation times so ordering is deterministic.
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	second.Status = StatusRunning
	require.NoError(t, svc.Update(ctx, second))

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	running, err := svc.List(ctx, Filter{Status: StatusRunning})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, second.ID, running[0].ID)
}
