package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvelope(id string) Envelope {
	return Envelope{
		OperationID: id,
		Message: JobMessage{
			ContainerName:   "inbox",
			BlobName:        id + ".pdf",
			IdentifierField: "identifier",
		},
	}
}

func TestMemoryQueueDeliversToHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryQueue(2, 8, 3, nil)

	delivered := make(chan Envelope, 1)
	q.Start(ctx, func(_ context.Context, env Envelope) error {
		delivered <- env
		return nil
	})
	defer q.Stop(time.Second)

	require.NoError(t, q.Enqueue(ctx, testEnvelope("op-1")))

	select {
	case env := <-delivered:
		assert.Equal(t, "op-1", env.OperationID)
		assert.Equal(t, "op-1.pdf", env.Message.BlobName)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}
}

func TestMemoryQueueRedeliversUntilMaxDeliveries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryQueue(1, 8, 3, nil)

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	q.Start(ctx, func(context.Context, Envelope) error {
		mu.Lock()
		attempts++
		if attempts == 3 {
			close(done)
		}
		mu.Unlock()
		return assert.AnError
	})
	defer q.Stop(time.Second)

	require.NoError(t, q.Enqueue(ctx, testEnvelope("op-1")))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not redelivered to the cap")
	}

	// Give the queue a moment to prove the poison message is not delivered
	// a fourth time.
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 3, attempts)
	mu.Unlock()
}

func TestMemoryQueueHandlerPanicIsRedelivered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryQueue(1, 8, 2, nil)

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	q.Start(ctx, func(context.Context, Envelope) error {
		mu.Lock()
		attempts++
		if attempts == 2 {
			close(done)
		}
		mu.Unlock()
		panic("bad job")
	})
	defer q.Stop(time.Second)

	require.NoError(t, q.Enqueue(ctx, testEnvelope("op-1")))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("panicking handler did not trigger redelivery")
	}
}

func TestMemoryQueueEnqueueFull(t *testing.T) {
	ctx := context.Background()

	// No consumers started, capacity 1.
	q := NewMemoryQueue(1, 1, 3, nil)

	require.NoError(t, q.Enqueue(ctx, testEnvelope("op-1")))
	assert.ErrorIs(t, q.Enqueue(ctx, testEnvelope("op-2")), ErrQueueFull)
	assert.Equal(t, 1, q.Depth())
}

func TestMemoryQueueStopWaitsForInflight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryQueue(1, 8, 3, nil)

	started := make(chan struct{})
	finished := make(chan struct{})

	q.Start(ctx, func(context.Context, Envelope) error {
		close(started)
		time.Sleep(200 * time.Millisecond)
		close(finished)
		return nil
	})

	require.NoError(t, q.Enqueue(ctx, testEnvelope("op-1")))
	<-started

	require.NoError(t, q.Stop(2*time.Second))

	select {
	case <-finished:
	default:
		t.Fatal("Stop returned before the in-flight job finished")
	}
}

func TestMemoryQueueStopTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryQueue(1, 8, 3, nil)

	started := make(chan struct{})
	release := make(chan struct{})

	q.Start(ctx, func(context.Context, Envelope) error {
		close(started)
		<-release
		return nil
	})

	require.NoError(t, q.Enqueue(ctx, testEnvelope("op-1")))
	<-started

	assert.Error(t, q.Stop(50*time.Millisecond))
	close(release)
}
