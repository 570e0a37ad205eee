package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultWorkers       = 4
	defaultMaxDeliveries = 3
)

// delivery is one attempt-counted message on the queue.
type delivery struct {
	env     Envelope
	attempt int
}

// MemoryQueue is a channel-backed Queue with a pool of consumer workers.
// A handler error requeues the envelope until MaxDeliveries is reached,
// after which the message is dropped as poison; the worker pipeline has
// already marked the operation Failed by then.
type MemoryQueue struct {
	messages      chan delivery
	workers       int
	maxDeliveries int
	logger        *slog.Logger
	wg            sync.WaitGroup
	shutdown      chan struct{}
	startOnce     sync.Once
}

// NewMemoryQueue creates a queue with the given worker pool size, channel
// capacity and delivery cap. Zero values fall back to defaults.
func NewMemoryQueue(workers, capacity, maxDeliveries int, logger *slog.Logger) *MemoryQueue {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if capacity <= 0 {
		capacity = workers * 2
	}
	if maxDeliveries <= 0 {
		maxDeliveries = defaultMaxDeliveries
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &MemoryQueue{
		messages:      make(chan delivery, capacity),
		workers:       workers,
		maxDeliveries: maxDeliveries,
		logger:        logger.With(slog.String("component", "queue")),
		shutdown:      make(chan struct{}),
	}
}

// Enqueue adds an envelope to the queue without blocking.
func (q *MemoryQueue) Enqueue(_ context.Context, env Envelope) error {
	select {
	case q.messages <- delivery{env: env, attempt: 1}:
		q.logger.Info("job enqueued",
			slog.String("operation_id", env.OperationID),
			slog.String("blob_name", env.Message.BlobName))
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the consumer workers. Each worker handles one envelope to
// completion per invocation of handler.
func (q *MemoryQueue) Start(ctx context.Context, handler Handler) {
	q.startOnce.Do(func() {
		q.logger.Info("starting queue consumers", slog.Int("workers", q.workers))
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.worker(ctx, i, handler)
		}
	})
}

// Stop waits for in-flight deliveries to finish, up to timeout.
func (q *MemoryQueue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping queue")
	close(q.shutdown)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("queue stopped gracefully")
		return nil
	case <-time.After(timeout):
		q.logger.Warn("queue stop timeout exceeded")
		return fmt.Errorf("timeout waiting for queue workers to finish")
	}
}

func (q *MemoryQueue) worker(ctx context.Context, workerID int, handler Handler) {
	defer q.wg.Done()

	logger := q.logger.With(slog.Int("worker_id", workerID))
	logger.Debug("queue worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("queue worker stopped by context")
			return
		case <-q.shutdown:
			logger.Debug("queue worker stopped by shutdown")
			return
		case d := <-q.messages:
			q.deliver(ctx, d, handler, logger)
		}
	}
}

// deliver runs the handler for one message and applies the redelivery
// policy on failure.
func (q *MemoryQueue) deliver(ctx context.Context, d delivery, handler Handler, logger *slog.Logger) {
	logger = logger.With(
		slog.String("operation_id", d.env.OperationID),
		slog.Int("attempt", d.attempt))

	err := q.invoke(ctx, d.env, handler, logger)
	if err == nil {
		return
	}

	logger.Error("job delivery failed", slog.String("error", err.Error()))

	if d.attempt >= q.maxDeliveries {
		logger.Error("dropping job after max deliveries",
			slog.Int("max_deliveries", q.maxDeliveries))
		return
	}

	d.attempt++
	select {
	case q.messages <- d:
		logger.Info("job requeued for redelivery")
	default:
		logger.Error("could not requeue job - queue full")
	}
}

// invoke shields the worker from handler panics so a single bad job cannot
// take down the consumer pool.
func (q *MemoryQueue) invoke(ctx context.Context, env Envelope, handler Handler, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job handler panicked", slog.Any("panic", r))
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()

	return handler(ctx, env)
}

// Depth returns the number of messages waiting on the queue.
func (q *MemoryQueue) Depth() int {
	return len(q.messages)
}
