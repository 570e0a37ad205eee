// Package queue carries job messages from the submission API to the worker
// pipeline. Delivery is at-least-once with no ordering guarantee across
// jobs; consumers must tolerate redelivery.
package queue

import (
	"context"
	"errors"
)

// ErrQueueFull is returned by Enqueue when the transport cannot accept more
// messages.
var ErrQueueFull = errors.New("job queue is full")

// JobMessage is the payload describing one processing job.
type JobMessage struct {
	ContainerName   string `json:"container_name"`
	BlobName        string `json:"blob_name"`
	IdentifierField string `json:"identifier_field"`
}

// Envelope wraps a JobMessage with the id of the operation it belongs to so
// the consumer can resolve the Operation record before interpreting the
// payload.
type Envelope struct {
	OperationID string     `json:"operation_id"`
	Message     JobMessage `json:"message"`
}

// Queue is the producer side of the job transport.
type Queue interface {
	Enqueue(ctx context.Context, env Envelope) error
}

// Handler processes one delivered envelope. A non-nil error triggers
// redelivery under the transport's at-least-once policy; returning nil
// acknowledges the message.
type Handler func(ctx context.Context, env Envelope) error
