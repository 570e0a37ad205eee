package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"docsplit/internal/queue"
)

// Service enforces the operation state machine on top of a Store. Status
// transitions are monotone into the terminal set; nothing leaves a terminal
// status.
type Service struct {
	store  Store
	queue  queue.Queue
	logger *slog.Logger
}

// NewService creates an operation service.
func NewService(store Store, q queue.Queue, logger *slog.Logger) *Service {
	if store == nil {
		panic("store cannot be nil")
	}
	if q == nil {
		panic("queue cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:  store,
		queue:  q,
		logger: logger.With(slog.String("component", "operations")),
	}
}

// Create persists a new NotStarted operation for the given source blob.
// An empty identifierField falls back to DefaultIdentifierField.
func (s *Service) Create(ctx context.Context, container, blob, identifierField string) (*Operation, error) {
	if identifierField == "" {
		identifierField = DefaultIdentifierField
	}

	op := &Operation{
		ID:              uuid.New().String(),
		Status:          StatusNotStarted,
		ContainerName:   container,
		BlobName:        blob,
		IdentifierField: identifierField,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.store.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("create operation: %w", err)
	}

	s.logger.InfoContext(ctx, "operation created",
		slog.String("operation_id", op.ID),
		slog.String("container", container),
		slog.String("blob", blob))

	return op, nil
}

// Get returns the operation or ErrOperationNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Operation, error) {
	return s.store.Get(ctx, id)
}

// Update replaces the stored record wholesale (last writer wins).
func (s *Service) Update(ctx context.Context, op *Operation) error {
	return s.store.Update(ctx, op)
}

// List returns operations newest-created-first.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Operation, error) {
	return s.store.List(ctx, filter)
}

// RequestCancel marks the operation for cooperative cancellation. A
// NotStarted operation is cancelled immediately since no worker is running
// to observe the flag; a Running one keeps its status until the worker hits
// its next checkpoint. Terminal operations cannot be cancelled.
func (s *Service) RequestCancel(ctx context.Context, id string) (*Operation, error) {
	op, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if op.Status.Terminal() {
		return nil, &InvalidStateError{Action: "cancel", ID: id, Status: op.Status}
	}

	op.CancelRequested = true
	if op.Status == StatusNotStarted {
		now := time.Now().UTC()
		op.Status = StatusCancelled
		op.CompletedAt = &now
	}

	if err := s.store.Update(ctx, op); err != nil {
		return nil, fmt.Errorf("persist cancel request: %w", err)
	}

	s.logger.InfoContext(ctx, "cancel requested",
		slog.String("operation_id", id),
		slog.String("status", string(op.Status)))

	return op, nil
}

// Retry resubmits a terminal operation as a brand new one with the same
// source reference and identifier field. It never resumes partial progress
// on the old record.
func (s *Service) Retry(ctx context.Context, id string) (*Operation, error) {
	src, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !src.Status.Terminal() {
		return nil, &InvalidStateError{Action: "retry", ID: id, Status: src.Status}
	}

	op, err := s.Create(ctx, src.ContainerName, src.BlobName, src.IdentifierField)
	if err != nil {
		return nil, err
	}

	// Persist the polling URL before the job is visible to workers so a
	// later write cannot clobber their status updates.
	op.PollingURL = "/api/operations/" + op.ID
	if err := s.store.Update(ctx, op); err != nil {
		return nil, fmt.Errorf("persist polling url: %w", err)
	}

	env := queue.Envelope{
		OperationID: op.ID,
		Message: queue.JobMessage{
			ContainerName:   op.ContainerName,
			BlobName:        op.BlobName,
			IdentifierField: op.IdentifierField,
		},
	}
	if err := s.queue.Enqueue(ctx, env); err != nil {
		return nil, fmt.Errorf("enqueue retried operation: %w", err)
	}

	s.logger.InfoContext(ctx, "operation retried",
		slog.String("source_operation_id", id),
		slog.String("operation_id", op.ID))

	return op, nil
}
