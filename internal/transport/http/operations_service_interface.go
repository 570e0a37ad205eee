package http

import (
	"context"

	"docsplit/internal/operations"
)

// OperationService defines the operations the HTTP layer needs from the
// operations service. Narrowed to an interface so handler tests can run
// against the real service wired to in-memory stores or a stub.
type OperationService interface {
	Create(ctx context.Context, container, blob, identifierField string) (*operations.Operation, error)
	Get(ctx context.Context, id string) (*operations.Operation, error)
	Update(ctx context.Context, op *operations.Operation) error
	List(ctx context.Context, filter operations.Filter) ([]*operations.Operation, error)
	RequestCancel(ctx context.Context, id string) (*operations.Operation, error)
	Retry(ctx context.Context, id string) (*operations.Operation, error)
}
