// Package records persists the DocumentRecord output of the worker
// pipeline. Upsert is keyed by (operation id, document number) so a
// redelivered job overwrites its own records instead of duplicating them.
package records

import (
	"context"

	"docsplit/pkg/contracts/domain"
)

// Store is the durable persistence contract for document records.
type Store interface {
	Upsert(ctx context.Context, record *domain.DocumentRecord) error
	ListByOperation(ctx context.Context, operationID string) ([]*domain.DocumentRecord, error)
}
