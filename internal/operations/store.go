package operations

import "context"

// Filter narrows the results of a Store List call.
type Filter struct {
	Status Status
	Limit  int
}

// Store is the durable persistence contract for Operation records. Update is
// a full-record replace with last-writer-wins semantics; the narrow race
// between a worker's progress write and a concurrent cancel flag write is
// accepted in this design.
type Store interface {
	Create(ctx context.Context, op *Operation) error
	Get(ctx context.Context, id string) (*Operation, error)
	Update(ctx context.Context, op *Operation) error
	List(ctx context.Context, filter Filter) ([]*Operation, error)
}
