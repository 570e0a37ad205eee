package operations

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the store and service. Callers match them with
// errors.Is.
var (
	ErrOperationNotFound = errors.New("operation not found")
	ErrOperationExists   = errors.New("operation already exists")
	ErrInvalidState      = errors.New("operation in invalid state")
)

// InvalidStateError reports a cancel or retry issued against an operation
// whose current status does not allow it. It matches ErrInvalidState under
// errors.Is so handlers can branch without losing the status detail.
type InvalidStateError struct {
	Action string
	ID     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s operation in %s status", e.Action, e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}
