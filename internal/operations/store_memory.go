package operations

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and when no Firestore
// project is configured.
type MemoryStore struct {
	mu         sync.RWMutex
	operations map[string]*Operation
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		operations: make(map[string]*Operation),
	}
}

// Create persists a new operation.
func (s *MemoryStore) Create(_ context.Context, op *Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.operations[op.ID]; exists {
		return ErrOperationExists
	}

	s.operations[op.ID] = op.Clone()
	return nil
}

// Get retrieves an operation by id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, exists := s.operations[id]
	if !exists {
		return nil, ErrOperationNotFound
	}

	// Return a copy to prevent external modification.
	return op.Clone(), nil
}

// Update replaces the stored record wholesale.
func (s *MemoryStore) Update(_ context.Context, op *Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.operations[op.ID]; !exists {
		return ErrOperationNotFound
	}

	s.operations[op.ID] = op.Clone()
	return nil
}

// List returns operations newest-created-first, optionally filtered by
// status and capped at filter.Limit.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]*Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Operation, 0, len(s.operations))
	for _, op := range s.operations {
		if filter.Status != "" && op.Status != filter.Status {
			continue
		}
		result = append(result, op.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}

	return result, nil
}
