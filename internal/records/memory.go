package records

import (
	"context"
	"sort"
	"sync"

	"docsplit/pkg/contracts/domain"
)

// MemoryStore is an in-memory Store used in tests and when no Firestore
// project is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*domain.DocumentRecord
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*domain.DocumentRecord),
	}
}

func (s *MemoryStore) Upsert(_ context.Context, record *domain.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	s.records[record.ID] = &stored
	return nil
}

func (s *MemoryStore) ListByOperation(_ context.Context, operationID string) ([]*domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DocumentRecord
	for _, record := range s.records {
		if record.OperationID != operationID {
			continue
		}
		copied := *record
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DocumentNumber < result[j].DocumentNumber
	})

	return result, nil
}
