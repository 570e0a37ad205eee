package blob

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and local development.
type MemoryStore struct {
	mu         sync.RWMutex
	containers map[string]map[string][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		containers: make(map[string]map[string][]byte),
	}
}

func (s *MemoryStore) Download(_ context.Context, container, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, ok := s.containers[container]
	if !ok {
		return nil, ErrBlobNotFound
	}
	data, ok := objects[name]
	if !ok {
		return nil, ErrBlobNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Upload(_ context.Context, container, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.containers[container]
	if !ok {
		objects = make(map[string][]byte)
		s.containers[container] = objects
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	objects[name] = stored

	return fmt.Sprintf("mem://%s/%s", container, name), nil
}
