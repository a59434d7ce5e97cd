package store

import (
	"context"
	"sync"
)

// MemoryStore is a development-only in-memory implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]ContentRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]ContentRecord)}
}

func (s *MemoryStore) Load(_ context.Context) (map[string]ContentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.data), nil
}

func (s *MemoryStore) Save(_ context.Context, data map[string]ContentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = cloneAll(data)
	return nil
}

func (s *MemoryStore) WithContent(_ context.Context, id string, mutate Mutator) (ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[id]
	if !ok {
		rec = NewContentRecord()
	}
	rec = mutate(rec.Clone())
	if rec.Users == nil {
		rec.Users = make(map[string]UserProgress)
	}
	s.data[id] = rec
	return rec.Clone(), nil
}

func (s *MemoryStore) Content(_ context.Context, id string) (ContentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.data[id]
	if !ok {
		return ContentRecord{}, false, nil
	}
	return rec.Clone(), true, nil
}

func cloneAll(data map[string]ContentRecord) map[string]ContentRecord {
	out := make(map[string]ContentRecord, len(data))
	for id, rec := range data {
		out[id] = rec.Clone()
	}
	return out
}
