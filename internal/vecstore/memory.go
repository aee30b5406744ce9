package vecstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and zero-setup development.
// Records are returned in insertion order, which keeps search tie-breaking
// deterministic for a fixed input set.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[string]Record
	order     []string // Insertion order of ids
	dimension int
}

// NewMemoryStore creates an in-memory store enforcing the given dimension
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		records:   make(map[string]Record),
		dimension: dimension,
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, record Record) error {
	if err := record.Validate(s.dimension); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; !exists {
		s.order = append(s.order, record.ID)
	}
	s.records[record.ID] = record.Clone()
	return nil
}

func (s *MemoryStore) GetAll(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, id := range s.order {
		if rec, ok := s.records[id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteByChangelogID(ctx context.Context, changelogID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.records {
		if rec.Meta.ChangelogID == changelogID {
			s.deleteLocked(id)
		}
	}
	return nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(id)
	return nil
}

// deleteLocked removes a record and its order entry; caller holds the lock
func (s *MemoryStore) deleteLocked(id string) {
	if _, ok := s.records[id]; !ok {
		return
	}
	delete(s.records, id)
	for n, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:n], s.order[n+1:]...)
			break
		}
	}
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]Record)
	s.order = nil
	return nil
}

func (s *MemoryStore) Dimension() int {
	return s.dimension
}

func (s *MemoryStore) Close() error {
	return nil
}
