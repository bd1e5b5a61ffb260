package index

import (
	"context"
	"sync"
)

// Store persists records. Put assigns Record.Seq in insertion order.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Has(ctx context.Context, id string) (bool, error)
	Scan(ctx context.Context, fn func(Record) error) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	byID    map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[rec.ID]; ok {
		return ErrDuplicateID
	}
	rec.Seq = uint64(len(s.records))
	s.byID[rec.ID] = len(s.records)
	s.records = append(s.records, rec)
	return nil
}

func (s *MemoryStore) Has(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[id]
	return ok, nil
}

func (s *MemoryStore) Scan(ctx context.Context, fn func(Record) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryStore) Close() error { return nil }
