package memory

import (
	"context"
	"sync"

	"voicebook/internal/core"
	"voicebook/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.Record
}

func New() *Store {
	return &Store{nextID: 1, items: map[int64]core.Record{}}
}

// Insert stores the record under a fresh auto-increment ID.
func (s *Store) Insert(_ context.Context, r core.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID
	s.nextID++
	s.items[r.ID] = r
	return r.ID, nil
}

func (s *Store) Update(_ context.Context, r core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[r.ID]; !ok {
		return core.ErrRecordNotFound
	}
	s.items[r.ID] = r
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// ScanAll returns a copy of every record in ID order.
func (s *Store) ScanAll(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Record, 0, len(s.items))
	for id := int64(1); id < s.nextID; id++ {
		if r, ok := s.items[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Clear drops every record. IDs keep counting up, as an auto-increment
// key would.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = map[int64]core.Record{}
	return nil
}

func (s *Store) Close() error { return nil }
