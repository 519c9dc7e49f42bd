// Package memory is an in-process expense store used for local
// development and tests. Data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"expenses/internal/core"
	"expenses/internal/storage"
)

type Store struct {
	mu    sync.RWMutex
	items map[string]core.Expense
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[string]core.Expense)}
}

// NewWithExpenses returns a store pre-populated with the given expenses.
func NewWithExpenses(seed ...core.Expense) *Store {
	s := New()
	for _, e := range seed {
		s.items[e.ID] = e
	}
	return s
}

func (s *Store) ListByOwner(_ context.Context, owner core.OwnerID) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for _, e := range s.items {
		if e.Owner == owner {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetByOwner(_ context.Context, owner core.OwnerID, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok || e.Owner != owner {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (s *Store) Insert(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.UpdatedAt = e.CreatedAt
	s.items[e.ID] = e
	return e, nil
}

func (s *Store) Update(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[e.ID]
	if !ok || cur.Owner != e.Owner {
		return core.Expense{}, core.ErrNotFound
	}
	e.CreatedAt = cur.CreatedAt
	s.items[e.ID] = e
	return e, nil
}

func (s *Store) DeleteByOwner(_ context.Context, owner core.OwnerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok || e.Owner != owner {
		return core.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// Len reports the number of stored expenses across all owners.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
