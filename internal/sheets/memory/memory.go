// Package memory is an in-process ExpenseMirror used when no spreadsheet
// is configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"expenses/internal/core"
	ports "expenses/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows map[string]core.Expense
}

var _ ports.ExpenseMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[string]core.Expense)}
}

func (m *Mirror) Upsert(_ context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[e.ID] = e
	return nil
}

func (m *Mirror) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// Get returns the mirrored copy of id.
func (m *Mirror) Get(id string) (core.Expense, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	return e, ok
}

// IDs returns the mirrored ids in sorted order.
func (m *Mirror) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
