package memory

import (
	"context"
	"testing"
	"time"

	"expenses/internal/core"
)

func TestMirror(t *testing.T) {
	ctx := context.Background()
	m := New()
	e := core.Expense{
		ID:       "e1",
		Owner:    "alice",
		Title:    "Book",
		Category: "Education",
		Amount:   core.Money{Cents: 1500},
		Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := m.Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	e.Amount = core.Money{Cents: 900}
	if err := m.Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if got, ok := m.Get("e1"); !ok || got.Amount.Cents != 900 {
		t.Errorf("Get(e1) = %+v, %v", got, ok)
	}

	if err := m.Upsert(ctx, core.Expense{ID: "bad"}); err == nil {
		t.Error("Upsert() should reject an invalid expense")
	}

	if err := m.Remove(ctx, "e1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := m.Remove(ctx, "e1"); err != nil {
		t.Errorf("second Remove() error = %v, want nil", err)
	}
	if ids := m.IDs(); len(ids) != 0 {
		t.Errorf("IDs() = %v, want empty", ids)
	}
}
