package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"expenses/internal/core"
	"expenses/internal/events"
	"expenses/internal/sheets"
	"expenses/internal/sheets/memory"
)

type brokenMirror struct{}

func (brokenMirror) Upsert(context.Context, core.Expense) error { return errors.New("quota exceeded") }
func (brokenMirror) Remove(context.Context, string) error       { return errors.New("quota exceeded") }

func TestSyncWorker_HandleEvent(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	w := NewSyncWorker(mirror)
	e := core.Expense{
		ID:       "e1",
		Owner:    "alice",
		Title:    "Cinema",
		Category: "Leisure",
		Amount:   core.Money{Cents: 1100},
		Date:     time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
	}

	if err := w.HandleEvent(ctx, events.NewExpenseEvent(events.ExpenseCreated, e, time.Now())); err != nil {
		t.Fatalf("HandleEvent(created) error = %v", err)
	}
	e.Amount = core.Money{Cents: 0}
	if err := w.HandleEvent(ctx, events.NewExpenseEvent(events.ExpenseUpdated, e, time.Now())); err != nil {
		t.Fatalf("HandleEvent(updated) error = %v", err)
	}
	if got, ok := mirror.Get("e1"); !ok || got.Amount.Cents != 0 {
		t.Errorf("mirror copy = %+v, %v", got, ok)
	}
	if err := w.HandleEvent(ctx, events.NewExpenseEvent(events.ExpenseDeleted, e, time.Now())); err != nil {
		t.Fatalf("HandleEvent(deleted) error = %v", err)
	}
	if _, ok := mirror.Get("e1"); ok {
		t.Error("expense should be removed from the mirror")
	}

	if processed, failed := w.Stats(); processed != 3 || failed != 0 {
		t.Errorf("Stats() = %d, %d; want 3, 0", processed, failed)
	}
}

func TestSyncWorker_HandleEventErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mirror sheets.ExpenseMirror
		ev events.ExpenseEvent
	}{
		{"mirror failure", brokenMirror{}, events.ExpenseEvent{Type: events.ExpenseDeleted, ExpenseID: "e1", Owner: "alice"}},
		{"created without payload", memory.New(), events.ExpenseEvent{Type: events.ExpenseCreated, ExpenseID: "e2", Owner: "alice"}},
		{"unknown type", memory.New(), events.ExpenseEvent{Type: "expense.archived", ExpenseID: "e3", Owner: "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewSyncWorker(tt.mirror).HandleEvent(ctx, tt.ev); err == nil {
				t.Error("HandleEvent() expected error so the event is redelivered")
			}
		})
	}

	w := NewSyncWorker(brokenMirror{})
	_ = w.HandleEvent(ctx, events.ExpenseEvent{Type: events.ExpenseDeleted, ExpenseID: "e1", Owner: "alice"})
	if _, failed := w.Stats(); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}
