// Package worker applies expense events consumed from the broker to the
// spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"expenses/internal/events"
	"expenses/internal/log"
	"expenses/internal/sheets"
)

// SyncWorker keeps the mirror in step with the expense store.
type SyncWorker struct {
	mirror sheets.ExpenseMirror

	processed atomic.Int64
	failed    atomic.Int64
}

func NewSyncWorker(mirror sheets.ExpenseMirror) *SyncWorker {
	return &SyncWorker{mirror: mirror}
}

// HandleEvent is an events.Handler. A returned error causes redelivery.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev events.ExpenseEvent) error {
	var err error
	switch ev.Type {
	case events.ExpenseCreated, events.ExpenseUpdated:
		err = w.handleUpsert(ctx, ev)
	case events.ExpenseDeleted:
		err = w.handleDelete(ctx, ev)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}

	if err != nil {
		w.failed.Add(1)
		slog.ErrorContext(ctx, "Failed to sync expense event",
			log.FieldComponent, log.ComponentWorker,
			log.FieldEventType, ev.Type,
			log.FieldExpenseID, ev.ExpenseID,
			log.FieldError, err)
		return fmt.Errorf("sync %s %s: %w", ev.Type, ev.ExpenseID, err)
	}

	w.processed.Add(1)
	return nil
}

func (w *SyncWorker) handleUpsert(ctx context.Context, ev events.ExpenseEvent) error {
	e, ok := ev.ToExpense()
	if !ok {
		return errors.New("event has no expense payload")
	}
	if err := w.mirror.Upsert(ctx, e); err != nil {
		return fmt.Errorf("upsert mirror row: %w", err)
	}

	slog.InfoContext(ctx, "Synced expense to mirror",
		log.FieldComponent, log.ComponentWorker,
		log.FieldEventType, ev.Type,
		log.FieldExpenseID, e.ID,
		log.FieldAmountCents, e.Amount.Cents)
	return nil
}

func (w *SyncWorker) handleDelete(ctx context.Context, ev events.ExpenseEvent) error {
	if err := w.mirror.Remove(ctx, ev.ExpenseID); err != nil {
		return fmt.Errorf("remove mirror row: %w", err)
	}

	slog.InfoContext(ctx, "Removed expense from mirror",
		log.FieldComponent, log.ComponentWorker,
		log.FieldExpenseID, ev.ExpenseID)
	return nil
}

// Stats returns the number of events applied and failed since start.
func (w *SyncWorker) Stats() (processed, failed int64) {
	return w.processed.Load(), w.failed.Load()
}
