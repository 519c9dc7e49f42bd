package sheets

import (
	"context"

	"expenses/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseMirror keeps a spreadsheet copy of stored expenses. Both
	// operations are idempotent so redelivered events are harmless.
	ExpenseMirror interface {
		// Upsert writes e to the row keyed by its id, appending one if needed.
		Upsert(ctx context.Context, e core.Expense) error
		// Remove clears the row keyed by id. A missing row is not an error.
		Remove(ctx context.Context, id string) error
	}
)
