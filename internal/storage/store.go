// Package storage persists expenses. Every read and write that targets a
// single expense takes the owner as part of its lookup predicate, so a
// record owned by someone else is indistinguishable from a missing one.
package storage

import (
	"context"

	"expenses/internal/core"
)

// Store is the expense record store port.
type Store interface {
	// ListByOwner returns the owner's expenses, most recent date first.
	ListByOwner(ctx context.Context, owner core.OwnerID) ([]core.Expense, error)
	// GetByOwner returns core.ErrNotFound when no expense matches (id, owner).
	GetByOwner(ctx context.Context, owner core.OwnerID, id string) (core.Expense, error)
	// Insert persists a new expense and returns it with store-maintained timestamps.
	Insert(ctx context.Context, e core.Expense) (core.Expense, error)
	// Update overwrites the mutable fields of the expense matching (e.ID, e.Owner).
	Update(ctx context.Context, e core.Expense) (core.Expense, error)
	// DeleteByOwner returns core.ErrNotFound when nothing was removed.
	DeleteByOwner(ctx context.Context, owner core.OwnerID, id string) error

	Ping(ctx context.Context) error
	Close() error
}
