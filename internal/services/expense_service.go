package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"expenses/internal/core"
	"expenses/internal/events"
	"expenses/internal/storage"
)

// CreateInput is a create request as decoded from the client. Nil fields
// were absent from the request. Amount holds the raw decoded JSON value.
type CreateInput struct {
	Title    *string
	Amount   any
	Category *string
	Date     *string
}

// UpdateInput is a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Title    *string
	Amount   any
	Category *string
	Date     *string
}

// ExpenseService implements the expense operations on top of a Store. It
// keeps no per-request state and is safe for concurrent use.
type ExpenseService struct {
	store     storage.Store
	publisher events.Publisher
	now       func() time.Time
	newID     func() string
}

type Option func(*ExpenseService)

func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *ExpenseService) { s.newID = newID }
}

func NewExpenseService(store storage.Store, publisher events.Publisher, opts ...Option) *ExpenseService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	s := &ExpenseService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ExpenseService) ListExpenses(ctx context.Context, owner core.OwnerID) (core.Listing, error) {
	items, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return core.Listing{}, fmt.Errorf("list expenses: %w", err)
	}
	return core.NewListing(items), nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, owner core.OwnerID, id string) (core.Expense, error) {
	e, err := s.store.GetByOwner(ctx, owner, id)
	if err != nil {
		return core.Expense{}, wrapStoreErr("get expense", err)
	}
	return e, nil
}

// CreateExpense validates in and stores a new expense owned by owner.
// Nothing is written when validation fails.
func (s *ExpenseService) CreateExpense(ctx context.Context, owner core.OwnerID, in CreateInput) (core.Expense, error) {
	if owner == "" {
		return core.Expense{}, core.ErrMissingOwner
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return core.Expense{}, core.ErrEmptyTitle
	}
	if in.Category == nil || strings.TrimSpace(*in.Category) == "" {
		return core.Expense{}, core.ErrEmptyCategory
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Expense{}, err
	}

	now := s.now().UTC()
	date := now
	if in.Date != nil && strings.TrimSpace(*in.Date) != "" {
		if date, err = core.ParseDate(*in.Date); err != nil {
			return core.Expense{}, err
		}
	}

	e := core.Expense{
		ID:        s.newID(),
		Title:     *in.Title,
		Amount:    amount,
		Category:  *in.Category,
		Date:      date,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}.Normalize()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.store.Insert(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, events.ExpenseCreated, saved)
	return saved, nil
}

// UpdateExpense applies the fields present in in to the owner's expense.
// Empty title, category and date values are treated as absent; an amount
// of zero is applied.
func (s *ExpenseService) UpdateExpense(ctx context.Context, owner core.OwnerID, id string, in UpdateInput) (core.Expense, error) {
	e, err := s.store.GetByOwner(ctx, owner, id)
	if err != nil {
		return core.Expense{}, wrapStoreErr("get expense", err)
	}

	if in.Title != nil && *in.Title != "" {
		e.Title = *in.Title
	}
	if in.Category != nil && *in.Category != "" {
		e.Category = *in.Category
	}
	if in.Amount != nil {
		if e.Amount, err = core.ParseAmount(in.Amount); err != nil {
			return core.Expense{}, err
		}
	}
	if in.Date != nil && strings.TrimSpace(*in.Date) != "" {
		if e.Date, err = core.ParseDate(*in.Date); err != nil {
			return core.Expense{}, err
		}
	}

	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.UpdatedAt = s.now().UTC()

	saved, err := s.store.Update(ctx, e)
	if err != nil {
		return core.Expense{}, wrapStoreErr("update expense", err)
	}

	s.publish(ctx, events.ExpenseUpdated, saved)
	return saved, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, owner core.OwnerID, id string) error {
	if err := s.store.DeleteByOwner(ctx, owner, id); err != nil {
		return wrapStoreErr("delete expense", err)
	}

	s.publish(ctx, events.ExpenseDeleted, core.Expense{ID: id, Owner: owner})
	return nil
}

func (s *ExpenseService) GetSummary(ctx context.Context, owner core.OwnerID) (core.Summary, error) {
	items, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize expenses: %w", err)
	}
	return core.NewSummary(items), nil
}

// Ping reports whether the backing store is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish emits the event after a successful write. The store is the
// source of truth, so failures are logged and never returned.
func (s *ExpenseService) publish(ctx context.Context, t events.Type, e core.Expense) {
	ev := events.NewExpenseEvent(t, e, s.now())
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", t,
			"expense_id", e.ID,
			"error", err)
	}
}

func wrapStoreErr(op string, err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return core.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Close closes the store and the event publisher.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}
	return nil
}
