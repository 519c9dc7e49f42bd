// Package events describes the messages emitted after an expense is
// written and the publisher port the service depends on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"expenses/internal/core"
)

type Type string

const (
	ExpenseCreated Type = "expense.created"
	ExpenseUpdated Type = "expense.updated"
	ExpenseDeleted Type = "expense.deleted"
)

func (t Type) Valid() bool {
	switch t {
	case ExpenseCreated, ExpenseUpdated, ExpenseDeleted:
		return true
	}
	return false
}

// Record is the wire form of an expense carried inside an event.
type Record struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Amount    core.Money `json:"amount"`
	Category  string     `json:"category"`
	Date      time.Time  `json:"date"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ExpenseEvent is published after every successful write. Expense is nil
// for deletions.
type ExpenseEvent struct {
	Type      Type         `json:"type"`
	ExpenseID string       `json:"expenseId"`
	Owner     core.OwnerID `json:"owner"`
	Expense   *Record      `json:"expense,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

func NewExpenseEvent(t Type, e core.Expense, at time.Time) ExpenseEvent {
	ev := ExpenseEvent{
		Type:      t,
		ExpenseID: e.ID,
		Owner:     e.Owner,
		Timestamp: at.UTC(),
	}
	if t != ExpenseDeleted {
		ev.Expense = &Record{
			ID:        e.ID,
			Title:     e.Title,
			Amount:    e.Amount,
			Category:  e.Category,
			Date:      e.Date,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		}
	}
	return ev
}

// ToExpense rebuilds the domain expense carried by the event.
func (ev ExpenseEvent) ToExpense() (core.Expense, bool) {
	if ev.Expense == nil {
		return core.Expense{}, false
	}
	r := ev.Expense
	return core.Expense{
		ID:        r.ID,
		Title:     r.Title,
		Amount:    r.Amount,
		Category:  r.Category,
		Date:      r.Date,
		Owner:     ev.Owner,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, true
}

func (ev ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(ev)
}

// FromJSON decodes and checks an event body. Bodies that fail here are
// poison messages and should not be redelivered.
func FromJSON(data []byte) (ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ExpenseEvent{}, err
	}
	if !ev.Type.Valid() {
		return ExpenseEvent{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.ExpenseID == "" || ev.Owner == "" {
		return ExpenseEvent{}, fmt.Errorf("event missing expense id or owner")
	}
	if ev.Type != ExpenseDeleted && ev.Expense == nil {
		return ExpenseEvent{}, fmt.Errorf("%s event without expense payload", ev.Type)
	}
	return ev, nil
}

type Publisher interface {
	Publish(ctx context.Context, ev ExpenseEvent) error
	Close() error
}

// Handler processes one consumed event. Returning an error asks the
// broker to redeliver it.
type Handler func(ctx context.Context, ev ExpenseEvent) error

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, ExpenseEvent) error { return nil }
func (Nop) Close() error                               { return nil }

// Consumer delivers events to a Handler until its context is cancelled.
type Consumer interface {
	Consume(ctx context.Context, handler Handler) error
	Close() error
}
