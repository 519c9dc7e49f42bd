package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// OwnerID identifies the authenticated user that owns an expense.
	OwnerID string

	Expense struct {
		ID        string
		Title     string
		Amount    Money
		Category  string
		Date      time.Time
		Owner     OwnerID
		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

var (
	// ErrValidation is wrapped by every input validation failure.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when no expense matches (id, owner).
	ErrNotFound = errors.New("expense not found")

	ErrEmptyTitle     = fmt.Errorf("%w: title is required", ErrValidation)
	ErrEmptyCategory  = fmt.Errorf("%w: category is required", ErrValidation)
	ErrMissingAmount  = fmt.Errorf("%w: amount is required", ErrValidation)
	ErrInvalidAmount  = fmt.Errorf("%w: amount must be a number", ErrValidation)
	ErrNegativeAmount = fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	ErrAmountTooLarge = fmt.Errorf("%w: amount cannot exceed 999999999.99", ErrValidation)
	ErrInvalidDate    = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrMissingOwner   = fmt.Errorf("%w: owner is required", ErrValidation)
)

const maxTitleLength = 200

func (e Expense) Validate() error {
	if e.Owner == "" {
		return ErrMissingOwner
	}
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > maxTitleLength {
		return fmt.Errorf("%w: title too long (max %d characters)", ErrValidation, maxTitleLength)
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Normalize trims the free-text fields the same way the store persists them.
func (e Expense) Normalize() Expense {
	e.Title = strings.TrimSpace(e.Title)
	e.Category = strings.TrimSpace(e.Category)
	return e
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses a calendar timestamp supplied by a client. Date-only
// values are interpreted as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDate, s)
}
