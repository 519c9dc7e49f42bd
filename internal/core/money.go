// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents so totals and category sums are exact;
// they are exposed to clients as plain decimal numbers.
package core

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// MaxAmountCents bounds a single amount (999,999,999.99) so that totals
// over any realistic number of expenses stay exact in int64 cents.
const MaxAmountCents = 99_999_999_999

var maxAmount = decimal.New(MaxAmountCents, -2)

// Limits on client input checked before any rescaling. Decimal rescaling
// costs grow with the exponent, so out-of-range input is rejected early.
const (
	maxAmountInputLen = 40
	minAmountExponent = -20
	maxAmountExponent = 12
)

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	if m.Cents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount as a float64 for display purposes.
// Use Cents for calculations.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// Add returns m+o. Amounts are never negative, so a sum past MaxInt64
// saturates there instead of wrapping.
func (m Money) Add(o Money) Money {
	if o.Cents > 0 && m.Cents > math.MaxInt64-o.Cents {
		return Money{Cents: math.MaxInt64}
	}
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON renders the amount as a bare JSON number (12.5, not "12.50").
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseAmount coerces a client supplied amount into Money.
//
// It accepts JSON numbers and numeric strings using either dot (12.34) or
// comma (12,34) as decimal separator, rounding half-up to the cent.
// A nil value or blank string is reported as missing; anything that is not
// a number fails with ErrInvalidAmount, and negative values with
// ErrNegativeAmount. Amounts above MaxAmountCents fail with
// ErrAmountTooLarge. Zero is a valid amount.
//
// Examples:
//
//	ParseAmount(4.5)      -> 450
//	ParseAmount("12,34")  -> 1234
//	ParseAmount("12.345") -> 1235 (half-up)
//	ParseAmount("abc")    -> ErrInvalidAmount
func ParseAmount(raw any) (Money, error) {
	var d decimal.Decimal
	switch v := raw.(type) {
	case nil:
		return Money{}, ErrMissingAmount
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Money{}, ErrInvalidAmount
		}
		d = decimal.NewFromFloat(v)
	case float32:
		d = decimal.NewFromFloat32(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case json.Number:
		if len(v) > maxAmountInputLen {
			return Money{}, ErrInvalidAmount
		}
		parsed, err := decimal.NewFromString(v.String())
		if err != nil {
			return Money{}, ErrInvalidAmount
		}
		d = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return Money{}, ErrMissingAmount
		}
		if len(s) > maxAmountInputLen {
			return Money{}, ErrInvalidAmount
		}
		parsed, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
		if err != nil {
			return Money{}, ErrInvalidAmount
		}
		d = parsed
	default:
		return Money{}, ErrInvalidAmount
	}

	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	switch exp := d.Exponent(); {
	case d.IsZero():
		d = decimal.Zero
	case exp > maxAmountExponent:
		return Money{}, ErrAmountTooLarge
	case exp < minAmountExponent:
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxAmount.Shift(2)) {
		return Money{}, ErrAmountTooLarge
	}
	return Money{Cents: cents.IntPart()}, nil
}
