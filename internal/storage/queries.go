package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Dialect captures the few differences between the SQL backends.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// storedTimeLayout is fixed width so that TEXT columns in sqlite sort
// chronologically.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

// rebind rewrites ? placeholders into $n for postgres.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) timeArg(t time.Time) interface{} {
	t = t.UTC()
	if d == DialectSQLite {
		return t.Format(storedTimeLayout)
	}
	return t
}

// Expense is the row shape of the expenses table.
type Expense struct {
	ID          string
	OwnerID     string
	Title       string
	AmountCents int64
	Category    string
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Queries struct {
	db      DBTX
	dialect Dialect
}

func New(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

const expenseColumns = `id, owner_id, title, amount_cents, category, date, created_at, updated_at`

const createExpense = `-- name: CreateExpense :one
INSERT INTO expenses (id, owner_id, title, amount_cents, category, date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	ID          string
	OwnerID     string
	Title       string
	AmountCents int64
	Category    string
	Date        time.Time
	Now         time.Time
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, q.dialect.rebind(createExpense),
		arg.ID,
		arg.OwnerID,
		arg.Title,
		arg.AmountCents,
		arg.Category,
		q.dialect.timeArg(arg.Date),
		q.dialect.timeArg(arg.Now),
		q.dialect.timeArg(arg.Now),
	)
	return scanExpense(row)
}

const getExpenseByOwner = `-- name: GetExpenseByOwner :one
SELECT ` + expenseColumns + `
FROM expenses
WHERE id = ? AND owner_id = ?`

func (q *Queries) GetExpenseByOwner(ctx context.Context, id, ownerID string) (Expense, error) {
	row := q.db.QueryRowContext(ctx, q.dialect.rebind(getExpenseByOwner), id, ownerID)
	return scanExpense(row)
}

const listExpensesByOwner = `-- name: ListExpensesByOwner :many
SELECT ` + expenseColumns + `
FROM expenses
WHERE owner_id = ?
ORDER BY date DESC, created_at DESC`

func (q *Queries) ListExpensesByOwner(ctx context.Context, ownerID string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, q.dialect.rebind(listExpensesByOwner), ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		i, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateExpense = `-- name: UpdateExpense :one
UPDATE expenses
SET title = ?, amount_cents = ?, category = ?, date = ?, updated_at = ?
WHERE id = ? AND owner_id = ?
RETURNING ` + expenseColumns

type UpdateExpenseParams struct {
	ID          string
	OwnerID     string
	Title       string
	AmountCents int64
	Category    string
	Date        time.Time
	Now         time.Time
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, q.dialect.rebind(updateExpense),
		arg.Title,
		arg.AmountCents,
		arg.Category,
		q.dialect.timeArg(arg.Date),
		q.dialect.timeArg(arg.Now),
		arg.ID,
		arg.OwnerID,
	)
	return scanExpense(row)
}

const deleteExpenseByOwner = `-- name: DeleteExpenseByOwner :execrows
DELETE FROM expenses
WHERE id = ? AND owner_id = ?`

func (q *Queries) DeleteExpenseByOwner(ctx context.Context, id, ownerID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, q.dialect.rebind(deleteExpenseByOwner), id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(s scanner) (Expense, error) {
	var (
		i                          Expense
		date, createdAt, updatedAt dbTime
	)
	err := s.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Title,
		&i.AmountCents,
		&i.Category,
		&date,
		&createdAt,
		&updatedAt,
	)
	i.Date = date.Time
	i.CreatedAt = createdAt.Time
	i.UpdatedAt = updatedAt.Time
	return i, err
}

// dbTime scans timestamps stored either natively (postgres) or as text (sqlite).
type dbTime struct {
	Time time.Time
}

var scanTimeLayouts = []string{
	storedTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func (t *dbTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range scanTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised time value %q", s)
}
