package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"expenses/internal/core"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLRepository implements Store on top of database/sql for both the
// sqlite and postgres backends.
type SQLRepository struct {
	db      *sql.DB
	queries *Queries
	dialect Dialect
}

var _ Store = (*SQLRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer connection; concurrent handlers queue here instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newSQLRepository(db, DialectSQLite), nil
}

func NewPostgresRepository(dsn string) (*SQLRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunPostgresMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newSQLRepository(db, DialectPostgres), nil
}

func newSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{
		db:      db,
		queries: New(db, dialect),
		dialect: dialect,
	}
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) ListByOwner(ctx context.Context, owner core.OwnerID) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesByOwner(ctx, string(owner))
	if err != nil {
		return nil, fmt.Errorf("list expenses by owner: %w", err)
	}

	expenses := make([]core.Expense, len(rows))
	for i, row := range rows {
		expenses[i] = toCore(row)
	}
	return expenses, nil
}

func (r *SQLRepository) GetByOwner(ctx context.Context, owner core.OwnerID, id string) (core.Expense, error) {
	row, err := r.queries.GetExpenseByOwner(ctx, id, string(owner))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by owner: %w", err)
	}
	return toCore(row), nil
}

func (r *SQLRepository) Insert(ctx context.Context, e core.Expense) (core.Expense, error) {
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		ID:          e.ID,
		OwnerID:     string(e.Owner),
		Title:       e.Title,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		Date:        e.Date,
		Now:         e.CreatedAt,
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved",
		"id", row.ID,
		"owner", row.OwnerID,
		"amount_cents", row.AmountCents,
		"backend", string(r.dialect))

	return toCore(row), nil
}

func (r *SQLRepository) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	row, err := r.queries.UpdateExpense(ctx, UpdateExpenseParams{
		ID:          e.ID,
		OwnerID:     string(e.Owner),
		Title:       e.Title,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		Date:        e.Date,
		Now:         e.UpdatedAt,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return toCore(row), nil
}

func (r *SQLRepository) DeleteByOwner(ctx context.Context, owner core.OwnerID, id string) error {
	n, err := r.queries.DeleteExpenseByOwner(ctx, id, string(owner))
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func toCore(row Expense) core.Expense {
	return core.Expense{
		ID:        row.ID,
		Title:     row.Title,
		Amount:    core.Money{Cents: row.AmountCents},
		Category:  row.Category,
		Date:      row.Date,
		Owner:     core.OwnerID(row.OwnerID),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
