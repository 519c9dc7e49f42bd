package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"expenses/internal/core"
)

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "expenses.db"))
	if err != nil {
		t.Fatalf("open sqlite repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testExpense(id string, owner core.OwnerID, date time.Time, cents int64) core.Expense {
	return core.Expense{
		ID:        id,
		Title:     "Expense " + id,
		Amount:    core.Money{Cents: cents},
		Category:  "Food",
		Date:      date,
		Owner:     owner,
		CreatedAt: date,
	}
}

func TestSQLiteRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	d1 := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 2, 3, 18, 30, 0, 500, time.UTC)

	created, err := repo.Insert(ctx, testExpense("e1", "alice", d1, 450))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !created.Date.Equal(d1) || created.Amount.Cents != 450 || created.Owner != "alice" {
		t.Fatalf("unexpected created row: %+v", created)
	}
	if _, err := repo.Insert(ctx, testExpense("e2", "alice", d2, 1000)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.Insert(ctx, testExpense("e3", "bob", d2, 999)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	items, err := repo.ListByOwner(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != "e2" || items[1].ID != "e1" {
		t.Fatalf("expected date-descending alice expenses, got %+v", items)
	}
	if !items[0].Date.Equal(d2) {
		t.Fatalf("date round trip mismatch: %v != %v", items[0].Date, d2)
	}

	if _, err := repo.GetByOwner(ctx, "bob", "e1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found across owners, got %v", err)
	}

	upd := created
	upd.Amount = core.Money{Cents: 0}
	upd.UpdatedAt = d2
	got, err := repo.Update(ctx, upd)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Amount.Cents != 0 || !got.UpdatedAt.Equal(d2) {
		t.Fatalf("unexpected updated row: %+v", got)
	}

	upd.Owner = "bob"
	if _, err := repo.Update(ctx, upd); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found when updating foreign expense, got %v", err)
	}

	if err := repo.DeleteByOwner(ctx, "bob", "e1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on foreign delete, got %v", err)
	}
	if err := repo.DeleteByOwner(ctx, "alice", "e1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteByOwner(ctx, "alice", "e1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestSQLiteRepository_RejectsNegativeAmount(t *testing.T) {
	repo := newTestRepo(t)
	e := testExpense("neg", "alice", time.Now(), -1)
	if _, err := repo.Insert(context.Background(), e); err == nil {
		t.Fatal("expected check constraint violation for negative amount")
	}
}

func TestSQLiteRepository_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenses.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := repo.Insert(ctx, testExpense("keep", "alice", time.Now(), 1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen (migrations must be idempotent): %v", err)
	}
	defer repo.Close()
	if _, err := repo.GetByOwner(ctx, "alice", "keep"); err != nil {
		t.Fatalf("expected persisted expense, got %v", err)
	}
}

func TestDialectRebind(t *testing.T) {
	q := "SELECT * FROM expenses WHERE id = ? AND owner_id = ?"
	if got := DialectSQLite.rebind(q); got != q {
		t.Fatalf("sqlite should keep placeholders, got %q", got)
	}
	want := "SELECT * FROM expenses WHERE id = $1 AND owner_id = $2"
	if got := DialectPostgres.rebind(q); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDBTimeScan(t *testing.T) {
	want := time.Date(2025, 5, 6, 7, 8, 9, 10, time.UTC)
	for _, src := range []interface{}{
		want,
		want.Format(storedTimeLayout),
		[]byte(want.Format(time.RFC3339Nano)),
	} {
		var dt dbTime
		if err := dt.Scan(src); err != nil {
			t.Fatalf("scan %T: %v", src, err)
		}
		if !dt.Time.Equal(want) {
			t.Fatalf("scan %T: expected %v, got %v", src, want, dt.Time)
		}
	}
	var dt dbTime
	if err := dt.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
