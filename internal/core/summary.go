package core

// Listing is one owner's expenses together with their count and total.
type Listing struct {
	Items       []Expense
	Count       int
	TotalAmount Money
}

// Summary aggregates one owner's expenses by category.
type Summary struct {
	TotalExpenses     int
	TotalAmount       Money
	CategoryBreakdown map[string]Money
}

func NewListing(items []Expense) Listing {
	l := Listing{Items: items, Count: len(items)}
	for _, e := range items {
		l.TotalAmount = l.TotalAmount.Add(e.Amount)
	}
	return l
}

// NewSummary sums amounts per category. Category labels are compared
// verbatim; only categories present in items appear in the breakdown.
func NewSummary(items []Expense) Summary {
	s := Summary{
		TotalExpenses:     len(items),
		CategoryBreakdown: make(map[string]Money),
	}
	for _, e := range items {
		s.TotalAmount = s.TotalAmount.Add(e.Amount)
		s.CategoryBreakdown[e.Category] = s.CategoryBreakdown[e.Category].Add(e.Amount)
	}
	return s
}
