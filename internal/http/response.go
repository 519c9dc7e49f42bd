package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
)

type envelope map[string]any

// expenseJSON is the wire form of an expense. Field names follow the
// API's original document shape, hence _id and user.
type expenseJSON struct {
	ID        string     `json:"_id"`
	Title     string     `json:"title"`
	Amount    core.Money `json:"amount"`
	Category  string     `json:"category"`
	Date      time.Time  `json:"date"`
	User      string     `json:"user"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type summaryJSON struct {
	TotalExpenses     int                   `json:"totalExpenses"`
	TotalAmount       core.Money            `json:"totalAmount"`
	CategoryBreakdown map[string]core.Money `json:"categoryBreakdown"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:        e.ID,
		Title:     e.Title,
		Amount:    e.Amount,
		Category:  e.Category,
		Date:      e.Date.UTC(),
		User:      string(e.Owner),
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
}

func toExpensesJSON(items []core.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(items))
	for _, e := range items {
		out = append(out, toExpenseJSON(e))
	}
	return out
}

func toSummaryJSON(s core.Summary) summaryJSON {
	breakdown := s.CategoryBreakdown
	if breakdown == nil {
		breakdown = map[string]core.Money{}
	}
	return summaryJSON{
		TotalExpenses:     s.TotalExpenses,
		TotalAmount:       s.TotalAmount,
		CategoryBreakdown: breakdown,
	}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "message": message})
}

// writeServiceError maps a service error onto a response. Validation
// messages are returned to the client; anything unclassified is logged
// and answered with fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, errInvalidBody):
		writeError(w, http.StatusBadRequest, "Invalid request body")
	case errors.Is(err, core.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "Expense not found")
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), fallback,
			log.FieldError, err,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
