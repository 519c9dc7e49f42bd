package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"expenses/internal/auth"
	"expenses/internal/core"
	"expenses/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Server is running"})
}

// owner returns the authenticated owner. Routes behind auth.Middleware
// always have one; a missing owner is answered with 401.
func owner(w http.ResponseWriter, r *http.Request) (core.OwnerID, bool) {
	id, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized")
	}
	return id, ok
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	listing, err := s.svc.ListExpenses(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, r, err, "Error fetching expenses")
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":     true,
		"count":       listing.Count,
		"totalAmount": listing.TotalAmount,
		"expenses":    toExpensesJSON(listing.Items),
	})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	e, err := s.svc.GetExpense(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "Error fetching expense")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "expense": toExpenseJSON(e)})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	req, err := decodeExpenseRequest(w, r)
	if err != nil {
		writeServiceError(w, r, err, "Error creating expense")
		return
	}

	e, err := s.svc.CreateExpense(r.Context(), ownerID, req.createInput())
	if err != nil {
		writeServiceError(w, r, err, "Error creating expense")
		return
	}
	s.invalidateSummary(ownerID)

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.NewFields().WithOperation(log.OpCreate).WithOwner(string(ownerID)).WithExpense(e.ID, e.Amount.Cents, e.Category).ToSlice()...)
	writeJSON(w, http.StatusCreated, envelope{
		"success": true,
		"message": "Expense created successfully",
		"expense": toExpenseJSON(e),
	})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")

	// An unknown or foreign id is a 404 whatever the body holds.
	if _, err := s.svc.GetExpense(r.Context(), ownerID, id); err != nil {
		writeServiceError(w, r, err, "Error updating expense")
		return
	}

	req, err := decodeExpenseRequest(w, r)
	if err != nil {
		writeServiceError(w, r, err, "Error updating expense")
		return
	}

	e, err := s.svc.UpdateExpense(r.Context(), ownerID, id, req.updateInput())
	if err != nil {
		writeServiceError(w, r, err, "Error updating expense")
		return
	}
	s.invalidateSummary(ownerID)

	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "Expense updated successfully",
		"expense": toExpenseJSON(e),
	})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeleteExpense(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, "Error deleting expense")
		return
	}
	s.invalidateSummary(ownerID)

	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Expense deleted successfully"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	summary, err := s.getSummary(r, ownerID)
	if err != nil {
		writeServiceError(w, r, err, "Error fetching summary")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "summary": toSummaryJSON(summary)})
}

func (s *Server) getSummary(r *http.Request, ownerID core.OwnerID) (core.Summary, error) {
	key := string(ownerID)
	if s.summaryCache != nil {
		if cached, found := s.summaryCache.Get(key); found {
			log.FromContext(r.Context()).DebugContext(r.Context(), "Summary cache hit", log.FieldOwner, key)
			return cached, nil
		}
	}

	summary, err := s.svc.GetSummary(r.Context(), ownerID)
	if err != nil {
		return core.Summary{}, err
	}
	if s.summaryCache != nil {
		s.summaryCache.Set(key, summary)
	}
	return summary, nil
}

func (s *Server) invalidateSummary(ownerID core.OwnerID) {
	if s.summaryCache != nil {
		s.summaryCache.Delete(string(ownerID))
	}
}
