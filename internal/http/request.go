package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"expenses/internal/services"
)

var errInvalidBody = errors.New("invalid request body")

// expenseRequest is the body of a create or update. Any owner or user
// field sent by the client is ignored: ownership comes from auth only.
type expenseRequest struct {
	Title    *string `json:"title"`
	Amount   any     `json:"amount"`
	Category *string `json:"category"`
	Date     *string `json:"date"`
}

// decodeExpenseRequest reads a single JSON object of at most maxBodyBytes.
// Numbers are kept as json.Number so amounts keep their exact digits.
func decodeExpenseRequest(w http.ResponseWriter, r *http.Request) (expenseRequest, error) {
	var req expenseRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return expenseRequest{}, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return expenseRequest{}, fmt.Errorf("%w: trailing data", errInvalidBody)
	}
	return req, nil
}

func (req expenseRequest) createInput() services.CreateInput {
	return services.CreateInput{
		Title:    req.Title,
		Amount:   req.Amount,
		Category: req.Category,
		Date:     req.Date,
	}
}

func (req expenseRequest) updateInput() services.UpdateInput {
	return services.UpdateInput{
		Title:    req.Title,
		Amount:   req.Amount,
		Category: req.Category,
		Date:     req.Date,
	}
}
