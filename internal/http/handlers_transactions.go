package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/rates"
	"fintrack/internal/services"
)

type createTransactionRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Category    string `json:"category"`
	Description string `json:"description"`
	OccurredOn  string `json:"occurredOn"`
}

type createdResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount: "+req.Amount)
		return
	}

	occurredOn, err := core.ParseInputDate(strings.TrimSpace(req.OccurredOn))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date: "+req.OccurredOn)
		return
	}

	tx := core.Transaction{
		Kind:        core.Kind(strings.ToLower(strings.TrimSpace(req.Kind))),
		Amount:      amount,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		OccurredOn:  occurredOn,
	}

	id, err := s.recorder.RecordTransaction(r.Context(), tx)
	if err != nil {
		s.writeRecordError(w, r, err)
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// writeRecordError maps recording failures onto HTTP statuses. A missing
// exchange rate is a dependency failure, not a client error.
func (s *Server) writeRecordError(w http.ResponseWriter, r *http.Request, err error) {
	var rateErr *rates.RateUnavailableError
	switch {
	case errors.As(err, &rateErr):
		slog.ErrorContext(r.Context(), "Rate unavailable", "currency", rateErr.Currency)
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, services.ErrFutureDate),
		errors.Is(err, services.ErrDateTooOld),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidCurrency),
		errors.Is(err, core.ErrInvalidDayOfMonth),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyName):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Record failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save entry")
	}
}
