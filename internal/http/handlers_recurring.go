package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

type createRecurringRequest struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Category   string `json:"category"`
	DayOfMonth int    `json:"dayOfMonth"`
	IsActive   *bool  `json:"isActive"`
	CreatedOn  string `json:"createdOn"`
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListRecurring(w, r)
	case http.MethodPost:
		s.handleCreateRecurring(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	defs, err := s.store.ListRecurringExpenses(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List recurring expenses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load recurring expenses")
		return
	}
	if defs == nil {
		defs = []core.RecurringExpenseDefinition{}
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req createRecurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount: "+req.Amount)
		return
	}

	def := core.RecurringExpenseDefinition{
		Name:       sanitizeInput(req.Name),
		Amount:     amount,
		Currency:   strings.ToUpper(strings.TrimSpace(req.Currency)),
		Category:   sanitizeInput(req.Category),
		DayOfMonth: req.DayOfMonth,
		IsActive:   true,
	}
	if req.IsActive != nil {
		def.IsActive = *req.IsActive
	}
	if token := strings.TrimSpace(req.CreatedOn); token != "" {
		createdOn, err := core.ParseInputDate(token)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date: "+req.CreatedOn)
			return
		}
		def.CreatedOn = createdOn
	}

	id, err := s.recorder.RecordRecurringExpense(r.Context(), def)
	if err != nil {
		s.writeRecordError(w, r, err)
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}
