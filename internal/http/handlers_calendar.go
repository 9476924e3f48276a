package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"fintrack/internal/calendar"
)

// handleCalendar serves the month grid for ?year=&month=, defaulting to
// the current month.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	today := s.today()
	year, month := parseYearMonth(r, today.Year(), today.Month())
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid month: %d", month))
		return
	}
	if year < 1 || year > 9999 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid year: %d", year))
		return
	}

	key := fmt.Sprintf("%04d-%02d", year, month)
	if grid, found := s.calendarCache.Get(key); found {
		slog.DebugContext(r.Context(), "Calendar cache hit", "year", year, "month", month)
		writeJSON(w, http.StatusOK, grid)
		return
	}

	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	defs, err := s.store.ListRecurringExpenses(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List recurring expenses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load recurring expenses")
		return
	}

	grid := calendar.BuildMonth(year, month, txs, defs, today)
	s.calendarCache.Set(key, grid)

	writeJSON(w, http.StatusOK, grid)
}
