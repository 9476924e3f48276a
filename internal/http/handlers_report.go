package http

import (
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/period"
)

// handleReport serves the aggregated report for a period token
// (all, 1m, 3m, 6m, 1y, or YYYY-MM).
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("period"))
	spec, err := period.ParseSpec(token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period: "+token)
		return
	}

	key := spec.String()
	if report, found := s.reportCache.Get(key); found {
		slog.DebugContext(r.Context(), "Report cache hit", "period", key)
		writeJSON(w, http.StatusOK, report)
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

	report := s.engine.Aggregate(txs, defs, spec)
	s.reportCache.Set(key, report)

	writeJSON(w, http.StatusOK, report)
}
