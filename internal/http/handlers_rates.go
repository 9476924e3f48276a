package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type ratesResponse struct {
	Pivot    string                     `json:"pivot"`
	Tier     string                     `json:"tier"`
	Degraded bool                       `json:"degraded"`
	AsOf     *time.Time                 `json:"asOf,omitempty"`
	Rates    map[string]decimal.Decimal `json:"rates"`
}

// handleRates exposes the current rate snapshot and which fallback tier
// produced it, so clients can show a "using saved rates" warning.
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	set := s.rates.GetRates(r.Context())
	tier := s.rates.LastTier()

	resp := ratesResponse{
		Pivot:    core.PivotCurrency,
		Tier:     string(tier),
		Degraded: tier.Degraded(),
		Rates:    set.Rates,
	}
	if !set.AsOf.IsZero() {
		asOf := set.AsOf
		resp.AsOf = &asOf
	}

	writeJSON(w, http.StatusOK, resp)
}
