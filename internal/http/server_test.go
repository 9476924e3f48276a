package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/aggregate"
	"fintrack/internal/calendar"
	"fintrack/internal/core"
	"fintrack/internal/rates"
	"fintrack/internal/services"
	"fintrack/internal/store/memory"
)

type stubRates struct {
	set  rates.Set
	tier rates.Tier
}

func (s stubRates) GetRates(context.Context) rates.Set { return s.set }
func (s stubRates) LastTier() rates.Tier               { return s.tier }

func testServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()

	st := memory.New()
	today := func() core.Date { return core.NewDate(2025, 6, 15) }
	rateReader := stubRates{
		set: rates.Set{
			AsOf: time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
			Rates: map[string]decimal.Decimal{
				"KRW": decimal.NewFromInt(1),
				"USD": decimal.RequireFromString("0.001"),
			},
		},
		tier: rates.TierNetwork,
	}
	recorder := services.NewRecordService(st, st, rateReader, nil, today)

	return NewServer(":0", st, recorder, rateReader, Options{Today: today}), st
}

func seedExpense(t *testing.T, st *memory.Store, amount int64, category string, day core.Date) {
	t.Helper()
	_, err := st.CreateTransaction(context.Background(), core.Transaction{
		Kind:        core.Expense,
		Amount:      decimal.NewFromInt(amount),
		Currency:    "KRW",
		PivotAmount: decimal.NewFromInt(amount),
		Category:    category,
		OccurredOn:  day,
	})
	if err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
}

func TestHandleReport(t *testing.T) {
	s, st := testServer(t)
	seedExpense(t, st, 50000, "Food", core.NewDate(2025, 6, 10))

	req := httptest.NewRequest(http.MethodGet, "/api/report?period=2025-06", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var report aggregate.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Period != "2025-06" {
		t.Errorf("Period = %q, want 2025-06", report.Period)
	}
	if !report.Summary.TotalExpense.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("TotalExpense = %s, want 50000", report.Summary.TotalExpense)
	}
}

func TestHandleReportInvalidPeriod(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/report?period=bogus", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleCalendar(t *testing.T) {
	s, st := testServer(t)
	seedExpense(t, st, 10000, "Food", core.NewDate(2025, 6, 10))

	req := httptest.NewRequest(http.MethodGet, "/api/calendar?year=2025&month=6", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var grid calendar.Month
	if err := json.Unmarshal(rec.Body.Bytes(), &grid); err != nil {
		t.Fatalf("decode grid: %v", err)
	}
	if grid.Year != 2025 || grid.Month != 6 {
		t.Errorf("grid is %d-%d, want 2025-6", grid.Year, grid.Month)
	}
	for _, week := range grid.Weeks {
		if len(week) != 7 {
			t.Fatalf("week has %d cells, want 7", len(week))
		}
	}
}

func TestHandleCalendarInvalidMonth(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar?year=2025&month=13", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRates(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/rates", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp ratesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode rates: %v", err)
	}
	if resp.Pivot != "KRW" {
		t.Errorf("Pivot = %q, want KRW", resp.Pivot)
	}
	if resp.Tier != "network" || resp.Degraded {
		t.Errorf("Tier = %q, Degraded = %v", resp.Tier, resp.Degraded)
	}
}

func TestCreateTransactionInvalidatesReportCache(t *testing.T) {
	s, _ := testServer(t)

	// Warm the cache with an empty report.
	req := httptest.NewRequest(http.MethodGet, "/api/report?period=2025-06", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("warmup status = %d", rec.Code)
	}

	body := `{"kind":"expense","amount":"25000","currency":"KRW","category":"Food","occurredOn":"2025-06-10"}`
	post := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
	postRec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(postRec, post)
	if postRec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", postRec.Code, postRec.Body.String())
	}

	var created createdResponse
	if err := json.Unmarshal(postRec.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("create response = %s", postRec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report?period=2025-06", nil))

	var report aggregate.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !report.Summary.TotalExpense.Equal(decimal.NewFromInt(25000)) {
		t.Errorf("TotalExpense after create = %s, want 25000", report.Summary.TotalExpense)
	}
}

func TestCreateTransactionRejectsBadPayloads(t *testing.T) {
	s, _ := testServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"bad amount", `{"kind":"expense","amount":"abc","currency":"KRW","category":"Food","occurredOn":"2025-06-10"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"kind":"expense","amount":"100","currency":"KRW","category":"Food","occurredOn":"2025-6-10"}`, http.StatusUnprocessableEntity},
		{"future date", `{"kind":"expense","amount":"100","currency":"KRW","category":"Food","occurredOn":"2025-06-16"}`, http.StatusUnprocessableEntity},
		{"bad kind", `{"kind":"loan","amount":"100","currency":"KRW","category":"Food","occurredOn":"2025-06-10"}`, http.StatusUnprocessableEntity},
		{"missing rate", `{"kind":"expense","amount":"100","currency":"GBP","category":"Food","occurredOn":"2025-06-10"}`, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.Server.Handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCreateAndListRecurring(t *testing.T) {
	s, _ := testServer(t)

	body := `{"name":"rent","amount":"500000","currency":"KRW","category":"Housing","dayOfMonth":1,"createdOn":"2025-01-01"}`
	post := httptest.NewRequest(http.MethodPost, "/api/recurring", strings.NewReader(body))
	postRec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(postRec, post)
	if postRec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", postRec.Code, postRec.Body.String())
	}

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recurring", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var defs []core.RecurringExpenseDefinition
	if err := json.Unmarshal(rec.Body.Bytes(), &defs); err != nil {
		t.Fatalf("decode defs: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "rent" || !defs[0].IsActive {
		t.Fatalf("defs = %+v", defs)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/report", nil)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET" {
		t.Errorf("Allow = %q, want GET", allow)
	}
}
