package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/rates"
	"fintrack/internal/store/memory"
)

type fixedRates struct {
	set rates.Set
}

func (f fixedRates) GetRates(context.Context) rates.Set { return f.set }

func testService(t *testing.T) (*RecordService, *memory.Store) {
	t.Helper()
	s := memory.New()
	source := fixedRates{set: rates.Set{Rates: map[string]decimal.Decimal{
		"KRW": decimal.NewFromInt(1),
		"USD": decimal.RequireFromString("0.001"),
	}}}
	today := func() core.Date { return core.NewDate(2025, 6, 15) }
	return NewRecordService(s, s, source, nil, today), s
}

func TestRecordTransactionComputesPivotOnce(t *testing.T) {
	svc, s := testService(t)

	id, err := svc.RecordTransaction(context.Background(), core.Transaction{
		Kind:       core.Expense,
		Amount:     decimal.NewFromInt(10),
		Currency:   "USD",
		Category:   "Food",
		OccurredOn: core.NewDate(2025, 6, 10),
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	txs, _ := s.ListTransactions(context.Background())
	if len(txs) != 1 || txs[0].ID != id {
		t.Fatalf("unexpected store state: %+v", txs)
	}
	// 10 USD at 0.001 KRW-per-USD factor = 10000 KRW.
	if !txs[0].PivotAmount.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("pivot amount = %s, want 10000", txs[0].PivotAmount)
	}
}

func TestRecordTransactionPivotCurrencyPassthrough(t *testing.T) {
	svc, s := testService(t)

	_, err := svc.RecordTransaction(context.Background(), core.Transaction{
		Kind:       core.Income,
		Amount:     decimal.NewFromInt(50000),
		Currency:   "KRW",
		Category:   "Salary",
		OccurredOn: core.NewDate(2025, 6, 10),
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	txs, _ := s.ListTransactions(context.Background())
	if !txs[0].PivotAmount.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("pivot amount = %s", txs[0].PivotAmount)
	}
}

func TestRecordTransactionRejectsBadDates(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.RecordTransaction(context.Background(), core.Transaction{
		Kind:       core.Expense,
		Amount:     decimal.NewFromInt(100),
		Currency:   "KRW",
		Category:   "Food",
		OccurredOn: core.NewDate(2025, 6, 16), // tomorrow
	})
	if !errors.Is(err, ErrFutureDate) {
		t.Fatalf("expected ErrFutureDate, got %v", err)
	}

	_, err = svc.RecordTransaction(context.Background(), core.Transaction{
		Kind:       core.Expense,
		Amount:     decimal.NewFromInt(100),
		Currency:   "KRW",
		Category:   "Food",
		OccurredOn: core.NewDate(2014, 1, 1),
	})
	if !errors.Is(err, ErrDateTooOld) {
		t.Fatalf("expected ErrDateTooOld, got %v", err)
	}
}

func TestRecordTransactionFailsLoudlyOnMissingRate(t *testing.T) {
	svc, s := testService(t)

	_, err := svc.RecordTransaction(context.Background(), core.Transaction{
		Kind:       core.Expense,
		Amount:     decimal.NewFromInt(100),
		Currency:   "GBP", // not in the fixed rate set
		Category:   "Food",
		OccurredOn: core.NewDate(2025, 6, 10),
	})
	if err == nil {
		t.Fatal("expected rate error")
	}
	var rateErr *rates.RateUnavailableError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected *rates.RateUnavailableError, got %v", err)
	}

	txs, _ := s.ListTransactions(context.Background())
	if len(txs) != 0 {
		t.Fatal("nothing may be persisted on rate failure")
	}
}

func TestRecordRecurringExpenseDefaultsCreatedOn(t *testing.T) {
	svc, s := testService(t)

	_, err := svc.RecordRecurringExpense(context.Background(), core.RecurringExpenseDefinition{
		Name:       "rent",
		Amount:     decimal.NewFromInt(500000),
		Currency:   "KRW",
		Category:   "Housing",
		DayOfMonth: 1,
		IsActive:   true,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	defs, _ := s.ListRecurringExpenses(context.Background())
	if !core.IsSameDay(defs[0].CreatedOn, core.NewDate(2025, 6, 15)) {
		t.Fatalf("created on = %v", defs[0].CreatedOn)
	}
}
