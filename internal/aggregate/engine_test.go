package aggregate

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/period"
)

func fixedEngine(today core.Date) *Engine {
	return NewEngine(func() core.Date { return today })
}

func krw(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func expense(id string, amount int64, category string, d core.Date) core.Transaction {
	return core.Transaction{
		ID:          id,
		Kind:        core.Expense,
		Amount:      krw(amount),
		Currency:    "KRW",
		PivotAmount: krw(amount),
		Category:    category,
		OccurredOn:  d,
	}
}

func income(id string, amount int64, d core.Date) core.Transaction {
	return core.Transaction{
		ID:          id,
		Kind:        core.Income,
		Amount:      krw(amount),
		Currency:    "KRW",
		PivotAmount: krw(amount),
		Category:    "Salary",
		OccurredOn:  d,
	}
}

func monthlyDef(id string, amount int64, day int, createdOn core.Date) core.RecurringExpenseDefinition {
	return core.RecurringExpenseDefinition{
		ID:          id,
		Name:        id,
		Amount:      krw(amount),
		Currency:    "KRW",
		PivotAmount: krw(amount),
		Category:    "Subscriptions",
		DayOfMonth:  day,
		IsActive:    true,
		CreatedOn:   createdOn,
	}
}

func TestAggregateRecurringOnlyMonth(t *testing.T) {
	// Definitions alone fill an explicit month: one occurrence, summed
	// into both the summary and the trend.
	engine := fixedEngine(core.NewDate(2025, 6, 15))
	defs := []core.RecurringExpenseDefinition{
		monthlyDef("def-1", 50000, 15, core.NewDate(2025, 1, 1)),
	}

	report := engine.Aggregate(nil, defs, period.MonthSpec(2025, 1))

	if !report.Summary.TotalExpense.Equal(krw(50000)) {
		t.Fatalf("total expense = %s, want 50000", report.Summary.TotalExpense)
	}
	if len(report.MonthlyTrend) != 1 {
		t.Fatalf("expected one trend point, got %d", len(report.MonthlyTrend))
	}
	point := report.MonthlyTrend[0]
	if point.Month != "2025-01" {
		t.Fatalf("trend month = %q", point.Month)
	}
	if !point.Income.IsZero() || !point.Expense.Equal(krw(50000)) || !point.Balance.Equal(krw(-50000)) {
		t.Fatalf("trend point = %+v", point)
	}
}

func TestAggregateMergesRealAndProjected(t *testing.T) {
	engine := fixedEngine(core.NewDate(2025, 6, 15))
	txs := []core.Transaction{
		expense("tx-1", 30000, "Food", core.NewDate(2025, 1, 10)),
	}
	defs := []core.RecurringExpenseDefinition{
		monthlyDef("def-1", 50000, 15, core.NewDate(2025, 1, 1)),
	}

	report := engine.Aggregate(txs, defs, period.MonthSpec(2025, 1))

	// Summed, never one replacing the other.
	if !report.Summary.TotalExpense.Equal(krw(80000)) {
		t.Fatalf("total expense = %s, want 80000", report.Summary.TotalExpense)
	}
	if got := report.MonthlyTrend[0].Expense; !got.Equal(krw(80000)) {
		t.Fatalf("trend expense = %s, want 80000", got)
	}
}

func TestAggregateCategoryDistribution(t *testing.T) {
	engine := fixedEngine(core.NewDate(2025, 6, 15))
	txs := []core.Transaction{
		expense("tx-1", 80000, "Food", core.NewDate(2025, 2, 5)),
		expense("tx-2", 50000, "Food", core.NewDate(2025, 1, 10)),
	}

	report := engine.Aggregate(txs, nil, period.AllSpec())

	if len(report.Categories) != 1 {
		t.Fatalf("expected one category, got %d", len(report.Categories))
	}
	share := report.Categories[0]
	if share.Category != "Food" || !share.Amount.Equal(krw(130000)) {
		t.Fatalf("category share = %+v", share)
	}
	if math.Abs(share.Percentage-100) > 1e-9 {
		t.Fatalf("percentage = %f, want 100", share.Percentage)
	}
}

func TestAggregatePercentagesSumTo100(t *testing.T) {
	engine := fixedEngine(core.NewDate(2025, 6, 15))
	txs := []core.Transaction{
		expense("tx-1", 30000, "Food", core.NewDate(2025, 2, 5)),
		expense("tx-2", 50000, "Housing", core.NewDate(2025, 2, 6)),
		expense("tx-3", 20000, "Transport", core.NewDate(2025, 2, 7)),
	}

	report := engine.Aggregate(txs, nil, period.AllSpec())

	sum := 0.0
	for _, share := range report.Categories {
		sum += share.Percentage
	}
	if math.Abs(sum-100) > 1e-6 {
		t.Fatalf("percentages sum to %f", sum)
	}
	// Descending by amount.
	for i := 1; i < len(report.Categories); i++ {
		if report.Categories[i].Amount.GreaterThan(report.Categories[i-1].Amount) {
			t.Fatal("categories not sorted descending")
		}
	}
	if report.Categories[0].Category != "Housing" {
		t.Fatalf("top category = %s", report.Categories[0].Category)
	}
}

func TestAggregateCategoryTieKeepsFirstSeenOrder(t *testing.T) {
	engine := fixedEngine(core.NewDate(2025, 6, 15))
	txs := []core.Transaction{
		expense("tx-1", 10000, "Beta", core.NewDate(2025, 2, 5)),
		expense("tx-2", 10000, "Alpha", core.NewDate(2025, 2, 6)),
	}

	report := engine.Aggregate(txs, nil, period.AllSpec())
	if report.Categories[0].Category != "Beta" {
		t.Fatalf("tie-break lost first-seen order: %+v", report.Categories)
	}
}

func TestAggregateNoFutureLeakage(t *testing.T) {
	today := core.NewDate(2025, 3, 10)
	engine := fixedEngine(today)
	txs := []core.Transaction{
		expense("tx-1", 10000, "Food", core.NewDate(2025, 3, 5)),
		expense("tx-2", 99999, "Food", core.NewDate(2025, 3, 20)), // future
	}
	defs := []core.RecurringExpenseDefinition{
		monthlyDef("def-1", 50000, 15, core.NewDate(2025, 1, 1)), // Mar 15 is future
	}

	// Explicit March window nominally extends past today.
	report := engine.Aggregate(txs, defs, period.MonthSpec(2025, 3))

	wantExpense := krw(10000)
	if !report.Summary.TotalExpense.Equal(wantExpense) {
		t.Fatalf("total expense = %s, want %s", report.Summary.TotalExpense, wantExpense)
	}
	for _, point := range report.MonthlyTrend {
		if point.Expense.GreaterThan(wantExpense) {
			t.Fatalf("future amounts leaked into trend: %+v", point)
		}
	}
}

func TestAggregateWeekdayHistogramExcludesOccurrences(t *testing.T) {
	engine := fixedEngine(core.NewDate(2025, 6, 15))
	// 2025-06-02 is a Monday.
	txs := []core.Transaction{
		expense("tx-1", 10000, "Food", core.NewDate(2025, 6, 2)),
		expense("tx-2", 30000, "Food", core.NewDate(2025, 6, 2)),
		income("tx-3", 99999, core.NewDate(2025, 6, 2)),
	}
	defs := []core.RecurringExpenseDefinition{
		monthlyDef("def-1", 70000, 2, core.NewDate(2025, 1, 1)),
	}

	report := engine.Aggregate(txs, defs, period.MonthSpec(2025, 6))

	if len(report.Weekdays) != 7 {
		t.Fatalf("expected 7 weekday rows, got %d", len(report.Weekdays))
	}
	monday := report.Weekdays[1]
	if monday.Weekday != "Monday" {
		t.Fatalf("row 1 = %s, want Monday", monday.Weekday)
	}
	// Real expenses only: no income, no projected occurrence.
	if !monday.Total.Equal(krw(40000)) || monday.Count != 2 {
		t.Fatalf("monday = %+v", monday)
	}
	if !monday.Average.Equal(krw(20000)) {
		t.Fatalf("monday average = %s", monday.Average)
	}
}

func TestAggregateSummaryDetails(t *testing.T) {
	engine := fixedEngine(core.NewDate(2025, 6, 15))
	txs := []core.Transaction{
		income("tx-1", 100000, core.NewDate(2025, 2, 1)),
		expense("tx-2", 30000, "Food", core.NewDate(2025, 2, 5)),
		expense("tx-3", 30000, "Housing", core.NewDate(2025, 2, 10)),
		expense("tx-4", 10000, "Food", core.NewDate(2025, 2, 10)),
	}

	report := engine.Aggregate(txs, nil, period.MonthSpec(2025, 2))
	s := report.Summary

	if !s.TotalIncome.Equal(krw(100000)) || !s.TotalExpense.Equal(krw(70000)) {
		t.Fatalf("totals = %s / %s", s.TotalIncome, s.TotalExpense)
	}
	if !s.Balance.Equal(krw(30000)) {
		t.Fatalf("balance = %s", s.Balance)
	}
	// Three distinct transaction days.
	if !s.AvgDailyExpense.Mul(krw(3)).Equal(krw(70000)) {
		t.Fatalf("avg daily expense = %s", s.AvgDailyExpense)
	}
	if s.TopCategory != "Food" {
		t.Fatalf("top category = %s", s.TopCategory)
	}
	// Feb 5 (30000) ties Feb 10 (30000+10000=40000): Feb 10 is higher.
	if s.HighestExpenseDay != "2025-02-10" || !s.HighestExpenseAmount.Equal(krw(40000)) {
		t.Fatalf("highest day = %s (%s)", s.HighestExpenseDay, s.HighestExpenseAmount)
	}
}

func TestAggregateHighestDayStrictComparisonFirstWins(t *testing.T) {
	engine := fixedEngine(core.NewDate(2025, 6, 15))
	txs := []core.Transaction{
		expense("tx-1", 30000, "Food", core.NewDate(2025, 2, 5)),
		expense("tx-2", 30000, "Food", core.NewDate(2025, 2, 9)),
	}

	report := engine.Aggregate(txs, nil, period.MonthSpec(2025, 2))
	if report.Summary.HighestExpenseDay != "2025-02-05" {
		t.Fatalf("tie must keep the first day, got %s", report.Summary.HighestExpenseDay)
	}
}

func TestAggregateEmptyWindowDegradesToNeutral(t *testing.T) {
	engine := fixedEngine(core.NewDate(2025, 6, 15))

	report := engine.Aggregate(nil, nil, period.MonthSpec(2025, 2))

	s := report.Summary
	if !s.TotalIncome.IsZero() || !s.TotalExpense.IsZero() || !s.Balance.IsZero() {
		t.Fatalf("summary not neutral: %+v", s)
	}
	if s.TopCategory != NoCategory {
		t.Fatalf("top category = %q, want %q", s.TopCategory, NoCategory)
	}
	if len(report.MonthlyTrend) != 0 || len(report.Categories) != 0 {
		t.Fatal("trend and categories must be empty")
	}
	if len(report.Weekdays) != 7 {
		t.Fatal("weekday histogram keeps its seven rows")
	}
}

func TestAggregateAllPeriodProjectsFromEarliestData(t *testing.T) {
	engine := fixedEngine(core.NewDate(2025, 3, 20))
	defs := []core.RecurringExpenseDefinition{
		monthlyDef("def-1", 50000, 15, core.NewDate(2025, 1, 1)),
	}

	// No transactions at all: the unbounded window still reaches back
	// to the definition's creation date.
	report := engine.Aggregate(nil, defs, period.AllSpec())

	if !report.Summary.TotalExpense.Equal(krw(150000)) {
		t.Fatalf("total expense = %s, want 150000 (Jan+Feb+Mar)", report.Summary.TotalExpense)
	}
	if len(report.MonthlyTrend) != 3 {
		t.Fatalf("expected 3 trend points, got %d", len(report.MonthlyTrend))
	}
}

func TestAggregateRollingWindowFiltersTransactions(t *testing.T) {
	today := core.NewDate(2025, 3, 31)
	engine := fixedEngine(today)
	txs := []core.Transaction{
		expense("tx-1", 10000, "Food", core.NewDate(2025, 3, 10)),
		expense("tx-2", 20000, "Food", core.NewDate(2025, 2, 27)), // before Feb 28 start
	}

	report := engine.Aggregate(txs, nil, period.RollingSpec(1))
	if !report.Summary.TotalExpense.Equal(krw(10000)) {
		t.Fatalf("total expense = %s, want 10000", report.Summary.TotalExpense)
	}
}
