// Package aggregate turns raw transactions and recurring-expense
// definitions into the period-bucketed numbers shown to the user:
// monthly trend, category distribution, weekday histogram and summary.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/period"
	"fintrack/internal/recurring"
)

// NoCategory is reported as the top category when nothing qualifies.
const NoCategory = "none"

type (
	// Engine computes reports for an injected notion of "today", so
	// results are reproducible regardless of where they run.
	Engine struct {
		today func() core.Date
	}

	// MonthPoint is one month of the trend series.
	MonthPoint struct {
		Month   string          `json:"month"` // YYYY-MM
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Balance decimal.Decimal `json:"balance"`
	}

	// CategoryShare is one slice of the expense distribution.
	CategoryShare struct {
		Category   string          `json:"category"`
		Amount     decimal.Decimal `json:"amount"`
		Percentage float64         `json:"percentage"`
	}

	// WeekdayStat aggregates real expense transactions for one weekday.
	// Projected occurrences are date-fixed by month, not meaningful
	// weekday data, and are excluded here.
	WeekdayStat struct {
		Weekday string          `json:"weekday"`
		Total   decimal.Decimal `json:"total"`
		Average decimal.Decimal `json:"average"`
		Count   int             `json:"count"`
	}

	// Summary is the headline block of a report.
	Summary struct {
		TotalIncome          decimal.Decimal `json:"totalIncome"`
		TotalExpense         decimal.Decimal `json:"totalExpense"`
		Balance              decimal.Decimal `json:"balance"`
		AvgDailyIncome       decimal.Decimal `json:"avgDailyIncome"`
		AvgDailyExpense      decimal.Decimal `json:"avgDailyExpense"`
		TopCategory          string          `json:"topCategory"`
		HighestExpenseDay    string          `json:"highestExpenseDay,omitempty"` // YYYY-MM-DD
		HighestExpenseAmount decimal.Decimal `json:"highestExpenseAmount"`
	}

	// Report is one full aggregation result. All amounts are pivot
	// equivalents fixed when each entry was recorded.
	Report struct {
		Period       string          `json:"period"`
		Summary      Summary         `json:"summary"`
		MonthlyTrend []MonthPoint    `json:"monthlyTrend"`
		Categories   []CategoryShare `json:"categoryDistribution"`
		Weekdays     []WeekdayStat   `json:"weekdayHistogram"`
	}
)

// NewEngine creates an engine with the given today source. A nil source
// falls back to the configured default timezone.
func NewEngine(today func() core.Date) *Engine {
	if today == nil {
		today = func() core.Date { return core.Today(nil) }
	}
	return &Engine{today: today}
}

// Aggregate resolves the period, filters transactions into it, projects
// recurring occurrences with today as the hard cutoff, and merges both
// sources. Real entries and projected occurrences are summed, never one
// replacing the other; nothing dated after today ever appears. When no
// data falls in the window every aggregate degrades to its neutral form
// rather than failing.
func (e *Engine) Aggregate(txs []core.Transaction, defs []core.RecurringExpenseDefinition, spec period.Spec) Report {
	today := e.today()

	w := period.Resolve(spec, today)
	if w.End.After(today.Time) {
		w.End = today
	}

	var filtered []core.Transaction
	for _, tx := range txs {
		if w.Contains(tx.OccurredOn) {
			filtered = append(filtered, tx)
		}
	}

	projWindow := w
	if projWindow.Unbounded {
		dates := make([]core.Date, 0, len(filtered)+len(defs))
		for _, tx := range filtered {
			dates = append(dates, tx.OccurredOn)
		}
		for _, def := range defs {
			dates = append(dates, def.CreatedOn)
		}
		projWindow = projWindow.Bound(dates...)
	}
	occurrences := recurring.ProjectAll(defs, projWindow.Start, projWindow.End, today)

	return Report{
		Period:       spec.String(),
		Summary:      e.summary(filtered, occurrences),
		MonthlyTrend: monthlyTrend(filtered, occurrences),
		Categories:   categoryDistribution(filtered, occurrences),
		Weekdays:     weekdayHistogram(filtered),
	}
}

func monthKey(d core.Date) int { return d.Year()*12 + d.Month() - 1 }

func monthLabel(key int) string { return fmt.Sprintf("%04d-%02d", key/12, key%12+1) }

// monthlyTrend buckets by (year, month). Occurrences contribute to the
// expense side of their month's bucket alongside real expenses.
func monthlyTrend(txs []core.Transaction, occs []core.Occurrence) []MonthPoint {
	type acc struct {
		income  decimal.Decimal
		expense decimal.Decimal
	}
	buckets := map[int]*acc{}
	bucket := func(key int) *acc {
		b, ok := buckets[key]
		if !ok {
			b = &acc{income: decimal.Zero, expense: decimal.Zero}
			buckets[key] = b
		}
		return b
	}

	for _, tx := range txs {
		b := bucket(monthKey(tx.OccurredOn))
		if tx.Kind == core.Income {
			b.income = b.income.Add(tx.PivotAmount)
		} else {
			b.expense = b.expense.Add(tx.PivotAmount)
		}
	}
	for _, occ := range occs {
		b := bucket(monthKey(occ.Date))
		b.expense = b.expense.Add(occ.PivotAmount)
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]MonthPoint, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		out = append(out, MonthPoint{
			Month:   monthLabel(k),
			Income:  b.income,
			Expense: b.expense,
			Balance: b.income.Sub(b.expense),
		})
	}
	return out
}

// categoryDistribution sums real and projected expenses per category,
// sorted descending by amount with a stable first-seen tie-break.
func categoryDistribution(txs []core.Transaction, occs []core.Occurrence) []CategoryShare {
	totals := map[string]decimal.Decimal{}
	var order []string
	add := func(category string, amount decimal.Decimal) {
		if _, ok := totals[category]; !ok {
			order = append(order, category)
			totals[category] = decimal.Zero
		}
		totals[category] = totals[category].Add(amount)
	}

	for _, tx := range txs {
		if tx.Kind == core.Expense {
			add(tx.Category, tx.PivotAmount)
		}
	}
	for _, occ := range occs {
		add(occ.Category, occ.PivotAmount)
	}

	grand := decimal.Zero
	for _, amount := range totals {
		grand = grand.Add(amount)
	}

	out := make([]CategoryShare, 0, len(order))
	for _, category := range order {
		share := CategoryShare{Category: category, Amount: totals[category]}
		if grand.IsPositive() {
			share.Percentage, _ = totals[category].Div(grand).Mul(decimal.NewFromInt(100)).Float64()
		}
		out = append(out, share)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}

// weekdayHistogram always returns seven rows, Sunday through Saturday.
func weekdayHistogram(txs []core.Transaction) []WeekdayStat {
	totals := make([]decimal.Decimal, 7)
	counts := make([]int, 7)
	for i := range totals {
		totals[i] = decimal.Zero
	}

	for _, tx := range txs {
		if tx.Kind != core.Expense {
			continue
		}
		wd := int(tx.OccurredOn.Weekday())
		totals[wd] = totals[wd].Add(tx.PivotAmount)
		counts[wd]++
	}

	out := make([]WeekdayStat, 7)
	for i := range out {
		avg := decimal.Zero
		if counts[i] > 0 {
			avg = totals[i].DivRound(decimal.NewFromInt(int64(counts[i])), 4)
		}
		out[i] = WeekdayStat{
			Weekday: time.Weekday(i).String(),
			Total:   totals[i],
			Average: avg,
			Count:   counts[i],
		}
	}
	return out
}

func (e *Engine) summary(txs []core.Transaction, occs []core.Occurrence) Summary {
	totalIncome := decimal.Zero
	totalExpense := decimal.Zero
	days := map[string]struct{}{}
	dayExpense := map[string]decimal.Decimal{}

	for _, tx := range txs {
		token := core.FormatInputDate(tx.OccurredOn)
		days[token] = struct{}{}
		if tx.Kind == core.Income {
			totalIncome = totalIncome.Add(tx.PivotAmount)
			continue
		}
		totalExpense = totalExpense.Add(tx.PivotAmount)
		dayExpense[token] = dayExpense[token].Add(tx.PivotAmount)
	}
	for _, occ := range occs {
		token := core.FormatInputDate(occ.Date)
		totalExpense = totalExpense.Add(occ.PivotAmount)
		dayExpense[token] = dayExpense[token].Add(occ.PivotAmount)
	}

	divisor := decimal.NewFromInt(int64(max(len(days), 1)))

	topCategory := NoCategory
	if shares := categoryDistribution(txs, occs); len(shares) > 0 {
		topCategory = shares[0].Category
	}

	// Chronological scan with strict ">" so the first day wins ties.
	tokens := make([]string, 0, len(dayExpense))
	for token := range dayExpense {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	highestDay := ""
	highestAmount := decimal.Zero
	for _, token := range tokens {
		if dayExpense[token].GreaterThan(highestAmount) {
			highestAmount = dayExpense[token]
			highestDay = token
		}
	}

	return Summary{
		TotalIncome:          totalIncome,
		TotalExpense:         totalExpense,
		Balance:              totalIncome.Sub(totalExpense),
		AvgDailyIncome:       totalIncome.DivRound(divisor, 4),
		AvgDailyExpense:      totalExpense.DivRound(divisor, 4),
		TopCategory:          topCategory,
		HighestExpenseDay:    highestDay,
		HighestExpenseAmount: highestAmount,
	}
}
