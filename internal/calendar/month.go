// Package calendar builds the 7-column month grid the calendar view
// renders, attaching per-day transaction lists and recurring markers.
package calendar

import (
	"time"

	"fintrack/internal/core"
)

type (
	// Day is one grid cell.
	Day struct {
		Date           core.Date          `json:"date"`
		IsCurrentMonth bool               `json:"isCurrentMonth"`
		IsToday        bool               `json:"isToday"`
		Transactions   []core.Transaction `json:"transactions"`
		// HasRecurring marks cells whose day-of-month matches an
		// active definition. It is a presentation hint only: it does
		// not check creation dates or the cutoff.
		HasRecurring bool `json:"hasRecurring"`
	}

	// Month is a whole number of 7-day weeks covering one calendar
	// month, padded with trailing and leading days of the neighbours.
	Month struct {
		Year  int     `json:"year"`
		Month int     `json:"month"`
		Weeks [][]Day `json:"weeks"`
	}
)

// BuildMonth produces the grid for (year, month). Cell dates are
// contiguous and strictly increasing across the whole grid; every row
// has exactly seven cells. isToday is computed once against the given
// today, so a build is reproducible.
func BuildMonth(year, month int, txs []core.Transaction, defs []core.RecurringExpenseDefinition, today core.Date) Month {
	first := core.NewDate(year, month, 1)
	lastDay := core.DaysInMonth(year, month)

	recurringDays := map[int]bool{}
	for _, def := range defs {
		if def.IsActive {
			recurringDays[def.DayOfMonth] = true
		}
	}

	byDay := map[string][]core.Transaction{}
	for _, tx := range txs {
		token := core.FormatInputDate(tx.OccurredOn)
		byDay[token] = append(byDay[token], tx)
	}

	// Left-pad to the Sunday on or before the 1st.
	start := first
	for start.Weekday() != time.Sunday {
		start = core.DateOf(start.AddDate(0, 0, -1))
	}
	// Right-pad to the Saturday on or after the last day.
	end := core.NewDate(year, month, lastDay)
	for end.Weekday() != time.Saturday {
		end = core.DateOf(end.AddDate(0, 0, 1))
	}

	var weeks [][]Day
	var week []Day
	for d := start; !d.After(end.Time); d = core.DateOf(d.AddDate(0, 0, 1)) {
		cell := Day{
			Date:           d,
			IsCurrentMonth: d.Year() == year && d.Month() == month,
			IsToday:        core.IsSameDay(d, today),
			Transactions:   byDay[core.FormatInputDate(d)],
			HasRecurring:   recurringDays[d.Day()],
		}
		week = append(week, cell)
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = nil
		}
	}

	return Month{Year: year, Month: month, Weeks: weeks}
}
