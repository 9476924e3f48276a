// Package recurring expands recurring-expense definitions into concrete
// dated occurrences.
package recurring

import (
	"fintrack/internal/core"
)

// Project expands a definition into one occurrence per calendar month
// whose range intersects [start, min(end, cutoff)]. It is pure and
// idempotent: the same arguments always yield the identical list.
//
// A month is skipped entirely when the definition's day does not exist
// in it (no rollover to the next month), when the candidate date falls
// before the definition was created, or when it falls after the cutoff.
// Inactive definitions project to nothing.
func Project(def core.RecurringExpenseDefinition, start, end, cutoff core.Date) []core.Occurrence {
	if !def.IsActive {
		return nil
	}
	if cutoff.Before(end.Time) {
		end = cutoff
	}
	if end.Before(start.Time) {
		return nil
	}

	firstMonth := start.Year()*12 + start.Month() - 1
	lastMonth := end.Year()*12 + end.Month() - 1

	var out []core.Occurrence
	for m := firstMonth; m <= lastMonth; m++ {
		year, month := m/12, m%12+1
		if def.DayOfMonth > core.DaysInMonth(year, month) {
			continue
		}
		candidate := core.NewDate(year, month, def.DayOfMonth)
		if candidate.Before(start.Time) || candidate.After(end.Time) {
			continue
		}
		if candidate.Before(def.CreatedOn.Time) {
			continue
		}
		out = append(out, core.Occurrence{
			DefinitionID: def.ID,
			Date:         candidate,
			PivotAmount:  def.PivotAmount,
			Category:     def.Category,
		})
	}
	return out
}

// ProjectAll projects every definition into the same window and returns
// the occurrences in definition order, dates ascending within each.
func ProjectAll(defs []core.RecurringExpenseDefinition, start, end, cutoff core.Date) []core.Occurrence {
	var out []core.Occurrence
	for _, def := range defs {
		out = append(out, Project(def, start, end, cutoff)...)
	}
	return out
}
