// Package period maps named or explicit period specifications onto
// concrete inclusive calendar windows.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

const (
	// All spans every recorded transaction up to today.
	All Kind = "all"
	// Rolling spans the last N calendar months ending today.
	Rolling Kind = "rolling"
	// Month spans one explicit calendar month.
	Month Kind = "month"
)

// ErrInvalidSpec reports an unparseable period token.
var ErrInvalidSpec = errors.New("invalid period spec")

type (
	// Kind names the family of a period spec.
	Kind string

	// Spec is a parsed period selector.
	Spec struct {
		Kind   Kind
		Months int // Rolling only
		Year   int // Month only
		Month  int // Month only
	}

	// Window is an inclusive calendar-date range. Unbounded marks an
	// open start; End is always concrete.
	Window struct {
		Start     core.Date
		End       core.Date
		Unbounded bool
	}
)

// AllSpec selects the unbounded period.
func AllSpec() Spec { return Spec{Kind: All} }

// RollingSpec selects the last n calendar months.
func RollingSpec(n int) Spec { return Spec{Kind: Rolling, Months: n} }

// MonthSpec selects one explicit calendar month.
func MonthSpec(year, month int) Spec { return Spec{Kind: Month, Year: year, Month: month} }

// ParseSpec parses a period token: "all", a rolling window ("1m", "3m",
// "6m", "1y") or an explicit month ("2025-01").
func ParseSpec(s string) (Spec, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "", "all":
		return AllSpec(), nil
	case "1m":
		return RollingSpec(1), nil
	case "3m":
		return RollingSpec(3), nil
	case "6m":
		return RollingSpec(6), nil
	case "1y":
		return RollingSpec(12), nil
	}

	year, month, ok := strings.Cut(s, "-")
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidSpec, s)
	}
	y, err := strconv.Atoi(year)
	if err != nil || len(year) != 4 {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidSpec, s)
	}
	m, err := strconv.Atoi(month)
	if err != nil || len(month) != 2 || m < 1 || m > 12 {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidSpec, s)
	}
	return MonthSpec(y, m), nil
}

// String renders the canonical period token, usable as a cache key.
func (s Spec) String() string {
	switch s.Kind {
	case Rolling:
		if s.Months == 12 {
			return "1y"
		}
		return fmt.Sprintf("%dm", s.Months)
	case Month:
		return fmt.Sprintf("%04d-%02d", s.Year, s.Month)
	default:
		return string(All)
	}
}

// Resolve turns a spec into a concrete window, deterministically for a
// given today. Rolling windows subtract calendar months with day
// clamping, so one month back from March 31 is February 28.
func Resolve(spec Spec, today core.Date) Window {
	switch spec.Kind {
	case Rolling:
		return Window{Start: core.AddMonths(today, -spec.Months), End: today}
	case Month:
		return Window{
			Start: core.NewDate(spec.Year, spec.Month, 1),
			End:   core.NewDate(spec.Year, spec.Month, core.DaysInMonth(spec.Year, spec.Month)),
		}
	default:
		return Window{End: today, Unbounded: true}
	}
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d core.Date) bool {
	if d.After(w.End.Time) {
		return false
	}
	if w.Unbounded {
		return true
	}
	return !d.Before(w.Start.Time)
}

// Bound closes an unbounded window at the earliest of the given dates.
// Consumers that need a concrete start (the occurrence projector) call
// this with the transaction and definition dates in scope.
func (w Window) Bound(dates ...core.Date) Window {
	if !w.Unbounded {
		return w
	}
	out := Window{Start: w.End, End: w.End}
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if d.Before(out.Start.Time) {
			out.Start = d
		}
	}
	return out
}
