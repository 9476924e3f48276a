package core

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTimezone is the calendar the tracker reasons in. Every "is it
// today / future / too old" decision is taken on calendar days in this
// zone rather than on instants, so results do not shift near midnight.
const DefaultTimezone = "Asia/Seoul"

// inputDateLayout is the only accepted wire format for calendar dates.
const inputDateLayout = "2006-01-02"

// maxEntryAgeYears bounds how far in the past an entry date may lie.
const maxEntryAgeYears = 10

// ErrInvalidDateToken reports a malformed YYYY-MM-DD token.
var ErrInvalidDateToken = errors.New("invalid date token")

type (
	// Date is a calendar date with the time of day stripped. Internally
	// it is stored as midnight UTC so component comparisons are cheap.
	Date struct {
		time.Time
	}
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf strips the time of day from t, reading the calendar components
// in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Today returns the current calendar date in loc. A nil loc falls back
// to the configured default timezone.
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = MustLoadTimezone(DefaultTimezone)
	}
	return DateOf(time.Now().In(loc))
}

// MustLoadTimezone loads a timezone by name, falling back to UTC when
// the zone database does not know it.
func MustLoadTimezone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

// IsSameDay compares year, month and day components only.
func IsSameDay(a, b Date) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// IsFuture reports whether d lies strictly after today.
func IsFuture(d, today Date) bool {
	return d.After(today.Time)
}

// IsTooOld reports whether d lies more than ten years before today.
func IsTooOld(d, today Date) bool {
	limit := AddMonths(today, -12*maxEntryAgeYears)
	return d.Before(limit.Time)
}

// ParseInputDate parses a strict YYYY-MM-DD token. Anything that does
// not round-trip byte for byte (wrong separator, missing zero padding,
// extra components) is rejected with ErrInvalidDateToken.
func ParseInputDate(s string) (Date, error) {
	t, err := time.Parse(inputDateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateToken, s)
	}
	d := DateOf(t)
	if FormatInputDate(d) != s {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateToken, s)
	}
	return d, nil
}

// FormatInputDate renders d as YYYY-MM-DD.
func FormatInputDate(d Date) string {
	return d.Format(inputDateLayout)
}

// MarshalJSON renders the date as a YYYY-MM-DD token.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + FormatInputDate(d) + `"`), nil
}

// UnmarshalJSON accepts the same strict token ParseInputDate does.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: %s", ErrInvalidDateToken, s)
	}
	parsed, err := ParseInputDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate rejects the zero date.
func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// DaysInMonth returns the number of days in the given calendar month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths shifts d by n calendar months, clamping the day to the last
// valid day of the target month. March 31 minus one month is February 28
// (or 29), never an overflow into March.
func AddMonths(d Date, n int) Date {
	monthIndex := d.Year()*12 + d.Month() - 1 + n
	year := monthIndex / 12
	month := monthIndex % 12
	if month < 0 {
		month += 12
		year--
	}
	month++
	day := d.Day()
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}
