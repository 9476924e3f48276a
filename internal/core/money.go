// Package core holds the domain model of the tracker: calendar dates,
// currency-tagged amounts and the transaction / recurring-expense types
// every other package computes over.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// PivotCurrency is the single reference currency. Every stored amount
// carries an equivalent in it, computed once when the value enters the
// system and never recomputed when rates change.
const PivotCurrency = "KRW"

// zeroDecimalCurrencies render without fractional digits.
var zeroDecimalCurrencies = map[string]struct{}{
	"KRW": {},
	"JPY": {},
	"VND": {},
}

// IsZeroDecimal reports whether the currency renders in whole units.
func IsZeroDecimal(currency string) bool {
	_, ok := zeroDecimalCurrencies[currency]
	return ok
}

// FormatAmount renders an amount for display. Zero-decimal currencies
// round half-up to whole units, every other currency keeps exactly two
// decimal places. The integer part is grouped with thousands separators.
//
// Examples:
//
//	FormatAmount(decimal.NewFromInt(1234567), "KRW") -> "1,234,567"
//	FormatAmount(decimal.NewFromFloat(1234.5), "USD") -> "1,234.50"
func FormatAmount(amount decimal.Decimal, currency string) string {
	places := int32(2)
	if IsZeroDecimal(currency) {
		places = 0
	}
	s := amount.StringFixed(places)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(s, ".")
	out := groupThousands(intPart)
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(n + n/3)
	lead := n % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ParseAmount converts a decimal string into a positive amount. Commas
// are read as thousands separators when every group has exactly three
// digits ("1,234", "1,234,567.89") and as a decimal separator otherwise
// ("12,5"). Malformed grouping and anything non-numeric, negative or
// zero is rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	s, ok := normalizeSeparators(s)
	if !ok {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// normalizeSeparators rewrites comma usage into plain decimal notation.
func normalizeSeparators(s string) (string, bool) {
	if !strings.Contains(s, ",") {
		return s, true
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac {
		// With a dot present, commas can only be grouping in the
		// integer part.
		if strings.ContainsAny(frac, ",.") {
			return "", false
		}
		joined, ok := stripGrouping(intPart)
		if !ok {
			return "", false
		}
		return joined + "." + frac, true
	}

	// A single comma whose tail is not a 3-digit group is a decimal
	// separator, "12,5" style.
	chunks := strings.Split(s, ",")
	if len(chunks) == 2 && len(chunks[1]) != 3 {
		if chunks[0] == "" || chunks[1] == "" {
			return "", false
		}
		return chunks[0] + "." + chunks[1], true
	}

	return stripGrouping(s)
}

// stripGrouping removes thousands-separator commas, requiring a leading
// group of one to three digits and exactly three digits per group after.
func stripGrouping(s string) (string, bool) {
	chunks := strings.Split(s, ",")
	if len(chunks) == 1 {
		return s, true
	}
	if len(chunks[0]) == 0 || len(chunks[0]) > 3 {
		return "", false
	}
	for _, chunk := range chunks[1:] {
		if len(chunk) != 3 {
			return "", false
		}
	}
	return strings.Join(chunks, ""), true
}
