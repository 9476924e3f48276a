package rates

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// conversionPrecision bounds the division scale during cross-currency
// hops; amounts are rounded for display, never here.
const conversionPrecision = 12

// RateUnavailableError reports that a currency pair cannot be converted
// with the current rate set. It is a deliberate, visible failure:
// conversion never silently returns the input unchanged.
type RateUnavailableError struct {
	Currency string
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("no exchange rate available for %s", e.Currency)
}

// Convert translates amount from one currency to another through the
// pivot. Identity conversions need no rates at all; everything else
// uses the factors of the given set and fails with a
// *RateUnavailableError when a required factor is missing.
func Convert(amount decimal.Decimal, from, to string, set Set) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	pivot := amount
	if from != core.PivotCurrency {
		fromRate, ok := set.Lookup(from)
		if !ok || fromRate.IsZero() {
			return decimal.Zero, &RateUnavailableError{Currency: from}
		}
		pivot = amount.DivRound(fromRate, conversionPrecision)
	}

	if to == core.PivotCurrency {
		return pivot, nil
	}

	toRate, ok := set.Lookup(to)
	if !ok {
		return decimal.Zero, &RateUnavailableError{Currency: to}
	}
	return pivot.Mul(toRate), nil
}

// ToPivot is shorthand for converting into the pivot currency.
func ToPivot(amount decimal.Decimal, from string, set Set) (decimal.Decimal, error) {
	return Convert(amount, from, core.PivotCurrency, set)
}
