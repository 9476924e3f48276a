// Package rates acquires and caches currency exchange rates and performs
// pivot-based conversion between supported currencies.
package rates

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	// TierFreshCache means the cached set was younger than the TTL.
	TierFreshCache Tier = "fresh-cache"
	// TierNetwork means a fetch succeeded and replaced the cache.
	TierNetwork Tier = "network"
	// TierStaleCache means the fetch failed and an expired cache was served.
	TierStaleCache Tier = "stale-cache"
	// TierDefault means no cache ever existed and the hardcoded table was served.
	TierDefault Tier = "default"
)

type (
	// Tier identifies which fallback level served a GetRates call.
	Tier string

	// Set is one exchange-rate snapshot. Each factor means "1 unit of
	// the pivot currency equals factor units of that currency"; the
	// pivot itself maps to 1. The map may be partially populated.
	Set struct {
		AsOf  time.Time
		Rates map[string]decimal.Decimal
	}
)

// Degraded reports whether the tier indicates the user should be warned
// that saved or built-in rates are in use.
func (t Tier) Degraded() bool {
	return t == TierStaleCache || t == TierDefault
}

// Lookup returns the factor for a currency code.
func (s Set) Lookup(currency string) (decimal.Decimal, bool) {
	if currency == core.PivotCurrency {
		return decimal.NewFromInt(1), true
	}
	r, ok := s.Rates[currency]
	return r, ok
}

// DefaultRates returns the hardcoded fallback table. It is the tier of
// last resort: building it has no side effects and cannot fail.
func DefaultRates() Set {
	return Set{
		// Zero AsOf marks the set as never fetched.
		Rates: map[string]decimal.Decimal{
			core.PivotCurrency: decimal.NewFromInt(1),
			"USD":              decimal.RequireFromString("0.00072"),
			"EUR":              decimal.RequireFromString("0.00066"),
			"JPY":              decimal.RequireFromString("0.1095"),
			"GBP":              decimal.RequireFromString("0.00057"),
			"CNY":              decimal.RequireFromString("0.0052"),
			"AUD":              decimal.RequireFromString("0.0011"),
			"CAD":              decimal.RequireFromString("0.00099"),
			"CHF":              decimal.RequireFromString("0.00058"),
			"HKD":              decimal.RequireFromString("0.0056"),
			"SGD":              decimal.RequireFromString("0.00093"),
			"THB":              decimal.RequireFromString("0.0235"),
			"TWD":              decimal.RequireFromString("0.0215"),
			"VND":              decimal.RequireFromString("18.2"),
			"PHP":              decimal.RequireFromString("0.0405"),
			"INR":              decimal.RequireFromString("0.0625"),
		},
	}
}
