package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1234567", "KRW", "1,234,567"},
		{"50000", "KRW", "50,000"},
		{"999", "KRW", "999"},
		{"1234567.4", "KRW", "1,234,567"}, // rounds to whole units
		{"1234567.5", "KRW", "1,234,568"},
		{"1234.5", "USD", "1,234.50"},
		{"0.1", "EUR", "0.10"},
		{"1234567.891", "USD", "1,234,567.89"},
		{"-50000", "KRW", "-50,000"},
		{"-1234.5", "USD", "-1,234.50"},
		{"0", "KRW", "0"},
		{"0", "USD", "0.00"},
	}
	for _, tc := range cases {
		amount, err := decimal.NewFromString(tc.amount)
		if err != nil {
			t.Fatalf("bad test amount %q: %v", tc.amount, err)
		}
		if got := FormatAmount(amount, tc.currency); got != tc.want {
			t.Fatalf("FormatAmount(%s, %s) = %q, want %q", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{"12,5", "12.5", true},
		{" 2.50 ", "2.5", true},
		{"50000", "50000", true},
		{"1,234", "1234", true},
		{"1,234,567", "1234567", true},
		{"1,234.50", "1234.5", true},
		{"0", "", false},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1,2,3", "", false},
		{"1,234,56", "", false},
		{"1234,567", "", false},
		{",5", "", false},
		{"1.2,3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q unexpected error: %v", tc.in, err)
			}
			want, _ := decimal.NewFromString(tc.out)
			if !got.Equal(want) {
				t.Fatalf("%q expected %s, got %s", tc.in, want, got)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestIsZeroDecimal(t *testing.T) {
	if !IsZeroDecimal("KRW") || !IsZeroDecimal("JPY") {
		t.Fatal("KRW and JPY are zero-decimal currencies")
	}
	if IsZeroDecimal("USD") || IsZeroDecimal("EUR") {
		t.Fatal("USD and EUR are fractional currencies")
	}
}
