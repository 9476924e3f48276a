package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind distinguishes income from expense entries.
	Kind string

	// Transaction is a single recorded entry. It is created by the
	// persistence layer and consumed read-only by the aggregation
	// engine; PivotAmount is fixed at creation time.
	Transaction struct {
		ID          string          `json:"id"`
		Kind        Kind            `json:"kind"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		PivotAmount decimal.Decimal `json:"pivotAmount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		OccurredOn  Date            `json:"occurredOn"`
	}

	// RecurringExpenseDefinition is a rule, not an event. The engine
	// never mutates it; it only derives ephemeral Occurrences from it.
	RecurringExpenseDefinition struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		PivotAmount decimal.Decimal `json:"pivotAmount"`
		Category    string          `json:"category"`
		DayOfMonth  int             `json:"dayOfMonth"` // 1..31
		IsActive    bool            `json:"isActive"`
		CreatedOn   Date            `json:"createdOn"`
	}

	// Occurrence is a concrete dated event projected from a recurring
	// definition. Occurrences are derived on demand and never stored.
	Occurrence struct {
		DefinitionID string
		Date         Date
		PivotAmount  decimal.Decimal
		Category     string
	}
)

var (
	ErrInvalidKind       = errors.New("invalid transaction kind")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidCurrency   = errors.New("invalid currency code")
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 31")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyName         = errors.New("empty name")
)

// IsValid reports whether k is a known transaction kind.
func (k Kind) IsValid() bool {
	return k == Income || k == Expense
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (t Transaction) Validate() error {
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if err := t.OccurredOn.Validate(); err != nil {
		return err
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !validCurrency(t.Currency) {
		return ErrInvalidCurrency
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (d RecurringExpenseDefinition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !validCurrency(d.Currency) {
		return ErrInvalidCurrency
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrEmptyCategory
	}
	if d.DayOfMonth < 1 || d.DayOfMonth > 31 {
		return ErrInvalidDayOfMonth
	}
	return d.CreatedOn.Validate()
}
