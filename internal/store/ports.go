// Package store defines the persistence ports the engine consumes.
// Transactions and recurring definitions arrive as already-materialized
// read-only snapshots; conflict resolution belongs to the adapters.
package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// ErrNotFound reports a lookup for an ID no adapter knows.
var ErrNotFound = errors.New("record not found")

type (
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	TransactionGetter interface {
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	TransactionWriter interface {
		// CreateTransaction persists tx and returns its assigned ID.
		CreateTransaction(ctx context.Context, tx core.Transaction) (string, error)
	}

	RecurringExpenseLister interface {
		ListRecurringExpenses(ctx context.Context) ([]core.RecurringExpenseDefinition, error)
	}

	RecurringExpenseWriter interface {
		CreateRecurringExpense(ctx context.Context, def core.RecurringExpenseDefinition) (string, error)
	}
)
