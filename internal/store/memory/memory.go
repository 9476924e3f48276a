// Package memory is the in-memory store adapter, used as the default
// backend and by tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu   sync.Mutex
	txs  []core.Transaction
	defs []core.RecurringExpenseDefinition
}

func New() *Store {
	return &Store{}
}

// Seed preloads records, bypassing ID assignment. Test helper.
func Seed(txs []core.Transaction, defs []core.RecurringExpenseDefinition) *Store {
	return &Store{txs: txs, defs: defs}
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, tx)
	return tx.ID, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out, nil
}

func (s *Store) CreateRecurringExpense(_ context.Context, def core.RecurringExpenseDefinition) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs = append(s.defs, def)
	return def.ID, nil
}

func (s *Store) ListRecurringExpenses(_ context.Context) ([]core.RecurringExpenseDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RecurringExpenseDefinition, len(s.defs))
	copy(out, s.defs)
	return out, nil
}
