// Package storage is the SQLite persistence adapter. Pivot amounts are
// stored as decimal strings exactly as computed at entry time; nothing
// here ever rewrites them.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction implements store.TransactionWriter.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, kind, amount, currency, pivot_amount, category, description, occurred_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, string(tx.Kind), tx.Amount.String(), tx.Currency,
		tx.PivotAmount.String(), tx.Category, tx.Description,
		core.FormatInputDate(tx.OccurredOn))
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"kind", tx.Kind,
		"currency", tx.Currency,
		"category", tx.Category,
		"occurred_on", core.FormatInputDate(tx.OccurredOn))

	return tx.ID, nil
}

// GetTransaction implements store.TransactionGetter.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, amount, currency, pivot_amount, category, description, occurred_on
		FROM transactions
		WHERE id = ?`, id)

	var (
		tx                          core.Transaction
		kind, amount, pivot, dayTok string
	)
	err := row.Scan(&tx.ID, &kind, &amount, &tx.Currency, &pivot, &tx.Category, &tx.Description, &dayTok)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Kind = core.Kind(kind)
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount for %s: %w", tx.ID, err)
	}
	if tx.PivotAmount, err = decimal.NewFromString(pivot); err != nil {
		return core.Transaction{}, fmt.Errorf("parse pivot amount for %s: %w", tx.ID, err)
	}
	if tx.OccurredOn, err = core.ParseInputDate(dayTok); err != nil {
		return core.Transaction{}, fmt.Errorf("parse date for %s: %w", tx.ID, err)
	}
	return tx, nil
}

// ListTransactions implements store.TransactionLister.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, amount, currency, pivot_amount, category, description, occurred_on
		FROM transactions
		ORDER BY occurred_on, created_at`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx                          core.Transaction
			kind, amount, pivot, dayTok string
		)
		if err := rows.Scan(&tx.ID, &kind, &amount, &tx.Currency, &pivot, &tx.Category, &tx.Description, &dayTok); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Kind = core.Kind(kind)
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount for %s: %w", tx.ID, err)
		}
		if tx.PivotAmount, err = decimal.NewFromString(pivot); err != nil {
			return nil, fmt.Errorf("parse pivot amount for %s: %w", tx.ID, err)
		}
		if tx.OccurredOn, err = core.ParseInputDate(dayTok); err != nil {
			return nil, fmt.Errorf("parse date for %s: %w", tx.ID, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// CreateRecurringExpense implements store.RecurringExpenseWriter.
func (r *SQLiteRepository) CreateRecurringExpense(ctx context.Context, def core.RecurringExpenseDefinition) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}
	if def.ID == "" {
		def.ID = uuid.NewString()
	}

	active := 0
	if def.IsActive {
		active = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_expenses (id, name, amount, currency, pivot_amount, category, day_of_month, is_active, created_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.ID, def.Name, def.Amount.String(), def.Currency,
		def.PivotAmount.String(), def.Category, def.DayOfMonth, active,
		core.FormatInputDate(def.CreatedOn))
	if err != nil {
		return "", fmt.Errorf("insert recurring expense: %w", err)
	}

	slog.InfoContext(ctx, "Recurring expense saved to SQLite",
		"id", def.ID,
		"name", def.Name,
		"day_of_month", def.DayOfMonth)

	return def.ID, nil
}

// ListRecurringExpenses implements store.RecurringExpenseLister.
func (r *SQLiteRepository) ListRecurringExpenses(ctx context.Context) ([]core.RecurringExpenseDefinition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount, currency, pivot_amount, category, day_of_month, is_active, created_on
		FROM recurring_expenses
		ORDER BY created_on, created_at`)
	if err != nil {
		return nil, fmt.Errorf("query recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringExpenseDefinition
	for rows.Next() {
		var (
			def                   core.RecurringExpenseDefinition
			amount, pivot, dayTok string
			active                int
		)
		if err := rows.Scan(&def.ID, &def.Name, &amount, &def.Currency, &pivot, &def.Category, &def.DayOfMonth, &active, &dayTok); err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		def.IsActive = active != 0
		if def.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount for %s: %w", def.ID, err)
		}
		if def.PivotAmount, err = decimal.NewFromString(pivot); err != nil {
			return nil, fmt.Errorf("parse pivot amount for %s: %w", def.ID, err)
		}
		if def.CreatedOn, err = core.ParseInputDate(dayTok); err != nil {
			return nil, fmt.Errorf("parse created date for %s: %w", def.ID, err)
		}
		out = append(out, def)
	}
	return out, rows.Err()
}
