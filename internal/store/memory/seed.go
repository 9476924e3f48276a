package memory

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	transactionsSeedFile = "transactions.csv"
	recurringSeedFile    = "recurring.csv"
)

// NewFromDir builds a store preloaded from CSV seed files in dir.
// Either file may be absent; a missing directory is an error.
func NewFromDir(dir string) (*Store, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("seed directory: %w", err)
	}

	s := New()
	if err := loadSeedFile(filepath.Join(dir, transactionsSeedFile), s.loadTransactionsCSV); err != nil {
		return nil, err
	}
	if err := loadSeedFile(filepath.Join(dir, recurringSeedFile), s.loadRecurringCSV); err != nil {
		return nil, err
	}
	return s, nil
}

func loadSeedFile(path string, load func(io.Reader) error) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	if err := load(f); err != nil {
		return fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return nil
}

// loadTransactionsCSV reads rows of
// kind,amount,currency,pivot_amount,category,description,occurred_on.
// A header row is detected by its first column and skipped.
func (s *Store) loadTransactionsCSV(r io.Reader) error {
	rows, err := readSeedRows(r, 7, "kind")
	if err != nil {
		return err
	}

	for i, row := range rows {
		amount, err := decimal.NewFromString(row[1])
		if err != nil {
			return fmt.Errorf("row %d: amount %q: %w", i+1, row[1], err)
		}
		pivot, err := decimal.NewFromString(row[3])
		if err != nil {
			return fmt.Errorf("row %d: pivot amount %q: %w", i+1, row[3], err)
		}
		occurredOn, err := core.ParseInputDate(row[6])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}

		tx := core.Transaction{
			ID:          uuid.NewString(),
			Kind:        core.Kind(row[0]),
			Amount:      amount,
			Currency:    row[2],
			PivotAmount: pivot,
			Category:    row[4],
			Description: row[5],
			OccurredOn:  occurredOn,
		}
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		s.txs = append(s.txs, tx)
	}
	return nil
}

// loadRecurringCSV reads rows of
// name,amount,currency,pivot_amount,category,day_of_month,is_active,created_on.
func (s *Store) loadRecurringCSV(r io.Reader) error {
	rows, err := readSeedRows(r, 8, "name")
	if err != nil {
		return err
	}

	for i, row := range rows {
		amount, err := decimal.NewFromString(row[1])
		if err != nil {
			return fmt.Errorf("row %d: amount %q: %w", i+1, row[1], err)
		}
		pivot, err := decimal.NewFromString(row[3])
		if err != nil {
			return fmt.Errorf("row %d: pivot amount %q: %w", i+1, row[3], err)
		}
		day, err := strconv.Atoi(row[5])
		if err != nil {
			return fmt.Errorf("row %d: day of month %q: %w", i+1, row[5], err)
		}
		active, err := strconv.ParseBool(row[6])
		if err != nil {
			return fmt.Errorf("row %d: is_active %q: %w", i+1, row[6], err)
		}
		createdOn, err := core.ParseInputDate(row[7])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}

		def := core.RecurringExpenseDefinition{
			ID:          uuid.NewString(),
			Name:        row[0],
			Amount:      amount,
			Currency:    row[2],
			PivotAmount: pivot,
			Category:    row[4],
			DayOfMonth:  day,
			IsActive:    active,
			CreatedOn:   createdOn,
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		s.defs = append(s.defs, def)
	}
	return nil
}

func readSeedRows(r io.Reader, fields int, headerMarker string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = fields

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) > 0 && rows[0][0] == headerMarker {
		rows = rows[1:]
	}
	return rows, nil
}
