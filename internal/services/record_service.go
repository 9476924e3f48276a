// Package services orchestrates entry recording: date acceptance,
// pivot-amount computation and persistence, plus integration messages.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/rates"
	"fintrack/internal/store"
)

var (
	// ErrFutureDate rejects entries dated after today.
	ErrFutureDate = errors.New("date cannot be in the future")
	// ErrDateTooOld rejects entries dated more than ten years back.
	ErrDateTooOld = errors.New("date is too far in the past")
)

// RateSource is the slice of the rate provider this service needs.
type RateSource interface {
	GetRates(ctx context.Context) rates.Set
}

// RecordService accepts new transactions and recurring definitions.
// The pivot equivalent of every amount is computed here, once, with the
// rates current at entry time; it is never recomputed afterwards.
type RecordService struct {
	txWriter   store.TransactionWriter
	defWriter  store.RecurringExpenseWriter
	rateSource RateSource
	amqpClient *amqp.Client
	today      func() core.Date
}

func NewRecordService(
	txWriter store.TransactionWriter,
	defWriter store.RecurringExpenseWriter,
	rateSource RateSource,
	amqpClient *amqp.Client,
	today func() core.Date,
) *RecordService {
	if today == nil {
		today = func() core.Date { return core.Today(nil) }
	}
	return &RecordService{
		txWriter:   txWriter,
		defWriter:  defWriter,
		rateSource: rateSource,
		amqpClient: amqpClient,
		today:      today,
	}
}

func (s *RecordService) acceptDate(d core.Date) error {
	today := s.today()
	if core.IsFuture(d, today) {
		return ErrFutureDate
	}
	if core.IsTooOld(d, today) {
		return ErrDateTooOld
	}
	return nil
}

// pivotFor converts amount into the pivot currency with the current
// rate set. A missing rate is a visible failure, not a silent identity:
// the entry is rejected so no record ever carries a wrong equivalent.
func (s *RecordService) pivotFor(ctx context.Context, amount decimal.Decimal, currency string) (decimal.Decimal, error) {
	set := s.rateSource.GetRates(ctx)
	pivot, err := rates.ToPivot(amount, currency, set)
	if err != nil {
		return decimal.Zero, fmt.Errorf("compute pivot amount: %w", err)
	}
	return pivot, nil
}

// RecordTransaction validates, prices and persists a transaction, then
// publishes a recorded message for downstream workers.
func (s *RecordService) RecordTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := s.acceptDate(tx.OccurredOn); err != nil {
		return "", err
	}

	pivot, err := s.pivotFor(ctx, tx.Amount, tx.Currency)
	if err != nil {
		return "", err
	}
	tx.PivotAmount = pivot

	id, err := s.txWriter.CreateTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishTransactionRecorded(ctx, id); err != nil {
			// The record is already saved; the worker catches up later.
			slog.ErrorContext(ctx, "Failed to publish recorded message", "id", id, "error", err)
		}
	}

	return id, nil
}

// RecordRecurringExpense validates, prices and persists a recurring
// definition. CreatedOn defaults to today when unset.
func (s *RecordService) RecordRecurringExpense(ctx context.Context, def core.RecurringExpenseDefinition) (string, error) {
	if def.CreatedOn.IsZero() {
		def.CreatedOn = s.today()
	}
	if err := s.acceptDate(def.CreatedOn); err != nil {
		return "", err
	}

	pivot, err := s.pivotFor(ctx, def.Amount, def.Currency)
	if err != nil {
		return "", err
	}
	def.PivotAmount = pivot

	id, err := s.defWriter.CreateRecurringExpense(ctx, def)
	if err != nil {
		return "", fmt.Errorf("save recurring expense: %w", err)
	}
	return id, nil
}
