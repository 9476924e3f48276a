// Package worker exports recorded transactions to the configured
// spreadsheet as they are announced over AMQP.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/sheets"
	"fintrack/internal/store"
)

// ExportWorker consumes recorded-transaction messages and appends the
// full records to the export sheet.
type ExportWorker struct {
	store    store.TransactionGetter
	appender sheets.TransactionAppender
}

func NewExportWorker(st store.TransactionGetter, appender sheets.TransactionAppender) *ExportWorker {
	return &ExportWorker{
		store:    st,
		appender: appender,
	}
}

// HandleTransactionRecorded processes a single recorded message. A
// missing record is dropped rather than requeued: it was deleted before
// the worker caught up and will never appear.
func (w *ExportWorker) HandleTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	slog.InfoContext(ctx, "Processing recorded message", "id", msg.ID)

	tx, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, store.ErrNotFound) {
		slog.WarnContext(ctx, "Transaction no longer exists, skipping export", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.appender.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Successfully exported transaction",
		"id", tx.ID,
		"row_ref", ref,
		"category", tx.Category)

	return nil
}
