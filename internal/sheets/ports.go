// Package sheets defines the outbound port for spreadsheet export.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// TransactionAppender exports a recorded transaction as a spreadsheet row.
type TransactionAppender interface {
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}
