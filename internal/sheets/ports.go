package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionWriter mirrors a transaction to an external sheet.
	TransactionWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionDeleter removes a previously mirrored transaction.
	TransactionDeleter interface {
		Delete(ctx context.Context, id int64) error
	}
)
