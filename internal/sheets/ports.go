package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for the spreadsheet mirror of the transaction log.
type (
	// TransactionWriter replaces the mirrored log with txs.
	TransactionWriter interface {
		WriteTransactions(ctx context.Context, txs []core.Transaction) error
	}

	// TransactionLister reads the mirrored log back.
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	Mirror interface {
		TransactionWriter
		TransactionLister
	}
)
