package store

import (
	"context"
	"slices"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func txID(tx core.Transaction) int64 { return tx.ID }

// Transaction looks up one transaction by ID.
func (t *Tracker) Transaction(id int64) (core.Transaction, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i := indexByID(t.transactions, id, txID)
	if i < 0 {
		return core.Transaction{}, false
	}
	return t.transactions[i], true
}

// AddTransaction validates tx, assigns its ID and creation timestamp and
// appends it to the log.
func (t *Tracker) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	err := t.mutate(ctx, log.OpCreate, func() ([]change, error) {
		if err := tx.Validate(); err != nil {
			return nil, err
		}
		tx.ID = t.nextID()
		tx.Timestamp = t.now()
		next := append(slices.Clip(t.transactions), tx)
		return []change{transactionsChange(t, next)}, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	t.log.InfoContext(ctx, "Transaction added",
		log.NewFields().WithTransaction(tx.ID, string(tx.Type), tx.Category, tx.Amount.String()).ToSlice()...)
	return tx, nil
}

// UpdateTransaction replaces the transaction with the given ID. The ID and
// creation timestamp of the stored record are kept.
func (t *Tracker) UpdateTransaction(ctx context.Context, id int64, tx core.Transaction) (core.Transaction, error) {
	err := t.mutate(ctx, log.OpUpdate, func() ([]change, error) {
		i := indexByID(t.transactions, id, txID)
		if i < 0 {
			return nil, notFound("transaction", id)
		}
		if err := tx.Validate(); err != nil {
			return nil, err
		}
		tx.ID = id
		tx.Timestamp = t.transactions[i].Timestamp
		next := slices.Clone(t.transactions)
		next[i] = tx
		return []change{transactionsChange(t, next)}, nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	t.log.InfoContext(ctx, "Transaction updated", log.FieldID, id)
	return tx, nil
}

func (t *Tracker) DeleteTransaction(ctx context.Context, id int64) error {
	err := t.mutate(ctx, log.OpDelete, func() ([]change, error) {
		i := indexByID(t.transactions, id, txID)
		if i < 0 {
			return nil, notFound("transaction", id)
		}
		next := slices.Delete(slices.Clone(t.transactions), i, i+1)
		return []change{transactionsChange(t, next)}, nil
	})
	if err == nil {
		t.log.InfoContext(ctx, "Transaction deleted", log.FieldID, id)
	}
	return err
}

// DeleteTransactions removes every transaction whose ID is listed and
// reports how many were removed. Unknown IDs are ignored.
func (t *Tracker) DeleteTransactions(ctx context.Context, ids []int64) (int, error) {
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	removed := 0
	err := t.mutate(ctx, log.OpBulkDelete, func() ([]change, error) {
		next := make([]core.Transaction, 0, len(t.transactions))
		for _, tx := range t.transactions {
			if _, ok := drop[tx.ID]; ok {
				continue
			}
			next = append(next, tx)
		}
		removed = len(t.transactions) - len(next)
		if removed == 0 {
			return nil, nil
		}
		return []change{transactionsChange(t, next)}, nil
	})
	if err != nil {
		return 0, err
	}
	t.log.InfoContext(ctx, "Transactions deleted", log.FieldCount, removed, log.FieldOperation, log.OpBulkDelete)
	return removed, nil
}

// ClearTransactions empties the transaction log.
func (t *Tracker) ClearTransactions(ctx context.Context) error {
	return t.mutate(ctx, log.OpClear, func() ([]change, error) {
		return []change{transactionsChange(t, nil)}, nil
	})
}
