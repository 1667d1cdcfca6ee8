package ledger

import (
	"slices"
	"time"

	"fintrack/internal/core"
)

// CategoryBreakdown totals the transactions of one type per category, in
// the order categories are first encountered in the log.
func CategoryBreakdown(txs []core.Transaction, typ core.TxType) []core.CategoryAmount {
	index := make(map[string]int)
	var out []core.CategoryAmount
	for _, tx := range txs {
		if tx.Type != typ {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, core.CategoryAmount{Name: tx.Category})
		}
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}
	return out
}

// TopCategories returns the k largest categories of one type, largest
// first. Ties keep first-encountered order.
func TopCategories(txs []core.Transaction, typ core.TxType, k int) []core.CategoryAmount {
	out := CategoryBreakdown(txs, typ)
	slices.SortStableFunc(out, func(a, b core.CategoryAmount) int {
		return b.Amount.Cmp(a.Amount)
	})
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// Shares annotates each amount with its percentage of total.
func Shares(amounts []core.CategoryAmount, total core.Money) []core.CategoryShare {
	out := make([]core.CategoryShare, len(amounts))
	for i, a := range amounts {
		out[i] = core.CategoryShare{CategoryAmount: a, Percentage: core.Percent(a.Amount, total)}
	}
	return out
}

// Recent returns the k most recently created transactions, newest first.
// Records without a creation timestamp fall back to their date.
func Recent(txs []core.Transaction, k int) []core.Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return createdAt(b).Compare(createdAt(a))
	})
	if k >= 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

func createdAt(tx core.Transaction) time.Time {
	if tx.Timestamp.IsZero() {
		return tx.Date.Time
	}
	return tx.Timestamp
}
