// Package ledger turns the flat transaction log into balances, trends,
// category breakdowns and budget/goal progress.
//
// Every function is pure: it reads its arguments, never mutates them, and
// takes "today" explicitly so results are deterministic in tests.
package ledger

import (
	"time"

	"fintrack/internal/core"
)

// Totals sums a set of transactions by type.
type Totals struct {
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
	Balance  core.Money `json:"balance"`
	Count    int        `json:"count"`
}

// Sum computes income, expense and balance over all given transactions.
func Sum(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		t.add(tx)
	}
	t.Balance = t.Income.Sub(t.Expenses)
	return t
}

func (t *Totals) add(tx core.Transaction) {
	switch tx.Type {
	case core.Income:
		t.Income = t.Income.Add(tx.Amount)
	case core.Expense:
		t.Expenses = t.Expenses.Add(tx.Amount)
	}
	t.Count++
}

// MonthlyTotals sums the transactions dated in the given calendar month.
func MonthlyTotals(txs []core.Transaction, year int, month time.Month) Totals {
	var t Totals
	for _, tx := range txs {
		if tx.Date.Year() == year && tx.Date.Month() == month {
			t.add(tx)
		}
	}
	t.Balance = t.Income.Sub(t.Expenses)
	return t
}

// CurrentMonth sums the transactions dated in today's month.
func CurrentMonth(txs []core.Transaction, today core.Date) Totals {
	return MonthlyTotals(txs, today.Year(), today.Month())
}

// BalanceChangePercent compares this month's balance with the previous
// month's. It returns 0 when the previous balance is exactly zero.
func BalanceChangePercent(txs []core.Transaction, today core.Date) float64 {
	prevMonth := today.AddMonths(-1)
	curr := CurrentMonth(txs, today).Balance
	prev := MonthlyTotals(txs, prevMonth.Year(), prevMonth.Month()).Balance
	if prev.IsZero() {
		return 0
	}
	return core.Percent(curr.Sub(prev), prev.Abs())
}

// SavingsRate is the balance as a percentage of income, 0 without income.
func SavingsRate(t Totals) float64 {
	if !t.Income.IsPositive() {
		return 0
	}
	return core.Percent(t.Balance, t.Income)
}

// AverageDailySpending spreads this month's expenses over the days elapsed
// so far, today included.
func AverageDailySpending(txs []core.Transaction, today core.Date) core.Money {
	month := CurrentMonth(txs, today)
	if month.Count == 0 {
		return core.Zero
	}
	return month.Expenses.DivInt(int64(today.Day()))
}
