package ledger

import "fintrack/internal/core"

// BudgetStatus is the derived progress of a budget; it is never stored.
type BudgetStatus struct {
	Spent            core.Money `json:"spent"`
	Remaining        core.Money `json:"remaining"`
	Percentage       float64    `json:"percentage"`
	IsOverBudget     bool       `json:"isOverBudget"`
	IsNearLimit      bool       `json:"isNearLimit"`
	TransactionCount int        `json:"transactionCount"`
}

// GoalStatus is the derived progress of a goal on a given day.
type GoalStatus struct {
	Percentage  float64    `json:"percentage"`
	Remaining   core.Money `json:"remaining"`
	DaysLeft    int        `json:"daysLeft"`
	IsCompleted bool       `json:"isCompleted"`
	IsOverdue   bool       `json:"isOverdue"`
	DailyTarget core.Money `json:"dailyTarget"`
}

// BudgetProgress sums the expenses in the budget's category dated within
// [StartDate, EndDate]. Percentage is capped at 100 for display while the
// over-budget and near-limit flags use the uncapped value.
func BudgetProgress(b core.Budget, txs []core.Transaction) BudgetStatus {
	var st BudgetStatus
	for _, tx := range txs {
		if tx.Type != core.Expense || tx.Category != b.Category {
			continue
		}
		if !tx.Date.Between(b.StartDate, b.EndDate) {
			continue
		}
		st.Spent = st.Spent.Add(tx.Amount)
		st.TransactionCount++
	}
	st.Remaining = b.Amount.Sub(st.Spent)
	pct := core.Percent(st.Spent, b.Amount)
	st.Percentage = min(pct, 100)
	st.IsOverBudget = st.Spent.GreaterThan(b.Amount)
	st.IsNearLimit = pct >= b.AlertThreshold
	return st
}

// GoalProgress reports how far a goal is from its target as of today.
func GoalProgress(g core.Goal, today core.Date) GoalStatus {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	st := GoalStatus{
		Percentage:  min(core.Percent(g.CurrentAmount, g.TargetAmount), 100),
		Remaining:   remaining.Max(core.Zero),
		DaysLeft:    today.DaysUntil(g.TargetDate),
		IsCompleted: !g.CurrentAmount.LessThan(g.TargetAmount),
	}
	// Completion is never reset, so a goal once flagged completed stays
	// off the overdue list even if its amount is later edited down.
	st.IsOverdue = st.DaysLeft < 0 && !st.IsCompleted && !g.IsCompleted
	if remaining.IsPositive() && st.DaysLeft > 0 {
		st.DailyTarget = remaining.DivInt(int64(st.DaysLeft))
	}
	return st
}
