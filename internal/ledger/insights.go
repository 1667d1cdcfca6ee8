package ledger

import (
	"fmt"
	"iter"

	"fintrack/internal/core"
)

const (
	InsightWarning InsightKind = "warning"
	InsightSuccess InsightKind = "success"
	InsightInfo    InsightKind = "info"
)

type InsightKind string

// Insight is a short advisory message about the user's finances.
type Insight struct {
	Kind    InsightKind `json:"type"`
	Icon    string      `json:"icon"`
	Message string      `json:"message"`
}

// Insights yields, in fixed order, an overspending warning for this month,
// a savings commendation or nudge, and the top expense category callout.
// The sequence is finite and may be ranged over more than once.
func Insights(txs []core.Transaction, today core.Date) iter.Seq[Insight] {
	return func(yield func(Insight) bool) {
		overall := Sum(txs)
		month := CurrentMonth(txs, today)

		if month.Expenses.GreaterThan(month.Income) {
			if !yield(Insight{
				Kind:    InsightWarning,
				Icon:    "exclamation-triangle",
				Message: "You're spending more than you earn this month. Consider reviewing your expenses.",
			}) {
				return
			}
		}

		rate := SavingsRate(overall)
		switch {
		case rate > 20:
			if !yield(Insight{
				Kind:    InsightSuccess,
				Icon:    "piggy-bank",
				Message: fmt.Sprintf("Great job! You're saving %.1f%% of your income.", rate),
			}) {
				return
			}
		case rate < 10 && overall.Income.IsPositive():
			if !yield(Insight{
				Kind:    InsightInfo,
				Icon:    "chart-line",
				Message: "Try to save at least 10-20% of your income for better financial health.",
			}) {
				return
			}
		}

		top := TopCategories(txs, core.Expense, 1)
		if len(top) == 0 {
			return
		}
		share := core.Percent(top[0].Amount, overall.Expenses)
		yield(Insight{
			Kind:    InsightInfo,
			Icon:    "chart-pie",
			Message: fmt.Sprintf("%s is your biggest expense category, accounting for %.1f%% of your spending.", top[0].Name, share),
		})
	}
}
