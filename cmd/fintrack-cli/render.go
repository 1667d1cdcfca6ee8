package main

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/query"
	"fintrack/internal/report"
)

// cell escapes text for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func transactionsMarkdown(p query.Page, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Transactions\n\nPage %d of %d, %d matching.\n\n", p.Page, p.TotalPages, p.TotalItems)
	if len(p.Items) == 0 {
		b.WriteString("_No transactions found._\n")
		return b.String()
	}
	writeTransactionTable(&b, p.Items, currency)
	return b.String()
}

func writeTransactionTable(b *strings.Builder, txs []core.Transaction, currency string) {
	b.WriteString("| ID | Date | Description | Category | Amount |\n")
	b.WriteString("|---:|---|---|---|---:|\n")
	for _, tx := range txs {
		amount := tx.Amount.Format(currency)
		if tx.IsExpense() {
			amount = "-" + amount
		}
		fmt.Fprintf(b, "| %d | %s | %s | %s | %s |\n",
			tx.ID, tx.Date, cell(tx.Description), cell(tx.Category), amount)
	}
}

func summaryMarkdown(d report.Dashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Summary for %s\n\n", d.Today)

	b.WriteString("| | Income | Expenses | Balance | Transactions |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| All time | %s | %s | %s | %d |\n",
		d.Totals.Income.Format(d.Currency), d.Totals.Expenses.Format(d.Currency),
		d.Totals.Balance.Format(d.Currency), d.Totals.Count)
	fmt.Fprintf(&b, "| This month | %s | %s | %s | %d |\n\n",
		d.Month.Income.Format(d.Currency), d.Month.Expenses.Format(d.Currency),
		d.Month.Balance.Format(d.Currency), d.Month.Count)

	fmt.Fprintf(&b, "Savings rate **%.1f%%**, balance change **%+.1f%%**, average daily spending **%s**.\n\n",
		d.SavingsRate, d.BalanceChange, d.AverageDailySpending.Format(d.Currency))

	if len(d.TopCategories) > 0 {
		b.WriteString("## Top expense categories\n\n")
		for _, c := range d.TopCategories {
			fmt.Fprintf(&b, "- %s: %s (%.1f%%)\n", c.Name, c.Amount.Format(d.Currency), c.Percentage)
		}
		b.WriteString("\n")
	}

	if len(d.Recent) > 0 {
		b.WriteString("## Recent transactions\n\n")
		writeTransactionTable(&b, d.Recent, d.Currency)
		b.WriteString("\n")
	}

	if len(d.Budgets) > 0 {
		b.WriteString("## Budgets\n\n")
		writeBudgetTable(&b, d.Budgets, d.Currency)
		b.WriteString("\n")
	}

	if len(d.Goals) > 0 {
		b.WriteString("## Goals\n\n")
		writeGoalTable(&b, d.Goals, d.Currency)
		b.WriteString("\n")
	}

	if len(d.Insights) > 0 {
		b.WriteString("## Insights\n\n")
		for _, in := range d.Insights {
			fmt.Fprintf(&b, "- %s %s\n", in.Icon, in.Message)
		}
	}
	return b.String()
}

func budgetsMarkdown(views []report.BudgetView, currency string) string {
	var b strings.Builder
	b.WriteString("# Budgets\n\n")
	if len(views) == 0 {
		b.WriteString("_No budgets yet._\n")
		return b.String()
	}
	writeBudgetTable(&b, views, currency)
	return b.String()
}

func writeBudgetTable(b *strings.Builder, views []report.BudgetView, currency string) {
	b.WriteString("| ID | Name | Category | Spent | Limit | Used | Status |\n")
	b.WriteString("|---:|---|---|---:|---:|---:|---|\n")
	for _, v := range views {
		fmt.Fprintf(b, "| %d | %s | %s | %s | %s | %.0f%% | %s |\n",
			v.ID, cell(v.Name), cell(v.Category),
			v.Progress.Spent.Format(currency), v.Amount.Format(currency),
			v.Progress.Percentage, budgetStatus(v))
	}
}

func budgetStatus(v report.BudgetView) string {
	switch {
	case !v.IsActive:
		return "inactive"
	case v.Progress.IsOverBudget:
		return "over budget"
	case v.Progress.IsNearLimit:
		return "near limit"
	default:
		return "on track"
	}
}

func goalsMarkdown(views []report.GoalView, currency string) string {
	var b strings.Builder
	b.WriteString("# Goals\n\n")
	if len(views) == 0 {
		b.WriteString("_No goals yet._\n")
		return b.String()
	}
	writeGoalTable(&b, views, currency)
	return b.String()
}

func writeGoalTable(b *strings.Builder, views []report.GoalView, currency string) {
	b.WriteString("| ID | Name | Saved | Target | Progress | Due | Status |\n")
	b.WriteString("|---:|---|---:|---:|---:|---|---|\n")
	for _, v := range views {
		fmt.Fprintf(b, "| %d | %s | %s | %s | %.0f%% | %s | %s |\n",
			v.ID, cell(v.Name),
			v.CurrentAmount.Format(currency), v.TargetAmount.Format(currency),
			v.Progress.Percentage, v.TargetDate, goalStatus(v, currency))
	}
}

func goalStatus(v report.GoalView, currency string) string {
	switch {
	case v.Progress.IsCompleted:
		return "completed"
	case v.Progress.IsOverdue:
		return "overdue"
	default:
		return fmt.Sprintf("%d days left, %s/day", v.Progress.DaysLeft, v.Progress.DailyTarget.Format(currency))
	}
}
