package ledger

import (
	"slices"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func tx(typ core.TxType, amount int64, category string, date core.Date) core.Transaction {
	return core.Transaction{
		Description: category + " entry",
		Amount:      core.NewMoney(amount),
		Type:        typ,
		Category:    category,
		Date:        date,
	}
}

func money(n int64) core.Money { return core.NewMoney(n) }

func TestSum(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Income, 1000, "Salary", core.NewDate(2024, 1, 10)),
		tx(core.Expense, 600, "Food", core.NewDate(2024, 1, 12)),
	}
	got := Sum(txs)
	if !got.Income.Equal(money(1000)) || !got.Expenses.Equal(money(600)) || !got.Balance.Equal(money(400)) {
		t.Fatalf("Sum = %+v", got)
	}
	if got.Count != 2 {
		t.Fatalf("Count = %d", got.Count)
	}
}

func TestSumBalanceInvariant(t *testing.T) {
	sets := [][]core.Transaction{
		nil,
		{tx(core.Expense, 5, "Food", core.NewDate(2024, 1, 1))},
		{
			tx(core.Income, 3, "Gift", core.NewDate(2024, 1, 1)),
			tx(core.Expense, 7, "Food", core.NewDate(2024, 1, 2)),
			tx(core.Income, 11, "Salary", core.NewDate(2024, 2, 2)),
		},
	}
	for i, set := range sets {
		got := Sum(set)
		if !got.Balance.Equal(got.Income.Sub(got.Expenses)) {
			t.Errorf("set %d: balance %s != income %s - expenses %s", i, got.Balance, got.Income, got.Expenses)
		}
	}
}

func TestMonthlyTotalsAndChange(t *testing.T) {
	today := core.NewDate(2024, 3, 15)
	txs := []core.Transaction{
		tx(core.Income, 1000, "Salary", core.NewDate(2024, 2, 1)),
		tx(core.Expense, 800, "Food", core.NewDate(2024, 2, 20)),
		tx(core.Income, 1000, "Salary", core.NewDate(2024, 3, 1)),
		tx(core.Expense, 700, "Food", core.NewDate(2024, 3, 2)),
		tx(core.Income, 9999, "Salary", core.NewDate(2023, 3, 1)),
	}
	march := MonthlyTotals(txs, 2024, time.March)
	if !march.Balance.Equal(money(300)) || march.Count != 2 {
		t.Fatalf("March = %+v", march)
	}
	// previous balance 200, current 300 => +50%
	if got := BalanceChangePercent(txs, today); got != 50 {
		t.Fatalf("BalanceChangePercent = %v, want 50", got)
	}
}

func TestBalanceChangePercentZeroPrevious(t *testing.T) {
	today := core.NewDate(2024, 3, 15)
	txs := []core.Transaction{
		tx(core.Income, 500, "Salary", core.NewDate(2024, 2, 1)),
		tx(core.Expense, 500, "Food", core.NewDate(2024, 2, 2)),
		tx(core.Income, 12345, "Salary", core.NewDate(2024, 3, 1)),
	}
	if got := BalanceChangePercent(txs, today); got != 0 {
		t.Fatalf("BalanceChangePercent = %v, want 0", got)
	}
	if got := BalanceChangePercent(nil, today); got != 0 {
		t.Fatalf("empty log = %v, want 0", got)
	}
}

func TestBalanceChangePercentNegativePrevious(t *testing.T) {
	today := core.NewDate(2024, 1, 5)
	txs := []core.Transaction{
		tx(core.Expense, 100, "Food", core.NewDate(2023, 12, 31)),
		tx(core.Income, 100, "Salary", core.NewDate(2024, 1, 1)),
	}
	// (100 - (-100)) / 100 * 100
	if got := BalanceChangePercent(txs, today); got != 200 {
		t.Fatalf("BalanceChangePercent = %v, want 200", got)
	}
}

func TestMonthlySeries(t *testing.T) {
	today := core.NewDate(2024, 2, 10)
	txs := []core.Transaction{
		tx(core.Income, 100, "Salary", core.NewDate(2023, 12, 31)),
		tx(core.Expense, 40, "Food", core.NewDate(2024, 1, 15)),
		tx(core.Expense, 10, "Food", core.NewDate(2024, 2, 28)),
		tx(core.Expense, 99, "Food", core.NewDate(2023, 11, 30)),
		tx(core.Expense, 99, "Food", core.NewDate(2024, 3, 1)),
	}
	s := MonthlySeries(txs, 3, today)
	if want := []string{"Dec 23", "Jan 24", "Feb 24"}; !slices.Equal(s.Labels, want) {
		t.Fatalf("labels = %v, want %v", s.Labels, want)
	}
	wantIncome := []int64{100, 0, 0}
	wantExpense := []int64{0, 40, 10}
	for i := range 3 {
		if !s.Income[i].Equal(money(wantIncome[i])) || !s.Expenses[i].Equal(money(wantExpense[i])) {
			t.Errorf("bucket %d = %s/%s", i, s.Income[i], s.Expenses[i])
		}
	}
	if MonthlySeries(txs, 0, today).Len() != 0 {
		t.Fatalf("n=0 should yield an empty series")
	}
}

func TestDailySeries(t *testing.T) {
	today := core.NewDate(2024, 3, 1) // Friday
	txs := []core.Transaction{
		tx(core.Expense, 5, "Food", core.NewDate(2024, 2, 29)),
		tx(core.Expense, 7, "Food", core.NewDate(2024, 3, 1)),
		tx(core.Income, 9, "Gift", core.NewDate(2024, 2, 23)),
	}
	s := DailySeries(txs, 7, today)
	if s.Len() != 7 || s.Labels[0] != "Sat" || s.Labels[6] != "Fri" {
		t.Fatalf("labels = %v", s.Labels)
	}
	if !s.Expenses[5].Equal(money(5)) || !s.Expenses[6].Equal(money(7)) {
		t.Fatalf("expenses = %v", s.Expenses)
	}
	for i, v := range s.Income {
		if !v.IsZero() {
			t.Fatalf("income[%d] = %s, the 23rd is outside the window", i, v)
		}
	}
}

func TestCategoryBreakdownOrder(t *testing.T) {
	d := core.NewDate(2024, 1, 1)
	txs := []core.Transaction{
		tx(core.Expense, 10, "Transport", d),
		tx(core.Expense, 30, "Food", d),
		tx(core.Income, 500, "Salary", d),
		tx(core.Expense, 30, "Bills", d),
		tx(core.Expense, 5, "Transport", d),
	}
	got := CategoryBreakdown(txs, core.Expense)
	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.Name
	}
	if want := []string{"Transport", "Food", "Bills"}; !slices.Equal(names, want) {
		t.Fatalf("order = %v, want %v", names, want)
	}
	if !got[0].Amount.Equal(money(15)) {
		t.Fatalf("Transport = %s", got[0].Amount)
	}

	top := TopCategories(txs, core.Expense, 2)
	if len(top) != 2 || top[0].Name != "Food" || top[1].Name != "Bills" {
		t.Fatalf("top = %+v", top)
	}
	if all := TopCategories(txs, core.Expense, 10); len(all) != 3 {
		t.Fatalf("k larger than categories should return all, got %d", len(all))
	}

	shares := Shares(top, money(75))
	if shares[0].Percentage != 40 {
		t.Fatalf("share = %v, want 40", shares[0].Percentage)
	}
}

func TestBudgetProgress(t *testing.T) {
	b := core.Budget{
		Name:           "Groceries",
		Category:       "Food",
		Amount:         money(500),
		StartDate:      core.NewDate(2024, 1, 1),
		EndDate:        core.NewDate(2024, 1, 31),
		AlertThreshold: 80,
	}
	txs := []core.Transaction{
		tx(core.Expense, 200, "Food", core.NewDate(2024, 1, 1)),
		tx(core.Expense, 250, "Food", core.NewDate(2024, 1, 31)),
		tx(core.Expense, 999, "Food", core.NewDate(2024, 2, 1)),
		tx(core.Expense, 999, "Transport", core.NewDate(2024, 1, 10)),
		tx(core.Income, 999, "Food", core.NewDate(2024, 1, 10)),
	}
	got := BudgetProgress(b, txs)
	if got.Percentage != 90 || !got.IsNearLimit || got.IsOverBudget {
		t.Fatalf("progress = %+v", got)
	}
	if !got.Spent.Equal(money(450)) || !got.Remaining.Equal(money(50)) || got.TransactionCount != 2 {
		t.Fatalf("progress = %+v", got)
	}

	over := append(txs, tx(core.Expense, 100, "Food", core.NewDate(2024, 1, 15)))
	got = BudgetProgress(b, over)
	if got.Percentage != 100 {
		t.Fatalf("percentage should be capped, got %v", got.Percentage)
	}
	if !got.IsOverBudget || !got.Remaining.Equal(money(-50)) {
		t.Fatalf("over budget progress = %+v", got)
	}
}

func TestGoalProgress(t *testing.T) {
	today := core.NewDate(2024, 6, 1)
	g := core.Goal{TargetAmount: money(1000), CurrentAmount: money(1000), TargetDate: core.NewDate(2024, 12, 1)}
	got := GoalProgress(g, today)
	if !got.IsCompleted || !got.Remaining.IsZero() || got.Percentage != 100 {
		t.Fatalf("completed goal = %+v", got)
	}

	g.CurrentAmount = money(400)
	g.TargetDate = core.NewDate(2024, 6, 11)
	got = GoalProgress(g, today)
	if got.DaysLeft != 10 || !got.DailyTarget.Equal(money(60)) || got.Percentage != 40 {
		t.Fatalf("in-progress goal = %+v", got)
	}

	g.TargetDate = core.NewDate(2024, 5, 30)
	got = GoalProgress(g, today)
	if !got.IsOverdue || got.DaysLeft != -2 || !got.DailyTarget.IsZero() {
		t.Fatalf("overdue goal = %+v", got)
	}
	g.IsCompleted = true
	got = GoalProgress(g, today)
	if got.IsOverdue {
		t.Fatalf("a goal flagged completed is never overdue")
	}
	if got.IsCompleted {
		t.Fatalf("computed completion follows the amounts, got %+v", got)
	}
}

func TestGoalProgressMonotonic(t *testing.T) {
	today := core.NewDate(2024, 1, 1)
	g := core.Goal{TargetAmount: money(300), TargetDate: core.NewDate(2025, 1, 1)}
	prev := -1.0
	for current := int64(0); current <= 600; current += 50 {
		g.CurrentAmount = money(current)
		pct := GoalProgress(g, today).Percentage
		if pct < prev {
			t.Fatalf("percentage decreased from %v to %v at %d", prev, pct, current)
		}
		if pct > 100 {
			t.Fatalf("percentage %v exceeds 100", pct)
		}
		prev = pct
	}
	if prev != 100 {
		t.Fatalf("final percentage = %v, want 100", prev)
	}
}

func TestInsights(t *testing.T) {
	today := core.NewDate(2024, 3, 15)

	t.Run("overspending", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Income, 1000, "Salary", core.NewDate(2024, 1, 1)),
			tx(core.Expense, 300, "Food", core.NewDate(2024, 3, 2)),
			tx(core.Expense, 100, "Transport", core.NewDate(2024, 3, 3)),
		}
		got := slices.Collect(Insights(txs, today))
		if len(got) != 3 {
			t.Fatalf("insights = %+v", got)
		}
		if got[0].Kind != InsightWarning {
			t.Fatalf("first insight = %+v", got[0])
		}
		if got[1].Kind != InsightSuccess || !strings.Contains(got[1].Message, "60.0%") {
			t.Fatalf("savings insight = %+v", got[1])
		}
		if !strings.HasPrefix(got[2].Message, "Food is your biggest expense category, accounting for 75.0%") {
			t.Fatalf("category insight = %+v", got[2])
		}
	})

	t.Run("low savings", func(t *testing.T) {
		txs := []core.Transaction{
			tx(core.Income, 1000, "Salary", core.NewDate(2024, 3, 1)),
			tx(core.Expense, 950, "Rent", core.NewDate(2024, 3, 2)),
		}
		got := slices.Collect(Insights(txs, today))
		if len(got) != 2 || got[0].Kind != InsightInfo || !strings.HasPrefix(got[0].Message, "Try to save") {
			t.Fatalf("insights = %+v", got)
		}
	})

	t.Run("empty log", func(t *testing.T) {
		if got := slices.Collect(Insights(nil, today)); len(got) != 0 {
			t.Fatalf("insights = %+v", got)
		}
	})

	t.Run("restartable and stoppable", func(t *testing.T) {
		txs := []core.Transaction{tx(core.Expense, 10, "Food", today)}
		seq := Insights(txs, today)
		first := slices.Collect(seq)
		second := slices.Collect(seq)
		if len(first) != len(second) || len(first) != 2 {
			t.Fatalf("first=%d second=%d", len(first), len(second))
		}
		n := 0
		for range seq {
			n++
			break
		}
		if n != 1 {
			t.Fatalf("early break yielded %d", n)
		}
	})
}

func TestSavingsRateAndDailyAverage(t *testing.T) {
	if got := SavingsRate(Totals{}); got != 0 {
		t.Fatalf("SavingsRate without income = %v", got)
	}
	today := core.NewDate(2024, 3, 4)
	txs := []core.Transaction{
		tx(core.Expense, 100, "Food", core.NewDate(2024, 3, 1)),
		tx(core.Expense, 100, "Food", core.NewDate(2024, 3, 3)),
		tx(core.Expense, 500, "Food", core.NewDate(2024, 2, 3)),
	}
	if got := AverageDailySpending(txs, today); !got.Equal(money(50)) {
		t.Fatalf("AverageDailySpending = %s, want 50", got)
	}
}

func TestRecent(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var txs []core.Transaction
	for i := range 7 {
		r := tx(core.Expense, int64(i+1), "Food", core.NewDate(2024, 1, 1))
		r.ID = int64(i + 1)
		r.Timestamp = base.Add(time.Duration(i) * time.Minute)
		txs = append(txs, r)
	}
	got := Recent(txs, 5)
	if len(got) != 5 || got[0].ID != 7 || got[4].ID != 3 {
		t.Fatalf("recent ids = %v", got)
	}
	if txs[0].ID != 1 {
		t.Fatalf("Recent must not reorder its input")
	}
}
