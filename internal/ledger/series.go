package ledger

import "fintrack/internal/core"

// Series holds parallel income and expense sums per bucket, oldest first.
type Series struct {
	Labels   []string     `json:"labels"`
	Income   []core.Money `json:"income"`
	Expenses []core.Money `json:"expenses"`
}

func newSeries(n int) Series {
	return Series{
		Labels:   make([]string, n),
		Income:   make([]core.Money, n),
		Expenses: make([]core.Money, n),
	}
}

func (s *Series) add(i int, tx core.Transaction) {
	switch tx.Type {
	case core.Income:
		s.Income[i] = s.Income[i].Add(tx.Amount)
	case core.Expense:
		s.Expenses[i] = s.Expenses[i].Add(tx.Amount)
	}
}

// Len returns the number of buckets.
func (s Series) Len() int { return len(s.Labels) }

// MonthlySeries buckets the last n calendar months ending with today's month.
func MonthlySeries(txs []core.Transaction, n int, today core.Date) Series {
	if n <= 0 {
		return newSeries(0)
	}
	s := newSeries(n)
	first := today.AddMonths(-(n - 1))
	for i := range n {
		s.Labels[i] = first.AddMonths(i).Format("Jan 06")
	}
	base := monthIndex(first)
	for _, tx := range txs {
		if i := monthIndex(tx.Date) - base; i >= 0 && i < n {
			s.add(i, tx)
		}
	}
	return s
}

// DailySeries buckets the last n calendar days ending today, matching on
// the exact day.
func DailySeries(txs []core.Transaction, n int, today core.Date) Series {
	if n <= 0 {
		return newSeries(0)
	}
	s := newSeries(n)
	first := today.AddDays(-(n - 1))
	for i := range n {
		s.Labels[i] = first.AddDays(i).Format("Mon")
	}
	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		if i := first.DaysUntil(tx.Date); i >= 0 && i < n {
			s.add(i, tx)
		}
	}
	return s
}

func monthIndex(d core.Date) int {
	return d.Year()*12 + int(d.Month()) - 1
}
