package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/report"
)

// totalsResponse is the headline figures of the dashboard.
type totalsResponse struct {
	Revision             uint64        `json:"revision"`
	Currency             string        `json:"currency"`
	All                  ledger.Totals `json:"all"`
	Month                ledger.Totals `json:"month"`
	BalanceChange        float64       `json:"balanceChange"`
	SavingsRate          float64       `json:"savingsRate"`
	AverageDailySpending core.Money    `json:"averageDailySpending"`
}

type breakdownResponse struct {
	Type       core.TxType          `json:"type"`
	Total      core.Money           `json:"total"`
	Categories []core.CategoryShare `json:"categories"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.reporter.Dashboard()).Write(w)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	d := s.reporter.Dashboard()
	NewJSONResponse().Body(totalsResponse{
		Revision:             d.Revision,
		Currency:             d.Currency,
		All:                  d.Totals,
		Month:                d.Month,
		BalanceChange:        d.BalanceChange,
		SavingsRate:          d.SavingsRate,
		AverageDailySpending: d.AverageDailySpending,
	}).Write(w)
}

func (s *Server) handleMonthlySeries(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r.URL.Query(), "n", report.MonthlyWindow, 1, 60)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(s.reporter.MonthlySeries(n)).Write(w)
}

func (s *Server) handleDailySeries(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r.URL.Query(), "n", report.DailyWindow, 1, 366)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(s.reporter.DailySeries(n)).Write(w)
}

// handleCategoryBreakdown lists category totals with their share of the
// type's total, largest first. The type defaults to expense.
func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	typ, err := parseTxType(r.URL.Query(), core.Expense)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	txs := s.tracker.Transactions()
	totals := ledger.Sum(txs)
	total := totals.Expenses
	if typ == core.Income {
		total = totals.Income
	}
	NewJSONResponse().Body(breakdownResponse{
		Type:       typ,
		Total:      total,
		Categories: ledger.Shares(ledger.TopCategories(txs, typ, -1), total),
	}).Write(w)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.reporter.Dashboard().Insights).Write(w)
}
