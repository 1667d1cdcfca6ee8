// Package report assembles the derived views the presentation layer reads:
// the dashboard snapshot, chart series, budget and goal progress. Results
// are cached per store revision and calendar day.
package report

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

const (
	// TopCategoryCount and RecentCount size the dashboard lists.
	TopCategoryCount = 5
	RecentCount      = 5

	// Default chart windows.
	MonthlyWindow = 6
	DailyWindow   = 7

	// WarmupDelay defers precomputing the charts after startup.
	WarmupDelay = 100 * time.Millisecond
)

// Source is the read side of the store.
type Source interface {
	Snapshot() (core.Dataset, uint64)
	Today() core.Date
}

var _ Source = (*store.Tracker)(nil)

// BudgetView pairs a budget with its progress.
type BudgetView struct {
	core.Budget
	Progress ledger.BudgetStatus `json:"progress"`
}

// GoalView pairs a goal with its progress.
type GoalView struct {
	core.Goal
	Progress ledger.GoalStatus `json:"progress"`
}

// Dashboard is the overview computed from one consistent store snapshot.
type Dashboard struct {
	Revision             uint64               `json:"revision"`
	Today                core.Date            `json:"today"`
	Currency             string               `json:"currency"`
	Totals               ledger.Totals        `json:"totals"`
	Month                ledger.Totals        `json:"month"`
	BalanceChange        float64              `json:"balanceChange"`
	SavingsRate          float64              `json:"savingsRate"`
	AverageDailySpending core.Money           `json:"averageDailySpending"`
	TopCategories        []core.CategoryShare `json:"topCategories"`
	Recent               []core.Transaction   `json:"recent"`
	Budgets              []BudgetView         `json:"budgets"`
	Goals                []GoalView           `json:"goals"`
	Insights             []ledger.Insight     `json:"insights"`
}

// Reporter computes and caches derived views.
type Reporter struct {
	src       Source
	log       *log.Logger
	dashboard *cache.LRUCache[Dashboard]
	series    *cache.LRUCache[ledger.Series]

	warmOnce sync.Once
	warmed   chan struct{}
}

// New creates a Reporter whose entries live for ttl. Entries are keyed by
// revision, so a commit makes earlier ones unreachable and they age out.
func New(src Source, ttl time.Duration, logger *log.Logger) *Reporter {
	if logger == nil {
		logger = log.Default(log.ComponentReport)
	}
	return &Reporter{
		src:       src,
		log:       logger,
		dashboard: cache.NewLRUCache[Dashboard](8, ttl),
		series:    cache.NewLRUCache[ledger.Series](32, ttl),
		warmed:    make(chan struct{}),
	}
}

// Register hands the caches to a cleanup manager.
func (r *Reporter) Register(m *cache.Manager) {
	m.Register(r.dashboard)
	m.Register(r.series)
}

// Dashboard returns the overview for the current state.
func (r *Reporter) Dashboard() Dashboard {
	ds, rev := r.src.Snapshot()
	today := r.src.Today()
	d, hit := r.dashboard.GetOrCompute(key(rev, today, "dashboard"), func() Dashboard {
		return Build(ds, rev, today)
	})
	if !hit {
		r.log.Debug("Dashboard computed", log.FieldRevision, rev)
	}
	return d
}

// Build computes a dashboard without caching.
func Build(ds core.Dataset, rev uint64, today core.Date) Dashboard {
	txs := ds.Transactions
	totals := ledger.Sum(txs)
	top := ledger.TopCategories(txs, core.Expense, TopCategoryCount)

	d := Dashboard{
		Revision:             rev,
		Today:                today,
		Currency:             ds.Settings.Currency,
		Totals:               totals,
		Month:                ledger.CurrentMonth(txs, today),
		BalanceChange:        ledger.BalanceChangePercent(txs, today),
		SavingsRate:          ledger.SavingsRate(totals),
		AverageDailySpending: ledger.AverageDailySpending(txs, today),
		TopCategories:        ledger.Shares(top, totals.Expenses),
		Recent:               ledger.Recent(txs, RecentCount),
		Budgets:              BudgetViews(ds.Budgets, txs),
		Goals:                GoalViews(ds.Goals, today),
		Insights:             slices.Collect(ledger.Insights(txs, today)),
	}
	if d.Insights == nil {
		d.Insights = []ledger.Insight{}
	}
	if d.Recent == nil {
		d.Recent = []core.Transaction{}
	}
	return d
}

func BudgetViews(budgets []core.Budget, txs []core.Transaction) []BudgetView {
	views := make([]BudgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, BudgetView{Budget: b, Progress: ledger.BudgetProgress(b, txs)})
	}
	return views
}

func GoalViews(goals []core.Goal, today core.Date) []GoalView {
	views := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, GoalView{Goal: g, Progress: ledger.GoalProgress(g, today)})
	}
	return views
}

// MonthlySeries returns income and expenses for the last n months.
func (r *Reporter) MonthlySeries(n int) ledger.Series {
	ds, rev := r.src.Snapshot()
	today := r.src.Today()
	s, _ := r.series.GetOrCompute(key(rev, today, fmt.Sprintf("monthly:%d", n)), func() ledger.Series {
		return ledger.MonthlySeries(ds.Transactions, n, today)
	})
	return s
}

// DailySeries returns income and expenses for the last n days.
func (r *Reporter) DailySeries(n int) ledger.Series {
	ds, rev := r.src.Snapshot()
	today := r.src.Today()
	s, _ := r.series.GetOrCompute(key(rev, today, fmt.Sprintf("daily:%d", n)), func() ledger.Series {
		return ledger.DailySeries(ds.Transactions, n, today)
	})
	return s
}

// Warm precomputes the dashboard and default chart series after delay. It
// returns immediately; Warmed is closed once the work is done. Only the
// first call has an effect.
func (r *Reporter) Warm(ctx context.Context, delay time.Duration) {
	r.warmOnce.Do(func() {
		go func() {
			defer close(r.warmed)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			start := time.Now()
			r.Dashboard()
			r.MonthlySeries(MonthlyWindow)
			r.DailySeries(DailyWindow)
			r.log.Debug("Report cache warmed", log.FieldDuration, time.Since(start).Milliseconds())
		}()
	})
}

// Warmed is closed when the warm-up started by Warm has finished.
func (r *Reporter) Warmed() <-chan struct{} { return r.warmed }

// Invalidate drops every cached view.
func (r *Reporter) Invalidate() {
	r.dashboard.Purge()
	r.series.Purge()
}

func key(rev uint64, today core.Date, name string) string {
	return fmt.Sprintf("%d:%s:%s", rev, today, name)
}
