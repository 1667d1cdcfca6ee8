package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ImportMode selects how imported collections meet the existing ones.
type ImportMode string

const (
	// Replace substitutes every collection present in the import and
	// overlays imported settings and categories.
	Replace ImportMode = "replace"
	// Merge appends imported records whose ID is not yet present; on
	// collision the existing record wins. Settings are left alone.
	Merge ImportMode = "merge"
)

func (m ImportMode) Valid() bool { return m == Replace || m == Merge }

// ImportResult reports how many records each collection received.
type ImportResult struct {
	Mode         ImportMode `json:"mode"`
	Transactions int        `json:"transactions"`
	Budgets      int        `json:"budgets"`
	Goals        int        `json:"goals"`
	Dropped      int        `json:"dropped"`
}

// Import applies a parsed import file. Nothing changes when validation of
// the overlaid settings fails. Collections are persisted one key at a
// time; a storage failure midway leaves the earlier keys imported.
func (t *Tracker) Import(ctx context.Context, set core.ImportSet, mode ImportMode) (ImportResult, error) {
	res := ImportResult{Mode: mode, Dropped: set.Dropped}
	if !mode.Valid() {
		return res, &core.ValidationError{Field: "mode", Err: fmt.Errorf("unknown import mode %q", mode)}
	}

	err := t.mutate(ctx, log.OpImport, func() ([]change, error) {
		var changes []change

		if set.Transactions != nil {
			next, added := combine(t.transactions, set.Transactions, mode, txID)
			res.Transactions = added
			changes = append(changes, transactionsChange(t, next))
		}
		if set.Budgets != nil {
			next, added := combine(t.budgets, set.Budgets, mode, budgetID)
			res.Budgets = added
			changes = append(changes, budgetsChange(t, next))
		}
		if set.Goals != nil {
			next, added := combine(t.goals, set.Goals, mode, goalID)
			res.Goals = added
			changes = append(changes, goalsChange(t, next))
		}
		if mode == Replace && set.Settings != nil {
			next := set.Settings.Apply(t.settings)
			if err := next.Validate(); err != nil {
				return nil, err
			}
			changes = append(changes, settingsChange(t, next))
		}
		if mode == Replace && set.Categories != nil {
			changes = append(changes, categoriesChange(t, t.categories.Overlay(set.Categories)))
		}

		for _, tx := range set.Transactions {
			t.lastID = max(t.lastID, tx.ID)
		}
		for _, b := range set.Budgets {
			t.lastID = max(t.lastID, b.ID)
		}
		for _, g := range set.Goals {
			t.lastID = max(t.lastID, g.ID)
		}
		return changes, nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	t.log.InfoContext(ctx, "Import applied",
		log.FieldMode, string(mode),
		"transactions", res.Transactions,
		"budgets", res.Budgets,
		"goals", res.Goals,
		"dropped", res.Dropped)
	return res, nil
}

// combine returns the next collection and the number of incoming records
// it took. Merge keeps each ID once, existing records first.
func combine[T any](existing, incoming []T, mode ImportMode, idOf func(T) int64) ([]T, int) {
	seen := make(map[int64]struct{}, len(existing)+len(incoming))
	var next []T
	if mode == Merge {
		next = slices.Clone(existing)
		for _, item := range existing {
			seen[idOf(item)] = struct{}{}
		}
	}
	added := 0
	for _, item := range incoming {
		id := idOf(item)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		next = append(next, item)
		added++
	}
	return next, added
}

// AddSampleData appends a week of example transactions dated relative to
// today.
func (t *Tracker) AddSampleData(ctx context.Context) (int, error) {
	var added int
	err := t.mutate(ctx, log.OpSample, func() ([]change, error) {
		samples := sampleTransactions(t.now())
		for i := range samples {
			samples[i].ID = t.nextID()
		}
		added = len(samples)
		next := append(slices.Clip(t.transactions), samples...)
		return []change{transactionsChange(t, next)}, nil
	})
	if err != nil {
		return 0, err
	}
	t.log.InfoContext(ctx, "Sample data added", log.FieldCount, added)
	return added, nil
}

func sampleTransactions(now time.Time) []core.Transaction {
	today := core.DateOf(now)
	day := 24 * time.Hour
	mk := func(desc string, amount int64, typ core.TxType, category string, daysAgo int, notes string) core.Transaction {
		return core.Transaction{
			Description: desc,
			Amount:      core.NewMoney(amount),
			Type:        typ,
			Category:    category,
			Date:        today.AddDays(-daysAgo),
			Notes:       notes,
			Timestamp:   now.Add(-time.Duration(daysAgo) * day),
		}
	}
	return []core.Transaction{
		mk("Monthly Salary", 150000, core.Income, "Salary", 0, "Regular monthly salary payment"),
		mk("Freelance Project", 75000, core.Income, "Freelance", 2, "Website development project"),
		mk("Grocery Shopping", 25000, core.Expense, "Food", 1, "Weekly groceries"),
		mk("Bus Transport", 8000, core.Expense, "Transport", 0, "Daily commute"),
		mk("Movie Tickets", 15000, core.Expense, "Entertainment", 3, "Weekend movie"),
		mk("Electricity Bill", 18000, core.Expense, "Bills", 5, "Monthly electricity bill"),
		mk("New Shirt", 12000, core.Expense, "Shopping", 4, "Work shirt"),
		mk("Doctor Visit", 20000, core.Expense, "Healthcare", 6, "Regular checkup"),
	}
}
