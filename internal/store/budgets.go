package store

import (
	"context"
	"slices"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func budgetID(b core.Budget) int64 { return b.ID }

func (t *Tracker) Budget(id int64) (core.Budget, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i := indexByID(t.budgets, id, budgetID)
	if i < 0 {
		return core.Budget{}, false
	}
	return t.budgets[i], true
}

// CreateBudget applies creation defaults, validates and stores b as an
// active budget.
func (t *Tracker) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b = b.WithDefaults()
	err := t.mutate(ctx, log.OpCreate, func() ([]change, error) {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		b.ID = t.nextID()
		b.IsActive = true
		b.CreatedAt = t.now()
		next := append(slices.Clip(t.budgets), b)
		return []change{budgetsChange(t, next)}, nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	t.log.InfoContext(ctx, "Budget created", log.FieldID, b.ID, log.FieldCategory, b.Category)
	return b, nil
}

// UpdateBudget replaces the budget with the given ID, keeping its ID and
// creation time. The date range invariant is enforced again.
func (t *Tracker) UpdateBudget(ctx context.Context, id int64, b core.Budget) (core.Budget, error) {
	err := t.mutate(ctx, log.OpUpdate, func() ([]change, error) {
		i := indexByID(t.budgets, id, budgetID)
		if i < 0 {
			return nil, notFound("budget", id)
		}
		b = b.WithDefaults()
		if err := b.Validate(); err != nil {
			return nil, err
		}
		b.ID = id
		b.CreatedAt = t.budgets[i].CreatedAt
		next := slices.Clone(t.budgets)
		next[i] = b
		return []change{budgetsChange(t, next)}, nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	t.log.InfoContext(ctx, "Budget updated", log.FieldID, id)
	return b, nil
}

func (t *Tracker) DeleteBudget(ctx context.Context, id int64) error {
	return t.mutate(ctx, log.OpDelete, func() ([]change, error) {
		i := indexByID(t.budgets, id, budgetID)
		if i < 0 {
			return nil, notFound("budget", id)
		}
		next := slices.Delete(slices.Clone(t.budgets), i, i+1)
		return []change{budgetsChange(t, next)}, nil
	})
}
