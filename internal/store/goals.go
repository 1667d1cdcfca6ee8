package store

import (
	"context"
	"fmt"
	"slices"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func goalID(g core.Goal) int64 { return g.ID }

func (t *Tracker) Goal(id int64) (core.Goal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i := indexByID(t.goals, id, goalID)
	if i < 0 {
		return core.Goal{}, false
	}
	return t.goals[i], true
}

// CreateGoal stores a new active goal. Its target date must lie strictly
// after today.
func (t *Tracker) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g = g.WithDefaults()
	err := t.mutate(ctx, log.OpCreate, func() ([]change, error) {
		if err := g.ValidateNew(t.Today()); err != nil {
			return nil, err
		}
		g.ID = t.nextID()
		g.IsActive = true
		g.CreatedAt = t.now()
		g.IsCompleted = false
		g.CompletedAt = nil
		t.markCompleted(&g)
		next := append(slices.Clip(t.goals), g)
		return []change{goalsChange(t, next)}, nil
	})
	if err != nil {
		return core.Goal{}, err
	}
	t.log.InfoContext(ctx, "Goal created", log.FieldID, g.ID, log.FieldAmount, g.TargetAmount.String())
	return g, nil
}

// UpdateGoal replaces the goal with the given ID. ID, creation time and a
// reached completion are kept.
func (t *Tracker) UpdateGoal(ctx context.Context, id int64, g core.Goal) (core.Goal, error) {
	err := t.mutate(ctx, log.OpUpdate, func() ([]change, error) {
		i := indexByID(t.goals, id, goalID)
		if i < 0 {
			return nil, notFound("goal", id)
		}
		g = g.WithDefaults()
		if err := g.Validate(); err != nil {
			return nil, err
		}
		prev := t.goals[i]
		g.ID = id
		g.CreatedAt = prev.CreatedAt
		g.IsCompleted = prev.IsCompleted
		g.CompletedAt = prev.CompletedAt
		t.markCompleted(&g)
		next := slices.Clone(t.goals)
		next[i] = g
		return []change{goalsChange(t, next)}, nil
	})
	if err != nil {
		return core.Goal{}, err
	}
	t.log.InfoContext(ctx, "Goal updated", log.FieldID, id)
	return g, nil
}

func (t *Tracker) DeleteGoal(ctx context.Context, id int64) error {
	return t.mutate(ctx, log.OpDelete, func() ([]change, error) {
		i := indexByID(t.goals, id, goalID)
		if i < 0 {
			return nil, notFound("goal", id)
		}
		next := slices.Delete(slices.Clone(t.goals), i, i+1)
		return []change{goalsChange(t, next)}, nil
	})
}

// Contribute adds a positive amount to a goal's running total and marks
// the goal completed once the target is reached.
func (t *Tracker) Contribute(ctx context.Context, id int64, amount core.Money) (core.Goal, error) {
	var g core.Goal
	err := t.mutate(ctx, log.OpContribute, func() ([]change, error) {
		if !amount.IsPositive() {
			return nil, &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
		}
		i := indexByID(t.goals, id, goalID)
		if i < 0 {
			return nil, notFound("goal", id)
		}
		g = t.goals[i]
		g.CurrentAmount = g.CurrentAmount.Add(amount)
		t.markCompleted(&g)
		next := slices.Clone(t.goals)
		next[i] = g
		return []change{goalsChange(t, next)}, nil
	})
	if err != nil {
		return core.Goal{}, fmt.Errorf("contribute to goal: %w", err)
	}
	t.log.InfoContext(ctx, "Goal contribution recorded",
		log.FieldID, id,
		log.FieldAmount, amount.String(),
		"completed", g.IsCompleted)
	return g, nil
}

// markCompleted sets the completion flag the first time the target is
// reached. It never clears it.
func (t *Tracker) markCompleted(g *core.Goal) {
	if g.IsCompleted || g.CurrentAmount.LessThan(g.TargetAmount) {
		return
	}
	now := t.now()
	g.IsCompleted = true
	g.CompletedAt = &now
}
