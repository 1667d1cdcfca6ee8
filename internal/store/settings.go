package store

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// UpdateSettings overlays patch on the current settings.
func (t *Tracker) UpdateSettings(ctx context.Context, patch core.SettingsPatch) (core.Settings, error) {
	var next core.Settings
	err := t.mutate(ctx, log.OpUpdate, func() ([]change, error) {
		next = patch.Apply(t.settings)
		if err := next.Validate(); err != nil {
			return nil, err
		}
		return []change{settingsChange(t, next)}, nil
	})
	if err != nil {
		return core.Settings{}, err
	}
	t.log.InfoContext(ctx, "Settings updated", "currency", next.Currency, "items_per_page", next.ItemsPerPage)
	return next, nil
}

// UpdateCategories replaces the category lists present in patch.
func (t *Tracker) UpdateCategories(ctx context.Context, patch core.Categories) (core.Categories, error) {
	var next core.Categories
	err := t.mutate(ctx, log.OpUpdate, func() ([]change, error) {
		next = t.categories.Overlay(&patch)
		return []change{categoriesChange(t, next)}, nil
	})
	if err != nil {
		return core.Categories{}, err
	}
	return next, nil
}

// ResetDefaults restores the default settings and category registry.
// Records are kept.
func (t *Tracker) ResetDefaults(ctx context.Context) error {
	err := t.mutate(ctx, log.OpReset, func() ([]change, error) {
		return []change{
			settingsChange(t, core.DefaultSettings()),
			categoriesChange(t, core.DefaultCategories()),
		}, nil
	})
	if err == nil {
		t.log.InfoContext(ctx, "Settings reset to defaults", log.FieldOperation, log.OpReset)
	}
	return err
}

// ClearAll deletes every transaction, budget and goal. Settings and
// categories are kept.
func (t *Tracker) ClearAll(ctx context.Context) error {
	err := t.mutate(ctx, log.OpClear, func() ([]change, error) {
		return []change{
			transactionsChange(t, nil),
			budgetsChange(t, nil),
			goalsChange(t, nil),
		}, nil
	})
	if err == nil {
		t.log.WarnContext(ctx, "All records cleared", log.FieldOperation, log.OpClear)
	}
	return err
}
