// Package store holds the application state: the ordered collections of
// transactions, budgets and goals, the settings singleton and the category
// registry. Every mutation validates first, then writes the affected
// collections through the storage adapter, and only then swaps them into
// memory.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrCorrupt  = errors.New("persisted data is corrupt")
)

// Event describes a committed mutation.
type Event struct {
	Op       string
	Revision uint64
	Keys     []storage.Key
	Settings core.Settings
	At       time.Time
}

// CommitHook observes committed mutations. Hooks run after the store lock
// is released and may read the store.
type CommitHook func(ctx context.Context, ev Event)

// Tracker is the single application-state object.
type Tracker struct {
	mu  sync.RWMutex
	kv  storage.KV
	now func() time.Time
	log *log.Logger

	transactions []core.Transaction
	budgets      []core.Budget
	goals        []core.Goal
	settings     core.Settings
	categories   core.Categories

	revision uint64
	lastID   int64

	hooksMu sync.Mutex
	hooks   []CommitHook
}

type Option func(*Tracker)

// WithClock overrides the time source, used for IDs, timestamps and "today".
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// Open loads every collection from kv, substituting built-in defaults for
// absent keys. Unreadable or corrupt data is an error.
func Open(ctx context.Context, kv storage.KV, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		kv:         kv,
		now:        time.Now,
		log:        log.Default(log.ComponentStore),
		settings:   core.DefaultSettings(),
		categories: core.DefaultCategories(),
	}
	for _, opt := range opts {
		opt(t)
	}

	targets := map[storage.Key]any{
		storage.KeyTransactions: &t.transactions,
		storage.KeyBudgets:      &t.budgets,
		storage.KeyGoals:        &t.goals,
		storage.KeySettings:     &t.settings,
		storage.KeyCategories:   &t.categories,
	}
	for _, key := range storage.Keys {
		data, found, err := kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		if !found {
			continue
		}
		// Settings decode over the defaults so that newer fields keep
		// their default when older data lacks them.
		if err := json.Unmarshal(data, targets[key]); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
		}
	}

	for _, tx := range t.transactions {
		t.lastID = max(t.lastID, tx.ID)
	}
	for _, b := range t.budgets {
		t.lastID = max(t.lastID, b.ID)
	}
	for _, g := range t.goals {
		t.lastID = max(t.lastID, g.ID)
	}

	t.log.InfoContext(ctx, "Tracker loaded",
		"transactions", len(t.transactions),
		"budgets", len(t.budgets),
		"goals", len(t.goals),
		log.FieldOperation, log.OpStartup)
	return t, nil
}

// OnCommit registers a hook fired after every committed mutation.
func (t *Tracker) OnCommit(hook CommitHook) {
	t.hooksMu.Lock()
	defer t.hooksMu.Unlock()
	t.hooks = append(t.hooks, hook)
}

// Today returns the current calendar day according to the tracker clock.
func (t *Tracker) Today() core.Date {
	return core.DateOf(t.now())
}

// Revision increases with every committed mutation.
func (t *Tracker) Revision() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.revision
}

// Transactions returns a copy of the transaction log in insertion order.
func (t *Tracker) Transactions() []core.Transaction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.transactions)
}

func (t *Tracker) Budgets() []core.Budget {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.budgets)
}

func (t *Tracker) Goals() []core.Goal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.goals)
}

func (t *Tracker) Settings() core.Settings {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.settings
}

func (t *Tracker) Categories() core.Categories {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return core.Categories{
		Income:  slices.Clone(t.categories.Income),
		Expense: slices.Clone(t.categories.Expense),
	}
}

// Snapshot returns a consistent copy of the whole state and its revision.
func (t *Tracker) Snapshot() (core.Dataset, uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return core.Dataset{
		Transactions: slices.Clone(t.transactions),
		Budgets:      slices.Clone(t.budgets),
		Goals:        slices.Clone(t.goals),
		Settings:     t.settings,
		Categories: core.Categories{
			Income:  slices.Clone(t.categories.Income),
			Expense: slices.Clone(t.categories.Expense),
		},
	}, t.revision
}

// change is the next state of one collection, committed to memory only
// after it was written to storage.
type change struct {
	key    storage.Key
	value  any
	commit func()
}

// mutate runs prepare under the write lock, persists the changes it
// returns in order and fires hooks once the lock is released. A change is
// swapped into memory only after its own write succeeded.
func (t *Tracker) mutate(ctx context.Context, op string, prepare func() ([]change, error)) error {
	t.mu.Lock()
	changes, err := prepare()
	if err != nil {
		t.mu.Unlock()
		return err
	}
	var written []storage.Key
	for _, c := range changes {
		data, encErr := json.Marshal(c.value)
		if encErr != nil {
			err = fmt.Errorf("encode %s: %w", c.key, encErr)
			break
		}
		if setErr := t.kv.Set(ctx, c.key, data); setErr != nil {
			err = setErr
			break
		}
		c.commit()
		written = append(written, c.key)
	}
	if len(written) > 0 {
		t.revision++
	}
	ev := Event{Op: op, Revision: t.revision, Keys: written, Settings: t.settings, At: t.now()}
	t.mu.Unlock()

	if err != nil {
		log.LogError(ctx, t.log, "Persisting change failed", err, op, log.ErrorTypeStorage)
	}
	if len(written) > 0 {
		t.notify(ctx, ev)
	}
	return err
}

func (t *Tracker) notify(ctx context.Context, ev Event) {
	t.hooksMu.Lock()
	hooks := slices.Clone(t.hooks)
	t.hooksMu.Unlock()
	for _, h := range hooks {
		h(ctx, ev)
	}
}

// nextID hands out creation-time millisecond IDs, bumped past the last
// issued one so that two records created in the same millisecond differ.
// Callers hold the write lock.
func (t *Tracker) nextID() int64 {
	id := t.now().UnixMilli()
	if id <= t.lastID {
		id = t.lastID + 1
	}
	t.lastID = id
	return id
}

func transactionsChange(t *Tracker, next []core.Transaction) change {
	return change{key: storage.KeyTransactions, value: nonNil(next), commit: func() { t.transactions = next }}
}

func budgetsChange(t *Tracker, next []core.Budget) change {
	return change{key: storage.KeyBudgets, value: nonNil(next), commit: func() { t.budgets = next }}
}

func goalsChange(t *Tracker, next []core.Goal) change {
	return change{key: storage.KeyGoals, value: nonNil(next), commit: func() { t.goals = next }}
}

func settingsChange(t *Tracker, next core.Settings) change {
	return change{key: storage.KeySettings, value: next, commit: func() { t.settings = next }}
}

func categoriesChange(t *Tracker, next core.Categories) change {
	return change{key: storage.KeyCategories, value: next, commit: func() { t.categories = next }}
}

// nonNil makes empty collections encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func indexByID[T any](items []T, id int64, idOf func(T) int64) int {
	return slices.IndexFunc(items, func(item T) bool { return idOf(item) == id })
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}
