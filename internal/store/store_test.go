package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

// flakyKV wraps a Memory KV and fails writes to the listed keys.
type flakyKV struct {
	*storage.Memory
	mu   sync.Mutex
	fail map[storage.Key]bool
}

func (f *flakyKV) Set(ctx context.Context, key storage.Key, value []byte) error {
	f.mu.Lock()
	failing := f.fail[key]
	f.mu.Unlock()
	if failing {
		return &storage.Error{Op: "set", Key: key, Err: errors.New("disk full")}
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *flakyKV) failOn(keys ...storage.Key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = make(map[storage.Key]bool)
	for _, k := range keys {
		f.fail[k] = true
	}
}

func newTracker(t *testing.T, kv storage.KV) *Tracker {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemory(storage.DefaultPrefix)
	}
	tr, err := Open(context.Background(), kv,
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return tr
}

func expense(desc string, amount int64, category string, date core.Date) core.Transaction {
	return core.Transaction{
		Description: desc,
		Amount:      core.NewMoney(amount),
		Type:        core.Expense,
		Category:    category,
		Date:        date,
	}
}

func TestOpenDefaults(t *testing.T) {
	tr := newTracker(t, nil)
	if got := tr.Settings(); got != core.DefaultSettings() {
		t.Fatalf("Settings = %+v, want defaults", got)
	}
	if n := len(tr.Categories().Expense); n != 8 {
		t.Fatalf("expense categories = %d, want 8", n)
	}
	if len(tr.Transactions()) != 0 || tr.Revision() != 0 {
		t.Fatalf("fresh tracker not empty")
	}
}

func TestOpenCorrupt(t *testing.T) {
	kv := storage.NewMemory(storage.DefaultPrefix)
	_ = kv.Set(context.Background(), storage.KeyTransactions, []byte("{not json"))
	_, err := Open(context.Background(), kv, WithLogger(log.Discard()))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Open error = %v, want ErrCorrupt", err)
	}
}

func TestOpenSettingsKeepNewDefaults(t *testing.T) {
	kv := storage.NewMemory(storage.DefaultPrefix)
	_ = kv.Set(context.Background(), storage.KeySettings, []byte(`{"currency":"USD"}`))
	tr := newTracker(t, kv)
	s := tr.Settings()
	if s.Currency != "USD" || s.ItemsPerPage != 10 || s.Theme != core.ThemeLight {
		t.Fatalf("Settings = %+v", s)
	}
}

func TestAddTransaction(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory(storage.DefaultPrefix)
	tr := newTracker(t, kv)

	got, err := tr.AddTransaction(ctx, expense("Lunch", 5000, "Food", core.NewDate(2024, 3, 14)))
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if got.ID != fixedNow.UnixMilli() {
		t.Errorf("ID = %d, want %d", got.ID, fixedNow.UnixMilli())
	}
	if !got.Timestamp.Equal(fixedNow) {
		t.Errorf("Timestamp = %v", got.Timestamp)
	}

	second, err := tr.AddTransaction(ctx, expense("Dinner", 7000, "Food", core.NewDate(2024, 3, 14)))
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if second.ID <= got.ID {
		t.Errorf("IDs not increasing: %d then %d", got.ID, second.ID)
	}
	if tr.Revision() != 2 {
		t.Errorf("Revision = %d, want 2", tr.Revision())
	}

	data, found, _ := kv.Get(ctx, storage.KeyTransactions)
	if !found {
		t.Fatal("transactions not persisted")
	}
	var stored []core.Transaction
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatalf("decode persisted: %v", err)
	}
	if len(stored) != 2 || stored[0].Description != "Lunch" {
		t.Fatalf("persisted = %+v", stored)
	}
}

func TestAddTransactionValidation(t *testing.T) {
	tests := []struct {
		name  string
		tx    core.Transaction
		field string
	}{
		{"empty description", expense("  ", 100, "Food", core.NewDate(2024, 3, 1)), "description"},
		{"zero amount", expense("x", 0, "Food", core.NewDate(2024, 3, 1)), "amount"},
		{"no category", expense("x", 100, "", core.NewDate(2024, 3, 1)), "category"},
		{"no date", expense("x", 100, "Food", core.Date{}), "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(t, nil)
			_, err := tr.AddTransaction(context.Background(), tt.tx)
			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
			if len(tr.Transactions()) != 0 || tr.Revision() != 0 {
				t.Errorf("state changed after rejected add")
			}
		})
	}
}

func TestStorageFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{Memory: storage.NewMemory(storage.DefaultPrefix)}
	tr := newTracker(t, kv)

	if _, err := tr.AddTransaction(ctx, expense("Lunch", 5000, "Food", core.NewDate(2024, 3, 14))); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	kv.failOn(storage.KeyTransactions)
	_, err := tr.AddTransaction(ctx, expense("Dinner", 7000, "Food", core.NewDate(2024, 3, 14)))
	if !errors.Is(err, storage.ErrStorage) {
		t.Fatalf("error = %v, want ErrStorage", err)
	}
	if n := len(tr.Transactions()); n != 1 {
		t.Fatalf("transactions = %d after failed write, want 1", n)
	}
	if tr.Revision() != 1 {
		t.Fatalf("Revision = %d, want 1", tr.Revision())
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, nil)
	tx, _ := tr.AddTransaction(ctx, expense("Lunch", 5000, "Food", core.NewDate(2024, 3, 14)))

	edit := expense("Brunch", 6500, "Food", core.NewDate(2024, 3, 13))
	updated, err := tr.UpdateTransaction(ctx, tx.ID, edit)
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.ID != tx.ID || !updated.Timestamp.Equal(tx.Timestamp) {
		t.Errorf("identity changed: %+v", updated)
	}
	if got, _ := tr.Transaction(tx.ID); got.Description != "Brunch" {
		t.Errorf("stored description = %q", got.Description)
	}

	if _, err := tr.UpdateTransaction(ctx, 42, edit); !errors.Is(err, ErrNotFound) {
		t.Errorf("update unknown = %v, want ErrNotFound", err)
	}
	if err := tr.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := tr.DeleteTransaction(ctx, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestDeleteTransactions(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, nil)
	var ids []int64
	for _, d := range []string{"a", "b", "c"} {
		tx, err := tr.AddTransaction(ctx, expense(d, 100, "Food", core.NewDate(2024, 3, 1)))
		if err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
		ids = append(ids, tx.ID)
	}

	n, err := tr.DeleteTransactions(ctx, []int64{ids[0], ids[2], 99})
	if err != nil || n != 2 {
		t.Fatalf("DeleteTransactions = %d, %v", n, err)
	}
	left := tr.Transactions()
	if len(left) != 1 || left[0].Description != "b" {
		t.Fatalf("remaining = %+v", left)
	}

	rev := tr.Revision()
	if n, _ := tr.DeleteTransactions(ctx, []int64{99}); n != 0 {
		t.Fatalf("removed %d unknown ids", n)
	}
	if tr.Revision() != rev {
		t.Errorf("no-op delete bumped revision")
	}
}

func TestBudgetLifecycle(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, nil)

	b, err := tr.CreateBudget(ctx, core.Budget{
		Name:      "Groceries",
		Category:  "Food",
		Amount:    core.NewMoney(100000),
		StartDate: core.NewDate(2024, 3, 1),
		EndDate:   core.NewDate(2024, 3, 31),
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if b.Period != core.Monthly || b.AlertThreshold != core.DefaultAlertThreshold || !b.IsActive {
		t.Errorf("defaults not applied: %+v", b)
	}

	bad := b
	bad.EndDate = bad.StartDate
	if _, err := tr.UpdateBudget(ctx, b.ID, bad); !errors.Is(err, core.ErrValidation) {
		t.Errorf("UpdateBudget with empty range = %v, want validation error", err)
	}

	_, err = tr.CreateBudget(ctx, core.Budget{
		Name:      "Broken",
		Category:  "Food",
		Amount:    core.NewMoney(1),
		StartDate: core.NewDate(2024, 3, 10),
		EndDate:   core.NewDate(2024, 3, 1),
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("CreateBudget end before start = %v", err)
	}
	if len(tr.Budgets()) != 1 {
		t.Errorf("budgets = %d, want 1", len(tr.Budgets()))
	}

	if err := tr.DeleteBudget(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if _, ok := tr.Budget(b.ID); ok {
		t.Error("budget still present after delete")
	}
}

func TestGoalContribute(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, nil)

	g, err := tr.CreateGoal(ctx, core.Goal{
		Name:         "Emergency fund",
		TargetAmount: core.NewMoney(1000),
		TargetDate:   core.NewDate(2024, 12, 31),
	})
	if err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	if g.Priority != core.PriorityMedium || g.IsCompleted {
		t.Fatalf("unexpected new goal: %+v", g)
	}

	if _, err := tr.Contribute(ctx, g.ID, core.NewMoney(0)); !errors.Is(err, core.ErrValidation) {
		t.Errorf("zero contribution = %v, want validation error", err)
	}
	if _, err := tr.Contribute(ctx, 7, core.NewMoney(10)); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown goal = %v, want ErrNotFound", err)
	}

	g, _ = tr.Contribute(ctx, g.ID, core.NewMoney(600))
	if g.IsCompleted {
		t.Fatal("completed below target")
	}
	g, err = tr.Contribute(ctx, g.ID, core.NewMoney(400))
	if err != nil {
		t.Fatalf("Contribute: %v", err)
	}
	if !g.IsCompleted || g.CompletedAt == nil || !g.CurrentAmount.Equal(core.NewMoney(1000)) {
		t.Fatalf("goal not completed: %+v", g)
	}

	// Lowering the balance on edit keeps the completion.
	edit := g
	edit.CurrentAmount = core.NewMoney(10)
	g, err = tr.UpdateGoal(ctx, g.ID, edit)
	if err != nil {
		t.Fatalf("UpdateGoal: %v", err)
	}
	if !g.IsCompleted {
		t.Error("completion cleared by update")
	}
}

func TestCreateGoalPastDate(t *testing.T) {
	tr := newTracker(t, nil)
	_, err := tr.CreateGoal(context.Background(), core.Goal{
		Name:         "Late",
		TargetAmount: core.NewMoney(100),
		TargetDate:   core.DateOf(fixedNow),
	})
	if !errors.Is(err, core.ErrTargetDateInPast) {
		t.Fatalf("error = %v, want ErrTargetDateInPast", err)
	}
}

func TestSettingsAndReset(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, nil)

	currency := "EUR"
	s, err := tr.UpdateSettings(ctx, core.SettingsPatch{Currency: &currency})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if s.Currency != "EUR" || s.ItemsPerPage != 10 {
		t.Fatalf("Settings = %+v", s)
	}

	zero := 0
	if _, err := tr.UpdateSettings(ctx, core.SettingsPatch{ItemsPerPage: &zero}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("invalid page size = %v", err)
	}
	if tr.Settings().ItemsPerPage != 10 {
		t.Error("rejected patch was applied")
	}

	if _, err := tr.AddTransaction(ctx, expense("Lunch", 100, "Food", core.NewDate(2024, 3, 1))); err != nil {
		t.Fatal(err)
	}
	if err := tr.ResetDefaults(ctx); err != nil {
		t.Fatalf("ResetDefaults: %v", err)
	}
	if tr.Settings() != core.DefaultSettings() {
		t.Error("settings not reset")
	}
	if len(tr.Transactions()) != 1 {
		t.Error("reset removed records")
	}

	if err := tr.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if len(tr.Transactions()) != 0 {
		t.Error("ClearAll kept transactions")
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	existing := core.Transaction{ID: 1, Description: "Kept", Amount: core.NewMoney(10), Type: core.Expense, Category: "Food", Date: core.NewDate(2024, 1, 1)}
	clash := existing
	clash.Description = "Incoming"
	fresh := core.Transaction{ID: 2, Description: "New", Amount: core.NewMoney(20), Type: core.Income, Category: "Salary", Date: core.NewDate(2024, 1, 2)}

	tests := []struct {
		name      string
		mode      ImportMode
		wantDescs []string
		wantAdded int
	}{
		{"merge keeps existing on collision", Merge, []string{"Kept", "New"}, 1},
		{"replace substitutes", Replace, []string{"Incoming", "New"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(t, nil)
			if _, err := tr.Import(ctx, core.ImportSet{Transactions: []core.Transaction{existing}}, Replace); err != nil {
				t.Fatalf("seed: %v", err)
			}

			res, err := tr.Import(ctx, core.ImportSet{Transactions: []core.Transaction{clash, fresh}}, tt.mode)
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			if res.Transactions != tt.wantAdded {
				t.Errorf("added = %d, want %d", res.Transactions, tt.wantAdded)
			}
			got := tr.Transactions()
			if len(got) != len(tt.wantDescs) {
				t.Fatalf("transactions = %+v", got)
			}
			for i, want := range tt.wantDescs {
				if got[i].Description != want {
					t.Errorf("[%d] = %q, want %q", i, got[i].Description, want)
				}
			}

			// New IDs never collide with imported ones.
			added, err := tr.AddTransaction(ctx, expense("After", 1, "Food", core.NewDate(2024, 1, 3)))
			if err != nil {
				t.Fatal(err)
			}
			if added.ID <= fresh.ID {
				t.Errorf("new ID %d not past imported IDs", added.ID)
			}
		})
	}
}

func TestImportLeavesAbsentCollections(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, nil)
	b, err := tr.CreateBudget(ctx, core.Budget{
		Name: "Food", Category: "Food", Amount: core.NewMoney(100),
		StartDate: core.NewDate(2024, 3, 1), EndDate: core.NewDate(2024, 3, 31),
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := tr.Import(ctx, core.ImportSet{Transactions: []core.Transaction{}}, Replace); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, ok := tr.Budget(b.ID); !ok {
		t.Fatal("budget removed by transactions-only import")
	}

	if _, err := tr.Import(ctx, core.ImportSet{Budgets: []core.Budget{}}, Replace); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(tr.Budgets()) != 0 {
		t.Fatal("empty budget collection did not replace")
	}
}

func TestImportInvalidSettingsChangesNothing(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, nil)
	bad := 0
	set := core.ImportSet{
		Transactions: []core.Transaction{{ID: 5, Description: "x", Amount: core.NewMoney(1), Type: core.Expense, Category: "Food", Date: core.NewDate(2024, 1, 1)}},
		Settings:     &core.SettingsPatch{ItemsPerPage: &bad},
	}
	if _, err := tr.Import(ctx, set, Replace); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("Import = %v, want validation error", err)
	}
	if len(tr.Transactions()) != 0 || tr.Revision() != 0 {
		t.Fatal("state changed by rejected import")
	}
	if _, err := tr.Import(ctx, set, "overwrite"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("unknown mode = %v", err)
	}
}

func TestAddSampleData(t *testing.T) {
	tr := newTracker(t, nil)
	n, err := tr.AddSampleData(context.Background())
	if err != nil || n != 8 {
		t.Fatalf("AddSampleData = %d, %v", n, err)
	}
	txs := tr.Transactions()
	seen := make(map[int64]bool)
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			t.Errorf("sample %q invalid: %v", tx.Description, err)
		}
		if seen[tx.ID] {
			t.Errorf("duplicate id %d", tx.ID)
		}
		seen[tx.ID] = true
	}
	if txs[0].Description != "Monthly Salary" || !txs[0].Date.Equal(core.DateOf(fixedNow).Time) {
		t.Errorf("first sample = %+v", txs[0])
	}
}

func TestCommitHooks(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, nil)
	var events []Event
	tr.OnCommit(func(_ context.Context, ev Event) {
		// Hooks run outside the lock and may read the store.
		_ = tr.Revision()
		events = append(events, ev)
	})

	if _, err := tr.AddTransaction(ctx, expense("Lunch", 100, "Food", core.NewDate(2024, 3, 1))); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AddTransaction(ctx, expense("", 100, "Food", core.NewDate(2024, 3, 1))); err == nil {
		t.Fatal("expected validation error")
	}
	if err := tr.ResetDefaults(ctx); err != nil {
		t.Fatal(err)
	}

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Op != log.OpCreate || events[0].Revision != 1 || events[0].Keys[0] != storage.KeyTransactions {
		t.Errorf("first event = %+v", events[0])
	}
	if len(events[1].Keys) != 2 {
		t.Errorf("reset keys = %v", events[1].Keys)
	}
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t, nil)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.AddTransaction(ctx, expense("tx", int64(i+1), "Food", core.NewDate(2024, 3, 1)))
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	txs := tr.Transactions()
	if len(txs) != 20 {
		t.Fatalf("transactions = %d, want 20", len(txs))
	}
	ids := make(map[int64]bool)
	for _, tx := range txs {
		ids[tx.ID] = true
	}
	if len(ids) != 20 {
		t.Fatalf("distinct ids = %d, want 20", len(ids))
	}
}
