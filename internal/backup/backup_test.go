package backup

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
	"fintrack/internal/store"
	"fintrack/internal/transfer"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu   sync.Mutex
	reqs []*amqp.BackupRequest
	err  error
}

func (p *recordingPublisher) PublishBackup(_ context.Context, req *amqp.BackupRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reqs = append(p.reqs, req)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reqs)
}

func openTracker(t *testing.T, kv storage.KV) *store.Tracker {
	t.Helper()
	tr, err := store.Open(context.Background(), kv,
		store.WithClock(func() time.Time { return fixedNow }),
		store.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return tr
}

func salary() core.Transaction {
	return core.Transaction{
		Description: "Salary",
		Amount:      core.NewMoney(2000),
		Type:        core.Income,
		Category:    "Salary",
		Date:        core.NewDate(2024, 3, 1),
	}
}

func TestHookPublishesOnlyWithAutoBackup(t *testing.T) {
	ctx := context.Background()
	tr := openTracker(t, storage.NewMemory(storage.DefaultPrefix))
	pub := &recordingPublisher{}
	tr.OnCommit(Hook(pub, log.Discard()))

	if _, err := tr.AddTransaction(ctx, salary()); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if pub.count() != 0 {
		t.Fatalf("published %d requests with autoBackup off", pub.count())
	}

	on := true
	if _, err := tr.UpdateSettings(ctx, core.SettingsPatch{AutoBackup: &on}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if _, err := tr.AddTransaction(ctx, salary()); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	if pub.count() != 2 {
		t.Fatalf("published %d requests, want 2", pub.count())
	}
	last := pub.reqs[1]
	if last.Revision != tr.Revision() || last.Reason != log.OpCreate {
		t.Errorf("request = %+v, want revision %d reason %q", last, tr.Revision(), log.OpCreate)
	}
}

func TestHookPublishFailureKeepsCommit(t *testing.T) {
	ctx := context.Background()
	tr := openTracker(t, storage.NewMemory(storage.DefaultPrefix))
	on := true
	if _, err := tr.UpdateSettings(ctx, core.SettingsPatch{AutoBackup: &on}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	tr.OnCommit(Hook(&recordingPublisher{err: errors.New("circuit breaker is open")}, log.Discard()))

	if _, err := tr.AddTransaction(ctx, salary()); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if len(tr.Transactions()) != 1 {
		t.Fatal("commit lost after publish failure")
	}
}

func TestWorkerWritesBackup(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory(storage.DefaultPrefix)
	tr := openTracker(t, kv)
	if _, err := tr.AddTransaction(ctx, salary()); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "backups")
	mirror := memory.New()
	w := NewWorker(kv, dir,
		WithMirror(mirror),
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(log.Discard()))

	if w.HasBackupFor(fixedNow) {
		t.Fatal("HasBackupFor() = true before the first backup")
	}
	if err := w.Handle(ctx, amqp.NewBackupRequest(tr.Revision(), log.OpCreate)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !w.HasBackupFor(fixedNow) {
		t.Error("HasBackupFor() = false after Handle")
	}
	if w.HasBackupFor(fixedNow.AddDate(0, 0, 1)) {
		t.Error("HasBackupFor() = true for the next day")
	}

	path := filepath.Join(dir, "finance-tracker-complete-2024-03-15.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	var b transfer.Backup
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if b.Version != transfer.Version || len(b.Data.Transactions) != 1 || b.Summary.TotalTransactions != 1 {
		t.Errorf("backup = %+v", b)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}

	rows, _ := mirror.ListTransactions(ctx)
	if len(rows) != 1 || rows[0].Description != "Salary" {
		t.Errorf("mirror rows = %+v", rows)
	}
}

func TestWorkerReadsLatestState(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory(storage.DefaultPrefix)
	tr := openTracker(t, kv)
	w := NewWorker(kv, t.TempDir(), WithClock(func() time.Time { return fixedNow }), WithLogger(log.Discard()))

	if _, count, err := w.Run(ctx); err != nil || count != 0 {
		t.Fatalf("Run() = %d, %v", count, err)
	}
	if _, err := tr.AddTransaction(ctx, salary()); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if _, count, err := w.Run(ctx); err != nil || count != 1 {
		t.Fatalf("Run() after commit = %d, %v", count, err)
	}
}

func TestWorkerCorruptState(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory(storage.DefaultPrefix)
	if err := kv.Set(ctx, storage.KeyTransactions, []byte("{not json")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	w := NewWorker(kv, t.TempDir(), WithLogger(log.Discard()))

	err := w.Handle(ctx, amqp.NewBackupRequest(1, log.OpImport))
	if !errors.Is(err, store.ErrCorrupt) {
		t.Fatalf("Handle() error = %v, want ErrCorrupt", err)
	}
}
