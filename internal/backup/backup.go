// Package backup turns committed changes into backup requests and serves
// those requests by writing full JSON exports to disk, optionally
// mirroring the transaction log into a spreadsheet.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
	"fintrack/internal/store"
	"fintrack/internal/transfer"
)

// Publisher sends backup requests to the worker.
type Publisher interface {
	PublishBackup(ctx context.Context, req *amqp.BackupRequest) error
}

// Hook returns a commit hook that requests a backup after every commit
// made while settings.autoBackup is on. Publish failures are logged and
// never fail the commit.
func Hook(pub Publisher, logger *log.Logger) store.CommitHook {
	return func(ctx context.Context, ev store.Event) {
		if !ev.Settings.AutoBackup {
			return
		}
		// The request may be gone by the time the broker answers.
		ctx = context.WithoutCancel(ctx)
		req := amqp.NewBackupRequest(ev.Revision, ev.Op)
		if err := pub.PublishBackup(ctx, req); err != nil {
			logger.WarnContext(ctx, "Backup request not published",
				log.FieldError, err,
				log.FieldRevision, ev.Revision,
				log.FieldOperation, ev.Op)
		}
	}
}

// Worker writes backups of the persisted state.
type Worker struct {
	kv     storage.KV
	dir    string
	mirror sheets.TransactionWriter
	now    func() time.Time
	log    *log.Logger
}

type Option func(*Worker)

// WithMirror also replaces the spreadsheet copy of the transaction log on
// every backup.
func WithMirror(m sheets.TransactionWriter) Option {
	return func(w *Worker) { w.mirror = m }
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(w *Worker) { w.log = l }
}

func NewWorker(kv storage.KV, dir string, opts ...Option) *Worker {
	w := &Worker{
		kv:  kv,
		dir: dir,
		now: time.Now,
		log: log.Default(log.ComponentBackup),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Handle serves one backup request. The state is reloaded from storage so
// the file reflects the latest commit, not the revision in the request.
func (w *Worker) Handle(ctx context.Context, req *amqp.BackupRequest) error {
	start := time.Now()
	path, count, err := w.Run(ctx)
	if err != nil {
		log.LogError(ctx, w.log, "Backup failed", err, log.OpBackup, log.ErrorTypeStorage)
		return err
	}
	w.log.InfoContext(ctx, "Backup written",
		log.FieldID, req.ID,
		log.FieldRevision, req.Revision,
		"reason", req.Reason,
		"path", path,
		log.FieldCount, count,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Run writes one backup file and returns its path and the number of
// transactions it holds.
func (w *Worker) Run(ctx context.Context) (string, int, error) {
	tracker, err := store.Open(ctx, w.kv, store.WithLogger(log.Discard()), store.WithClock(w.now))
	if err != nil {
		return "", 0, fmt.Errorf("load state: %w", err)
	}
	ds, _ := tracker.Snapshot()
	now := w.now()

	var buf bytes.Buffer
	if err := transfer.WriteJSON(&buf, transfer.NewBackup(ds, now)); err != nil {
		return "", 0, fmt.Errorf("encode backup: %w", err)
	}
	path := filepath.Join(w.dir, transfer.BackupFilename(now))
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", 0, fmt.Errorf("write backup: %w", err)
	}

	if w.mirror != nil {
		if err := w.mirror.WriteTransactions(ctx, ds.Transactions); err != nil {
			return path, len(ds.Transactions), fmt.Errorf("mirror transactions: %w", err)
		}
	}
	return path, len(ds.Transactions), nil
}

// HasBackupFor reports whether the backup file for day is already on disk.
func (w *Worker) HasBackupFor(day time.Time) bool {
	_, err := os.Stat(filepath.Join(w.dir, transfer.BackupFilename(day)))
	return err == nil
}

// writeFileAtomic replaces path so readers never see a partial backup.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
