// Package worker runs periodic backups alongside the queue-driven ones, so
// a day never passes without a backup file even when messages are lost.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"fintrack/internal/log"
)

// ErrAlreadyRunning is returned by Start on a running scheduler.
var ErrAlreadyRunning = errors.New("backup scheduler is already running")

// Runner writes one backup.
type Runner interface {
	Run(ctx context.Context) (path string, count int, err error)
	HasBackupFor(day time.Time) bool
}

// Config holds configuration for the scheduler
type Config struct {
	// Interval is how often a backup is written (default: 6h)
	Interval time.Duration

	// CheckOnStart writes a backup at startup when today has none (default: true)
	CheckOnStart bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval:     6 * time.Hour,
		CheckOnStart: true,
	}
}

// Scheduler writes backups on a fixed interval.
type Scheduler struct {
	runner Runner
	config Config
	now    func() time.Time
	log    *log.Logger

	mu      sync.Mutex
	running bool
	runs    int
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(runner Runner, config Config, logger *log.Logger) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &Scheduler{
		runner: runner,
		config: config,
		now:    time.Now,
		log:    logger,
	}
}

// Start begins the backup loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	s.log.InfoContext(ctx, "Backup scheduler started",
		"interval", s.config.Interval,
		"check_on_start", s.config.CheckOnStart)
	return nil
}

// Stop ends the loop and waits for an in-flight backup to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		s.log.InfoContext(ctx, "Backup scheduler stopped gracefully")
	case <-ctx.Done():
		s.log.WarnContext(ctx, "Backup scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Runs returns the number of backups attempted since construction.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// StartupCheck writes a backup if today's file is missing and reports
// whether it did.
func (s *Scheduler) StartupCheck(ctx context.Context) (bool, error) {
	if s.runner.HasBackupFor(s.now()) {
		s.log.DebugContext(ctx, "Backup for today already present, skipping startup backup")
		return false, nil
	}
	s.log.InfoContext(ctx, "No backup for today, writing one now")
	return true, s.runOnce(ctx)
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	if s.config.CheckOnStart {
		// Failures are logged by runOnce; the ticker retries.
		_, _ = s.StartupCheck(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) error {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()

	start := time.Now()
	path, count, err := s.runner.Run(ctx)
	if err != nil {
		log.LogError(ctx, s.log, "Scheduled backup failed", err, log.OpBackup, log.ErrorTypeStorage)
		return err
	}
	s.log.InfoContext(ctx, "Scheduled backup written",
		"path", path,
		log.FieldCount, count,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
