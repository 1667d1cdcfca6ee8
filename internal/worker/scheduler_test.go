package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/log"
)

type fakeRunner struct {
	mu      sync.Mutex
	runs    int
	err     error
	present bool
}

func (f *fakeRunner) Run(context.Context) (string, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	if f.err != nil {
		return "", 0, f.err
	}
	f.present = true
	return "/backups/finance-tracker-complete-2024-03-15.json", 3, nil
}

func (f *fakeRunner) HasBackupFor(time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.present
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Interval != 6*time.Hour {
		t.Errorf("expected Interval 6h, got %v", config.Interval)
	}
	if !config.CheckOnStart {
		t.Error("expected CheckOnStart to be enabled")
	}
}

func TestNewSchedulerFillsInterval(t *testing.T) {
	s := NewScheduler(&fakeRunner{}, Config{}, log.Discard())
	if s.config.Interval != DefaultConfig().Interval {
		t.Errorf("Interval = %v, want default", s.config.Interval)
	}
}

func TestScheduler_IsRunning(t *testing.T) {
	s := NewScheduler(&fakeRunner{}, DefaultConfig(), log.Discard())

	if s.IsRunning() {
		t.Error("scheduler should not be running initially")
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	config := DefaultConfig()
	config.CheckOnStart = false
	s := NewScheduler(&fakeRunner{}, config, log.Discard())

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(ctx)

	if err := s.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestScheduler_StopNotRunning(t *testing.T) {
	s := NewScheduler(&fakeRunner{}, DefaultConfig(), log.Discard())

	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop on idle scheduler should not error, got %v", err)
	}
}

func TestScheduler_StartupCheck(t *testing.T) {
	tests := []struct {
		name    string
		present bool
		err     error
		wantRan bool
		wantErr bool
	}{
		{name: "missing backup", wantRan: true},
		{name: "backup present", present: true},
		{name: "backup fails", err: errors.New("disk full"), wantRan: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{present: tt.present, err: tt.err}
			s := NewScheduler(runner, DefaultConfig(), log.Discard())

			ran, err := s.StartupCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("StartupCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
			if ran != tt.wantRan {
				t.Errorf("StartupCheck() ran = %v, want %v", ran, tt.wantRan)
			}
			wantRuns := 0
			if tt.wantRan {
				wantRuns = 1
			}
			if runner.count() != wantRuns {
				t.Errorf("runner.Run called %d times, want %d", runner.count(), wantRuns)
			}
		})
	}
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	runner := &fakeRunner{}
	s := NewScheduler(runner, Config{Interval: 10 * time.Millisecond, CheckOnStart: true}, log.Discard())

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runner.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler still running after Stop")
	}
	if runner.count() < 3 {
		t.Errorf("runner.Run called %d times, want at least 3", runner.count())
	}
	if s.Runs() != runner.count() {
		t.Errorf("Runs() = %d, runner saw %d", s.Runs(), runner.count())
	}
}

func TestScheduler_StopsWithContext(t *testing.T) {
	config := DefaultConfig()
	config.CheckOnStart = false
	s := NewScheduler(&fakeRunner{}, config, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	select {
	case <-s.doneCh:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after context cancellation")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop after cancellation: %v", err)
	}
}
