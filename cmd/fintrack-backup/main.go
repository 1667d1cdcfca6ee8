package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/backup"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentBackup)

	logger.Info("Starting fintrack-backup")

	// The worker reads the state the server persisted, so it needs the
	// shared database rather than a private in-memory store.
	if cfg.DataBackend != config.BackendSQLite {
		logger.Error("Backup worker requires the sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if !cfg.AMQPEnabled() && cfg.BackupInterval == 0 {
		logger.Error("Nothing to do: set AMQP_URL or BACKUP_INTERVAL")
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		log.LogError(ctx, logger, "Invalid backend configuration", err, log.OpStartup, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, bc)
	if err != nil {
		log.LogError(ctx, logger, "Failed to open storage", err, log.OpStartup, log.ErrorTypeStorage)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	opts := []backup.Option{backup.WithLogger(logger)}
	mirror, err := backend.CreateMirror(ctx, bc)
	if err != nil {
		// Backups to disk still work without the spreadsheet.
		logger.Warn("Spreadsheet mirror disabled", log.FieldError, err)
	} else if mirror != nil {
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		opts = append(opts, backup.WithMirror(mirror))
	}
	w := backup.NewWorker(res.KV, cfg.BackupDir, opts...)

	g, gctx := errgroup.WithContext(ctx)

	if res.Publisher != nil {
		g.Go(func() error {
			err := res.Publisher.ConsumeBackups(gctx, w.Handle)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Skipping AMQP consumption - no broker available")
	}

	if cfg.BackupInterval > 0 {
		sched := worker.NewScheduler(w, worker.Config{
			Interval:     cfg.BackupInterval,
			CheckOnStart: true,
		}, logger.WithComponent(log.ComponentWorker))
		if err := sched.Start(gctx); err != nil {
			logger.Error("Failed to start backup scheduler", log.FieldError, err)
			os.Exit(1)
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer stopCancel()
			return sched.Stop(stopCtx)
		})
	} else {
		logger.Info("Scheduled backups disabled")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Backup worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Backup worker shutdown complete")
}
