package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/backup"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/report"
	"fintrack/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	tracker, res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		log.LogError(ctx, logger, "Failed to open storage", err, log.OpStartup, log.ErrorTypeStorage)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	m := metrics.New()
	tracker.OnCommit(m.CommitHook())
	if res.Publisher != nil {
		tracker.OnCommit(backup.Hook(m.Publisher(res.Publisher), logger.WithComponent(log.ComponentBackup)))
	}

	reporter := report.New(tracker, cfg.CacheTTL, logger.WithComponent(log.ComponentReport))
	caches := cache.NewManager(logger.WithComponent(log.ComponentCache))
	reporter.Register(caches)
	caches.StartCleanup(cfg.CacheCleanupInterval)
	defer caches.Stop()
	reporter.Warm(ctx, cfg.WarmupDelay)

	ready := func(context.Context) error { return nil }
	if db, ok := res.KV.(*storage.SQLiteStore); ok {
		ready = db.Ping
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Tracker:   tracker,
		Reporter:  reporter,
		Metrics:   m,
		Ready:     ready,
		Logger:    logger.WithComponent(log.ComponentHTTP),
		RateLimit: cfg.RateLimit,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"backups", res.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.LogError(shutdownCtx, logger, "Server shutdown error", err, log.OpShutdown, log.ErrorTypeInternal)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
