package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
)

// amqpDialAttempts bounds start-up retries against the broker.
const amqpDialAttempts = 3

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		kv  storage.KV
		err error
	)
	switch config.Type {
	case SQLiteBackend:
		kv, err = f.createSQLiteStore(config)
	case MemoryBackend:
		kv = f.createMemoryStore(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result := &BackendResult{KV: kv}
	if config.AMQPURL != "" {
		client, err := amqp.Dial(ctx, config.AMQPURL, config.AMQPExchange, config.AMQPQueue, amqpDialAttempts)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without backups", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
		}
	}

	result.Cleanup = func() error {
		var errs []error
		if result.Publisher != nil {
			errs = append(errs, result.Publisher.Close())
		}
		errs = append(errs, kv.Close())
		return errors.Join(errs...)
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteStore(config Config) (storage.KV, error) {
	kv, err := storage.NewSQLiteStore(config.SQLiteDBPath, config.StoragePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return kv, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) storage.KV {
	f.logger.Info("Initialized memory backend")
	return storage.NewMemory(config.StoragePrefix)
}

// CreateMirror returns the spreadsheet mirror, or nil when no spreadsheet
// is configured.
func CreateMirror(ctx context.Context, config Config) (sheets.TransactionWriter, error) {
	if config.GoogleSpreadsheetID == "" {
		return nil, nil
	}
	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return cli, nil
}
