package backend

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteStore(ctx, config)
	case MemoryBackend:
		return f.createMemoryStore(ctx)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteStore(ctx context.Context, config Config) (*Result, error) {
	kv, err := storage.NewSQLiteKV(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		KV:      kv,
		Cleanup: kv.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryStore(ctx context.Context) (*Result, error) {
	kv := storage.NewMemoryKV()

	f.logger.InfoContext(ctx, "Initialized memory backend")

	return &Result{
		KV:      kv,
		Cleanup: kv.Close,
	}, nil
}

// CreateBroker implements Factory.CreateBroker
func (f *DefaultFactory) CreateBroker(ctx context.Context, config Config) (*amqp.Client, error) {
	if config.AMQPURL == "" {
		f.logger.InfoContext(ctx, "AMQP not configured, running without broker")
		return nil, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.Source, config.AMQPQueues)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"notification_queue", config.AMQPQueues.Notifications,
		"analytics_queue", config.AMQPQueues.Analytics,
		"export_queue", config.AMQPQueues.ExpenseSync)

	return client, nil
}

// CreateExportWriter implements Factory.CreateExportWriter
func (f *DefaultFactory) CreateExportWriter(ctx context.Context, config Config) (sheets.ExpenseWriter, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.InfoContext(ctx, "No spreadsheet configured, exporting to memory")
		return memory.New(), nil
	}

	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets export", "sheet", config.GoogleSheetName)
	return cli, nil
}
