package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/cli"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/worker"
)

const (
	source          = "fintrack-worker"
	shutdownTimeout = 30 * time.Second
	// notifications older than this are dropped instead of delivered late
	notificationMaxAge = 24 * time.Hour
	collectedKey       = "analytics_collected"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for fintrack-worker")
		os.Exit(1)
	}

	ctx := log.WithContext(context.Background(), logger)
	factory, bcfg, store, err := cli.OpenStore(ctx, logger, cfg, source)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	broker, err := factory.CreateBroker(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		_ = store.Cleanup()
		os.Exit(1)
	}
	cleanup := func(context.Context) {
		if err := broker.Close(); err != nil {
			logger.Error("Failed to close AMQP client", log.FieldError, err)
		}
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close store", log.FieldError, err)
		}
	}

	l, err := ledger.New(ctx, store.KV, ledger.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to load ledger", log.FieldError, err)
		cleanup(ctx)
		os.Exit(1)
	}

	writer, err := factory.CreateExportWriter(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize export writer", log.FieldError, err)
		cleanup(ctx)
		os.Exit(1)
	}
	if cfg.SheetsEnabled() {
		logger.Info("Exporting expenses to Google Sheets", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled, exported rows are kept in memory")
	}

	exporter := worker.NewExportWorker(l, writer, logger)
	notifier := worker.NewNotificationWorker(notify.LogSender{}, notificationMaxAge)
	collector := worker.NewAnalyticsWorker(analytics.NewRecorder(ctx, store.KV,
		analytics.WithKey(collectedKey),
		analytics.WithLogger(logger)))

	baseCtx, cancel := context.WithCancel(ctx)
	runCtx, done := cli.GracefulShutdown(baseCtx, logger, shutdownTimeout, cleanup)

	queues := broker.Queues()
	err = worker.RunConsumers(runCtx,
		worker.Consumer{Queue: queues.ExpenseSync, Run: func(ctx context.Context) error {
			return broker.ConsumeExpenseSync(ctx, exporter.HandleExpenseSync)
		}},
		worker.Consumer{Queue: queues.Notifications, Run: func(ctx context.Context) error {
			return broker.ConsumeNotifications(ctx, notifier.HandleNotification)
		}},
		worker.Consumer{Queue: queues.Analytics, Run: func(ctx context.Context) error {
			return broker.ConsumeAnalytics(ctx, collector.HandleAnalyticsEvent)
		}},
	)
	cancel()
	cli.WaitForShutdown(runCtx, done)

	if err != nil {
		logger.Error("Consumers stopped", log.FieldError, err)
		os.Exit(1)
	}
}
