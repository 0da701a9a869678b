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
	"fintrack/internal/services"
)

const (
	source          = "recurring-worker"
	shutdownTimeout = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentRecurring)
	logger.Info("Starting recurring-worker")

	ctx := log.WithContext(context.Background(), logger)
	factory, bcfg, store, err := cli.OpenStore(ctx, logger, cfg, source)
	if err != nil {
		logger.Error("Failed to open store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	l, err := ledger.New(ctx, store.KV, ledger.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to load ledger", log.FieldError, err)
		_ = store.Cleanup()
		os.Exit(1)
	}

	var (
		sender notify.Sender = notify.LogSender{}
		opts   []services.Option
	)
	broker, err := factory.CreateBroker(ctx, bcfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without broker", log.FieldError, err)
	}
	if broker != nil {
		sender = broker
		opts = append(opts, services.WithExporter(broker))
		logger.Info("AMQP client initialized, created expenses will be exported by fintrack-worker")
	}

	dispatcher := notify.NewDispatcher(ctx, sender, notify.Options{
		QueueSize: cfg.NotifyQueueSize,
		Workers:   cfg.NotifyWorkers,
		Cooldown:  cfg.NotifyCooldown,
		Logger:    logger,
	})
	opts = append(opts, services.WithNotifier(dispatcher))

	if cfg.AnalyticsEnabled {
		var recOpts []analytics.Option
		recOpts = append(recOpts, analytics.WithLogger(logger))
		if broker != nil {
			recOpts = append(recOpts, analytics.WithForwarder(broker))
		}
		opts = append(opts, services.WithTracker(analytics.NewRecorder(ctx, store.KV, recOpts...)))
	}

	finance := services.NewFinanceService(l, opts...)
	scheduler := services.NewScheduler(
		services.NewRecurringProcessor(finance, services.DefaultMaxCatchUp),
		services.SchedulerConfig{Interval: cfg.RecurringInterval},
	)
	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"backend", cfg.DataBackend)

	stopped := make(chan struct{})
	runCtx, done := cli.GracefulShutdown(ctx, logger, shutdownTimeout, func(shutdownCtx context.Context) {
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
		}
		if err := dispatcher.Close(shutdownCtx); err != nil {
			logger.Error("Failed to drain notifications", log.FieldError, err)
		}
		if broker != nil {
			if err := broker.Close(); err != nil {
				logger.Error("Failed to close AMQP client", log.FieldError, err)
			}
		}
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close store", log.FieldError, err)
		}
	})

	if err := scheduler.Run(runCtx); err != nil {
		logger.Error("Scheduler stopped", log.FieldError, err)
	}
	close(stopped)
	cli.WaitForShutdown(runCtx, done)
}
