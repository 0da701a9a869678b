package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/services"
)

const (
	source               = "fintrack"
	cacheCleanupInterval = time.Minute
)

// App holds the collaborators a command works with.
type App struct {
	Finance *services.FinanceService
	// Analytics is nil when analytics are disabled.
	Analytics *analytics.Recorder
	Logger    *log.Logger

	closers []func(context.Context) error
}

// Ledger is the store behind Finance.
func (a *App) Ledger() *ledger.Store {
	return a.Finance.Ledger()
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, fn := range slices.Backward(a.closers) {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// session lazily opens the App the first time a runnable command needs it.
type session struct {
	app     *App
	owned   bool
	envFile string
}

func (s *session) open(ctx context.Context, stderr io.Writer) error {
	if s.app != nil {
		return nil
	}
	app, err := openApp(ctx, s.envFile, stderr)
	if err != nil {
		return err
	}
	s.app, s.owned = app, true
	return nil
}

func (s *session) close(ctx context.Context) error {
	if s.app == nil || !s.owned {
		return nil
	}
	err := s.app.Close(ctx)
	if err != nil {
		s.app.Logger.ErrorContext(ctx, "Shutdown failed", log.FieldError, err)
	}
	s.app = nil
	return err
}

// openApp wires storage, broker, notifications and analytics from the
// environment.
func openApp(ctx context.Context, envFile string, stderr io.Writer) (*App, error) {
	if envFile != "" {
		cli.LoadEnvFile(envFile)
	} else {
		cli.LoadEnvFile()
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}

	lc := cfg.LoggerConfig()
	lc.Output = stderr
	lc.Component = log.ComponentCLI
	logger := log.New(lc)
	log.SetDefault(logger)
	ctx = log.WithContext(ctx, logger)

	factory, bcfg, store, err := cli.OpenStore(ctx, logger, cfg, source)
	if err != nil {
		return nil, err
	}

	app := &App{Logger: logger}
	app.onClose(func(context.Context) error { return store.Cleanup() })

	l, err := ledger.New(ctx, store.KV, ledger.WithLogger(logger))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open ledger: %w", err), app.Close(ctx))
	}

	var (
		sender notify.Sender = notify.LogSender{}
		opts   []services.Option
	)

	broker, err := factory.CreateBroker(ctx, bcfg)
	if err != nil {
		logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without broker", log.FieldError, err)
	}
	if broker != nil {
		app.onClose(func(context.Context) error { return broker.Close() })
		sender = broker
		opts = append(opts, services.WithExporter(broker))
	}

	caches := cache.NewManager()
	caches.StartCleanup(ctx, cacheCleanupInterval)
	app.onClose(func(context.Context) error {
		caches.Stop()
		return nil
	})

	dispatcher := notify.NewDispatcher(ctx, sender, notify.Options{
		QueueSize: cfg.NotifyQueueSize,
		Workers:   cfg.NotifyWorkers,
		Cooldown:  cfg.NotifyCooldown,
		Logger:    logger,
		Caches:    caches,
	})
	app.onClose(dispatcher.Close)
	opts = append(opts, services.WithNotifier(dispatcher))

	if cfg.AnalyticsEnabled {
		recOpts := []analytics.Option{analytics.WithLogger(logger)}
		if broker != nil {
			recOpts = append(recOpts, analytics.WithForwarder(broker))
		}
		app.Analytics = analytics.NewRecorder(ctx, store.KV, recOpts...)
		opts = append(opts, services.WithTracker(app.Analytics))
	}

	app.Finance = services.NewFinanceService(l, opts...)
	return app, nil
}
