package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SchedulerConfig holds configuration for the recurring scheduler
type SchedulerConfig struct {
	// Interval is how often due transactions are processed (default: 1h)
	Interval time.Duration

	// Now supplies the processing time (default: time.Now)
	Now func() time.Time
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval: time.Hour,
		Now:      time.Now,
	}
}

// Scheduler runs a RecurringProcessor on a fixed interval.
type Scheduler struct {
	processor *RecurringProcessor
	config    SchedulerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(processor *RecurringProcessor, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Scheduler{
		processor: processor,
		config:    config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.runLoop(ctx, s.stopCh, s.doneCh)

	slog.InfoContext(ctx, "Recurring scheduler started", "interval", s.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current run to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Recurring scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recurring scheduler stop timed out")
		return ctx.Err()
	}
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return s.Stop(stopCtx)
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Process immediately on startup
	s.tick(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()
	n, err := s.processor.ProcessDue(ctx, s.config.Now())
	if err != nil {
		slog.ErrorContext(ctx, "Recurring processing failed",
			"processed", n,
			"duration", time.Since(start),
			"error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Recurring processing run finished",
			"processed", n,
			"duration", time.Since(start))
	}
}
