package notify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cache"
	"fintrack/internal/log"
)

// Sender delivers a single notification.
type Sender interface {
	Send(ctx context.Context, req Request) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, req Request) error

func (f SenderFunc) Send(ctx context.Context, req Request) error { return f(ctx, req) }

// Options tunes a Dispatcher. Zero values fall back to defaults.
type Options struct {
	QueueSize int
	Workers   int
	// Cooldown collapses requests with the same identifier seen within the
	// window. Zero disables collapsing. Goal completions are only emitted on
	// the not completed to completed edge and are never collapsed.
	Cooldown time.Duration
	Now      func() time.Time
	Logger   *log.Logger
	// Caches, when set, sweeps expired cooldown entries.
	Caches *cache.Manager
}

const (
	DefaultQueueSize = 64
	DefaultWorkers   = 2
	maxTrackedIDs    = 1024
)

// Stats counts what happened to dispatched requests.
type Stats struct {
	Sent    int64
	Failed  int64
	Dropped int64
	Deduped int64
}

// Dispatcher queues requests and delivers them from background workers.
// Dispatch never blocks and delivery failures never reach the caller.
type Dispatcher struct {
	sender Sender
	logger *log.Logger
	queue  chan Request
	seen   *cache.LRUCache[struct{}]
	group  *errgroup.Group

	mu     sync.RWMutex
	closed bool

	sent, failed, dropped, deduped atomic.Int64
}

// NewDispatcher starts the workers. ctx values are inherited by sends, its
// cancellation is not: use Close to stop.
func NewDispatcher(ctx context.Context, sender Sender, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}

	d := &Dispatcher{
		sender: sender,
		logger: opts.Logger.WithComponent(log.ComponentNotify),
		queue:  make(chan Request, opts.QueueSize),
		group:  &errgroup.Group{},
	}
	if opts.Cooldown > 0 {
		d.seen = cache.NewLRUCache[struct{}](maxTrackedIDs, opts.Cooldown, cache.WithClock(opts.Now))
		if opts.Caches != nil {
			opts.Caches.Register(d.seen)
		}
	}

	sendCtx := context.WithoutCancel(ctx)
	for i := 0; i < opts.Workers; i++ {
		d.group.Go(func() error {
			d.work(sendCtx)
			return nil
		})
	}
	return d
}

// Dispatch enqueues reqs. Requests are dropped with a warning when the queue
// is full or the dispatcher is closed.
func (d *Dispatcher) Dispatch(ctx context.Context, reqs ...Request) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, req := range reqs {
		if d.closed {
			d.dropped.Add(1)
			d.logger.WarnContext(ctx, "Dispatcher closed, dropping notification", log.FieldIdentifier, req.Identifier)
			continue
		}
		collapse := d.seen != nil && req.Kind != KindGoalCompleted
		if collapse && !d.seen.SetIfAbsent(req.Identifier, struct{}{}) {
			d.deduped.Add(1)
			d.logger.DebugContext(ctx, "Notification collapsed within cooldown", log.FieldIdentifier, req.Identifier)
			continue
		}
		select {
		case d.queue <- req:
		default:
			if collapse {
				d.seen.Delete(req.Identifier)
			}
			d.dropped.Add(1)
			d.logger.WarnContext(ctx, "Notification queue full, dropping", log.FieldIdentifier, req.Identifier)
		}
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	for req := range d.queue {
		if err := d.sender.Send(ctx, req); err != nil {
			d.failed.Add(1)
			d.logger.ErrorContext(ctx, "Notification delivery failed",
				log.FieldIdentifier, req.Identifier,
				log.FieldError, err)
			continue
		}
		d.sent.Add(1)
	}
}

// Close stops accepting requests and waits for queued ones to be delivered
// or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain notifications: %w", ctx.Err())
	}
}

// Stats returns a snapshot of the delivery counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:    d.sent.Load(),
		Failed:  d.failed.Load(),
		Dropped: d.dropped.Load(),
		Deduped: d.deduped.Load(),
	}
}
