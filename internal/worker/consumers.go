package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ErrNoConsumers is returned by RunConsumers when no queue is configured.
var ErrNoConsumers = errors.New("no queues configured")

// Consumer reads one queue until its context ends.
type Consumer struct {
	Queue string
	Run   func(ctx context.Context) error
}

// RunConsumers runs every consumer with a queue name and blocks until ctx
// ends or one of them stops. The first consumer to stop on its own cancels
// the rest and its error is returned; stopping because ctx ended is not an
// error.
func RunConsumers(ctx context.Context, consumers ...Consumer) error {
	g, gctx := errgroup.WithContext(ctx)
	started := 0
	for _, c := range consumers {
		if c.Queue == "" {
			continue
		}
		started++
		slog.InfoContext(ctx, "Consuming queue", "queue", c.Queue)
		g.Go(func() error {
			err := c.Run(gctx)
			if gctx.Err() != nil {
				return nil
			}
			if err == nil {
				err = errors.New("consumer stopped unexpectedly")
			}
			return fmt.Errorf("consume %s: %w", c.Queue, err)
		})
	}
	if started == 0 {
		return ErrNoConsumers
	}
	return g.Wait()
}
