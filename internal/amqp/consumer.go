package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Handler processes one message body. Returning an error requeues the
// message unless the error is wrapped with Permanent.
type Handler func(ctx context.Context, body []byte) error

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying: the message is rejected
// without requeue.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Consume delivers messages from queue to handler with manual acks until ctx
// ends. Lost connections are re-established with exponential backoff.
func (c *Client) Consume(ctx context.Context, queue string, handler Handler) error {
	attempt := 0
	for {
		err := c.consumeOnce(ctx, queue, handler, func() { attempt = 0 })
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP consumer lost connection, retrying",
			"queue", queue,
			"attempt", attempt+1,
			"backoff", wait,
			"error", err)
		c.resetConnection()
		attempt++

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, queue string, handler Handler, started func()) error {
	ch, err := c.ensureChannel()
	if err != nil {
		return err
	}
	msgs, err := ch.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack (manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	started()

	slog.InfoContext(ctx, "Started consuming", "queue", queue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "queue", queue, "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed: %w", amqp091.ErrClosed)
			}
			handleDelivery(ctx, queue, delivery, handler)
		}
	}
}

// handleDelivery acks on success, requeues on a transient error and rejects
// on a permanent one.
func handleDelivery(ctx context.Context, queue string, d amqp091.Delivery, handler Handler) {
	err := handler(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			slog.ErrorContext(ctx, "Failed to ack message", "queue", queue, "error", ackErr)
		}
	case IsPermanent(err):
		slog.ErrorContext(ctx, "Rejecting message", "queue", queue, "error", err)
		_ = d.Nack(false, false)
	default:
		slog.ErrorContext(ctx, "Failed to handle message, requeueing", "queue", queue, "error", err)
		_ = d.Nack(false, true)
	}
}

// ConsumeJSON decodes each message into T before calling handler. Bodies
// that do not decode are rejected without requeue.
func ConsumeJSON[T any](ctx context.Context, c *Client, queue string, handler func(context.Context, *T) error) error {
	return c.Consume(ctx, queue, JSONHandler(handler))
}

// JSONHandler adapts a typed handler to Handler.
func JSONHandler[T any](handler func(context.Context, *T) error) Handler {
	return func(ctx context.Context, body []byte) error {
		msg, err := FromJSON[T](body)
		if err != nil {
			return Permanent(err)
		}
		return handler(ctx, msg)
	}
}

// ConsumeExpenseSync consumes the expense export queue.
func (c *Client) ConsumeExpenseSync(ctx context.Context, handler func(context.Context, *ExpenseSyncMessage) error) error {
	return ConsumeJSON(ctx, c, c.queues.ExpenseSync, handler)
}

// ConsumeNotifications consumes the notification queue.
func (c *Client) ConsumeNotifications(ctx context.Context, handler func(context.Context, *NotificationMessage) error) error {
	return ConsumeJSON(ctx, c, c.queues.Notifications, handler)
}

// ConsumeAnalytics consumes the analytics queue.
func (c *Client) ConsumeAnalytics(ctx context.Context, handler func(context.Context, *AnalyticsEventMessage) error) error {
	return ConsumeJSON(ctx, c, c.queues.Analytics, handler)
}
