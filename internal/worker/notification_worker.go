package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/notify"
)

// NotificationWorker delivers queued notifications through a sender.
type NotificationWorker struct {
	sender notify.Sender
	maxAge time.Duration
	now    func() time.Time
}

// NewNotificationWorker creates a worker. Messages older than maxAge are
// dropped; zero keeps everything.
func NewNotificationWorker(sender notify.Sender, maxAge time.Duration) *NotificationWorker {
	return &NotificationWorker{sender: sender, maxAge: maxAge, now: time.Now}
}

func (w *NotificationWorker) HandleNotification(ctx context.Context, msg *amqp.NotificationMessage) error {
	if msg.Identifier == "" {
		return amqp.Permanent(fmt.Errorf("notification without identifier"))
	}
	if w.maxAge > 0 && !msg.Timestamp.IsZero() && w.now().Sub(msg.Timestamp) > w.maxAge {
		slog.WarnContext(ctx, "Dropping stale notification",
			"identifier", msg.Identifier,
			"queued_at", msg.Timestamp)
		return nil
	}

	if err := w.sender.Send(ctx, msg.Request); err != nil {
		return fmt.Errorf("deliver notification %s: %w", msg.Identifier, err)
	}
	slog.InfoContext(ctx, "Delivered notification",
		"identifier", msg.Identifier,
		"kind", msg.Kind)
	return nil
}
