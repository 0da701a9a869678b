package notify

import (
	"context"

	"fintrack/internal/log"
)

// LogSender writes notifications to the log. It is the sender used when no
// message broker is configured.
type LogSender struct {
	Logger *log.Logger
}

func (s LogSender) Send(ctx context.Context, req Request) error {
	logger := s.Logger
	if logger == nil {
		logger = log.FromContext(ctx)
	}
	logger.WithComponent(log.ComponentNotify).InfoContext(ctx, req.Title,
		"kind", req.Kind,
		log.FieldIdentifier, req.Identifier,
		"body", req.Body)
	return nil
}

// MultiSender fans a notification out to every sender and returns the first
// error after trying them all.
type MultiSender []Sender

func (m MultiSender) Send(ctx context.Context, req Request) error {
	var first error
	for _, s := range m {
		if err := s.Send(ctx, req); err != nil && first == nil {
			first = err
		}
	}
	return first
}
