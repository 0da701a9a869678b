package worker

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
)

// EventSink stores events collected from every publishing process.
type EventSink interface {
	Record(ctx context.Context, e analytics.Event) error
}

// AnalyticsWorker collects forwarded analytics events.
type AnalyticsWorker struct {
	sink EventSink
}

func NewAnalyticsWorker(sink EventSink) *AnalyticsWorker {
	return &AnalyticsWorker{sink: sink}
}

func (w *AnalyticsWorker) HandleAnalyticsEvent(ctx context.Context, msg *amqp.AnalyticsEventMessage) error {
	e := msg.Event
	if e.Name == "" {
		return amqp.Permanent(fmt.Errorf("analytics event without name"))
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Properties = maps.Clone(e.Properties)
	if e.Properties == nil {
		e.Properties = map[string]string{}
	}
	if msg.Source != "" {
		e.Properties["source"] = msg.Source
	}

	if err := w.sink.Record(ctx, e); err != nil {
		return fmt.Errorf("record analytics event %s: %w", e.Name, err)
	}
	slog.DebugContext(ctx, "Collected analytics event",
		"event", e.Name,
		"source", msg.Source)
	return nil
}
