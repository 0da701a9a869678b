// Package analytics records usage events locally and optionally forwards them
// to a broker. Tracking never fails the caller: persistence and forwarding
// errors are logged and swallowed.
package analytics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// KeyEvents is the storage key holding the retained events.
const KeyEvents = "analytics_events"

// DefaultLimit is how many of the most recent events are kept.
const DefaultLimit = 1000

// Event is one tracked occurrence.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"eventName"`
	Category   string            `json:"category"`
	Properties map[string]string `json:"properties,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Tracker records events.
type Tracker interface {
	Track(ctx context.Context, name, category string, props map[string]string)
}

// Forwarder ships an event somewhere else, typically a message queue.
type Forwarder interface {
	Forward(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Track(context.Context, string, string, map[string]string) {}

// Overview summarizes the retained events.
type Overview struct {
	TotalEvents      int
	EventsByCategory map[string]int
	EventsLastWeek   int
	// MostActiveDay is the weekday name with the most events, "Unknown"
	// when there are none.
	MostActiveDay string
}

// Recorder keeps the last Limit events in a KV store.
type Recorder struct {
	mu        sync.Mutex
	kv        storage.KV
	forwarder Forwarder
	now       func() time.Time
	logger    *log.Logger
	limit     int
	key       string
	events    []Event
}

type Option func(*Recorder)

func WithForwarder(f Forwarder) Option {
	return func(r *Recorder) { r.forwarder = f }
}

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// WithKey stores the history under key instead of KeyEvents.
func WithKey(key string) Option {
	return func(r *Recorder) { r.key = key }
}

// WithLimit overrides DefaultLimit. Values below 1 are ignored.
func WithLimit(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.limit = n
		}
	}
}

// NewRecorder loads previously stored events. An unreadable document is
// logged and replaced by an empty history.
func NewRecorder(ctx context.Context, kv storage.KV, opts ...Option) *Recorder {
	r := &Recorder{kv: kv, now: time.Now, limit: DefaultLimit, key: KeyEvents}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.New(log.DefaultConfig())
	}
	r.logger = r.logger.WithComponent(log.ComponentAnalytics)

	if _, err := storage.GetJSON(ctx, kv, r.key, &r.events); err != nil {
		r.logger.WarnContext(ctx, "Discarding unreadable analytics history", log.FieldError, err)
		r.events = nil
	}
	return r
}

// Track records an event and forwards it when a forwarder is configured.
func (r *Recorder) Track(ctx context.Context, name, category string, props map[string]string) {
	e := Event{
		ID:         uuid.New(),
		Name:       name,
		Category:   category,
		Properties: props,
		Timestamp:  r.now(),
	}

	if err := r.Record(ctx, e); err != nil {
		r.logger.ErrorContext(ctx, "Failed to persist analytics event", log.FieldEvent, name, log.FieldError, err)
	}
	r.logger.DebugContext(ctx, "Analytics event", log.FieldEvent, name, log.FieldCategory, category)

	if r.forwarder != nil {
		if err := r.forwarder.Forward(ctx, e); err != nil {
			r.logger.WarnContext(ctx, "Failed to forward analytics event", log.FieldEvent, name, log.FieldError, err)
		}
	}
}

// Record appends an already built event, trims history to the limit and
// persists it. Events are never forwarded from here.
func (r *Recorder) Record(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
	if over := len(r.events) - r.limit; over > 0 {
		r.events = append([]Event(nil), r.events[over:]...)
	}
	return storage.PutJSON(ctx, r.kv, r.key, r.events)
}

// Events returns the retained events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Overview summarizes the retained events relative to now.
func (r *Recorder) Overview(now time.Time) Overview {
	r.mu.Lock()
	defer r.mu.Unlock()

	ov := Overview{
		TotalEvents:      len(r.events),
		EventsByCategory: make(map[string]int),
		MostActiveDay:    "Unknown",
	}
	weekAgo := now.AddDate(0, 0, -7)
	byDay := make(map[string]int)
	for _, e := range r.events {
		ov.EventsByCategory[e.Category]++
		if !e.Timestamp.Before(weekAgo) {
			ov.EventsLastWeek++
		}
		byDay[e.Timestamp.Weekday().String()]++
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	best := 0
	for _, d := range days {
		if byDay[d] > best {
			best = byDay[d]
			ov.MostActiveDay = d
		}
	}
	return ov
}

// Clear drops every retained event.
func (r *Recorder) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.kv.Delete(ctx, r.key); err != nil {
		return err
	}
	r.events = nil
	return nil
}
