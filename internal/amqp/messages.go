package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/analytics"
	"fintrack/internal/notify"
)

// Expense sync versions. The spreadsheet is an append-only export, so only
// SyncVersionCreated adds a row.
const (
	SyncVersionCreated int64 = 1
	SyncVersionUpdated int64 = 2
)

// ExpenseSyncMessage asks the export worker to push one expense out.
// It carries only the id; the worker reads the expense from storage.
type ExpenseSyncMessage struct {
	ID        uuid.UUID `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseSyncMessage creates a sync message stamped with the current time.
func NewExpenseSyncMessage(id uuid.UUID, version int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// NotificationMessage is a queued notification request.
type NotificationMessage struct {
	notify.Request
	Timestamp time.Time `json:"timestamp"`
}

// AnalyticsEventMessage wraps a tracked event with its origin.
type AnalyticsEventMessage struct {
	Event  analytics.Event `json:"event"`
	Source string          `json:"source"`
}

// ToJSON converts a message to JSON bytes
func ToJSON(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// FromJSON decodes a message body into T.
func FromJSON[T any](data []byte) (*T, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode %T: %w", msg, err)
	}
	return &msg, nil
}
