package worker

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
)

func quiet() *log.Logger { return log.New(log.Config{Output: &bytes.Buffer{}}) }

type failingWriter struct{}

func (failingWriter) Append(context.Context, core.Expense) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestExportWorker_HandleExpenseSync(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()

	// the app process writes, the worker holds its own ledger over the same KV
	app, err := ledger.New(ctx, kv, ledger.WithLogger(quiet()))
	require.NoError(t, err)
	workerLedger, err := ledger.New(ctx, kv, ledger.WithLogger(quiet()))
	require.NoError(t, err)

	e, _, err := app.AddExpense(ctx, core.NewExpense(decimal.RequireFromString("9.99"), "Books", core.NewDate(2025, 3, 2)))
	require.NoError(t, err)

	sheet := memory.New()
	w := NewExportWorker(workerLedger, sheet, quiet())

	require.NoError(t, w.HandleExpenseSync(ctx, amqp.NewExpenseSyncMessage(e.ID, 1)))
	rows := sheet.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Books", rows[0][1])
	assert.Equal(t, "9.99", rows[0][3])

	t.Run("update does not add a second row", func(t *testing.T) {
		require.NoError(t, w.HandleExpenseSync(ctx, amqp.NewExpenseSyncMessage(e.ID, amqp.SyncVersionUpdated)))
		assert.Len(t, sheet.Rows(), 1)
	})

	t.Run("unknown expense is skipped", func(t *testing.T) {
		require.NoError(t, w.HandleExpenseSync(ctx, amqp.NewExpenseSyncMessage(uuid.New(), 1)))
		assert.Len(t, sheet.Rows(), 1)
	})

	t.Run("writer failure is retried", func(t *testing.T) {
		failing := NewExportWorker(workerLedger, failingWriter{}, quiet())
		err := failing.HandleExpenseSync(ctx, amqp.NewExpenseSyncMessage(e.ID, 1))
		require.Error(t, err)
		assert.False(t, amqp.IsPermanent(err))
	})

	t.Run("corrupt ledger fails reload", func(t *testing.T) {
		require.NoError(t, kv.Put(ctx, ledger.KeyExpenses, []byte("{")))
		assert.Error(t, w.HandleExpenseSync(ctx, amqp.NewExpenseSyncMessage(e.ID, 1)))
	})
}

func TestNotificationWorker_HandleNotification(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	var sent []notify.Request
	sender := notify.SenderFunc(func(_ context.Context, req notify.Request) error {
		if req.Title == "fail" {
			return errors.New("smtp down")
		}
		sent = append(sent, req)
		return nil
	})
	w := NewNotificationWorker(sender, time.Hour)
	w.now = func() time.Time { return now }

	tests := []struct {
		name      string
		msg       amqp.NotificationMessage
		wantErr   bool
		permanent bool
		wantSent  int
	}{
		{
			name:     "delivered",
			msg:      amqp.NotificationMessage{Request: notify.Request{Kind: notify.KindGoalCompleted, Identifier: "goal_completed_1"}, Timestamp: now.Add(-time.Minute)},
			wantSent: 1,
		},
		{
			name:     "stale is dropped",
			msg:      amqp.NotificationMessage{Request: notify.Request{Identifier: "old"}, Timestamp: now.Add(-2 * time.Hour)},
			wantSent: 1,
		},
		{
			name:      "missing identifier",
			msg:       amqp.NotificationMessage{Request: notify.Request{Title: "x"}},
			wantErr:   true,
			permanent: true,
			wantSent:  1,
		},
		{
			name:     "sender failure",
			msg:      amqp.NotificationMessage{Request: notify.Request{Identifier: "x", Title: "fail"}, Timestamp: now},
			wantErr:  true,
			wantSent: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.HandleNotification(ctx, &tt.msg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.permanent, amqp.IsPermanent(err))
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, sent, tt.wantSent)
		})
	}
}

func TestAnalyticsWorker_HandleAnalyticsEvent(t *testing.T) {
	ctx := context.Background()
	sink := analytics.NewRecorder(ctx, storage.NewMemoryKV(), analytics.WithKey("collected"), analytics.WithLogger(quiet()))
	w := NewAnalyticsWorker(sink)

	props := map[string]string{"category": "Food"}
	msg := &amqp.AnalyticsEventMessage{
		Event:  analytics.Event{Name: "expense_added", Category: "expense", Properties: props},
		Source: "fintrack",
	}
	require.NoError(t, w.HandleAnalyticsEvent(ctx, msg))

	events := sink.Events()
	require.Len(t, events, 1)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.Equal(t, "fintrack", events[0].Properties["source"])
	assert.NotContains(t, props, "source", "message properties are not mutated")

	err := w.HandleAnalyticsEvent(ctx, &amqp.AnalyticsEventMessage{})
	assert.True(t, amqp.IsPermanent(err))
}
