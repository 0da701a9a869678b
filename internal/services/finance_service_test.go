package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/seed"
	"fintrack/internal/storage"
)

var testNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type trackedEvent struct {
	name, category string
	props          map[string]string
}

type fakeTracker struct {
	mu      sync.Mutex
	events  []trackedEvent
	cleared int
}

func (f *fakeTracker) Track(_ context.Context, name, category string, props map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, trackedEvent{name, category, props})
}

func (f *fakeTracker) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	f.events = nil
	return nil
}

func (f *fakeTracker) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.name)
	}
	return out
}

func (f *fakeTracker) last(name string) (trackedEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].name == name {
			return f.events[i], true
		}
	}
	return trackedEvent{}, false
}

type fakeNotifier struct{ reqs []notify.Request }

func (f *fakeNotifier) Dispatch(_ context.Context, reqs ...notify.Request) {
	f.reqs = append(f.reqs, reqs...)
}

type syncCall struct {
	id      uuid.UUID
	version int64
}

type fakeExporter struct {
	calls []syncCall
	err   error
}

func (f *fakeExporter) PublishExpenseSync(_ context.Context, id uuid.UUID, version int64) error {
	f.calls = append(f.calls, syncCall{id, version})
	return f.err
}

type fixture struct {
	svc      *FinanceService
	store    *ledger.Store
	tracker  *fakeTracker
	notifier *fakeNotifier
	exporter *fakeExporter
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := ledger.New(context.Background(), storage.NewMemoryKV(),
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithLogger(log.New(log.Config{Output: &bytes.Buffer{}})))
	require.NoError(t, err)

	f := fixture{
		store:    store,
		tracker:  &fakeTracker{},
		notifier: &fakeNotifier{},
		exporter: &fakeExporter{},
	}
	f.svc = NewFinanceService(store,
		WithTracker(f.tracker),
		WithNotifier(f.notifier),
		WithExporter(f.exporter))
	return f
}

func TestFinanceService_AddExpense(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b := core.NewBudget("Food", dec("100"), core.PeriodMonthly, core.NewDate(2025, 3, 1))
	b.Category = "Food"
	_, err := f.svc.AddBudget(ctx, b)
	require.NoError(t, err)

	e := core.NewExpense(dec("120"), "Food", core.NewDate(2025, 3, 10))
	e.Notes = "party"
	saved, res, err := f.svc.AddExpense(ctx, e)
	require.NoError(t, err)

	require.Len(t, res.Alerts, 1)
	assert.Equal(t, core.AlertExceeded, res.Alerts[0].Type)
	require.Len(t, f.notifier.reqs, 1)
	assert.Equal(t, notify.KindBudgetExceeded, f.notifier.reqs[0].Kind)

	ev, ok := f.tracker.last("expense_added")
	require.True(t, ok)
	assert.Equal(t, "expense", ev.category)
	assert.Equal(t, map[string]string{"amount": "120.00", "category": "Food", "has_notes": "true"}, ev.props)

	assert.Equal(t, []syncCall{{saved.ID, amqp.SyncVersionCreated}}, f.exporter.calls)
}

func TestFinanceService_AddExpenseRecurring(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	e := core.NewExpense(dec("200"), "Bills", core.NewDate(2025, 3, 1))
	e.IsRecurring = true
	e.RecurringFrequency = core.Monthly
	_, res, err := f.svc.AddExpense(ctx, e)
	require.NoError(t, err)
	require.NotNil(t, res.Recurring)

	assert.Equal(t, []string{"expense_added", "recurring_created"}, f.tracker.names())
	assert.Len(t, f.store.RecurringTransactions(), 1)
}

func TestFinanceService_SideEffectFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.exporter.err = errors.New("broker down")

	saved, _, err := f.svc.AddExpense(ctx, core.NewExpense(dec("5"), "Food", testNow))
	require.NoError(t, err)
	_, err = f.store.Expense(saved.ID)
	assert.NoError(t, err)

	saved.Amount = dec("6")
	_, err = f.svc.UpdateExpense(ctx, saved)
	require.NoError(t, err)
	require.Len(t, f.exporter.calls, 2)
	assert.Equal(t, amqp.SyncVersionUpdated, f.exporter.calls[1].version)
}

func TestFinanceService_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	missing := uuid.New()

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"invalid expense", func() error {
			_, _, err := f.svc.AddExpense(ctx, core.NewExpense(dec("1"), "", testNow))
			return err
		}, core.ErrEmptyCategory},
		{"delete missing expense", func() error { return f.svc.DeleteExpense(ctx, missing) }, core.ErrNotFound},
		{"delete missing budget", func() error { return f.svc.DeleteBudget(ctx, missing) }, core.ErrNotFound},
		{"delete missing goal", func() error { return f.svc.DeleteGoal(ctx, missing) }, core.ErrNotFound},
		{"contribute missing goal", func() error {
			_, err := f.svc.Contribute(ctx, missing, dec("1"), "")
			return err
		}, core.ErrNotFound},
		{"delete missing entry", func() error {
			_, err := f.svc.DeleteEntry(ctx, missing)
			return err
		}, core.ErrNotFound},
		{"delete missing recurring", func() error { return f.svc.DeleteRecurring(ctx, missing) }, core.ErrNotFound},
		{"read missing alert", func() error { return f.svc.MarkAlertRead(ctx, missing) }, core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), tt.want)
		})
	}
	assert.Empty(t, f.tracker.names())
	assert.Empty(t, f.exporter.calls)
}

func TestFinanceService_Savings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	g, err := f.svc.AddGoal(ctx, core.NewSavingsGoal("Bike", dec("100"), testNow))
	require.NoError(t, err)

	out, err := f.svc.Contribute(ctx, g.ID, dec("60"), "")
	require.NoError(t, err)
	assert.False(t, out.Completed)
	assert.Empty(t, f.notifier.reqs)

	rejected, err := f.svc.Withdraw(ctx, g.ID, dec("500"), "")
	require.NoError(t, err)
	assert.False(t, rejected.OK)

	out, err = f.svc.Contribute(ctx, g.ID, dec("40"), "bonus")
	require.NoError(t, err)
	assert.True(t, out.Completed)
	require.Len(t, f.notifier.reqs, 1)
	assert.Equal(t, notify.KindGoalCompleted, f.notifier.reqs[0].Kind)

	w, err := f.svc.Withdraw(ctx, g.ID, dec("10"), "")
	require.NoError(t, err)
	assert.True(t, w.OK)

	updated, err := f.svc.DeleteEntry(ctx, w.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "100", updated.CurrentAmount.String())

	assert.Equal(t, []string{
		"goal_created",
		"savings_added",
		"savings_added",
		"goal_completed",
		"savings_removed",
		"savings_entry_deleted",
	}, f.tracker.names())
}

func TestFinanceService_PopulateSampleData(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	data, err := f.svc.PopulateSampleData(ctx, seed.Sample())
	require.NoError(t, err)
	assert.Equal(t, 15, data.Count())

	assert.Len(t, f.store.Expenses(ledger.ExpenseFilter{}), 5)
	assert.Len(t, f.store.Budgets(), 3)
	assert.Len(t, f.store.Goals(), 3)
	// four sample transactions plus the one created by the recurring bill
	assert.Len(t, f.store.RecurringTransactions(), 5)
	assert.Len(t, f.exporter.calls, 5)

	ev, ok := f.tracker.last("sample_data_populated")
	require.True(t, ok)
	assert.Equal(t, "demo", ev.category)
	assert.Equal(t, "15", ev.props["count"])
}

func TestFinanceService_PopulateSampleDataInvalid(t *testing.T) {
	f := newFixture(t)
	ds := seed.Dataset{Budgets: []seed.Budget{{Name: "", Amount: "10"}}}

	_, err := f.svc.PopulateSampleData(context.Background(), ds)
	assert.ErrorIs(t, err, core.ErrEmptyName)
	assert.Empty(t, f.store.Budgets())
}

func TestFinanceService_Reset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.PopulateSampleData(ctx, seed.Sample())
	require.NoError(t, err)
	require.NoError(t, f.svc.Reset(ctx))

	assert.Empty(t, f.store.Expenses(ledger.ExpenseFilter{}))
	assert.Empty(t, f.store.Goals())
	assert.Equal(t, 1, f.tracker.cleared)
	assert.Equal(t, []string{"data_reset"}, f.tracker.names())
}

func TestFinanceService_NoOptionalDependencies(t *testing.T) {
	store, err := ledger.New(context.Background(), storage.NewMemoryKV(),
		ledger.WithLogger(log.New(log.Config{Output: &bytes.Buffer{}})))
	require.NoError(t, err)

	svc := NewFinanceService(store)
	_, _, err = svc.AddExpense(context.Background(), core.NewExpense(dec("5"), "Food", testNow))
	assert.NoError(t, err)
	assert.NoError(t, svc.Reset(context.Background()))
}

func TestFinanceService_GoalCompletedEachTimeTargetIsReached(t *testing.T) {
	ctx := context.Background()
	store, err := ledger.New(ctx, storage.NewMemoryKV(),
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithLogger(log.New(log.Config{Output: &bytes.Buffer{}})))
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		sent []notify.Request
	)
	sender := notify.SenderFunc(func(_ context.Context, req notify.Request) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, req)
		return nil
	})
	dispatcher := notify.NewDispatcher(ctx, sender, notify.Options{
		Cooldown: 10 * time.Minute,
		Logger:   log.New(log.Config{Output: &bytes.Buffer{}}),
	})
	svc := NewFinanceService(store, WithNotifier(dispatcher))

	g, err := svc.AddGoal(ctx, core.NewSavingsGoal("Laptop", dec("1000"), testNow))
	require.NoError(t, err)

	first, err := svc.Contribute(ctx, g.ID, dec("1000"), "")
	require.NoError(t, err)
	require.True(t, first.Completed)

	w, err := svc.Withdraw(ctx, g.ID, dec("200"), "")
	require.NoError(t, err)
	require.True(t, w.OK)

	second, err := svc.Contribute(ctx, g.ID, dec("200"), "")
	require.NoError(t, err)
	require.True(t, second.Completed)

	require.NoError(t, dispatcher.Close(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 2)
	for _, req := range sent {
		assert.Equal(t, notify.KindGoalCompleted, req.Kind)
		assert.Equal(t, "goal_completed_"+g.ID.String(), req.Identifier)
	}
}
