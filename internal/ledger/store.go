// Package ledger owns every finance collection in memory, persists each
// mutation to a key-value store and recomputes the derived state (insights,
// budget alerts) that follows from it.
//
// All operations are serialized by a single mutex. A mutation whose
// persistence fails is rolled back in memory and reported as ErrPersist.
// Mutations never deliver notifications themselves: they return the pending
// requests in a Result for the caller to dispatch.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/engine"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/storage"
)

// Storage keys, one JSON document per collection.
const (
	KeyExpenses  = "expenses"
	KeyBudgets   = "budgets"
	KeyGoals     = "goals"
	KeyEntries   = "savings_entries"
	KeyRecurring = "recurring"
	KeyAlerts    = "alerts"
)

// Keys lists every collection key in load order.
var Keys = []string{KeyExpenses, KeyBudgets, KeyGoals, KeyEntries, KeyRecurring, KeyAlerts}

// ErrPersist wraps any failure to write a mutation to the store.
var ErrPersist = errors.New("persist ledger")

// Result carries the side effects of a mutation.
type Result struct {
	Alerts        []core.BudgetAlert
	Recurring     *core.RecurringTransaction
	Notifications []notify.Request
}

// Store is the single owner of ledger state.
type Store struct {
	mu     sync.Mutex
	kv     storage.KV
	now    func() time.Time
	logger *log.Logger

	state
	insights []core.FinancialInsight
}

type state struct {
	expenses  []core.Expense
	budgets   []core.Budget
	goals     []core.SavingsGoal
	entries   []core.SavingsEntry
	recurring []core.RecurringTransaction
	alerts    []core.BudgetAlert
}

func (s state) clone() state {
	return state{
		expenses:  slices.Clone(s.expenses),
		budgets:   slices.Clone(s.budgets),
		goals:     slices.Clone(s.goals),
		entries:   slices.Clone(s.entries),
		recurring: slices.Clone(s.recurring),
		alerts:    slices.Clone(s.alerts),
	}
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for timestamps and insight generation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New loads every collection from kv. A missing key is an empty collection;
// an undecodable document is an error.
func New(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	s := &Store{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory state with what is currently stored.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) error {
	var st state
	targets := map[string]any{
		KeyExpenses:  &st.expenses,
		KeyBudgets:   &st.budgets,
		KeyGoals:     &st.goals,
		KeyEntries:   &st.entries,
		KeyRecurring: &st.recurring,
		KeyAlerts:    &st.alerts,
	}
	for _, key := range Keys {
		if _, err := storage.GetJSON(ctx, s.kv, key, targets[key]); err != nil {
			return fmt.Errorf("load %s: %w", key, err)
		}
	}
	s.state = st
	s.refreshInsights()

	s.logger.DebugContext(ctx, "Ledger loaded",
		"expenses", len(st.expenses),
		"budgets", len(st.budgets),
		"goals", len(st.goals),
		"recurring", len(st.recurring))
	return nil
}

func (s *Store) document(key string) any {
	switch key {
	case KeyExpenses:
		return s.expenses
	case KeyBudgets:
		return s.budgets
	case KeyGoals:
		return s.goals
	case KeyEntries:
		return s.entries
	case KeyRecurring:
		return s.recurring
	case KeyAlerts:
		return s.alerts
	default:
		return nil
	}
}

// commit writes every touched collection. On failure the in-memory state is
// restored to before and collections already written are rewritten with their
// previous contents.
func (s *Store) commit(ctx context.Context, before state, keys ...string) error {
	keys = dedupe(keys)
	for i, key := range keys {
		if err := storage.PutJSON(ctx, s.kv, key, s.document(key)); err != nil {
			s.state = before
			for _, written := range keys[:i] {
				if rerr := storage.PutJSON(ctx, s.kv, written, s.document(written)); rerr != nil {
					s.logger.ErrorContext(ctx, "Failed to restore collection after persist error",
						log.FieldKey, written, log.FieldError, rerr)
				}
			}
			s.logger.ErrorContext(ctx, "Ledger mutation rolled back",
				log.FieldKey, key, log.FieldOperation, log.OpPersist, log.FieldError, err)
			return fmt.Errorf("%w: %s: %w", ErrPersist, key, err)
		}
	}
	if touchesInsights(keys) {
		s.refreshInsights()
	}
	return nil
}

func touchesInsights(keys []string) bool {
	for _, k := range keys {
		switch k {
		case KeyExpenses, KeyBudgets, KeyGoals, KeyEntries:
			return true
		}
	}
	return false
}

func dedupe(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}

func (s *Store) refreshInsights() {
	s.insights = engine.GenerateInsights(s.snapshot())
}

func (s *Store) snapshot() engine.Snapshot {
	return engine.Snapshot{
		Expenses: s.expenses,
		Budgets:  s.budgets,
		Goals:    s.goals,
		Now:      s.now(),
	}
}

// Now reads the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// Insights returns the insight set generated after the last mutation.
func (s *Store) Insights() []core.FinancialInsight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.insights)
}

// Snapshot returns copies of the collections insights are computed from.
func (s *Store) Snapshot() engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.Snapshot{
		Expenses: slices.Clone(s.expenses),
		Budgets:  slices.Clone(s.budgets),
		Goals:    slices.Clone(s.goals),
		Now:      s.now(),
	}
}

// Reset deletes every collection from the store and clears memory. Memory is
// left untouched when a delete fails.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range Keys {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("%w: reset %s: %w", ErrPersist, key, err)
		}
	}
	s.state = state{}
	s.insights = nil
	s.logger.InfoContext(ctx, "Ledger reset")
	return nil
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, it := range items {
		if match(it) {
			return i
		}
	}
	return -1
}

// removeAll drops every element matching and reports how many were removed.
func removeAll[T any](items []T, match func(T) bool) ([]T, int) {
	out := items[:0:0]
	for _, it := range items {
		if !match(it) {
			out = append(out, it)
		}
	}
	return out, len(items) - len(out)
}
