package ledger

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/engine"
	"fintrack/internal/notify"
)

// AddGoal stores a new goal. CreatedAt defaults to now.
func (s *Store) AddGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Color == "" {
		g.Color = core.DefaultGoalColor
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	before := s.state.clone()
	s.goals = append(s.goals, g)
	if err := s.commit(ctx, before, KeyGoals); err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

// UpdateGoal replaces the stored goal. Moving from not completed to completed
// stamps CompletedAt and yields a completion notification.
func (s *Store) UpdateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, Result, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.goals, func(x core.SavingsGoal) bool { return x.ID == g.ID })
	if i < 0 {
		return core.SavingsGoal{}, Result{}, core.ErrNotFound
	}

	before := s.state.clone()
	keys := []string{KeyGoals}
	var res Result

	switch {
	case !s.goals[i].IsCompleted() && g.IsCompleted():
		if g.CompletedAt == nil {
			at := s.now()
			g.CompletedAt = &at
		}
		res = s.goalCompleted(g)
		keys = append(keys, KeyAlerts)
	case !g.IsCompleted():
		g.CompletedAt = nil
	}

	s.goals[i] = g
	if err := s.commit(ctx, before, keys...); err != nil {
		return core.SavingsGoal{}, Result{}, err
	}
	return g, res, nil
}

// DeleteGoal removes the goal and every savings entry recorded against it.
func (s *Store) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.clone()
	var n int
	s.goals, n = removeAll(s.goals, func(x core.SavingsGoal) bool { return x.ID == id })
	if n == 0 {
		return core.ErrNotFound
	}
	s.entries, _ = removeAll(s.entries, func(x core.SavingsEntry) bool { return x.GoalID == id })
	return s.commit(ctx, before, KeyGoals, KeyEntries)
}

func (s *Store) Goal(id uuid.UUID) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.goals, func(x core.SavingsGoal) bool { return x.ID == id })
	if i < 0 {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	return s.goals[i], nil
}

func (s *Store) Goals() []core.SavingsGoal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.goals)
}

// Contribute adds amount to the goal and records the entry.
func (s *Store) Contribute(ctx context.Context, goalID uuid.UUID, amount decimal.Decimal, notes string) (engine.ContributionResult, Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.goals, func(x core.SavingsGoal) bool { return x.ID == goalID })
	if i < 0 {
		return engine.ContributionResult{}, Result{}, core.ErrNotFound
	}
	cr, err := engine.Contribute(s.goals[i], amount, notes, s.now())
	if err != nil {
		return engine.ContributionResult{}, Result{}, err
	}

	before := s.state.clone()
	keys := []string{KeyGoals, KeyEntries}
	var res Result

	s.goals[i] = cr.Goal
	s.entries = append(s.entries, cr.Entry)
	if cr.Completed {
		res = s.goalCompleted(cr.Goal)
		keys = append(keys, KeyAlerts)
	}

	if err := s.commit(ctx, before, keys...); err != nil {
		return engine.ContributionResult{}, Result{}, err
	}
	return cr, res, nil
}

// Withdraw removes amount from the goal. A withdrawal larger than the current
// amount is returned with OK=false and changes nothing.
func (s *Store) Withdraw(ctx context.Context, goalID uuid.UUID, amount decimal.Decimal, notes string) (engine.WithdrawResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.goals, func(x core.SavingsGoal) bool { return x.ID == goalID })
	if i < 0 {
		return engine.WithdrawResult{}, core.ErrNotFound
	}
	wr, err := engine.Withdraw(s.goals[i], amount, notes, s.now())
	if err != nil || !wr.OK {
		return wr, err
	}

	before := s.state.clone()
	s.goals[i] = wr.Goal
	s.entries = append(s.entries, wr.Entry)
	if err := s.commit(ctx, before, KeyGoals, KeyEntries); err != nil {
		return engine.WithdrawResult{}, err
	}
	return wr, nil
}

// DeleteEntry removes a savings entry and reverses its effect on the goal.
func (s *Store) DeleteEntry(ctx context.Context, entryID uuid.UUID) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ei := indexOf(s.entries, func(x core.SavingsEntry) bool { return x.ID == entryID })
	if ei < 0 {
		return core.SavingsGoal{}, core.ErrNotFound
	}
	entry := s.entries[ei]

	before := s.state.clone()
	keys := []string{KeyEntries}
	var goal core.SavingsGoal
	if gi := indexOf(s.goals, func(x core.SavingsGoal) bool { return x.ID == entry.GoalID }); gi >= 0 {
		goal = engine.ReverseEntry(s.goals[gi], entry)
		s.goals[gi] = goal
		keys = append(keys, KeyGoals)
	}
	s.entries, _ = removeAll(s.entries, func(x core.SavingsEntry) bool { return x.ID == entryID })

	if err := s.commit(ctx, before, keys...); err != nil {
		return core.SavingsGoal{}, err
	}
	return goal, nil
}

// Entries returns the goal's entries, newest first.
func (s *Store) Entries(goalID uuid.UUID) []core.SavingsEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesFor(goalID, func(core.SavingsEntry) bool { return true })
}

func (s *Store) EntriesByType(goalID uuid.UUID, typ core.EntryType) []core.SavingsEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesFor(goalID, func(e core.SavingsEntry) bool { return e.Type == typ })
}

func (s *Store) entriesFor(goalID uuid.UUID, keep func(core.SavingsEntry) bool) []core.SavingsEntry {
	var out []core.SavingsEntry
	for _, e := range s.entries {
		if e.GoalID == goalID && keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// TotalSaved is additions minus removals recorded for the goal.
func (s *Store) TotalSaved(goalID uuid.UUID) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.SumEntries(s.entries, goalID)
}

// Reconciliation compares a goal's stored balance with its entry history.
type Reconciliation struct {
	GoalID        uuid.UUID
	CurrentAmount decimal.Decimal
	EntriesTotal  decimal.Decimal
}

func (r Reconciliation) Balanced() bool {
	return r.CurrentAmount.Equal(r.EntriesTotal)
}

// Drift is CurrentAmount minus EntriesTotal.
func (r Reconciliation) Drift() decimal.Decimal {
	return r.CurrentAmount.Sub(r.EntriesTotal)
}

func (r Reconciliation) String() string {
	return fmt.Sprintf("goal %s: balance %s, entries %s", r.GoalID, r.CurrentAmount.StringFixed(2), r.EntriesTotal.StringFixed(2))
}

func (s *Store) Reconcile(goalID uuid.UUID) (Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.goals, func(x core.SavingsGoal) bool { return x.ID == goalID })
	if i < 0 {
		return Reconciliation{}, core.ErrNotFound
	}
	return Reconciliation{
		GoalID:        goalID,
		CurrentAmount: s.goals[i].CurrentAmount,
		EntriesTotal:  engine.SumEntries(s.entries, goalID),
	}, nil
}

// goalCompleted records the achievement alert and builds the notification.
// Callers must hold the lock and persist KeyAlerts.
func (s *Store) goalCompleted(g core.SavingsGoal) Result {
	alert := core.BudgetAlert{
		ID:        uuid.New(),
		Type:      core.AlertGoalAchieved,
		Severity:  core.SeverityInfo,
		Message:   fmt.Sprintf("%s reached its target of %s", g.Name, core.FormatAmount(g.TargetAmount)),
		CreatedAt: s.now(),
	}
	s.alerts = append(s.alerts, alert)
	return Result{
		Alerts:        []core.BudgetAlert{alert},
		Notifications: []notify.Request{notify.GoalCompleted(g)},
	}
}
