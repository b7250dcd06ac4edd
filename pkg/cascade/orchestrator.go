package cascade

import (
	"context"
	"fmt"
	"sync"

	"github.com/ledgerd/ledgerd/internal/event_bus"
	"github.com/ledgerd/ledgerd/pkg/ledger"
	log "github.com/sirupsen/logrus"
)

// RecalcError marks a recalculation that failed after the triggering mutation
// was already persisted. Callers surface it as a non-fatal warning instead of
// rolling back: balances can always be recalculated again later.
type RecalcError struct {
	Err error
}

func (e *RecalcError) Error() string {
	return fmt.Sprintf("recalculation failed: %v", e.Err)
}

func (e *RecalcError) Unwrap() error {
	return e.Err
}

// Orchestrator runs the cascade plan against the document store. Mutations are
// serialized per budget: a cascade spans several months of the same budget, so
// a narrower per-month lock would not cover the whole walk.
type Orchestrator struct {
	repo ledger.Repository
	bus  *event_bus.EventBus

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewOrchestrator(repo ledger.Repository, bus *event_bus.EventBus) *Orchestrator {
	return &Orchestrator{
		repo:  repo,
		bus:   bus,
		locks: map[string]*sync.Mutex{},
	}
}

func (o *Orchestrator) budgetLock(budgetID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()

	l, ok := o.locks[budgetID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[budgetID] = l
	}
	return l
}

// WithBudgetLock runs fn while holding the mutation lock of the budget. Every
// month mutation goes through it: the services run each read-modify-write,
// including the follow-up cascade, inside one critical section so concurrent
// mutations of the same budget cannot interleave and lose writes.
func (o *Orchestrator) WithBudgetLock(budgetID string, fn func() error) error {
	l := o.budgetLock(budgetID)
	l.Lock()
	defer l.Unlock()
	return fn()
}

// RecalculateAndCascade recomputes the named month and propagates its new end
// balances forward through the existing month sequence. The walk stops when a
// month's start balances already agree with its predecessor's end balances, or
// when the next month does not exist yet. Months are never created here, that
// is the navigator's job.
//
// The caller must hold the budget lock (WithBudgetLock); the month and
// allocation services run their whole mutation inside it.
func (o *Orchestrator) RecalculateAndCascade(ctx context.Context, budgetID string, year, month int) error {
	keys, err := o.repo.MonthKeys(ctx, budgetID)
	if err != nil {
		return fmt.Errorf("failed to list months for budget %s: %w", budgetID, err)
	}
	exists := map[ledger.MonthKey]bool{}
	for _, k := range keys {
		exists[k] = true
	}

	start := ledger.MonthKey{Year: year, Month: month}
	if !exists[start] {
		return ledger.ErrMonthNotFound
	}

	run := []ledger.MonthKey{start}
	for next := start.Next(); exists[next]; next = next.Next() {
		run = append(run, next)
	}

	months := make([]ledger.MonthlyLedger, 0, len(run))
	for _, k := range run {
		m, err := o.repo.GetMonth(ctx, budgetID, k.Year, k.Month)
		if err != nil {
			return fmt.Errorf("failed to read month %04d-%02d: %w", k.Year, k.Month, err)
		}
		months = append(months, m)
	}

	changed := Plan(months)
	for _, m := range changed {
		if err := o.repo.StoreMonth(ctx, m, false); err != nil {
			return fmt.Errorf("failed to store month %04d-%02d: %w", m.Year, m.Month, err)
		}
	}

	log.Debugf("recalculated %04d-%02d for budget %s, cascaded into %d later month(s)",
		year, month, budgetID, len(changed)-1)

	if err := o.bus.Publish(event_bus.NewEvent(ctx, event_bus.MonthRecalculated, event_bus.MonthRecalculatedEvent{
		BudgetID:       budgetID,
		Year:           year,
		Month:          month,
		CascadedMonths: len(changed) - 1,
	})); err != nil {
		log.Errorf("failed to publish recalculation event: %v", err)
	}

	return nil
}
