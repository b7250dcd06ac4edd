package allocation

import (
	"context"
	"fmt"

	"github.com/ledgerd/ledgerd/internal/event_bus"
	"github.com/ledgerd/ledgerd/pkg/cascade"
	"github.com/ledgerd/ledgerd/pkg/ledger"
	"github.com/ledgerd/ledgerd/pkg/money"
	log "github.com/sirupsen/logrus"
)

// Recalculator triggers the cascading recalculation after an allocation change
// that can affect later months, and holds the per-budget lock every mutation
// must run under.
type Recalculator interface {
	// WithBudgetLock serializes month mutations of one budget.
	WithBudgetLock(budgetID string, fn func() error) error
	// RecalculateAndCascade must be called while holding the budget lock.
	RecalculateAndCascade(ctx context.Context, budgetID string, year, month int) error
}

type Service interface {
	// Get returns the month together with its allocation lifecycle status.
	// Reverting an in-progress edit ("cancel") is this call: the persisted
	// values are re-read and nothing is written.
	Get(ctx context.Context, budgetID string, year, month int) (ledger.MonthlyLedger, Status, error)
	// SaveDraft stores planning values for a draft month. End balances are
	// unaffected and no cascade runs.
	SaveDraft(ctx context.Context, budgetID string, year, month int, allocations map[ledger.CategoryRef]float64) (ledger.MonthlyLedger, error)
	// Finalize applies the allocations to the month's end balances and
	// cascades the change into later months. Legal from Draft and from
	// Finalized (the latter is the re-finalize step of an edit).
	Finalize(ctx context.Context, budgetID string, year, month int, allocations map[ledger.CategoryRef]float64) (ledger.MonthlyLedger, error)
	// DeleteAll zeroes every allocation, reverts the month to Draft, and
	// cascades, since lowering balances affects later months too.
	DeleteAll(ctx context.Context, budgetID string, year, month int) (ledger.MonthlyLedger, error)
}

type ServiceImpl struct {
	repo   ledger.Repository
	recalc Recalculator
	bus    *event_bus.EventBus
}

func NewService(repo ledger.Repository, recalc Recalculator, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, recalc: recalc, bus: bus}
}

func (s *ServiceImpl) Get(ctx context.Context, budgetID string, year, month int) (ledger.MonthlyLedger, Status, error) {
	m, err := s.repo.GetMonth(ctx, budgetID, year, month)
	if err != nil {
		return ledger.MonthlyLedger{}, "", err
	}
	return m, StatusOf(m), nil
}

func (s *ServiceImpl) SaveDraft(ctx context.Context, budgetID string, year, month int, allocations map[ledger.CategoryRef]float64) (ledger.MonthlyLedger, error) {
	var result ledger.MonthlyLedger
	err := s.recalc.WithBudgetLock(budgetID, func() error {
		m, err := s.repo.GetMonth(ctx, budgetID, year, month)
		if err != nil {
			return err
		}
		if !StatusOf(m).CanSaveDraft() {
			return fmt.Errorf("%w: allocations for %04d-%02d are finalized, drafts can no longer be saved", ErrInvalidTransition, year, month)
		}

		applyAllocations(&m, allocations)
		m = ledger.Retotal(m)

		if err := s.repo.StoreMonth(ctx, m, false); err != nil {
			return fmt.Errorf("failed to store draft allocations: %w", err)
		}
		result = m
		return nil
	})
	return result, err
}

func (s *ServiceImpl) Finalize(ctx context.Context, budgetID string, year, month int, allocations map[ledger.CategoryRef]float64) (ledger.MonthlyLedger, error) {
	var result ledger.MonthlyLedger
	err := s.recalc.WithBudgetLock(budgetID, func() error {
		m, err := s.repo.GetMonth(ctx, budgetID, year, month)
		if err != nil {
			return err
		}
		if !StatusOf(m).CanFinalize() {
			return fmt.Errorf("%w: allocations for %04d-%02d cannot be finalized", ErrInvalidTransition, year, month)
		}

		applyAllocations(&m, allocations)
		m.AllocationsFinalized = true
		m = ledger.Retotal(m)

		if err := s.repo.StoreMonth(ctx, m, false); err != nil {
			return fmt.Errorf("failed to store finalized allocations: %w", err)
		}

		if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.AllocationsFinalized, event_bus.AllocationsFinalizedEvent{
			BudgetID:   budgetID,
			Year:       year,
			Month:      month,
			Categories: len(allocations),
		})); err != nil {
			log.Errorf("failed to publish allocation finalized event: %v", err)
		}

		result = m
		return s.cascadeAfterWrite(ctx, budgetID, year, month)
	})
	return result, err
}

func (s *ServiceImpl) DeleteAll(ctx context.Context, budgetID string, year, month int) (ledger.MonthlyLedger, error) {
	var result ledger.MonthlyLedger
	err := s.recalc.WithBudgetLock(budgetID, func() error {
		m, err := s.repo.GetMonth(ctx, budgetID, year, month)
		if err != nil {
			return err
		}
		if !StatusOf(m).CanDeleteAll() {
			return fmt.Errorf("%w: allocations for %04d-%02d are not finalized, nothing to delete", ErrInvalidTransition, year, month)
		}

		for i := range m.CategoryBalances {
			m.CategoryBalances[i].Allocated = 0
		}
		m.AllocationsFinalized = false
		m = ledger.Retotal(m)

		if err := s.repo.StoreMonth(ctx, m, false); err != nil {
			return fmt.Errorf("failed to store cleared allocations: %w", err)
		}

		if err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.AllocationsCleared, event_bus.AllocationsClearedEvent{
			BudgetID: budgetID,
			Year:     year,
			Month:    month,
		})); err != nil {
			log.Errorf("failed to publish allocation cleared event: %v", err)
		}

		result = m
		return s.cascadeAfterWrite(ctx, budgetID, year, month)
	})
	return result, err
}

// cascadeAfterWrite runs the forward recalculation for a month whose end
// balances may have changed. The mutation that triggered it is already
// persisted and is deliberately not rolled back on failure: the error is
// wrapped as a RecalcError so callers surface it as a warning, and balances
// are recalculated again on the next mutation.
func (s *ServiceImpl) cascadeAfterWrite(ctx context.Context, budgetID string, year, month int) error {
	if err := s.recalc.RecalculateAndCascade(ctx, budgetID, year, month); err != nil {
		log.Warnf("recalculation after allocation change on %04d-%02d failed: %v", year, month, err)
		return &cascade.RecalcError{Err: err}
	}
	return nil
}

// applyAllocations writes the rounded allocation values into the month's
// category balances, creating entries for categories the month has not seen
// yet. NaN and infinite amounts are stored as zero.
func applyAllocations(m *ledger.MonthlyLedger, allocations map[ledger.CategoryRef]float64) {
	for ref, amount := range allocations {
		ref = ref.Normalize()
		rounded := money.Round2(amount)

		found := false
		for i := range m.CategoryBalances {
			if m.CategoryBalances[i].Category.Normalize() == ref {
				m.CategoryBalances[i].Allocated = rounded
				found = true
				break
			}
		}
		if !found {
			m.CategoryBalances = append(m.CategoryBalances, ledger.CategoryBalance{
				Category:  ref,
				Allocated: rounded,
			})
		}
	}
}
