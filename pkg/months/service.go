// Package months exposes the monthly ledger to the API: viewing and creating
// months, mutating entries, and reading cleared balance splits. Creation is
// guarded by the sequence navigator; every balance-affecting mutation is
// followed by a cascading recalculation.
package months

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerd/ledgerd/pkg/cascade"
	"github.com/ledgerd/ledgerd/pkg/ledger"
	"github.com/ledgerd/ledgerd/pkg/money"
	"github.com/ledgerd/ledgerd/pkg/sequence"
	log "github.com/sirupsen/logrus"
)

var (
	ErrEntryNotFound = errors.New("ledger entry not found")
	ErrInvalidEntry  = errors.New("invalid ledger entry")
)

// EntryKind names the four transaction types of a monthly ledger.
type EntryKind string

const (
	EntryKindIncome     EntryKind = "income"
	EntryKindExpense    EntryKind = "expense"
	EntryKindTransfer   EntryKind = "transfer"
	EntryKindAdjustment EntryKind = "adjustment"
)

// EntryInput carries the user-editable fields of a transaction. AccountID is
// used by income, expense and adjustment entries; transfers use the
// From/To pair instead. An empty CategoryID means uncategorized.
type EntryInput struct {
	Kind          EntryKind
	AccountID     string
	FromAccountID string
	ToAccountID   string
	CategoryID    string
	Amount        float64
	Date          time.Time
	Cleared       bool
	Payee         string
	Description   string
}

// Recalculator triggers the cascading recalculation after a mutation that can
// affect later months, and holds the per-budget lock every mutation must run
// under.
type Recalculator interface {
	// WithBudgetLock serializes month mutations of one budget.
	WithBudgetLock(budgetID string, fn func() error) error
	// RecalculateAndCascade must be called while holding the budget lock.
	RecalculateAndCascade(ctx context.Context, budgetID string, year, month int) error
}

type Service interface {
	// Get returns the current snapshot of an existing month.
	Get(ctx context.Context, budgetID string, year, month int) (ledger.MonthlyLedger, error)
	// Create makes the month viewable, creating its document if the
	// navigator allows it. Creating an existing month is a plain read.
	Create(ctx context.Context, budgetID string, year, month int) (ledger.MonthlyLedger, error)
	// AddEntry appends a transaction to the month and recalculates.
	AddEntry(ctx context.Context, budgetID string, year, month int, input EntryInput) (ledger.MonthlyLedger, error)
	// UpdateEntry replaces the transaction with the given id and recalculates.
	UpdateEntry(ctx context.Context, budgetID string, year, month int, entryID string, input EntryInput) (ledger.MonthlyLedger, error)
	// DeleteEntry removes the transaction with the given id and recalculates.
	DeleteEntry(ctx context.Context, budgetID string, year, month int, entryID string) (ledger.MonthlyLedger, error)
	// ClearedBalances splits each account balance of the month into its
	// cleared and uncleared variants.
	ClearedBalances(ctx context.Context, budgetID string, year, month int) ([]ledger.ClearedBalance, error)
	// Recalculate recomputes the month and cascades into later months.
	Recalculate(ctx context.Context, budgetID string, year, month int) error
}

type ServiceImpl struct {
	repo      ledger.Repository
	navigator *sequence.Navigator
	recalc    Recalculator
}

func NewService(repo ledger.Repository, navigator *sequence.Navigator, recalc Recalculator) *ServiceImpl {
	return &ServiceImpl{repo: repo, navigator: navigator, recalc: recalc}
}

func (s *ServiceImpl) Get(ctx context.Context, budgetID string, year, month int) (ledger.MonthlyLedger, error) {
	return s.repo.GetMonth(ctx, budgetID, year, month)
}

func (s *ServiceImpl) Create(ctx context.Context, budgetID string, year, month int) (ledger.MonthlyLedger, error) {
	var result ledger.MonthlyLedger
	err := s.recalc.WithBudgetLock(budgetID, func() error {
		keys, err := s.repo.MonthKeys(ctx, budgetID)
		if err != nil {
			return fmt.Errorf("failed to list months for budget %s: %w", budgetID, err)
		}

		decision, err := s.navigator.CanCreateMonth(year, month, keys)
		if err != nil {
			return err
		}
		if decision.Reason == sequence.ReasonExists {
			result, err = s.repo.GetMonth(ctx, budgetID, year, month)
			return err
		}

		m := ledger.MonthlyLedger{BudgetID: budgetID, Year: year, Month: month}
		if decision.Reason == sequence.ReasonWalkForward && len(keys) > 0 {
			prevKey := ledger.MonthKey{Year: year, Month: month}.Prev()
			prev, err := s.repo.GetMonth(ctx, budgetID, prevKey.Year, prevKey.Month)
			if err != nil {
				return fmt.Errorf("failed to read month %04d-%02d: %w", prevKey.Year, prevKey.Month, err)
			}
			m = cascade.SeedFrom(m, prev)
		}
		m = ledger.Retotal(m)

		if err := s.repo.StoreMonth(ctx, m, true); err != nil {
			return fmt.Errorf("failed to store month %04d-%02d: %w", year, month, err)
		}
		log.Infof("created ledger month %04d-%02d for budget %s (%s)", year, month, budgetID, decision.Reason)
		result = m

		if decision.Reason == sequence.ReasonWalkBackward {
			// A month prepended to the sequence seeds its successor, so its
			// (empty) end balances must flow forward.
			if err := s.recalc.RecalculateAndCascade(ctx, budgetID, year, month); err != nil {
				log.Warnf("recalculation after creating %04d-%02d failed: %v", year, month, err)
				return &cascade.RecalcError{Err: err}
			}
		}
		return nil
	})
	return result, err
}

func (s *ServiceImpl) AddEntry(ctx context.Context, budgetID string, year, month int, input EntryInput) (ledger.MonthlyLedger, error) {
	if err := validateEntry(input); err != nil {
		return ledger.MonthlyLedger{}, err
	}
	return s.mutateMonth(ctx, budgetID, year, month, func(m *ledger.MonthlyLedger) error {
		appendEntry(m, uuid.NewString(), input)
		return nil
	})
}

func (s *ServiceImpl) UpdateEntry(ctx context.Context, budgetID string, year, month int, entryID string, input EntryInput) (ledger.MonthlyLedger, error) {
	if err := validateEntry(input); err != nil {
		return ledger.MonthlyLedger{}, err
	}
	return s.mutateMonth(ctx, budgetID, year, month, func(m *ledger.MonthlyLedger) error {
		if !removeEntry(m, entryID) {
			return ErrEntryNotFound
		}
		appendEntry(m, entryID, input)
		return nil
	})
}

func (s *ServiceImpl) DeleteEntry(ctx context.Context, budgetID string, year, month int, entryID string) (ledger.MonthlyLedger, error) {
	return s.mutateMonth(ctx, budgetID, year, month, func(m *ledger.MonthlyLedger) error {
		if !removeEntry(m, entryID) {
			return ErrEntryNotFound
		}
		return nil
	})
}

func (s *ServiceImpl) ClearedBalances(ctx context.Context, budgetID string, year, month int) ([]ledger.ClearedBalance, error) {
	m, err := s.repo.GetMonth(ctx, budgetID, year, month)
	if err != nil {
		return nil, err
	}
	return ledger.SplitCleared(m), nil
}

func (s *ServiceImpl) Recalculate(ctx context.Context, budgetID string, year, month int) error {
	return s.recalc.WithBudgetLock(budgetID, func() error {
		return s.recalc.RecalculateAndCascade(ctx, budgetID, year, month)
	})
}

// mutateMonth runs one read-modify-write of a month under the budget lock:
// read, mutate, retotal, store, cascade, re-read. A cascade failure does not
// roll the mutation back; it is wrapped as a RecalcError so the handler
// reports it as a warning.
func (s *ServiceImpl) mutateMonth(ctx context.Context, budgetID string, year, month int, mutate func(*ledger.MonthlyLedger) error) (ledger.MonthlyLedger, error) {
	var result ledger.MonthlyLedger
	err := s.recalc.WithBudgetLock(budgetID, func() error {
		m, err := s.repo.GetMonth(ctx, budgetID, year, month)
		if err != nil {
			return err
		}
		if err := mutate(&m); err != nil {
			return err
		}
		m = ledger.Retotal(m)
		if err := s.repo.StoreMonth(ctx, m, false); err != nil {
			return fmt.Errorf("failed to store month %04d-%02d: %w", year, month, err)
		}

		if err := s.recalc.RecalculateAndCascade(ctx, budgetID, year, month); err != nil {
			log.Warnf("recalculation after entry change on %04d-%02d failed: %v", year, month, err)
			result = m
			return &cascade.RecalcError{Err: err}
		}

		result, err = s.repo.GetMonth(ctx, budgetID, year, month)
		return err
	})
	return result, err
}

func validateEntry(input EntryInput) error {
	switch input.Kind {
	case EntryKindIncome, EntryKindExpense, EntryKindAdjustment:
		if input.AccountID == "" {
			return fmt.Errorf("%w: %s entry requires an account", ErrInvalidEntry, input.Kind)
		}
	case EntryKindTransfer:
		if input.FromAccountID == "" || input.ToAccountID == "" {
			return fmt.Errorf("%w: transfer entry requires both accounts", ErrInvalidEntry)
		}
		if input.FromAccountID == input.ToAccountID {
			return fmt.Errorf("%w: transfer entry accounts must differ", ErrInvalidEntry)
		}
		if input.Amount < 0 {
			return fmt.Errorf("%w: transfer amount must not be negative", ErrInvalidEntry)
		}
	default:
		return fmt.Errorf("%w: unknown entry kind %q", ErrInvalidEntry, input.Kind)
	}
	if input.Date.IsZero() {
		return fmt.Errorf("%w: entry date is required", ErrInvalidEntry)
	}
	return nil
}

func appendEntry(m *ledger.MonthlyLedger, id string, input EntryInput) {
	amount := money.Round2(input.Amount)
	switch input.Kind {
	case EntryKindIncome:
		m.Income = append(m.Income, ledger.IncomeEntry{
			ID:          id,
			AccountID:   input.AccountID,
			Amount:      amount,
			Date:        input.Date,
			Payee:       input.Payee,
			Description: input.Description,
		})
	case EntryKindExpense:
		m.Expenses = append(m.Expenses, ledger.ExpenseEntry{
			ID:          id,
			AccountID:   input.AccountID,
			Category:    ledger.CategoryOf(input.CategoryID),
			Amount:      amount,
			Date:        input.Date,
			Cleared:     input.Cleared,
			Payee:       input.Payee,
			Description: input.Description,
		})
	case EntryKindTransfer:
		m.Transfers = append(m.Transfers, ledger.TransferEntry{
			ID:            id,
			FromAccountID: input.FromAccountID,
			ToAccountID:   input.ToAccountID,
			Amount:        amount,
			Date:          input.Date,
			Cleared:       input.Cleared,
			Description:   input.Description,
		})
	case EntryKindAdjustment:
		m.Adjustments = append(m.Adjustments, ledger.AdjustmentEntry{
			ID:          id,
			AccountID:   input.AccountID,
			Category:    ledger.CategoryOf(input.CategoryID),
			Amount:      amount,
			Date:        input.Date,
			Cleared:     input.Cleared,
			Description: input.Description,
		})
	}
}

func removeEntry(m *ledger.MonthlyLedger, entryID string) bool {
	for i, e := range m.Income {
		if e.ID == entryID {
			m.Income = append(m.Income[:i], m.Income[i+1:]...)
			return true
		}
	}
	for i, e := range m.Expenses {
		if e.ID == entryID {
			m.Expenses = append(m.Expenses[:i], m.Expenses[i+1:]...)
			return true
		}
	}
	for i, e := range m.Transfers {
		if e.ID == entryID {
			m.Transfers = append(m.Transfers[:i], m.Transfers[i+1:]...)
			return true
		}
	}
	for i, e := range m.Adjustments {
		if e.ID == entryID {
			m.Adjustments = append(m.Adjustments[:i], m.Adjustments[i+1:]...)
			return true
		}
	}
	return false
}
