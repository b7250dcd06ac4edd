package months

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ledgerd/ledgerd/internal/event_bus"
	"github.com/ledgerd/ledgerd/internal/utils"
	"github.com/ledgerd/ledgerd/pkg/cascade"
	"github.com/ledgerd/ledgerd/pkg/ledger"
	"github.com/ledgerd/ledgerd/pkg/sequence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every test runs with today fixed to March 2025 and a 3 month window.
func newTestService(repo *ledger.StubRepository) *ServiceImpl {
	clock := utils.NewMockClock(time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC))
	navigator := sequence.NewNavigator(clock, 3)
	orchestrator := cascade.NewOrchestrator(repo, event_bus.NewEventBus())
	return NewService(repo, navigator, orchestrator)
}

func seedMarch(repo *ledger.StubRepository) {
	repo.Seed(ledger.Retotal(ledger.MonthlyLedger{
		BudgetID: "b1", Year: 2025, Month: 3,
		Income: []ledger.IncomeEntry{{
			ID: "i1", AccountID: "checking", Amount: 1000,
			Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		}},
		AccountBalances: []ledger.AccountBalance{{AccountID: "checking", StartBalance: 50}},
	}))
}

func TestMonthService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should bootstrap the first month of a budget", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		service := newTestService(repo)

		m, err := service.Create(ctx, "b1", 2025, 3)

		require.NoError(t, err)
		assert.Equal(t, 2025, m.Year)
		assert.Equal(t, 3, m.Month)
		keys, _ := repo.MonthKeys(ctx, "b1")
		assert.Equal(t, []ledger.MonthKey{{Year: 2025, Month: 3}}, keys)
	})

	t.Run("should seed a forward month from the previous month's end balances", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedMarch(repo)
		service := newTestService(repo)

		m, err := service.Create(ctx, "b1", 2025, 4)

		require.NoError(t, err)
		balance, ok := m.AccountBalanceFor("checking")
		require.True(t, ok)
		assert.Equal(t, 1050.0, balance.StartBalance)
		assert.Equal(t, 1050.0, balance.EndBalance)
	})

	t.Run("should return the existing month instead of recreating it", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedMarch(repo)
		service := newTestService(repo)

		m, err := service.Create(ctx, "b1", 2025, 3)

		require.NoError(t, err)
		assert.Equal(t, 1000.0, m.TotalIncome)
		assert.Empty(t, repo.StoreCalls)
	})

	t.Run("should cascade into the old first month when prepending", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedMarch(repo)
		service := newTestService(repo)

		_, err := service.Create(ctx, "b1", 2025, 2)

		require.NoError(t, err)
		mar, err := repo.GetMonth(ctx, "b1", 2025, 3)
		require.NoError(t, err)
		balance, ok := mar.AccountBalanceFor("checking")
		require.True(t, ok)
		// February ends at zero, so March's manual seed is overwritten.
		assert.Equal(t, 0.0, balance.StartBalance)
		assert.Equal(t, 1000.0, balance.EndBalance)
	})

	t.Run("should reject creating a month past the window", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedMarch(repo)
		service := newTestService(repo)
		for _, key := range []ledger.MonthKey{{Year: 2025, Month: 4}, {Year: 2025, Month: 5}, {Year: 2025, Month: 6}} {
			_, err := service.Create(ctx, "b1", key.Year, key.Month)
			require.NoError(t, err)
		}

		_, err := service.Create(ctx, "b1", 2025, 7)

		var violation *sequence.Violation
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, sequence.ViolationFutureBound, violation.Kind)
	})
}

func TestMonthService_Entries(t *testing.T) {
	ctx := context.Background()

	entry := func(kind EntryKind, amount float64) EntryInput {
		input := EntryInput{
			Kind:      kind,
			AccountID: "checking",
			Amount:    amount,
			Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		}
		if kind == EntryKindExpense {
			input.CategoryID = "groceries"
		}
		return input
	}

	t.Run("should add an expense and recompute balances", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedMarch(repo)
		service := newTestService(repo)

		m, err := service.AddEntry(ctx, "b1", 2025, 3, entry(EntryKindExpense, -200))

		require.NoError(t, err)
		assert.Equal(t, -200.0, m.TotalExpenses)
		balance, _ := m.AccountBalanceFor("checking")
		assert.Equal(t, 850.0, balance.EndBalance)
	})

	t.Run("should cascade an entry change into the following month", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedMarch(repo)
		service := newTestService(repo)
		_, err := service.Create(ctx, "b1", 2025, 4)
		require.NoError(t, err)

		_, err = service.AddEntry(ctx, "b1", 2025, 3, entry(EntryKindExpense, -200))

		require.NoError(t, err)
		apr, err := repo.GetMonth(ctx, "b1", 2025, 4)
		require.NoError(t, err)
		balance, _ := apr.AccountBalanceFor("checking")
		assert.Equal(t, 850.0, balance.StartBalance)
	})

	t.Run("should replace an entry on update", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedMarch(repo)
		service := newTestService(repo)
		m, err := service.AddEntry(ctx, "b1", 2025, 3, entry(EntryKindExpense, -200))
		require.NoError(t, err)
		entryID := m.Expenses[0].ID

		updated := entry(EntryKindExpense, -300)
		m, err = service.UpdateEntry(ctx, "b1", 2025, 3, entryID, updated)

		require.NoError(t, err)
		require.Len(t, m.Expenses, 1)
		assert.Equal(t, entryID, m.Expenses[0].ID)
		assert.Equal(t, -300.0, m.TotalExpenses)
	})

	t.Run("should allow an update to change the entry kind", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedMarch(repo)
		service := newTestService(repo)
		m, err := service.AddEntry(ctx, "b1", 2025, 3, entry(EntryKindExpense, -200))
		require.NoError(t, err)
		entryID := m.Expenses[0].ID

		m, err = service.UpdateEntry(ctx, "b1", 2025, 3, entryID, entry(EntryKindAdjustment, -200))

		require.NoError(t, err)
		assert.Empty(t, m.Expenses)
		require.Len(t, m.Adjustments, 1)
		assert.Equal(t, entryID, m.Adjustments[0].ID)
	})

	t.Run("should delete an entry", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedMarch(repo)
		service := newTestService(repo)
		m, err := service.AddEntry(ctx, "b1", 2025, 3, entry(EntryKindExpense, -200))
		require.NoError(t, err)

		m, err = service.DeleteEntry(ctx, "b1", 2025, 3, m.Expenses[0].ID)

		require.NoError(t, err)
		assert.Empty(t, m.Expenses)
		assert.Equal(t, 0.0, m.TotalExpenses)
	})

	t.Run("should report a missing entry", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedMarch(repo)
		service := newTestService(repo)

		_, err := service.DeleteEntry(ctx, "b1", 2025, 3, "missing")

		assert.ErrorIs(t, err, ErrEntryNotFound)
	})

	t.Run("should keep every entry when additions race on the same month", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedMarch(repo)
		service := newTestService(repo)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := service.AddEntry(ctx, "b1", 2025, 3, entry(EntryKindExpense, -10))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		m, err := repo.GetMonth(ctx, "b1", 2025, 3)
		require.NoError(t, err)
		assert.Len(t, m.Expenses, 8)
		assert.Equal(t, -80.0, m.TotalExpenses)
	})

	t.Run("should validate entries before touching the month", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedMarch(repo)
		service := newTestService(repo)

		_, err := service.AddEntry(ctx, "b1", 2025, 3, EntryInput{
			Kind: EntryKindTransfer, FromAccountID: "checking", ToAccountID: "checking",
			Amount: 10, Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		})

		assert.ErrorIs(t, err, ErrInvalidEntry)
		assert.Empty(t, repo.StoreCalls)
	})
}

func TestMonthService_ClearedBalances(t *testing.T) {
	ctx := context.Background()

	t.Run("should split balances by cleared state", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		repo.Seed(ledger.Retotal(ledger.MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			Income: []ledger.IncomeEntry{{
				ID: "i1", AccountID: "checking", Amount: 1000,
				Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			}},
			Expenses: []ledger.ExpenseEntry{{
				ID: "e1", AccountID: "checking", Amount: -100,
				Date: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), Cleared: false,
			}},
		}))
		service := newTestService(repo)

		balances, err := service.ClearedBalances(ctx, "b1", 2025, 3)

		require.NoError(t, err)
		require.Len(t, balances, 1)
		assert.Equal(t, 1000.0, balances[0].Cleared)
		assert.Equal(t, 900.0, balances[0].Uncleared)
	})
}
