package cascade

import (
	"context"
	"testing"
	"time"

	"github.com/ledgerd/ledgerd/internal/event_bus"
	"github.com/ledgerd/ledgerd/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedChain(repo *ledger.StubRepository) {
	jan := ledger.Retotal(ledger.MonthlyLedger{
		BudgetID: "b1", Year: 2025, Month: 1,
		Income: []ledger.IncomeEntry{{
			ID: "i1", AccountID: "checking", Amount: 100,
			Date: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		}},
	})
	feb := ledger.Retotal(ledger.MonthlyLedger{
		BudgetID: "b1", Year: 2025, Month: 2,
		AccountBalances: []ledger.AccountBalance{{AccountID: "checking", StartBalance: 100}},
	})
	mar := ledger.Retotal(ledger.MonthlyLedger{
		BudgetID: "b1", Year: 2025, Month: 3,
		AccountBalances: []ledger.AccountBalance{{AccountID: "checking", StartBalance: 100}},
	})
	repo.Seed(jan)
	repo.Seed(feb)
	repo.Seed(mar)
}

func TestOrchestrator_RecalculateAndCascade(t *testing.T) {
	ctx := context.Background()

	t.Run("should rewrite the month and every affected follower", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedChain(repo)
		// Edit January behind the orchestrator's back: double the income.
		jan, err := repo.GetMonth(ctx, "b1", 2025, 1)
		require.NoError(t, err)
		jan.Income[0].Amount = 200
		repo.Seed(jan)

		orchestrator := NewOrchestrator(repo, event_bus.NewEventBus())

		// when
		require.NoError(t, orchestrator.RecalculateAndCascade(ctx, "b1", 2025, 1))

		// then
		assert.Equal(t, []ledger.MonthKey{{Year: 2025, Month: 1}, {Year: 2025, Month: 2}, {Year: 2025, Month: 3}}, repo.StoreCalls)
		mar, err := repo.GetMonth(ctx, "b1", 2025, 3)
		require.NoError(t, err)
		balance, ok := mar.AccountBalanceFor("checking")
		require.True(t, ok)
		assert.Equal(t, 200.0, balance.StartBalance)
		assert.Equal(t, 200.0, balance.EndBalance)
	})

	t.Run("should only rewrite the month itself when followers are consistent", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedChain(repo)
		orchestrator := NewOrchestrator(repo, event_bus.NewEventBus())

		require.NoError(t, orchestrator.RecalculateAndCascade(ctx, "b1", 2025, 1))

		assert.Equal(t, []ledger.MonthKey{{Year: 2025, Month: 1}}, repo.StoreCalls)
	})

	t.Run("should fail for a month that does not exist", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedChain(repo)
		orchestrator := NewOrchestrator(repo, event_bus.NewEventBus())

		err := orchestrator.RecalculateAndCascade(ctx, "b1", 2026, 1)

		assert.ErrorIs(t, err, ledger.ErrMonthNotFound)
	})

	t.Run("should publish a recalculation event", func(t *testing.T) {
		repo := ledger.NewStubRepository()
		seedChain(repo)
		bus := event_bus.NewEventBus()
		var received []event_bus.MonthRecalculatedEvent
		bus.Subscribe(event_bus.MonthRecalculated, func(e event_bus.Event) error {
			if payload, ok := e.Data.(event_bus.MonthRecalculatedEvent); ok {
				received = append(received, payload)
			}
			return nil
		})
		orchestrator := NewOrchestrator(repo, bus)

		require.NoError(t, orchestrator.RecalculateAndCascade(ctx, "b1", 2025, 2))

		require.Len(t, received, 1)
		assert.Equal(t, "b1", received[0].BudgetID)
		assert.Equal(t, 2025, received[0].Year)
		assert.Equal(t, 2, received[0].Month)
	})
}
