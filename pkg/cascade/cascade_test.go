package cascade

import (
	"testing"
	"time"

	"github.com/ledgerd/ledgerd/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(year, monthNum int, income float64, startBalance float64) ledger.MonthlyLedger {
	m := ledger.MonthlyLedger{
		BudgetID: "b1", Year: year, Month: monthNum,
		AccountBalances: []ledger.AccountBalance{
			{AccountID: "checking", StartBalance: startBalance},
		},
	}
	if income != 0 {
		m.Income = []ledger.IncomeEntry{{
			ID: "i1", AccountID: "checking", Amount: income,
			Date: time.Date(year, time.Month(monthNum), 1, 0, 0, 0, 0, time.UTC),
		}}
	}
	return ledger.Retotal(m)
}

func TestPlan(t *testing.T) {
	t.Run("should carry changed end balances into following months", func(t *testing.T) {
		// given a consistent chain whose head is then edited
		m1 := month(2025, 1, 100, 0)  // ends at 100
		m2 := month(2025, 2, 50, 100) // ends at 150
		m3 := month(2025, 3, 0, 150)  // ends at 150
		m1.Income = append(m1.Income, ledger.IncomeEntry{
			ID: "i2", AccountID: "checking", Amount: 25,
			Date: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		})

		// when
		changed := Plan([]ledger.MonthlyLedger{m1, m2, m3})

		// then every month downstream of the edit is rewritten
		require.Len(t, changed, 3)
		end := func(m ledger.MonthlyLedger) float64 {
			b, ok := m.AccountBalanceFor("checking")
			require.True(t, ok)
			return b.EndBalance
		}
		assert.Equal(t, 125.0, end(changed[0]))
		assert.Equal(t, 125.0, changed[1].AccountBalances[0].StartBalance)
		assert.Equal(t, 175.0, end(changed[1]))
		assert.Equal(t, 175.0, changed[2].AccountBalances[0].StartBalance)
		assert.Equal(t, 175.0, end(changed[2]))
	})

	t.Run("should stop at the first month whose seeds already agree", func(t *testing.T) {
		m1 := month(2025, 1, 100, 0)
		m2 := month(2025, 2, 50, 100)
		m3 := month(2025, 3, 0, 150)

		changed := Plan([]ledger.MonthlyLedger{m1, m2, m3})

		// Nothing was edited, so only the head is retotaled.
		require.Len(t, changed, 1)
		assert.Equal(t, 2025, changed[0].Year)
		assert.Equal(t, 1, changed[0].Month)
	})

	t.Run("should synthesize balances for accounts that first appear upstream", func(t *testing.T) {
		m1 := ledger.Retotal(ledger.MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 1,
			Income: []ledger.IncomeEntry{{
				ID: "i1", AccountID: "savings", Amount: 500,
				Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			}},
		})
		m2 := month(2025, 2, 0, 0) // knows only "checking"

		changed := Plan([]ledger.MonthlyLedger{m1, m2})

		require.Len(t, changed, 2)
		savings, ok := changed[1].AccountBalanceFor("savings")
		require.True(t, ok)
		assert.Equal(t, 500.0, savings.StartBalance)
		assert.Equal(t, 500.0, savings.EndBalance)
	})

	t.Run("should carry category end balances forward", func(t *testing.T) {
		m1 := ledger.Retotal(ledger.MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 1,
			AllocationsFinalized: true,
			CategoryBalances: []ledger.CategoryBalance{
				{Category: ledger.CategoryOf("groceries"), Allocated: 200},
			},
		})
		m2 := ledger.Retotal(ledger.MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 2,
			CategoryBalances: []ledger.CategoryBalance{
				{Category: ledger.CategoryOf("groceries"), StartBalance: 0},
			},
		})

		changed := Plan([]ledger.MonthlyLedger{m1, m2})

		require.Len(t, changed, 2)
		groceries, ok := changed[1].CategoryBalanceFor(ledger.CategoryOf("groceries"))
		require.True(t, ok)
		assert.Equal(t, 200.0, groceries.StartBalance)
	})

	t.Run("should return nil for an empty run", func(t *testing.T) {
		assert.Nil(t, Plan(nil))
	})

	t.Run("should not mutate the input snapshots", func(t *testing.T) {
		m1 := month(2025, 1, 100, 0)
		m2 := month(2025, 2, 0, 0) // stale seed

		_ = Plan([]ledger.MonthlyLedger{m1, m2})

		assert.Equal(t, 0.0, m2.AccountBalances[0].StartBalance)
	})
}
