package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCleared(t *testing.T) {
	t.Run("should count income on both sides and pending expenses only on uncleared", func(t *testing.T) {
		// given
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			Income: []IncomeEntry{
				{ID: "i1", AccountID: "checking", Amount: 1000, Date: date(1)},
			},
			Expenses: []ExpenseEntry{
				{ID: "e1", AccountID: "checking", Amount: -300, Date: date(2), Cleared: true},
				{ID: "e2", AccountID: "checking", Amount: -100, Date: date(3), Cleared: false},
			},
			AccountBalances: []AccountBalance{{AccountID: "checking", StartBalance: 50}},
		}

		// when
		balances := SplitCleared(m)

		// then
		require.Len(t, balances, 1)
		assert.Equal(t, "checking", balances[0].AccountID)
		assert.Equal(t, 750.0, balances[0].Cleared)
		assert.Equal(t, 650.0, balances[0].Uncleared)
	})

	t.Run("should apply cleared transfers on both accounts", func(t *testing.T) {
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			Transfers: []TransferEntry{
				{ID: "t1", FromAccountID: "checking", ToAccountID: "savings", Amount: 200, Date: date(5), Cleared: true},
				{ID: "t2", FromAccountID: "checking", ToAccountID: "savings", Amount: 50, Date: date(6), Cleared: false},
			},
		}

		balances := SplitCleared(m)

		require.Len(t, balances, 2)
		checking := balances[0]
		savings := balances[1]
		assert.Equal(t, "checking", checking.AccountID)
		assert.Equal(t, -200.0, checking.Cleared)
		assert.Equal(t, -250.0, checking.Uncleared)
		assert.Equal(t, 200.0, savings.Cleared)
		assert.Equal(t, 250.0, savings.Uncleared)
	})

	t.Run("should include adjustments according to their cleared flag", func(t *testing.T) {
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			Adjustments: []AdjustmentEntry{
				{ID: "a1", AccountID: "cash", Amount: -10, Date: date(1), Cleared: true},
				{ID: "a2", AccountID: "cash", Amount: 7, Date: date(2), Cleared: false},
			},
			AccountBalances: []AccountBalance{{AccountID: "cash", StartBalance: 100}},
		}

		balances := SplitCleared(m)

		require.Len(t, balances, 1)
		assert.Equal(t, 90.0, balances[0].Cleared)
		assert.Equal(t, 97.0, balances[0].Uncleared)
	})

	t.Run("should report dormant accounts with their start balance on both sides", func(t *testing.T) {
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			AccountBalances: []AccountBalance{{AccountID: "dormant", StartBalance: 42.42}},
		}

		balances := SplitCleared(m)

		require.Len(t, balances, 1)
		assert.Equal(t, 42.42, balances[0].Cleared)
		assert.Equal(t, 42.42, balances[0].Uncleared)
	})
}
