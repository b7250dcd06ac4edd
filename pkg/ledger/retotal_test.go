package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(day int) time.Time {
	return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC)
}

func TestRetotal(t *testing.T) {
	t.Run("should recompute totals and account balances from entries", func(t *testing.T) {
		// given
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			Income: []IncomeEntry{
				{ID: "i1", AccountID: "checking", Amount: 1000, Date: date(1)},
				{ID: "i2", AccountID: "checking", Amount: 500.25, Date: date(15)},
			},
			Expenses: []ExpenseEntry{
				{ID: "e1", AccountID: "checking", Category: CategoryOf("groceries"), Amount: -200.10, Date: date(3)},
				{ID: "e2", AccountID: "checking", Category: CategoryOf("groceries"), Amount: -0.05, Date: date(4)},
			},
			AccountBalances: []AccountBalance{
				{AccountID: "checking", StartBalance: 100},
			},
		}

		// when
		out := Retotal(m)

		// then
		assert.Equal(t, 1500.25, out.TotalIncome)
		assert.Equal(t, -200.15, out.TotalExpenses)

		balance, ok := out.AccountBalanceFor("checking")
		require.True(t, ok)
		assert.Equal(t, 100.0, balance.StartBalance)
		assert.Equal(t, 1500.25, balance.Income)
		assert.Equal(t, -200.15, balance.Expenses)
		assert.Equal(t, 1300.10, balance.NetChange)
		assert.Equal(t, 1400.10, balance.EndBalance)

		spent, ok := out.CategoryBalanceFor(CategoryOf("groceries"))
		require.True(t, ok)
		assert.Equal(t, -200.15, spent.Spent)
		assert.Equal(t, -200.15, spent.EndBalance)
	})

	t.Run("should be idempotent", func(t *testing.T) {
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			Income:   []IncomeEntry{{ID: "i1", AccountID: "a", Amount: 123.45, Date: date(1)}},
			Expenses: []ExpenseEntry{{ID: "e1", AccountID: "a", Category: CategoryOf("c"), Amount: -67.89, Date: date(2)}},
			Transfers: []TransferEntry{
				{ID: "t1", FromAccountID: "a", ToAccountID: "b", Amount: 10, Date: date(3)},
			},
			AccountBalances:  []AccountBalance{{AccountID: "a", StartBalance: 11.11}},
			CategoryBalances: []CategoryBalance{{Category: CategoryOf("c"), StartBalance: 5, Allocated: 50}},
		}

		once := Retotal(m)
		twice := Retotal(once)

		assert.Equal(t, once, twice)
	})

	t.Run("should apply transfers with opposite signs at each end", func(t *testing.T) {
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			Transfers: []TransferEntry{
				{ID: "t1", FromAccountID: "checking", ToAccountID: "savings", Amount: 250, Date: date(5)},
			},
			AccountBalances: []AccountBalance{{AccountID: "checking", StartBalance: 500}},
		}

		out := Retotal(m)

		// Transfers are not income or expenses.
		assert.Equal(t, 0.0, out.TotalIncome)
		assert.Equal(t, 0.0, out.TotalExpenses)

		from, ok := out.AccountBalanceFor("checking")
		require.True(t, ok)
		assert.Equal(t, -250.0, from.NetChange)
		assert.Equal(t, 250.0, from.EndBalance)

		to, ok := out.AccountBalanceFor("savings")
		require.True(t, ok)
		assert.Equal(t, 0.0, to.StartBalance)
		assert.Equal(t, 250.0, to.EndBalance)
	})

	t.Run("should count category-tagged adjustments as category spending", func(t *testing.T) {
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			Adjustments: []AdjustmentEntry{
				{ID: "a1", AccountID: "checking", Category: CategoryOf("dining"), Amount: -12.50, Date: date(7)},
				{ID: "a2", AccountID: "checking", Amount: 3.25, Date: date(8)},
			},
		}

		out := Retotal(m)

		balance, ok := out.AccountBalanceFor("checking")
		require.True(t, ok)
		assert.Equal(t, -9.25, balance.NetChange)

		dining, ok := out.CategoryBalanceFor(CategoryOf("dining"))
		require.True(t, ok)
		assert.Equal(t, -12.50, dining.Spent)

		// The untagged adjustment must not create an uncategorized balance.
		_, ok = out.CategoryBalanceFor(Uncategorized())
		assert.False(t, ok)
	})

	t.Run("should include allocations in category end balances only when finalized", func(t *testing.T) {
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			Expenses: []ExpenseEntry{
				{ID: "e1", AccountID: "checking", Category: CategoryOf("rent"), Amount: -200, Date: date(1)},
			},
			CategoryBalances: []CategoryBalance{
				{Category: CategoryOf("rent"), StartBalance: 50, Allocated: 300},
			},
		}

		draft := Retotal(m)
		rent, ok := draft.CategoryBalanceFor(CategoryOf("rent"))
		require.True(t, ok)
		assert.Equal(t, 300.0, rent.Allocated)
		assert.Equal(t, -150.0, rent.EndBalance)

		m.AllocationsFinalized = true
		finalized := Retotal(m)
		rent, ok = finalized.CategoryBalanceFor(CategoryOf("rent"))
		require.True(t, ok)
		assert.Equal(t, 150.0, rent.EndBalance)
	})

	t.Run("should preserve carried-forward seeds for accounts without activity", func(t *testing.T) {
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			AccountBalances:  []AccountBalance{{AccountID: "dormant", StartBalance: 77.77}},
			CategoryBalances: []CategoryBalance{{Category: CategoryOf("vacation"), StartBalance: 400}},
		}

		out := Retotal(m)

		balance, ok := out.AccountBalanceFor("dormant")
		require.True(t, ok)
		assert.Equal(t, 77.77, balance.StartBalance)
		assert.Equal(t, 77.77, balance.EndBalance)

		vacation, ok := out.CategoryBalanceFor(CategoryOf("vacation"))
		require.True(t, ok)
		assert.Equal(t, 400.0, vacation.EndBalance)
	})

	t.Run("should treat non-finite amounts as zero", func(t *testing.T) {
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			Income: []IncomeEntry{
				{ID: "i1", AccountID: "a", Amount: math.NaN(), Date: date(1)},
				{ID: "i2", AccountID: "a", Amount: 10, Date: date(2)},
			},
		}

		out := Retotal(m)

		assert.Equal(t, 10.0, out.TotalIncome)
		balance, ok := out.AccountBalanceFor("a")
		require.True(t, ok)
		assert.Equal(t, 10.0, balance.EndBalance)
	})

	t.Run("should overwrite stale derived fields", func(t *testing.T) {
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			Income:        []IncomeEntry{{ID: "i1", AccountID: "a", Amount: 100, Date: date(1)}},
			TotalIncome:   999,
			TotalExpenses: -999,
			AccountBalances: []AccountBalance{
				{AccountID: "a", StartBalance: 0, Income: 5, Expenses: -5, NetChange: 123, EndBalance: 456},
			},
		}

		out := Retotal(m)

		assert.Equal(t, 100.0, out.TotalIncome)
		assert.Equal(t, 0.0, out.TotalExpenses)
		balance, _ := out.AccountBalanceFor("a")
		assert.Equal(t, 100.0, balance.NetChange)
		assert.Equal(t, 100.0, balance.EndBalance)
	})

	t.Run("should not mutate the input document", func(t *testing.T) {
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 3,
			Income:          []IncomeEntry{{ID: "i1", AccountID: "a", Amount: 100, Date: date(1)}},
			AccountBalances: []AccountBalance{{AccountID: "a", StartBalance: 1}},
		}

		_ = Retotal(m)

		assert.Equal(t, 0.0, m.TotalIncome)
		assert.Equal(t, 0.0, m.AccountBalances[0].EndBalance)
	})
}
