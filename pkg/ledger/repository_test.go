package ledger

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ledgerd/ledgerd/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBudget(t *testing.T, db *sql.DB, budgetID string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO budget (id, name, created_at) VALUES ($1, $2, $3)`,
		budgetID, "Test budget", time.Now().UTC().Format(time.RFC3339Nano))
	require.NoError(t, err)
}

func sampleMonth(budgetID string, year, month int) MonthlyLedger {
	day := func(d int) time.Time {
		return time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)
	}
	return Retotal(MonthlyLedger{
		BudgetID: budgetID, Year: year, Month: month,
		Income: []IncomeEntry{
			{ID: "i1", AccountID: "checking", Amount: 1200, Date: day(1), Payee: "Employer", Description: "salary"},
		},
		Expenses: []ExpenseEntry{
			{ID: "e1", AccountID: "checking", Category: CategoryOf("groceries"), Amount: -80.25, Date: day(3), Cleared: true, Payee: "Market"},
			{ID: "e2", AccountID: "checking", Category: Uncategorized(), Amount: -10, Date: day(4)},
		},
		Transfers: []TransferEntry{
			{ID: "t1", FromAccountID: "checking", ToAccountID: "savings", Amount: 300, Date: day(5), Cleared: true},
		},
		Adjustments: []AdjustmentEntry{
			{ID: "a1", AccountID: "savings", Category: CategoryOf("vacation"), Amount: 5.75, Date: day(6), Description: "interest"},
		},
		AccountBalances: []AccountBalance{
			{AccountID: "checking", StartBalance: 100},
		},
		CategoryBalances: []CategoryBalance{
			{Category: CategoryOf("groceries"), StartBalance: 40, Allocated: 150},
		},
	})
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	seedBudget(t, db, "b1")

	t.Run("should store and reload a month snapshot", func(t *testing.T) {
		// given
		m := sampleMonth("b1", 2025, 3)

		// when
		require.NoError(t, repo.StoreMonth(ctx, m, true))
		loaded, err := repo.GetMonth(ctx, "b1", 2025, 3)

		// then
		require.NoError(t, err)
		assert.False(t, loaded.UpdatedAt.IsZero())
		loaded.UpdatedAt = time.Time{}
		m.UpdatedAt = time.Time{}
		assert.Equal(t, m, loaded)
	})

	t.Run("should return ErrMonthNotFound for a missing month", func(t *testing.T) {
		_, err := repo.GetMonth(ctx, "b1", 2030, 1)

		assert.ErrorIs(t, err, ErrMonthNotFound)
	})

	t.Run("should refuse to create a month when the write is not a creation", func(t *testing.T) {
		m := sampleMonth("b1", 2025, 6)

		err := repo.StoreMonth(ctx, m, false)

		assert.ErrorIs(t, err, ErrMonthNotFound)
		_, err = repo.GetMonth(ctx, "b1", 2025, 6)
		assert.ErrorIs(t, err, ErrMonthNotFound)
	})

	t.Run("should overwrite an existing month in place", func(t *testing.T) {
		m := sampleMonth("b1", 2025, 4)
		require.NoError(t, repo.StoreMonth(ctx, m, true))

		m.Expenses = append(m.Expenses, ExpenseEntry{
			ID: "e3", AccountID: "checking", Category: CategoryOf("dining"),
			Amount: -25, Date: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
		})
		m = Retotal(m)
		require.NoError(t, repo.StoreMonth(ctx, m, false))

		loaded, err := repo.GetMonth(ctx, "b1", 2025, 4)
		require.NoError(t, err)
		assert.Len(t, loaded.Expenses, 3)
		assert.Equal(t, m.TotalExpenses, loaded.TotalExpenses)
	})

	t.Run("should refresh updated_at on every store", func(t *testing.T) {
		m := sampleMonth("b1", 2025, 5)
		require.NoError(t, repo.StoreMonth(ctx, m, true))
		first, err := repo.GetMonth(ctx, "b1", 2025, 5)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		require.NoError(t, repo.StoreMonth(ctx, m, false))
		second, err := repo.GetMonth(ctx, "b1", 2025, 5)
		require.NoError(t, err)

		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	})

	t.Run("should assign ids to entries stored without one", func(t *testing.T) {
		m := MonthlyLedger{
			BudgetID: "b1", Year: 2025, Month: 7,
			Income: []IncomeEntry{{AccountID: "checking", Amount: 10, Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)}},
		}
		require.NoError(t, repo.StoreMonth(ctx, Retotal(m), true))

		loaded, err := repo.GetMonth(ctx, "b1", 2025, 7)
		require.NoError(t, err)
		require.Len(t, loaded.Income, 1)
		assert.NotEmpty(t, loaded.Income[0].ID)
	})

	t.Run("should list month keys in calendar order", func(t *testing.T) {
		seedBudget(t, db, "b2")
		for _, key := range []MonthKey{{2024, 12}, {2025, 2}, {2025, 1}} {
			m := MonthlyLedger{BudgetID: "b2", Year: key.Year, Month: key.Month}
			require.NoError(t, repo.StoreMonth(ctx, m, true))
		}

		keys, err := repo.MonthKeys(ctx, "b2")

		require.NoError(t, err)
		assert.Equal(t, []MonthKey{{2024, 12}, {2025, 1}, {2025, 2}}, keys)
	})
}
