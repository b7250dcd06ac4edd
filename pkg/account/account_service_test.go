package account

import (
	"context"
	"testing"
	"time"

	"github.com/ledgerd/ledgerd/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := NewStubAccountRepo()
	service := NewAccountService(repo, utils.NewMockClock(now))

	t.Run("should create an account with generated id and creation time", func(t *testing.T) {
		defer repo.Cleanup()

		// when
		created, err := service.Create(ctx, Account{BudgetID: "b1", Name: "Checking"})

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Checking", created.Name)
		assert.Equal(t, now, created.CreatedAt)

		stored, err := service.Get(ctx, "b1", created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, stored)
	})

	t.Run("should reject an account without a name", func(t *testing.T) {
		defer repo.Cleanup()

		_, err := service.Create(ctx, Account{BudgetID: "b1", Name: "   "})

		assert.Error(t, err)
	})

	t.Run("should scope accounts to their budget", func(t *testing.T) {
		defer repo.Cleanup()
		created, err := service.Create(ctx, Account{BudgetID: "b1", Name: "Checking"})
		require.NoError(t, err)

		_, err = service.Get(ctx, "b2", created.ID)
		assert.ErrorIs(t, err, ErrAccountNotFound)

		accounts, err := service.GetAll(ctx, "b2")
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("should list accounts sorted by name", func(t *testing.T) {
		defer repo.Cleanup()
		_, err := service.Create(ctx, Account{BudgetID: "b1", Name: "Savings"})
		require.NoError(t, err)
		_, err = service.Create(ctx, Account{BudgetID: "b1", Name: "Checking"})
		require.NoError(t, err)

		// when
		accounts, err := service.GetAll(ctx, "b1")

		// then
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, "Checking", accounts[0].Name)
		assert.Equal(t, "Savings", accounts[1].Name)
	})

	t.Run("should update an existing account", func(t *testing.T) {
		defer repo.Cleanup()
		created, err := service.Create(ctx, Account{BudgetID: "b1", Name: "Checking"})
		require.NoError(t, err)

		// when
		ok, err := service.Update(ctx, Account{ID: created.ID, BudgetID: "b1", Name: "Joint checking"})

		// then
		require.NoError(t, err)
		assert.True(t, ok)
		updated, err := service.Get(ctx, "b1", created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Joint checking", updated.Name)
	})

	t.Run("should report a missing account on update", func(t *testing.T) {
		defer repo.Cleanup()

		ok, err := service.Update(ctx, Account{ID: "missing", BudgetID: "b1", Name: "Checking"})

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("should delete an account", func(t *testing.T) {
		defer repo.Cleanup()
		created, err := service.Create(ctx, Account{BudgetID: "b1", Name: "Checking"})
		require.NoError(t, err)

		// when
		ok, err := service.Delete(ctx, "b1", created.ID)

		// then
		require.NoError(t, err)
		assert.True(t, ok)
		_, err = service.Get(ctx, "b1", created.ID)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}
