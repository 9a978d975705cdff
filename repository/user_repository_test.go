package repository_test

import (
	"context"
	"testing"

	"matchbook/repository"
	"matchbook/repository/testutil"
	"matchbook/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)
	repo := repository.NewUserRepository(testDB.DB)

	t.Run("GetByID returns nil for missing user", func(t *testing.T) {
		user, err := repo.GetByID(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("Create and GetByID", func(t *testing.T) {
		created, err := repo.Create(ctx, 1, "alice", 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		assert.Equal(t, "alice", created.Username)
		assert.Equal(t, int64(1000), created.Balance)

		fetched, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, created.Balance, fetched.Balance)
	})

	t.Run("AddBalance", func(t *testing.T) {
		err := repo.AddBalance(ctx, 1, 500)
		require.NoError(t, err)

		user, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1500), user.Balance)
	})

	t.Run("AddBalance missing user", func(t *testing.T) {
		err := repo.AddBalance(ctx, 999, 500)
		assert.Equal(t, service.KindNotFound, service.KindOf(err))
	})

	t.Run("DeductBalance", func(t *testing.T) {
		err := repo.DeductBalance(ctx, 1, 700)
		require.NoError(t, err)

		user, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(800), user.Balance)
	})

	t.Run("DeductBalance insufficient funds", func(t *testing.T) {
		err := repo.DeductBalance(ctx, 1, 5000)
		assert.Equal(t, service.KindInsufficientFunds, service.KindOf(err))

		// The conditional update left the balance alone
		user, getErr := repo.GetByID(ctx, 1)
		require.NoError(t, getErr)
		assert.Equal(t, int64(800), user.Balance)
	})

	t.Run("DeductBalance missing user", func(t *testing.T) {
		err := repo.DeductBalance(ctx, 999, 100)
		assert.Equal(t, service.KindNotFound, service.KindOf(err))
	})

	t.Run("GetAll orders by balance", func(t *testing.T) {
		_, err := repo.Create(ctx, 2, "bob", 9000)
		require.NoError(t, err)

		users, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "bob", users[0].Username)
		assert.Equal(t, "alice", users[1].Username)
	})
}
