package repository_test

import (
	"context"
	"testing"

	"matchbook/models"
	"matchbook/repository"
	"matchbook/repository/testutil"
	"matchbook/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)

	userRepo := repository.NewUserRepository(testDB.DB)
	ratingRepo := repository.NewRatingRepository(testDB.DB)

	for id, name := range map[int64]string{1: "alice", 2: "bob", 3: "carol"} {
		_, err := userRepo.Create(ctx, id, name, 0)
		require.NoError(t, err)
	}

	t.Run("GetByUserID returns nil when never rated", func(t *testing.T) {
		record, err := ratingRepo.GetByUserID(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, record)
	})

	t.Run("Upsert inserts then updates", func(t *testing.T) {
		record := models.NewRatingRecord(1, 1600)
		require.NoError(t, ratingRepo.Upsert(ctx, record))

		record.ApplyWin(50)
		require.NoError(t, ratingRepo.Upsert(ctx, record))

		fetched, err := ratingRepo.GetByUserID(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, int64(1650), fetched.MMR)
		assert.Equal(t, int64(1), fetched.Wins)
		assert.Equal(t, int64(1), fetched.Streak)
	})

	t.Run("GetByUserIDs returns only existing records", func(t *testing.T) {
		require.NoError(t, ratingRepo.Upsert(ctx, models.NewRatingRecord(2, 1400)))

		records, err := ratingRepo.GetByUserIDs(ctx, []int64{1, 2, 3})
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Contains(t, records, int64(1))
		assert.Contains(t, records, int64(2))
		assert.NotContains(t, records, int64(3))
	})

	t.Run("List orders by MMR descending", func(t *testing.T) {
		records, err := ratingRepo.List(ctx, 10)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, int64(1), records[0].UserID)
		assert.Equal(t, int64(2), records[1].UserID)
	})
}

func TestScrimRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB := testutil.SetupTestDatabase(t)

	userRepo := repository.NewUserRepository(testDB.DB)
	scrimRepo := repository.NewScrimRepository(testDB.DB)

	for id, name := range map[int64]string{1: "alice", 2: "bob"} {
		_, err := userRepo.Create(ctx, id, name, 0)
		require.NoError(t, err)
	}

	scrim := &models.Scrim{Name: "friday-inhouse"}
	require.NoError(t, scrimRepo.Create(ctx, scrim))
	require.NotZero(t, scrim.ID)

	t.Run("GetByName", func(t *testing.T) {
		fetched, err := scrimRepo.GetByName(ctx, "friday-inhouse")
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, scrim.ID, fetched.ID)

		missing, err := scrimRepo.GetByName(ctx, "no-such-scrim")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("AddMember upserts the team", func(t *testing.T) {
		member := &models.ScrimMember{ScrimID: scrim.ID, UserID: 1, Team: models.Team1}
		require.NoError(t, scrimRepo.AddMember(ctx, member))

		// Joining again moves the player, it does not duplicate the row
		member.Team = models.Team2
		require.NoError(t, scrimRepo.AddMember(ctx, member))

		require.NoError(t, scrimRepo.AddMember(ctx, &models.ScrimMember{
			ScrimID: scrim.ID, UserID: 2, Team: models.Team1,
		}))

		members, err := scrimRepo.GetMembers(ctx, scrim.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
	})

	t.Run("RemoveMember", func(t *testing.T) {
		require.NoError(t, scrimRepo.RemoveMember(ctx, scrim.ID, 2))

		err := scrimRepo.RemoveMember(ctx, scrim.ID, 2)
		assert.Equal(t, service.KindNotFound, service.KindOf(err))
	})

	t.Run("Update persists the signup flag", func(t *testing.T) {
		scrim.TeamsClosed = true
		require.NoError(t, scrimRepo.Update(ctx, scrim))

		fetched, err := scrimRepo.GetByName(ctx, "friday-inhouse")
		require.NoError(t, err)
		assert.True(t, fetched.TeamsClosed)
	})

	t.Run("Delete cascades to members", func(t *testing.T) {
		require.NoError(t, scrimRepo.Delete(ctx, scrim.ID))

		fetched, err := scrimRepo.GetByName(ctx, "friday-inhouse")
		require.NoError(t, err)
		assert.Nil(t, fetched)

		members, err := scrimRepo.GetMembers(ctx, scrim.ID)
		require.NoError(t, err)
		assert.Empty(t, members)
	})
}
