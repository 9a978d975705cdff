package testutil

import (
	"time"

	"matchbook/models"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(userID int64, username string) *models.User {
	now := time.Now()
	return &models.User{
		ID:        userID,
		Username:  username,
		Balance:   100000,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestUserWithBalance creates a test user with a specific balance
func CreateTestUserWithBalance(userID int64, username string, balance int64) *models.User {
	user := CreateTestUser(userID, username)
	user.Balance = balance
	return user
}

// CreateTestMatch creates an open test match with empty pools
func CreateTestMatch(id int64, sideA, sideB string) *models.Match {
	return &models.Match{
		ID:        id,
		Name:      sideA + " vs " + sideB,
		SideA:     sideA,
		SideB:     sideB,
		StartsAt:  time.Now().Add(time.Hour),
		DividendA: 1.0,
		DividendB: 1.0,
		CreatedAt: time.Now(),
	}
}

// CreateTestMatchWithPools creates a test match with the given pools and
// dividends derived from them
func CreateTestMatchWithPools(id int64, sideA, sideB string, poolA, poolB int64) *models.Match {
	match := CreateTestMatch(id, sideA, sideB)
	match.PoolA = poolA
	match.PoolB = poolB
	match.RecomputeDividends()
	return match
}

// CreateTestBet creates a test bet placed just now
func CreateTestBet(id, userID, matchID int64, side string, amount int64) *models.Bet {
	return &models.Bet{
		ID:       id,
		UserID:   userID,
		MatchID:  matchID,
		Side:     side,
		Amount:   amount,
		PlacedAt: time.Now(),
	}
}

// CreateTestRatingRecord creates a rating record with the given MMR and streak
func CreateTestRatingRecord(userID, mmr, streak int64) *models.RatingRecord {
	return &models.RatingRecord{
		UserID:    userID,
		MMR:       mmr,
		Streak:    streak,
		UpdatedAt: time.Now(),
	}
}
