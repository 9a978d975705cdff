package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"matchbook/events"
	"matchbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const (
	testMaxBet   = int64(500000)
	testWindow   = 5 * time.Minute
	testHouseCut = int64(5)
)

func newBettingMocks() (*MockUnitOfWork, *MockUnitOfWorkFactory, *MockUserRepository, *MockBalanceHistoryRepository, *MockMatchRepository, *MockBetRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockHistoryRepo := new(MockBalanceHistoryRepository)
	mockMatchRepo := new(MockMatchRepository)
	mockBetRepo := new(MockBetRepository)

	mockUoW.SetRepositories(mockUserRepo, mockHistoryRepo, mockMatchRepo, mockBetRepo, nil, nil)
	mockFactory.On("Create").Return(mockUoW)

	return mockUoW, mockFactory, mockUserRepo, mockHistoryRepo, mockMatchRepo, mockBetRepo
}

func openMatch() *models.Match {
	return &models.Match{
		ID:        1,
		Name:      "Blue vs Red",
		SideA:     "Blue",
		SideB:     "Red",
		StartsAt:  time.Now().Add(time.Hour),
		DividendA: 1.0,
		DividendB: 1.0,
	}
}

func TestBettingService_PlaceBet(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockHistoryRepo, mockMatchRepo, mockBetRepo := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	match := openMatch()
	match.PoolA = 100
	match.PoolB = 300
	match.RecomputeDividends()

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(match, nil)
	mockBetRepo.On("SumByUserAndMatch", ctx, int64(42), int64(1)).Return(int64(0), nil)
	mockUserRepo.On("GetByID", ctx, int64(42)).Return(&models.User{ID: 42, Balance: 1000}, nil)
	mockUserRepo.On("DeductBalance", ctx, int64(42), int64(100)).Return(nil)

	mockBetRepo.On("Create", ctx, mock.MatchedBy(func(b *models.Bet) bool {
		return b.UserID == 42 && b.MatchID == 1 && b.Side == "Blue" && b.Amount == 100
	})).Return(nil).Run(func(args mock.Arguments) {
		bet := args.Get(1).(*models.Bet)
		bet.ID = 7
		bet.PlacedAt = time.Now()
	})

	mockMatchRepo.On("Update", ctx, mock.MatchedBy(func(m *models.Match) bool {
		// 100 added to Blue: total 500, dividends 500/200 and 500/300
		return m.PoolA == 200 && m.PoolB == 300 &&
			m.DividendA == 2.5 && m.DividendB == 1.67
	})).Return(nil)

	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UserID == 42 &&
			h.BalanceBefore == 1000 &&
			h.BalanceAfter == 900 &&
			h.ChangeAmount == -100 &&
			h.TransactionType == models.TransactionTypeBetPlace
	})).Return(nil)

	bet, err := service.PlaceBet(ctx, 42, 1, "Blue", 100)

	assert.NoError(t, err)
	assert.NotNil(t, bet)
	assert.Equal(t, int64(7), bet.ID)

	var placed []events.BetPlacedEvent
	for _, e := range mockUoW.Events.Events {
		if ev, ok := e.(events.BetPlacedEvent); ok {
			placed = append(placed, ev)
		}
	}
	assert.Len(t, placed, 1)
	assert.Equal(t, int64(100), placed[0].Amount)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockHistoryRepo.AssertExpectations(t)
	mockMatchRepo.AssertExpectations(t)
	mockBetRepo.AssertExpectations(t)
}

func TestBettingService_PlaceBet_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockHistoryRepo, mockMatchRepo, mockBetRepo := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(openMatch(), nil)
	mockBetRepo.On("SumByUserAndMatch", ctx, int64(42), int64(1)).Return(int64(0), nil)
	mockUserRepo.On("GetByID", ctx, int64(42)).Return(&models.User{ID: 42, Balance: 1000}, nil)
	mockUserRepo.On("DeductBalance", ctx, int64(42), int64(1200)).Return(
		NewWagerError(KindInsufficientFunds, "insufficient balance: have 1000, need 1200"))

	bet, err := service.PlaceBet(ctx, 42, 1, "Blue", 1200)

	assert.Error(t, err)
	assert.Nil(t, bet)
	assert.Equal(t, KindInsufficientFunds, KindOf(err))

	mockBetRepo.AssertNotCalled(t, "Create")
	mockHistoryRepo.AssertNotCalled(t, "Record")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestBettingService_PlaceBet_BettingClosed(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, _, mockMatchRepo, mockBetRepo := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	match := openMatch()
	match.Closed = true

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(match, nil)

	bet, err := service.PlaceBet(ctx, 42, 1, "Blue", 100)

	assert.Error(t, err)
	assert.Nil(t, bet)
	assert.Equal(t, KindBettingClosed, KindOf(err))

	mockBetRepo.AssertNotCalled(t, "SumByUserAndMatch")
	mockUserRepo.AssertNotCalled(t, "DeductBalance")
}

func TestBettingService_PlaceBet_CapExceeded(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, _, mockMatchRepo, mockBetRepo := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(openMatch(), nil)
	mockBetRepo.On("SumByUserAndMatch", ctx, int64(42), int64(1)).Return(int64(499000), nil)

	bet, err := service.PlaceBet(ctx, 42, 1, "Blue", 2000)

	assert.Error(t, err)
	assert.Nil(t, bet)
	assert.Equal(t, KindCapExceeded, KindOf(err))

	mockUserRepo.AssertNotCalled(t, "DeductBalance")
	mockBetRepo.AssertNotCalled(t, "Create")
}

func TestBettingService_PlaceBet_InvalidSide(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, _, mockMatchRepo, mockBetRepo := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(openMatch(), nil)
	mockBetRepo.On("SumByUserAndMatch", ctx, int64(42), int64(1)).Return(int64(0), nil)

	bet, err := service.PlaceBet(ctx, 42, 1, "Green", 100)

	assert.Error(t, err)
	assert.Nil(t, bet)
	assert.Equal(t, KindInvalidSide, KindOf(err))

	mockUserRepo.AssertNotCalled(t, "DeductBalance")
}

func TestBettingService_PlaceBet_MatchNotFound(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, _, _, mockMatchRepo, _ := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(99)).Return(nil, nil)

	bet, err := service.PlaceBet(ctx, 42, 99, "Blue", 100)

	assert.Error(t, err)
	assert.Nil(t, bet)
	assert.Equal(t, KindMatchNotFound, KindOf(err))
}

func TestBettingService_CancelBet(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockHistoryRepo, mockMatchRepo, mockBetRepo := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	match := openMatch()
	match.PoolA = 200
	match.PoolB = 300
	match.RecomputeDividends()

	bet := &models.Bet{
		ID:       7,
		UserID:   42,
		MatchID:  1,
		Side:     "Blue",
		Amount:   100,
		PlacedAt: time.Now().Add(-4 * time.Minute),
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockBetRepo.On("GetByID", ctx, int64(7)).Return(bet, nil)
	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(match, nil)
	mockBetRepo.On("Delete", ctx, int64(7)).Return(nil)

	mockMatchRepo.On("Update", ctx, mock.MatchedBy(func(m *models.Match) bool {
		// 100 removed from Blue: total 400, dividends 400/100 and 400/300
		return m.PoolA == 100 && m.PoolB == 300 &&
			m.DividendA == 4.0 && m.DividendB == 1.33
	})).Return(nil)

	mockUserRepo.On("GetByID", ctx, int64(42)).Return(&models.User{ID: 42, Balance: 900}, nil)
	mockUserRepo.On("AddBalance", ctx, int64(42), int64(100)).Return(nil)

	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UserID == 42 &&
			h.BalanceBefore == 900 &&
			h.BalanceAfter == 1000 &&
			h.ChangeAmount == 100 &&
			h.TransactionType == models.TransactionTypeBetRefund
	})).Return(nil)

	err := service.CancelBet(ctx, 42, 7)

	assert.NoError(t, err)

	mockUoW.AssertExpectations(t)
	mockBetRepo.AssertExpectations(t)
	mockMatchRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockHistoryRepo.AssertExpectations(t)
}

func TestBettingService_CancelBet_EmptiesPool(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockHistoryRepo, mockMatchRepo, mockBetRepo := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	match := openMatch()
	match.PoolA = 100
	match.RecomputeDividends()

	bet := &models.Bet{ID: 7, UserID: 42, MatchID: 1, Side: "Blue", Amount: 100, PlacedAt: time.Now()}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockBetRepo.On("GetByID", ctx, int64(7)).Return(bet, nil)
	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(match, nil)
	mockBetRepo.On("Delete", ctx, int64(7)).Return(nil)

	// The total pool hits zero: both dividends reset to 1.0 and the
	// refund still completes
	mockMatchRepo.On("Update", ctx, mock.MatchedBy(func(m *models.Match) bool {
		return m.PoolA == 0 && m.PoolB == 0 &&
			m.DividendA == 1.0 && m.DividendB == 1.0
	})).Return(nil)

	mockUserRepo.On("GetByID", ctx, int64(42)).Return(&models.User{ID: 42, Balance: 900}, nil)
	mockUserRepo.On("AddBalance", ctx, int64(42), int64(100)).Return(nil)
	mockHistoryRepo.On("Record", ctx, mock.Anything).Return(nil)

	err := service.CancelBet(ctx, 42, 7)

	assert.NoError(t, err)
	mockMatchRepo.AssertExpectations(t)
}

func TestBettingService_CancelBet_WindowExpired(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, _, mockMatchRepo, mockBetRepo := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	bet := &models.Bet{
		ID:       7,
		UserID:   42,
		MatchID:  1,
		Side:     "Blue",
		Amount:   100,
		PlacedAt: time.Now().Add(-6 * time.Minute),
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBetRepo.On("GetByID", ctx, int64(7)).Return(bet, nil)
	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(openMatch(), nil)

	err := service.CancelBet(ctx, 42, 7)

	assert.Error(t, err)
	assert.Equal(t, KindWindowExpired, KindOf(err))

	mockBetRepo.AssertNotCalled(t, "Delete")
	mockUserRepo.AssertNotCalled(t, "AddBalance")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestBettingService_CancelBet_NotOwnBet(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, _, _, _, mockBetRepo := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	bet := &models.Bet{ID: 7, UserID: 42, MatchID: 1, Side: "Blue", Amount: 100, PlacedAt: time.Now()}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockBetRepo.On("GetByID", ctx, int64(7)).Return(bet, nil)

	err := service.CancelBet(ctx, 99, 7)

	assert.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestBettingService_Settle(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockHistoryRepo, mockMatchRepo, mockBetRepo := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	match := openMatch()
	match.PoolA = 500
	match.PoolB = 500
	match.DividendA = 2.0
	match.DividendB = 2.0

	// Winning stakes sum to the winning pool
	winningBets := []*models.Bet{
		{ID: 1, UserID: 42, MatchID: 1, Side: "Blue", Amount: 200},
		{ID: 2, UserID: 43, MatchID: 1, Side: "Blue", Amount: 100},
		{ID: 3, UserID: 43, MatchID: 1, Side: "Blue", Amount: 200},
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(match, nil)
	mockBetRepo.On("GetByMatchAndSide", ctx, int64(1), "Blue").Return(winningBets, nil)

	// round(200 * 2.0 * 0.95) = 380 for user 42
	mockUserRepo.On("GetByID", ctx, int64(42)).Return(&models.User{ID: 42, Balance: 0}, nil)
	mockUserRepo.On("AddBalance", ctx, int64(42), int64(380)).Return(nil)

	// user 43 aggregates two bets: 190 + 380 = 570 in one credit
	mockUserRepo.On("GetByID", ctx, int64(43)).Return(&models.User{ID: 43, Balance: 100}, nil)
	mockUserRepo.On("AddBalance", ctx, int64(43), int64(570)).Return(nil)

	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TransactionType == models.TransactionTypeBetPayout
	})).Return(nil).Times(2)

	mockMatchRepo.On("Update", ctx, mock.MatchedBy(func(m *models.Match) bool {
		return m.Result != nil && *m.Result == "Blue" && m.Closed && m.SettledAt != nil
	})).Return(nil)

	result, err := service.Settle(ctx, 1, "Blue")

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "Blue", result.WinningSide)
	assert.Equal(t, 2.0, result.WinningDividend)
	assert.Equal(t, int64(1000), result.TotalPool)
	assert.Equal(t, int64(380), result.Payouts[42])
	assert.Equal(t, int64(570), result.Payouts[43])
	assert.Equal(t, int64(950), result.TotalPaidOut())

	// The house keeps at least 5% of the combined pool
	assert.LessOrEqual(t, result.TotalPaidOut(), result.TotalPool*95/100)

	mockUoW.AssertExpectations(t)
	mockMatchRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockHistoryRepo.AssertExpectations(t)
}

func TestBettingService_Settle_AlreadySettled(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, _, mockMatchRepo, mockBetRepo := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	match := openMatch()
	winner := "Blue"
	match.Result = &winner
	match.Closed = true

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(match, nil)

	result, err := service.Settle(ctx, 1, "Red")

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, KindAlreadySettled, KindOf(err))

	mockBetRepo.AssertNotCalled(t, "GetByMatchAndSide")
	mockUserRepo.AssertNotCalled(t, "AddBalance")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestBettingService_Settle_InvalidSide(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, _, _, mockMatchRepo, _ := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(openMatch(), nil)

	result, err := service.Settle(ctx, 1, "Green")

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, KindInvalidSide, KindOf(err))
}

func TestBettingService_CloseBetting_Idempotent(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, _, _, mockMatchRepo, _ := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	match := openMatch()
	match.Closed = true
	match.PoolA = 300
	match.PoolB = 700
	match.RecomputeDividends()

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(match, nil)

	// Closing an already closed match leaves pools and dividends alone
	mockMatchRepo.On("Update", ctx, mock.MatchedBy(func(m *models.Match) bool {
		return m.Closed && m.PoolA == 300 && m.PoolB == 700 &&
			m.DividendA == 3.33 && m.DividendB == 1.43
	})).Return(nil)

	err := service.CloseBetting(ctx, 1)

	assert.NoError(t, err)
	mockMatchRepo.AssertExpectations(t)
}

func TestBettingService_OpenBetting_SettledMatch(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, _, _, mockMatchRepo, _ := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	match := openMatch()
	winner := "Blue"
	match.Result = &winner
	match.Closed = true

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(match, nil)

	err := service.OpenBetting(ctx, 1)

	assert.Error(t, err)
	assert.Equal(t, KindAlreadySettled, KindOf(err))
	mockMatchRepo.AssertNotCalled(t, "Update")
}

func TestBettingService_PlaceBet_RollbackOnCreateError(t *testing.T) {
	ctx := context.Background()
	mockUoW, mockFactory, mockUserRepo, mockHistoryRepo, mockMatchRepo, mockBetRepo := newBettingMocks()

	service := NewBettingService(mockFactory, testMaxBet, testWindow, testHouseCut)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMatchRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(openMatch(), nil)
	mockBetRepo.On("SumByUserAndMatch", ctx, int64(42), int64(1)).Return(int64(0), nil)
	mockUserRepo.On("GetByID", ctx, int64(42)).Return(&models.User{ID: 42, Balance: 1000}, nil)
	mockUserRepo.On("DeductBalance", ctx, int64(42), int64(100)).Return(nil)
	mockBetRepo.On("Create", ctx, mock.Anything).Return(errors.New("database error"))

	bet, err := service.PlaceBet(ctx, 42, 1, "Blue", 100)

	assert.Error(t, err)
	assert.Nil(t, bet)
	assert.Contains(t, err.Error(), "failed to create bet")

	mockHistoryRepo.AssertNotCalled(t, "Record")
	mockUoW.AssertNotCalled(t, "Commit")
	mockUoW.AssertExpectations(t)
}
