package service

import (
	"context"

	"matchbook/events"
	"matchbook/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, userID int64, username string, initialBalance int64) (*models.User, error) {
	args := m.Called(ctx, userID, username, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, userID int64, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) Update(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) ListOpen(ctx context.Context) ([]*models.Match, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetRepository) SumByUserAndMatch(ctx context.Context, userID, matchID int64) (int64, error) {
	args := m.Called(ctx, userID, matchID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBetRepository) GetByMatchAndSide(ctx context.Context, matchID int64, side string) ([]*models.Bet, error) {
	args := m.Called(ctx, matchID, side)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetByMatch(ctx context.Context, matchID int64) ([]*models.Bet, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRatingRepository is a mock implementation of RatingRepository
type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) GetByUserID(ctx context.Context, userID int64) (*models.RatingRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RatingRecord), args.Error(1)
}

func (m *MockRatingRepository) GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*models.RatingRecord, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]*models.RatingRecord), args.Error(1)
}

func (m *MockRatingRepository) Upsert(ctx context.Context, record *models.RatingRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRatingRepository) List(ctx context.Context, limit int) ([]*models.RatingRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RatingRecord), args.Error(1)
}

// MockScrimRepository is a mock implementation of ScrimRepository
type MockScrimRepository struct {
	mock.Mock
}

func (m *MockScrimRepository) Create(ctx context.Context, scrim *models.Scrim) error {
	args := m.Called(ctx, scrim)
	return args.Error(0)
}

func (m *MockScrimRepository) GetByName(ctx context.Context, name string) (*models.Scrim, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Scrim), args.Error(1)
}

func (m *MockScrimRepository) Update(ctx context.Context, scrim *models.Scrim) error {
	args := m.Called(ctx, scrim)
	return args.Error(0)
}

func (m *MockScrimRepository) Delete(ctx context.Context, scrimID int64) error {
	args := m.Called(ctx, scrimID)
	return args.Error(0)
}

func (m *MockScrimRepository) AddMember(ctx context.Context, member *models.ScrimMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockScrimRepository) RemoveMember(ctx context.Context, scrimID, userID int64) error {
	args := m.Called(ctx, scrimID, userID)
	return args.Error(0)
}

func (m *MockScrimRepository) GetMembers(ctx context.Context, scrimID int64) ([]*models.ScrimMember, error) {
	args := m.Called(ctx, scrimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScrimMember), args.Error(1)
}

// CapturingEventPublisher records published events for assertions
type CapturingEventPublisher struct {
	Events []events.Event
}

func (p *CapturingEventPublisher) Publish(event events.Event) {
	p.Events = append(p.Events, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository
// getters return whatever SetRepositories injected; Begin, Commit and
// Rollback carry expectations.
type MockUnitOfWork struct {
	mock.Mock
	userRepo    UserRepository
	historyRepo BalanceHistoryRepository
	matchRepo   MatchRepository
	betRepo     BetRepository
	ratingRepo  RatingRepository
	scrimRepo   ScrimRepository
	Events      *CapturingEventPublisher
}

// SetRepositories injects the repositories the unit of work hands out
func (m *MockUnitOfWork) SetRepositories(
	userRepo UserRepository,
	historyRepo BalanceHistoryRepository,
	matchRepo MatchRepository,
	betRepo BetRepository,
	ratingRepo RatingRepository,
	scrimRepo ScrimRepository,
) {
	m.userRepo = userRepo
	m.historyRepo = historyRepo
	m.matchRepo = matchRepo
	m.betRepo = betRepo
	m.ratingRepo = ratingRepo
	m.scrimRepo = scrimRepo
	m.Events = &CapturingEventPublisher{}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository { return m.userRepo }

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository { return m.historyRepo }

func (m *MockUnitOfWork) MatchRepository() MatchRepository { return m.matchRepo }

func (m *MockUnitOfWork) BetRepository() BetRepository { return m.betRepo }

func (m *MockUnitOfWork) RatingRepository() RatingRepository { return m.ratingRepo }

func (m *MockUnitOfWork) ScrimRepository() ScrimRepository { return m.scrimRepo }

func (m *MockUnitOfWork) EventBus() EventPublisher { return m.Events }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
