package service

import (
	"context"
	"time"

	"matchbook/events"
	"matchbook/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, userID int64) (*models.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, userID int64, username string, initialBalance int64) (*models.User, error)

	// AddBalance adds to a user's balance atomically
	AddBalance(ctx context.Context, userID int64, amount int64) error

	// DeductBalance deducts from a user's balance atomically, failing if insufficient funds
	DeductBalance(ctx context.Context, userID int64, amount int64) error

	// GetAll returns all users ordered by balance descending
	GetAll(ctx context.Context) ([]*models.User, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// MatchRepository defines the interface for match data access
type MatchRepository interface {
	// Create creates a new match record
	Create(ctx context.Context, match *models.Match) error

	// GetByID retrieves a match by its ID
	GetByID(ctx context.Context, id int64) (*models.Match, error)

	// GetByIDForUpdate retrieves a match and locks its row for the
	// duration of the transaction
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Match, error)

	// Update persists pools, dividends, closed flag, result and settled_at
	Update(ctx context.Context, match *models.Match) error

	// ListOpen returns matches with no recorded result, soonest first
	ListOpen(ctx context.Context) ([]*models.Match, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create creates a new bet record
	Create(ctx context.Context, bet *models.Bet) error

	// GetByID retrieves a bet by its ID
	GetByID(ctx context.Context, id int64) (*models.Bet, error)

	// SumByUserAndMatch returns a user's cumulative stake on a match
	SumByUserAndMatch(ctx context.Context, userID, matchID int64) (int64, error)

	// GetByMatchAndSide returns all bets on one side of a match
	GetByMatchAndSide(ctx context.Context, matchID int64, side string) ([]*models.Bet, error)

	// GetByMatch returns all bets on a match
	GetByMatch(ctx context.Context, matchID int64) ([]*models.Bet, error)

	// Delete removes a bet record
	Delete(ctx context.Context, id int64) error
}

// RatingRepository defines the interface for rating record data access
type RatingRepository interface {
	// GetByUserID retrieves a rating record, nil if the player has none
	GetByUserID(ctx context.Context, userID int64) (*models.RatingRecord, error)

	// GetByUserIDs retrieves rating records for a set of players
	GetByUserIDs(ctx context.Context, userIDs []int64) (map[int64]*models.RatingRecord, error)

	// Upsert inserts or updates a rating record
	Upsert(ctx context.Context, record *models.RatingRecord) error

	// List returns all rating records ordered by MMR descending
	List(ctx context.Context, limit int) ([]*models.RatingRecord, error)
}

// ScrimRepository defines the interface for scrim roster data access
type ScrimRepository interface {
	// Create creates a new scrim
	Create(ctx context.Context, scrim *models.Scrim) error

	// GetByName retrieves a scrim by its unique name
	GetByName(ctx context.Context, name string) (*models.Scrim, error)

	// Update persists the teams_closed flag
	Update(ctx context.Context, scrim *models.Scrim) error

	// Delete removes a scrim and its members
	Delete(ctx context.Context, scrimID int64) error

	// AddMember adds a player to a team
	AddMember(ctx context.Context, member *models.ScrimMember) error

	// RemoveMember removes a player from the scrim
	RemoveMember(ctx context.Context, scrimID, userID int64) error

	// GetMembers returns all members of a scrim
	GetMembers(ctx context.Context, scrimID int64) ([]*models.ScrimMember, error)
}

// UserService defines the interface for ledger operations
type UserService interface {
	// GetOrCreateUser retrieves an existing user or creates a new one with initial balance
	GetOrCreateUser(ctx context.Context, userID int64, username string) (*models.User, error)

	// GetBalance returns a user's current balance
	GetBalance(ctx context.Context, userID int64) (int64, error)

	// AdjustBalance applies an admin-only delta outside the wager flow.
	// A negative delta may not drive the balance below zero.
	AdjustBalance(ctx context.Context, userID int64, delta int64) error
}

// BettingService defines the interface for wagering operations
type BettingService interface {
	// CreateMatch schedules a new match open for betting
	CreateMatch(ctx context.Context, name, sideA, sideB string, startsAt time.Time) (*models.Match, error)

	// GetMatch retrieves a match including its settled result
	GetMatch(ctx context.Context, matchID int64) (*models.Match, error)

	// ListOpenMatches returns matches that have not been settled
	ListOpenMatches(ctx context.Context) ([]*models.Match, error)

	// PlaceBet stakes points on one side of a match
	PlaceBet(ctx context.Context, userID, matchID int64, side string, amount int64) (*models.Bet, error)

	// CancelBet refunds a bet inside its cancellation window
	CancelBet(ctx context.Context, userID, betID int64) error

	// CloseBetting stops further bet placement; idempotent
	CloseBetting(ctx context.Context, matchID int64) error

	// OpenBetting re-opens an unsettled match for betting
	OpenBetting(ctx context.Context, matchID int64) error

	// Settle declares the winning side and pays out winners
	Settle(ctx context.Context, matchID int64, winningSide string) (*models.SettlementResult, error)
}

// RatingService defines the interface for MMR operations
type RatingService interface {
	// EndMatch applies a match result to every rostered player's rating
	EndMatch(ctx context.Context, roster models.Roster, winningTeam models.TeamNumber) ([]*models.MatchResultUpdate, error)

	// GetRating retrieves a player's rating record, nil if absent
	GetRating(ctx context.Context, userID int64) (*models.RatingRecord, error)

	// SetMMR overrides a player's rating (admin-only)
	SetMMR(ctx context.Context, userID, mmr int64) error

	// ListRatings returns the scoreboard ordered by MMR descending
	ListRatings(ctx context.Context, limit int) ([]*models.RatingRecord, error)

	// GetTier returns the display tier for an MMR value
	GetTier(mmr int64) string
}

// ScrimService defines the interface for scrim roster operations
type ScrimService interface {
	// CreateScrim registers a named scrim open for signups
	CreateScrim(ctx context.Context, name string) (*models.Scrim, error)

	// JoinTeam signs the player up on the given team
	JoinTeam(ctx context.Context, name string, userID int64, team models.TeamNumber) error

	// LeaveTeam removes the player from the scrim roster
	LeaveTeam(ctx context.Context, name string, userID int64) error

	// CloseSignups freezes the roster
	CloseSignups(ctx context.Context, name string) error

	// OpenSignups unfreezes the roster
	OpenSignups(ctx context.Context, name string) error

	// TeamStatus returns the current roster with per-team average MMR
	TeamStatus(ctx context.Context, name string) (*ScrimStatus, error)

	// EndScrim applies the result to player ratings and clears the roster
	EndScrim(ctx context.Context, name string, winningTeam models.TeamNumber) ([]*models.MatchResultUpdate, error)
}

// ScrimStatus is the roster view returned by TeamStatus
type ScrimStatus struct {
	Scrim       *models.Scrim
	Team1       []*models.ScrimMember
	Team2       []*models.ScrimMember
	Team1AvgMMR float64
	Team2AvgMMR float64
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	MatchRepository() MatchRepository
	BetRepository() BetRepository
	RatingRepository() RatingRepository
	ScrimRepository() ScrimRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
