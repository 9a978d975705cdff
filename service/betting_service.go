package service

import (
	"context"
	"fmt"
	"time"

	"matchbook/events"
	"matchbook/models"

	log "github.com/sirupsen/logrus"
)

type bettingService struct {
	uowFactory         UnitOfWorkFactory
	maxBetPerMatch     int64
	cancellationWindow time.Duration
	houseCutPercent    int64
}

// NewBettingService creates a new betting service
func NewBettingService(uowFactory UnitOfWorkFactory, maxBetPerMatch int64, cancellationWindow time.Duration, houseCutPercent int64) BettingService {
	return &bettingService{
		uowFactory:         uowFactory,
		maxBetPerMatch:     maxBetPerMatch,
		cancellationWindow: cancellationWindow,
		houseCutPercent:    houseCutPercent,
	}
}

// CreateMatch schedules a new match open for betting
func (s *bettingService) CreateMatch(ctx context.Context, name, sideA, sideB string, startsAt time.Time) (*models.Match, error) {
	if name == "" {
		return nil, fmt.Errorf("match name cannot be empty")
	}
	if sideA == "" || sideB == "" || sideA == sideB {
		return nil, fmt.Errorf("match requires two distinct sides")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match := &models.Match{
		Name:      name,
		SideA:     sideA,
		SideB:     sideB,
		StartsAt:  startsAt,
		DividendA: 1.0,
		DividendB: 1.0,
	}

	if err := uow.MatchRepository().Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return match, nil
}

// GetMatch retrieves a match including its settled result
func (s *bettingService) GetMatch(ctx context.Context, matchID int64) (*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, NewWagerError(KindMatchNotFound, "match %d not found", matchID)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return match, nil
}

// ListOpenMatches returns matches that have not been settled
func (s *bettingService) ListOpenMatches(ctx context.Context) ([]*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matches, err := uow.MatchRepository().ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open matches: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return matches, nil
}

// PlaceBet stakes points on one side of a match. The locked match row is
// the serialization point for all mutations of the same match, so the
// cap check and the pool update cannot interleave with a concurrent
// placement.
func (s *bettingService) PlaceBet(ctx context.Context, userID, matchID int64, side string, amount int64) (*models.Bet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("bet amount must be positive")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, NewWagerError(KindMatchNotFound, "match %d not found", matchID)
	}
	if match.Closed || match.IsSettled() {
		return nil, NewWagerError(KindBettingClosed, "betting is closed for match %d", matchID)
	}

	staked, err := uow.BetRepository().SumByUserAndMatch(ctx, userID, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum existing stake: %w", err)
	}
	if staked+amount > s.maxBetPerMatch {
		return nil, NewWagerError(KindCapExceeded,
			"stake cap is %d per match: already staked %d, bet %d", s.maxBetPerMatch, staked, amount)
	}

	if !match.HasSide(side) {
		return nil, NewWagerError(KindInvalidSide, "match %d has no side %q", matchID, side)
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, NewWagerError(KindNotFound, "user %d not found", userID)
	}

	if err := uow.UserRepository().DeductBalance(ctx, userID, amount); err != nil {
		return nil, err
	}

	bet := &models.Bet{
		UserID:  userID,
		MatchID: matchID,
		Side:    side,
		Amount:  amount,
	}
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	match.AddToPool(side, amount)
	match.RecomputeDividends()
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match pools: %w", err)
	}

	betID := bet.ID
	history := &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance - amount,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeBetPlace,
		TransactionMetadata: map[string]any{
			"match_id": matchID,
			"side":     side,
		},
		RelatedID:   &betID,
		RelatedType: relatedTypePtr(models.RelatedTypeBet),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	uow.EventBus().Publish(events.BetPlacedEvent{
		BetID:   bet.ID,
		UserID:  userID,
		MatchID: matchID,
		Side:    side,
		Amount:  amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"betID":   bet.ID,
		"userID":  userID,
		"matchID": matchID,
		"side":    side,
		"amount":  amount,
	}).Info("Bet placed")

	return bet, nil
}

// CancelBet refunds a bet inside its cancellation window
func (s *bettingService) CancelBet(ctx context.Context, userID, betID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByID(ctx, betID)
	if err != nil {
		return fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil || bet.UserID != userID {
		return NewWagerError(KindNotFound, "bet %d not found for user %d", betID, userID)
	}

	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, bet.MatchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return NewWagerError(KindMatchNotFound, "match %d not found", bet.MatchID)
	}

	if time.Now().After(bet.CancellableUntil(s.cancellationWindow)) {
		return NewWagerError(KindWindowExpired,
			"bet %d can no longer be cancelled: window of %s elapsed", betID, s.cancellationWindow)
	}
	if match.Closed || match.IsSettled() {
		return NewWagerError(KindBettingClosed, "betting is closed for match %d", match.ID)
	}

	if err := uow.BetRepository().Delete(ctx, betID); err != nil {
		return fmt.Errorf("failed to delete bet: %w", err)
	}

	// An emptied pool resets both dividends to 1.0 so the refund always
	// completes.
	match.AddToPool(bet.Side, -bet.Amount)
	match.RecomputeDividends()
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return fmt.Errorf("failed to update match pools: %w", err)
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return NewWagerError(KindNotFound, "user %d not found", userID)
	}

	if err := uow.UserRepository().AddBalance(ctx, userID, bet.Amount); err != nil {
		return fmt.Errorf("failed to refund user: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance + bet.Amount,
		ChangeAmount:    bet.Amount,
		TransactionType: models.TransactionTypeBetRefund,
		TransactionMetadata: map[string]any{
			"match_id": bet.MatchID,
			"side":     bet.Side,
		},
		RelatedID:   &betID,
		RelatedType: relatedTypePtr(models.RelatedTypeBet),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return fmt.Errorf("failed to record balance change: %w", err)
	}

	uow.EventBus().Publish(events.BetCancelledEvent{
		BetID:    betID,
		UserID:   userID,
		MatchID:  bet.MatchID,
		Refunded: bet.Amount,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"betID":   betID,
		"userID":  userID,
		"matchID": bet.MatchID,
	}).Info("Bet cancelled and refunded")

	return nil
}

// CloseBetting stops further bet placement; idempotent and leaves pools
// and dividends untouched
func (s *bettingService) CloseBetting(ctx context.Context, matchID int64) error {
	return s.setClosed(ctx, matchID, true)
}

// OpenBetting re-opens an unsettled match for betting
func (s *bettingService) OpenBetting(ctx context.Context, matchID int64) error {
	return s.setClosed(ctx, matchID, false)
}

func (s *bettingService) setClosed(ctx context.Context, matchID int64, closed bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return NewWagerError(KindMatchNotFound, "match %d not found", matchID)
	}
	if match.IsSettled() {
		if closed {
			// Settlement already closed the match permanently
			return nil
		}
		return NewWagerError(KindAlreadySettled, "match %d is settled and cannot be reopened", matchID)
	}

	match.Closed = closed
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Settle declares the winning side and pays out winners. Settlement is
// terminal: the match stays closed and a second invocation is rejected.
func (s *bettingService) Settle(ctx context.Context, matchID int64, winningSide string) (*models.SettlementResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match, err := uow.MatchRepository().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, NewWagerError(KindMatchNotFound, "match %d not found", matchID)
	}
	if match.IsSettled() {
		return nil, NewWagerError(KindAlreadySettled, "match %d was already settled to %q", matchID, *match.Result)
	}
	if !match.HasSide(winningSide) {
		return nil, NewWagerError(KindInvalidSide, "match %d has no side %q", matchID, winningSide)
	}

	// The stored dividend at settlement time pays out, not a recomputed one
	winningDividend := match.Dividend(winningSide)

	winningBets, err := uow.BetRepository().GetByMatchAndSide(ctx, matchID, winningSide)
	if err != nil {
		return nil, fmt.Errorf("failed to get winning bets: %w", err)
	}

	// A user may hold multiple winning bets; aggregate before crediting
	payouts := make(map[int64]int64)
	for _, bet := range winningBets {
		payouts[bet.UserID] += models.WinningPayout(bet.Amount, winningDividend, s.houseCutPercent)
	}

	for winnerID, payout := range payouts {
		user, err := uow.UserRepository().GetByID(ctx, winnerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get winner %d: %w", winnerID, err)
		}
		if user == nil {
			return nil, NewWagerError(KindNotFound, "user %d not found", winnerID)
		}

		if err := uow.UserRepository().AddBalance(ctx, winnerID, payout); err != nil {
			return nil, fmt.Errorf("failed to credit winner %d: %w", winnerID, err)
		}

		history := &models.BalanceHistory{
			UserID:          winnerID,
			BalanceBefore:   user.Balance,
			BalanceAfter:    user.Balance + payout,
			ChangeAmount:    payout,
			TransactionType: models.TransactionTypeBetPayout,
			TransactionMetadata: map[string]any{
				"winning_side": winningSide,
				"dividend":     winningDividend,
			},
			RelatedID:   &matchID,
			RelatedType: relatedTypePtr(models.RelatedTypeMatch),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return nil, fmt.Errorf("failed to record payout: %w", err)
		}
	}

	now := time.Now()
	match.Result = &winningSide
	match.Closed = true
	match.SettledAt = &now
	if err := uow.MatchRepository().Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	result := &models.SettlementResult{
		Match:           match,
		WinningSide:     winningSide,
		WinningDividend: winningDividend,
		TotalPool:       match.PoolA + match.PoolB,
		Payouts:         payouts,
		WinningBets:     winningBets,
	}

	uow.EventBus().Publish(events.MatchSettledEvent{
		MatchID:     matchID,
		WinningSide: winningSide,
		TotalPool:   result.TotalPool,
		TotalPaid:   result.TotalPaidOut(),
		WinnerCount: len(payouts),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID":     matchID,
		"winningSide": winningSide,
		"totalPool":   result.TotalPool,
		"totalPaid":   result.TotalPaidOut(),
		"winners":     len(payouts),
	}).Info("Match settled")

	return result, nil
}

func relatedTypePtr(t models.RelatedType) *models.RelatedType {
	return &t
}
