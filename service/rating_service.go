package service

import (
	"context"
	"fmt"

	"matchbook/models"

	log "github.com/sirupsen/logrus"
)

type ratingService struct {
	uowFactory UnitOfWorkFactory
	baseMMR    int64
	mmrStep    int64
}

// NewRatingService creates a new rating service
func NewRatingService(uowFactory UnitOfWorkFactory, baseMMR, mmrStep int64) RatingService {
	return &ratingService{
		uowFactory: uowFactory,
		baseMMR:    baseMMR,
		mmrStep:    mmrStep,
	}
}

// EndMatch applies a match result to every rostered player's rating
func (s *ratingService) EndMatch(ctx context.Context, roster models.Roster, winningTeam models.TeamNumber) ([]*models.MatchResultUpdate, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("roster cannot be empty")
	}
	if !winningTeam.Valid() {
		return nil, NewWagerError(KindInvalidSide, "winning team must be 1 or 2, got %d", winningTeam)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	updates, err := applyMatchResult(ctx, uow, roster, winningTeam, s.baseMMR, s.mmrStep)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return updates, nil
}

// GetRating retrieves a player's rating record, nil if absent
func (s *ratingService) GetRating(ctx context.Context, userID int64) (*models.RatingRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record, err := uow.RatingRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return record, nil
}

// SetMMR overrides a player's rating, creating a default record if the
// player has never played
func (s *ratingService) SetMMR(ctx context.Context, userID, mmr int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record, err := uow.RatingRepository().GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get rating: %w", err)
	}
	if record == nil {
		record = models.NewRatingRecord(userID, s.baseMMR)
	}

	record.MMR = mmr
	if err := uow.RatingRepository().Upsert(ctx, record); err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"mmr":    mmr,
	}).Info("MMR overridden")

	return nil
}

// ListRatings returns the scoreboard ordered by MMR descending
func (s *ratingService) ListRatings(ctx context.Context, limit int) ([]*models.RatingRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	records, err := uow.RatingRepository().List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return records, nil
}

// GetTier returns the display tier for an MMR value
func (s *ratingService) GetTier(mmr int64) string {
	return models.TierFor(mmr)
}

// applyMatchResult runs the rating math for one finished match inside
// an already-open unit of work. The deviation correction uses the
// average over the whole roster, both teams combined.
func applyMatchResult(ctx context.Context, uow UnitOfWork, roster models.Roster, winningTeam models.TeamNumber, baseMMR, mmrStep int64) ([]*models.MatchResultUpdate, error) {
	userIDs := make([]int64, 0, len(roster))
	for _, slot := range roster {
		userIDs = append(userIDs, slot.UserID)
	}

	records, err := uow.RatingRepository().GetByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating records: %w", err)
	}

	var sum int64
	for _, slot := range roster {
		record, ok := records[slot.UserID]
		if !ok {
			record = models.NewRatingRecord(slot.UserID, baseMMR)
			records[slot.UserID] = record
		}
		sum += record.MMR
	}
	avgMMR := float64(sum) / float64(len(roster))

	updates := make([]*models.MatchResultUpdate, 0, len(roster))
	for _, slot := range roster {
		record := records[slot.UserID]
		change := models.MMRChange(record.MMR, avgMMR, mmrStep)

		won := slot.Team == winningTeam
		var applied int64
		if won {
			applied = record.ApplyWin(change)
		} else {
			applied = record.ApplyLoss(change)
		}

		if err := uow.RatingRepository().Upsert(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to save rating for user %d: %w", slot.UserID, err)
		}

		updates = append(updates, &models.MatchResultUpdate{
			UserID: slot.UserID,
			Won:    won,
			Change: applied,
			Record: record,
		})
	}

	return updates, nil
}
