package service

import (
	"context"
	"fmt"

	"matchbook/events"
	"matchbook/models"

	log "github.com/sirupsen/logrus"
)

type scrimService struct {
	uowFactory UnitOfWorkFactory
	baseMMR    int64
	mmrStep    int64
}

// NewScrimService creates a new scrim service
func NewScrimService(uowFactory UnitOfWorkFactory, baseMMR, mmrStep int64) ScrimService {
	return &scrimService{
		uowFactory: uowFactory,
		baseMMR:    baseMMR,
		mmrStep:    mmrStep,
	}
}

// CreateScrim registers a named scrim open for signups
func (s *scrimService) CreateScrim(ctx context.Context, name string) (*models.Scrim, error) {
	if name == "" {
		return nil, fmt.Errorf("scrim name cannot be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.ScrimRepository().GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing scrim: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("scrim %q already exists", name)
	}

	scrim := &models.Scrim{Name: name}
	if err := uow.ScrimRepository().Create(ctx, scrim); err != nil {
		return nil, fmt.Errorf("failed to create scrim: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return scrim, nil
}

// JoinTeam signs the player up on the given team. Joining again moves
// the player to the new team.
func (s *scrimService) JoinTeam(ctx context.Context, name string, userID int64, team models.TeamNumber) error {
	if !team.Valid() {
		return NewWagerError(KindInvalidSide, "team must be 1 or 2, got %d", team)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	scrim, err := s.getOpenScrim(ctx, uow, name)
	if err != nil {
		return err
	}

	member := &models.ScrimMember{
		ScrimID: scrim.ID,
		UserID:  userID,
		Team:    team,
	}
	if err := uow.ScrimRepository().AddMember(ctx, member); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LeaveTeam removes the player from the scrim roster
func (s *scrimService) LeaveTeam(ctx context.Context, name string, userID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	scrim, err := s.getOpenScrim(ctx, uow, name)
	if err != nil {
		return err
	}

	if err := uow.ScrimRepository().RemoveMember(ctx, scrim.ID, userID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CloseSignups freezes the roster
func (s *scrimService) CloseSignups(ctx context.Context, name string) error {
	return s.setSignupsClosed(ctx, name, true)
}

// OpenSignups unfreezes the roster
func (s *scrimService) OpenSignups(ctx context.Context, name string) error {
	return s.setSignupsClosed(ctx, name, false)
}

func (s *scrimService) setSignupsClosed(ctx context.Context, name string, closed bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	scrim, err := uow.ScrimRepository().GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get scrim: %w", err)
	}
	if scrim == nil {
		return NewWagerError(KindNotFound, "scrim %q not found", name)
	}

	scrim.TeamsClosed = closed
	if err := uow.ScrimRepository().Update(ctx, scrim); err != nil {
		return fmt.Errorf("failed to update scrim: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// TeamStatus returns the current roster with per-team average MMR
func (s *scrimService) TeamStatus(ctx context.Context, name string) (*ScrimStatus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	scrim, err := uow.ScrimRepository().GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get scrim: %w", err)
	}
	if scrim == nil {
		return nil, NewWagerError(KindNotFound, "scrim %q not found", name)
	}

	members, err := uow.ScrimRepository().GetMembers(ctx, scrim.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	userIDs := make([]int64, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	records, err := uow.RatingRepository().GetByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating records: %w", err)
	}

	status := &ScrimStatus{Scrim: scrim}
	for _, m := range members {
		if m.Team == models.Team1 {
			status.Team1 = append(status.Team1, m)
		} else {
			status.Team2 = append(status.Team2, m)
		}
	}
	status.Team1AvgMMR = models.TeamAverageMMR(status.Team1, records, s.baseMMR)
	status.Team2AvgMMR = models.TeamAverageMMR(status.Team2, records, s.baseMMR)

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return status, nil
}

// EndScrim applies the result to player ratings and clears the roster.
// Rating updates and roster removal commit together.
func (s *scrimService) EndScrim(ctx context.Context, name string, winningTeam models.TeamNumber) ([]*models.MatchResultUpdate, error) {
	if !winningTeam.Valid() {
		return nil, NewWagerError(KindInvalidSide, "winning team must be 1 or 2, got %d", winningTeam)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	scrim, err := uow.ScrimRepository().GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get scrim: %w", err)
	}
	if scrim == nil {
		return nil, NewWagerError(KindNotFound, "scrim %q not found", name)
	}

	members, err := uow.ScrimRepository().GetMembers(ctx, scrim.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	if len(members) == 0 {
		return nil, NewWagerError(KindNotFound, "scrim %q has no rostered players", name)
	}

	roster := make(models.Roster, 0, len(members))
	for _, m := range members {
		roster = append(roster, models.RosterSlot{UserID: m.UserID, Team: m.Team})
	}

	updates, err := applyMatchResult(ctx, uow, roster, winningTeam, s.baseMMR, s.mmrStep)
	if err != nil {
		return nil, err
	}

	if err := uow.ScrimRepository().Delete(ctx, scrim.ID); err != nil {
		return nil, fmt.Errorf("failed to clear scrim roster: %w", err)
	}

	uow.EventBus().Publish(events.ScrimRecordedEvent{
		ScrimID:     scrim.ID,
		WinningTeam: winningTeam,
		PlayerCount: len(roster),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"scrim":       name,
		"winningTeam": winningTeam,
		"players":     len(roster),
	}).Info("Scrim result recorded")

	return updates, nil
}

func (s *scrimService) getOpenScrim(ctx context.Context, uow UnitOfWork, name string) (*models.Scrim, error) {
	scrim, err := uow.ScrimRepository().GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get scrim: %w", err)
	}
	if scrim == nil {
		return nil, NewWagerError(KindNotFound, "scrim %q not found", name)
	}
	if scrim.TeamsClosed {
		return nil, NewWagerError(KindBettingClosed, "signups are closed for scrim %q", name)
	}
	return scrim, nil
}
