package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/playverse/contest-system/models"
	"github.com/playverse/contest-system/repositories"
	"github.com/playverse/contest-system/slate"
)

type JoinTeamInput struct {
	Slot    int            `json:"slot"`
	Player1 *models.Player `json:"player1"`
	Player2 *models.Player `json:"player2"`
}

type RosterService interface {
	AddTeam(ctx context.Context, contestID int, input JoinTeamInput) (*models.Team, error)
	ListRoster(ctx context.Context, contestID int) ([]models.Team, error)
	PlayerDirectory(ctx context.Context, contestID int) (slate.Directory, error)
	RemoveTeam(ctx context.Context, teamID int) error
}

type rosterService struct {
	teamRepo    repositories.TeamRepository
	contestRepo repositories.ContestRepository
}

func NewRosterService(
	teamRepo repositories.TeamRepository,
	contestRepo repositories.ContestRepository,
) RosterService {
	return &rosterService{
		teamRepo:    teamRepo,
		contestRepo: contestRepo,
	}
}

// AddTeam регистрирует duo-команду в комнате контеста. Второй слот команды
// может остаться пустым, но хотя бы один игрок обязателен.
func (s *rosterService) AddTeam(ctx context.Context, contestID int, input JoinTeamInput) (*models.Team, error) {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, fmt.Errorf("failed to get contest %d: %w", contestID, err)
	}

	if contest.Status != models.ContestStatusUpcoming {
		return nil, ErrContestNotJoinable
	}
	if input.Player1 == nil && input.Player2 == nil {
		return nil, ErrTeamPlayerRequired
	}

	count, err := s.teamRepo.CountByContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to count teams for contest %d: %w", contestID, err)
	}
	if count >= contest.RoomSize {
		return nil, ErrRoomFull
	}

	slot := input.Slot
	if slot == 0 {
		slot = count + 1
	}

	team := &models.Team{
		ContestID: contestID,
		Slot:      slot,
		Player1:   input.Player1,
		Player2:   input.Player2,
	}

	if err := s.teamRepo.Create(ctx, nil, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamSlotConflict):
			return nil, ErrRoomSlotConflict
		case errors.Is(err, repositories.ErrTeamMemberConflict):
			return nil, ErrRoomMemberConflict
		case errors.Is(err, repositories.ErrTeamContestInvalid):
			return nil, ErrContestNotFound
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *rosterService) ListRoster(ctx context.Context, contestID int) ([]models.Team, error) {
	if _, err := s.contestRepo.GetByID(ctx, contestID); err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, fmt.Errorf("failed to get contest %d: %w", contestID, err)
	}

	teams, err := s.teamRepo.ListByContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster for contest %d: %w", contestID, err)
	}
	return teams, nil
}

// PlayerDirectory выдаёт плоский справочник игроков комнаты для поиска
// кандидатов и валидации слейта.
func (s *rosterService) PlayerDirectory(ctx context.Context, contestID int) (slate.Directory, error) {
	teams, err := s.ListRoster(ctx, contestID)
	if err != nil {
		return slate.Directory{}, err
	}
	return slate.Flatten(teams), nil
}

func (s *rosterService) RemoveTeam(ctx context.Context, teamID int) error {
	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}
	return nil
}
