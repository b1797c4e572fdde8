package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/playverse/contest-system/models"
	"github.com/playverse/contest-system/repositories"
	"github.com/playverse/contest-system/storage"
	"golang.org/x/sync/errgroup"
)

type CreateContestInput struct {
	Name         string             `json:"name"`
	Game         string             `json:"game"`
	Map          *string            `json:"map"`
	ScheduledAt  time.Time          `json:"scheduled_at"`
	EntryFee     int                `json:"entry_fee"`
	PrizePool    int                `json:"prize_pool"`
	RoomSize     int                `json:"room_size"`
	TotalWinners int                `json:"total_winners"`
	PrizeTiers   []models.PrizeTier `json:"prize_tiers"`
}

type ContestService interface {
	CreateContest(ctx context.Context, input CreateContestInput) (*models.Contest, error)
	GetContestByID(ctx context.Context, id int) (*models.Contest, error)
	GetContestDetails(ctx context.Context, id int) (*models.Contest, error)
	ListContests(ctx context.Context, filter repositories.ListContestsFilter) ([]models.Contest, error)
	UpdateContestStatus(ctx context.Context, id int, status models.ContestStatus) error
	DeleteContest(ctx context.Context, id int) error
	UploadBanner(ctx context.Context, contestID int, contentType string, file io.Reader) (*models.Contest, error)
	AutoUpdateContestStatusesBySchedule(ctx context.Context) error
}

type contestService struct {
	db              *sql.DB
	contestRepo     repositories.ContestRepository
	teamRepo        repositories.TeamRepository
	declarationRepo repositories.DeclarationRepository
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewContestService(
	db *sql.DB,
	contestRepo repositories.ContestRepository,
	teamRepo repositories.TeamRepository,
	declarationRepo repositories.DeclarationRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ContestService {
	return &contestService{
		db:              db,
		contestRepo:     contestRepo,
		teamRepo:        teamRepo,
		declarationRepo: declarationRepo,
		uploader:        uploader,
		logger:          logger,
	}
}

// ValidatePrizeTiers проверяет призовую таблицу: плотные ранги с первого
// места, каждый процент в разумных пределах и сумма ровно 100.
func ValidatePrizeTiers(tiers []models.PrizeTier, totalWinners int) error {
	if len(tiers) == 0 {
		return ErrPrizeTiersRequired
	}
	if len(tiers) != totalWinners {
		return fmt.Errorf("%w: got %d tiers for %d winners", ErrPrizeTiersNotDense, len(tiers), totalWinners)
	}

	sum := 0
	for i, tier := range tiers {
		if tier.Rank != i+1 {
			return fmt.Errorf("%w: expected rank %d, got %d", ErrPrizeTiersNotDense, i+1, tier.Rank)
		}
		if tier.Percent < 1 || tier.Percent > 100 {
			return fmt.Errorf("%w: rank %d has %d%%", ErrPrizePercentInvalid, tier.Rank, tier.Percent)
		}
		sum += tier.Percent
	}
	if sum != 100 {
		return fmt.Errorf("%w: got %d", ErrPrizePercentSum, sum)
	}
	return nil
}

func (s *contestService) CreateContest(ctx context.Context, input CreateContestInput) (*models.Contest, error) {
	if input.Name == "" {
		return nil, ErrContestNameRequired
	}
	if input.Game == "" {
		return nil, ErrContestGameRequired
	}
	if input.ScheduledAt.IsZero() || input.ScheduledAt.Before(time.Now()) {
		return nil, ErrContestInvalidSchedule
	}
	if input.PrizePool <= 0 {
		return nil, ErrContestInvalidPrizePool
	}
	if input.RoomSize < 2 {
		return nil, ErrContestInvalidRoomSize
	}
	if input.TotalWinners <= 0 || input.TotalWinners > input.RoomSize {
		return nil, ErrContestInvalidWinners
	}
	if err := ValidatePrizeTiers(input.PrizeTiers, input.TotalWinners); err != nil {
		return nil, err
	}

	contest := &models.Contest{
		Name:         input.Name,
		Game:         input.Game,
		Map:          input.Map,
		ScheduledAt:  input.ScheduledAt,
		EntryFee:     input.EntryFee,
		PrizePool:    input.PrizePool,
		RoomSize:     input.RoomSize,
		TotalWinners: input.TotalWinners,
		Status:       models.ContestStatusUpcoming,
		MatchStatus:  models.MatchStatusUndeclared,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.contestRepo.Create(ctx, tx, contest); err != nil {
		if errors.Is(err, repositories.ErrContestNameConflict) {
			return nil, ErrContestNameConflict
		}
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}
	if err := s.contestRepo.ReplacePrizeTiers(ctx, tx, contest.ID, input.PrizeTiers); err != nil {
		return nil, fmt.Errorf("failed to store prize tiers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit contest creation: %w", err)
	}

	contest.PrizeTiers = withAmounts(input.PrizeTiers, contest.PrizePool)
	return contest, nil
}

func (s *contestService) GetContestByID(ctx context.Context, id int) (*models.Contest, error) {
	contest, err := s.contestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, fmt.Errorf("failed to get contest %d: %w", id, err)
	}

	tiers, err := s.contestRepo.GetPrizeTiers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get prize tiers for contest %d: %w", id, err)
	}
	contest.PrizeTiers = withAmounts(tiers, contest.PrizePool)

	s.populateBannerURL(contest)
	return contest, nil
}

// GetContestDetails загружает контест вместе с комнатой и объявленными
// результатами. Состав и результаты запрашиваются параллельно.
func (s *contestService) GetContestDetails(ctx context.Context, id int) (*models.Contest, error) {
	contest, err := s.GetContestByID(ctx, id)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		teams, err := s.teamRepo.ListByContest(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to list teams for contest %d: %w", id, err)
		}
		contest.Teams = teams
		return nil
	})

	g.Go(func() error {
		declaration, err := s.declarationRepo.GetByContest(gCtx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrDeclarationNotFound) {
				return nil
			}
			return fmt.Errorf("failed to get declaration for contest %d: %w", id, err)
		}
		contest.Declaration = declaration
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contest, nil
}

func (s *contestService) ListContests(ctx context.Context, filter repositories.ListContestsFilter) ([]models.Contest, error) {
	contests, err := s.contestRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}
	for i := range contests {
		s.populateBannerURL(&contests[i])
	}
	return contests, nil
}

func isValidStatusTransition(current, next models.ContestStatus) bool {
	if current == next {
		return true
	}
	allowed := map[models.ContestStatus][]models.ContestStatus{
		models.ContestStatusUpcoming:  {models.ContestStatusLive, models.ContestStatusCanceled},
		models.ContestStatusLive:      {models.ContestStatusCompleted, models.ContestStatusCanceled},
		models.ContestStatusCompleted: {},
		models.ContestStatusCanceled:  {},
	}
	for _, status := range allowed[current] {
		if status == next {
			return true
		}
	}
	return false
}

func (s *contestService) UpdateContestStatus(ctx context.Context, id int, status models.ContestStatus) error {
	switch status {
	case models.ContestStatusUpcoming, models.ContestStatusLive,
		models.ContestStatusCompleted, models.ContestStatusCanceled:
	default:
		return ErrContestInvalidStatus
	}

	contest, err := s.contestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return ErrContestNotFound
		}
		return fmt.Errorf("failed to get contest %d: %w", id, err)
	}

	if !isValidStatusTransition(contest.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrContestInvalidTransition, contest.Status, status)
	}

	return s.contestRepo.UpdateStatus(ctx, nil, id, status)
}

// DeleteContest удаляет контест вместе с комнатой и черновиками. Контест с
// объявленными результатами удалить нельзя: декларация неизменяема.
func (s *contestService) DeleteContest(ctx context.Context, id int) error {
	contest, err := s.contestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return ErrContestNotFound
		}
		return fmt.Errorf("failed to get contest %d: %w", id, err)
	}
	if contest.MatchStatus == models.MatchStatusDeclared {
		return ErrContestAlreadyFrozen
	}

	if err := s.contestRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return ErrContestNotFound
		}
		return fmt.Errorf("failed to delete contest %d: %w", id, err)
	}

	if contest.BannerKey != nil {
		if err := s.uploader.Delete(ctx, *contest.BannerKey); err != nil {
			s.logger.Warn("failed to delete banner of removed contest",
				slog.Int("contest_id", id), slog.Any("error", err))
		}
	}
	return nil
}

func (s *contestService) UploadBanner(ctx context.Context, contestID int, contentType string, file io.Reader) (*models.Contest, error) {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, fmt.Errorf("failed to get contest %d: %w", contestID, err)
	}

	key := fmt.Sprintf("contests/%d/banner_%s", contestID, uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload contest banner: %w", err)
	}

	oldKey := contest.BannerKey
	if err := s.contestRepo.UpdateBannerKey(ctx, contestID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store banner key for contest %d: %w", contestID, err)
	}
	contest.BannerKey = &result.Key

	if oldKey != nil && *oldKey != result.Key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous contest banner",
				slog.Int("contest_id", contestID), slog.Any("error", err))
		}
	}

	s.populateBannerURL(contest)
	return contest, nil
}

// AutoUpdateContestStatusesBySchedule переводит в live контесты, время
// которых уже наступило. Вызывается планировщиком из main.
func (s *contestService) AutoUpdateContestStatusesBySchedule(ctx context.Context) error {
	due, err := s.contestRepo.GetContestsDueForStatusUpdate(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to query contests due for status update: %w", err)
	}

	for _, contest := range due {
		if err := s.contestRepo.UpdateStatus(ctx, nil, contest.ID, models.ContestStatusLive); err != nil {
			s.logger.Error("failed to auto-transition contest to live",
				slog.Int("contest_id", contest.ID), slog.Any("error", err))
			continue
		}
		s.logger.Info("contest transitioned to live",
			slog.Int("contest_id", contest.ID), slog.String("name", contest.Name))
	}
	return nil
}

func (s *contestService) populateBannerURL(contest *models.Contest) {
	if contest.BannerKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*contest.BannerKey)
	if url != "" {
		contest.BannerURL = &url
	}
}

func withAmounts(tiers []models.PrizeTier, prizePool int) []models.PrizeTier {
	out := make([]models.PrizeTier, len(tiers))
	for i, tier := range tiers {
		tier.Amount = prizePool * tier.Percent / 100
		out[i] = tier
	}
	return out
}
