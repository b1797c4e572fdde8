package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/playverse/contest-system/live"
	"github.com/playverse/contest-system/models"
	"github.com/playverse/contest-system/repositories"
	"github.com/playverse/contest-system/slate"
)

var (
	ErrInvalidSlotPosition = errors.New("slot position must be 1 or 2")
	ErrInvalidRank         = errors.New("rank is not part of the prize table")
)

// ResultsBroadcaster доставляет событие в комнату контеста. Реализуется
// websocket-хабом из пакета live.
type ResultsBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// ResultNotifier рассылает уведомление о объявленных результатах.
// Сбой рассылки логируется и никогда не отменяет объявление.
type ResultNotifier interface {
	SendResultsDeclared(contest *models.Contest, declaration *models.Declaration) error
}

type ResultService interface {
	GetSlate(ctx context.Context, contestID int) (*slate.Slate, error)
	SaveSlate(ctx context.Context, contestID int, submitted *slate.Slate) (*slate.Slate, error)
	Candidates(ctx context.Context, contestID, rank, position int, query string) ([]slate.Player, error)
	GetDeclaration(ctx context.Context, contestID int) (*models.Declaration, error)
	Declare(ctx context.Context, contestID, declaredBy int, submitted *slate.Slate) (*models.Declaration, error)
}

type resultService struct {
	db              *sql.DB
	contestRepo     repositories.ContestRepository
	teamRepo        repositories.TeamRepository
	declarationRepo repositories.DeclarationRepository
	slateRepo       repositories.SlateRepository
	broadcaster     ResultsBroadcaster
	notifier        ResultNotifier
	logger          *slog.Logger
}

func NewResultService(
	db *sql.DB,
	contestRepo repositories.ContestRepository,
	teamRepo repositories.TeamRepository,
	declarationRepo repositories.DeclarationRepository,
	slateRepo repositories.SlateRepository,
	broadcaster ResultsBroadcaster,
	notifier ResultNotifier,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db:              db,
		contestRepo:     contestRepo,
		teamRepo:        teamRepo,
		declarationRepo: declarationRepo,
		slateRepo:       slateRepo,
		broadcaster:     broadcaster,
		notifier:        notifier,
		logger:          logger,
	}
}

// GetSlate возвращает рабочий слейт контеста. При первом обращении слейт
// создаётся из призовой таблицы; после объявления результатов он
// восстанавливается из декларации и доступен только для чтения.
func (s *resultService) GetSlate(ctx context.Context, contestID int) (*slate.Slate, error) {
	contest, err := s.getContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	if contest.MatchStatus == models.MatchStatusDeclared {
		declaration, err := s.GetDeclaration(ctx, contestID)
		if err != nil {
			return nil, err
		}
		return s.slateFromDeclaration(ctx, contest, declaration)
	}

	draft, err := s.slateRepo.GetByContest(ctx, contestID)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, repositories.ErrSlateNotFound) {
		return nil, fmt.Errorf("failed to load draft slate for contest %d: %w", contestID, err)
	}

	seeded, err := s.emptySlate(ctx, contest)
	if err != nil {
		return nil, err
	}
	if err := s.slateRepo.Upsert(ctx, nil, seeded); err != nil {
		return nil, fmt.Errorf("failed to seed draft slate for contest %d: %w", contestID, err)
	}
	return seeded, nil
}

// SaveSlate сохраняет черновик слейта. Призовые суммы всегда берутся из
// призовой таблицы контеста, что бы ни прислал клиент.
func (s *resultService) SaveSlate(ctx context.Context, contestID int, submitted *slate.Slate) (*slate.Slate, error) {
	contest, err := s.getContest(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if contest.MatchStatus == models.MatchStatusDeclared {
		return nil, ErrContestAlreadyFrozen
	}

	normalized, err := s.normalizeSlate(ctx, contest, submitted)
	if err != nil {
		return nil, err
	}

	if err := s.slateRepo.Upsert(ctx, nil, normalized); err != nil {
		return nil, fmt.Errorf("failed to save draft slate for contest %d: %w", contestID, err)
	}
	return normalized, nil
}

// Candidates выполняет поиск кандидатов для слота слейта с учётом текущих
// назначений: исключает занятых игроков и ограничивает второй слот командой
// первого.
func (s *resultService) Candidates(ctx context.Context, contestID, rank, position int, query string) ([]slate.Player, error) {
	if position != 1 && position != 2 {
		return nil, ErrInvalidSlotPosition
	}

	current, err := s.GetSlate(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if current.Slot(rank) == nil {
		return nil, fmt.Errorf("%w: rank %d", ErrInvalidRank, rank)
	}

	teams, err := s.teamRepo.ListByContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster for contest %d: %w", contestID, err)
	}

	directory := slate.Flatten(teams)
	return directory.EligibleCandidates(current, rank, position, query), nil
}

func (s *resultService) GetDeclaration(ctx context.Context, contestID int) (*models.Declaration, error) {
	declaration, err := s.declarationRepo.GetByContest(ctx, contestID)
	if err != nil {
		if errors.Is(err, repositories.ErrDeclarationNotFound) {
			return nil, ErrDeclarationNotFound
		}
		return nil, fmt.Errorf("failed to get declaration for contest %d: %w", contestID, err)
	}
	return declaration, nil
}

// Declare проверяет слейт и объявляет результаты контеста. Повторное
// объявление не является ошибкой: сервис сходится к уже сохранённой
// декларации и возвращает её как есть.
func (s *resultService) Declare(ctx context.Context, contestID, declaredBy int, submitted *slate.Slate) (*models.Declaration, error) {
	contest, err := s.getContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	if contest.MatchStatus == models.MatchStatusDeclared {
		return s.GetDeclaration(ctx, contestID)
	}
	if contest.Status != models.ContestStatusLive && contest.Status != models.ContestStatusCompleted {
		return nil, ErrContestNotLive
	}

	working := submitted
	if working == nil || len(working.Slots) == 0 {
		if working, err = s.GetSlate(ctx, contestID); err != nil {
			return nil, err
		}
	} else {
		if working, err = s.normalizeSlate(ctx, contest, working); err != nil {
			return nil, err
		}
	}

	teams, err := s.teamRepo.ListByContest(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster for contest %d: %w", contestID, err)
	}
	directory := slate.Flatten(teams)

	if err := slate.Validate(working, directory); err != nil {
		return nil, err
	}
	winners, err := working.Winners(directory)
	if err != nil {
		return nil, err
	}

	declaration := &models.Declaration{
		ContestID:  contestID,
		Winners:    winners,
		DeclaredBy: declaredBy,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin declare transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.declarationRepo.Create(ctx, tx, declaration); err != nil {
		if errors.Is(err, repositories.ErrDeclarationExists) {
			// Кто-то успел объявить первым: сходимся к его версии.
			return s.reconcileExisting(ctx, contestID)
		}
		return nil, fmt.Errorf("failed to store declaration: %w", err)
	}

	if err := s.contestRepo.UpdateMatchStatus(ctx, tx, contestID, models.MatchStatusDeclared); err != nil {
		return nil, fmt.Errorf("failed to mark contest %d declared: %w", contestID, err)
	}
	if contest.Status == models.ContestStatusLive {
		if err := s.contestRepo.UpdateStatus(ctx, tx, contestID, models.ContestStatusCompleted); err != nil {
			return nil, fmt.Errorf("failed to complete contest %d: %w", contestID, err)
		}
	}
	if err := s.slateRepo.DeleteByContest(ctx, tx, contestID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit declaration: %w", err)
	}

	s.announce(contest, declaration)
	return declaration, nil
}

// reconcileExisting обрабатывает гонку двух операторов: декларация уже
// существует, локальное состояние контеста подтягивается к серверной истине.
func (s *resultService) reconcileExisting(ctx context.Context, contestID int) (*models.Declaration, error) {
	declaration, err := s.GetDeclaration(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if err := s.contestRepo.UpdateMatchStatus(ctx, nil, contestID, models.MatchStatusDeclared); err != nil {
		s.logger.Warn("failed to converge contest match status after declare race",
			slog.Int("contest_id", contestID), slog.Any("error", err))
	}
	return declaration, nil
}

func (s *resultService) announce(contest *models.Contest, declaration *models.Declaration) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRoom(live.ContestRoom(contest.ID), live.Message{
			Type:    live.TypeResultsDeclared,
			RoomID:  live.ContestRoom(contest.ID),
			Payload: declaration,
		})
	}

	if s.notifier != nil {
		if err := s.notifier.SendResultsDeclared(contest, declaration); err != nil {
			s.logger.Warn("failed to send results notification",
				slog.Int("contest_id", contest.ID), slog.Any("error", err))
		}
	}
}

func (s *resultService) getContest(ctx context.Context, contestID int) (*models.Contest, error) {
	contest, err := s.contestRepo.GetByID(ctx, contestID)
	if err != nil {
		if errors.Is(err, repositories.ErrContestNotFound) {
			return nil, ErrContestNotFound
		}
		return nil, fmt.Errorf("failed to get contest %d: %w", contestID, err)
	}
	return contest, nil
}

func (s *resultService) emptySlate(ctx context.Context, contest *models.Contest) (*slate.Slate, error) {
	tiers, err := s.contestRepo.GetPrizeTiers(ctx, contest.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prize tiers for contest %d: %w", contest.ID, err)
	}
	return slate.New(contest.ID, contest.PrizePool, tiers), nil
}

// normalizeSlate выравнивает присланный слейт по призовой таблице: один слот
// на ранг, призовые суммы из таблицы, лишние ранги отбрасываются.
func (s *resultService) normalizeSlate(ctx context.Context, contest *models.Contest, submitted *slate.Slate) (*slate.Slate, error) {
	normalized, err := s.emptySlate(ctx, contest)
	if err != nil {
		return nil, err
	}
	for _, incoming := range submitted.Slots {
		if target := normalized.Slot(incoming.Rank); target != nil {
			target.Players = incoming.Players
		}
	}
	return normalized, nil
}

// slateFromDeclaration восстанавливает read-only представление слейта из
// принятой декларации.
func (s *resultService) slateFromDeclaration(ctx context.Context, contest *models.Contest, declaration *models.Declaration) (*slate.Slate, error) {
	restored, err := s.emptySlate(ctx, contest)
	if err != nil {
		return nil, err
	}
	for _, winner := range declaration.Winners {
		slot := restored.Slot(winner.Rank)
		if slot == nil || len(winner.Players) != 2 {
			continue
		}
		slot.Players[0] = slate.PlayerRef{MemberID: winner.Players[0].MemberID, Username: winner.Players[0].Username}
		slot.Players[1] = slate.PlayerRef{MemberID: winner.Players[1].MemberID, Username: winner.Players[1].Username}
	}
	return restored, nil
}
