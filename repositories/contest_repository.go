package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/playverse/contest-system/models"
)

var (
	ErrContestNotFound     = errors.New("contest not found")
	ErrContestNameConflict = errors.New("contest name conflict")
	ErrPrizeTierConflict   = errors.New("prize tier conflict or invalid")
)

type ListContestsFilter struct {
	Game        *string
	Status      *models.ContestStatus
	MatchStatus *models.MatchStatus
	Limit       int
	Offset      int
}

type ContestRepository interface {
	Create(ctx context.Context, exec SQLExecutor, contest *models.Contest) error
	GetByID(ctx context.Context, id int) (*models.Contest, error)
	List(ctx context.Context, filter ListContestsFilter) ([]models.Contest, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ContestStatus) error
	UpdateMatchStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
	UpdateBannerKey(ctx context.Context, contestID int, bannerKey *string) error
	ReplacePrizeTiers(ctx context.Context, exec SQLExecutor, contestID int, tiers []models.PrizeTier) error
	GetPrizeTiers(ctx context.Context, contestID int) ([]models.PrizeTier, error)
	GetContestsDueForStatusUpdate(ctx context.Context, currentTime time.Time) ([]*models.Contest, error)
	Delete(ctx context.Context, id int) error
}

type postgresContestRepository struct {
	db *sql.DB
}

func NewPostgresContestRepository(db *sql.DB) ContestRepository {
	return &postgresContestRepository{db: db}
}

func (r *postgresContestRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresContestRepository) Create(ctx context.Context, exec SQLExecutor, c *models.Contest) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO contests (
			name, game, map, scheduled_at, entry_fee, prize_pool,
			room_size, total_winners, status, match_status, banner_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		c.Name, c.Game, c.Map, c.ScheduledAt, c.EntryFee, c.PrizePool,
		c.RoomSize, c.TotalWinners, c.Status, c.MatchStatus, c.BannerKey,
	).Scan(&c.ID, &c.CreatedAt)

	return r.handleContestError(err)
}

func (r *postgresContestRepository) GetByID(ctx context.Context, id int) (*models.Contest, error) {
	query := `
		SELECT
			id, name, game, map, scheduled_at, entry_fee, prize_pool,
			room_size, total_winners, status, match_status, banner_key, created_at
		FROM contests
		WHERE id = $1`

	c := &models.Contest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Game, &c.Map, &c.ScheduledAt, &c.EntryFee, &c.PrizePool,
		&c.RoomSize, &c.TotalWinners, &c.Status, &c.MatchStatus, &c.BannerKey, &c.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContestNotFound
		}
		return nil, fmt.Errorf("failed to scan contest by id %d: %w", id, err)
	}
	return c, nil
}

func (r *postgresContestRepository) List(ctx context.Context, filter ListContestsFilter) ([]models.Contest, error) {
	query := `
		SELECT
			id, name, game, map, scheduled_at, entry_fee, prize_pool,
			room_size, total_winners, status, match_status, banner_key, created_at
		FROM contests
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Game != nil {
		query += fmt.Sprintf(" AND game = $%d", argID)
		args = append(args, *filter.Game)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.MatchStatus != nil {
		query += fmt.Sprintf(" AND match_status = $%d", argID)
		args = append(args, *filter.MatchStatus)
		argID++
	}

	query += " ORDER BY scheduled_at DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests: %w", err)
	}
	defer rows.Close()

	contests := []models.Contest{}
	for rows.Next() {
		var c models.Contest
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Game, &c.Map, &c.ScheduledAt, &c.EntryFee, &c.PrizePool,
			&c.RoomSize, &c.TotalWinners, &c.Status, &c.MatchStatus, &c.BannerKey, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contest row: %w", err)
		}
		contests = append(contests, c)
	}
	return contests, rows.Err()
}

func (r *postgresContestRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ContestStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE contests SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleContestError(err)
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

func (r *postgresContestRepository) UpdateMatchStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE contests SET match_status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleContestError(err)
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

func (r *postgresContestRepository) UpdateBannerKey(ctx context.Context, contestID int, bannerKey *string) error {
	query := `UPDATE contests SET banner_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, bannerKey, contestID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

func (r *postgresContestRepository) ReplacePrizeTiers(ctx context.Context, exec SQLExecutor, contestID int, tiers []models.PrizeTier) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx, `DELETE FROM prize_tiers WHERE contest_id = $1`, contestID); err != nil {
		return fmt.Errorf("failed to clear prize tiers for contest %d: %w", contestID, err)
	}

	query := `INSERT INTO prize_tiers (contest_id, rank, percent) VALUES ($1, $2, $3)`
	for _, tier := range tiers {
		if _, err := executor.ExecContext(ctx, query, contestID, tier.Rank, tier.Percent); err != nil {
			return r.handleContestError(err)
		}
	}
	return nil
}

func (r *postgresContestRepository) GetPrizeTiers(ctx context.Context, contestID int) ([]models.PrizeTier, error) {
	query := `SELECT rank, percent FROM prize_tiers WHERE contest_id = $1 ORDER BY rank`

	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prize tiers for contest %d: %w", contestID, err)
	}
	defer rows.Close()

	tiers := []models.PrizeTier{}
	for rows.Next() {
		var tier models.PrizeTier
		if err := rows.Scan(&tier.Rank, &tier.Percent); err != nil {
			return nil, fmt.Errorf("failed to scan prize tier row: %w", err)
		}
		tiers = append(tiers, tier)
	}
	return tiers, rows.Err()
}

// GetContestsDueForStatusUpdate возвращает контесты, время которых уже
// наступило, но статус ещё upcoming. Используется планировщиком.
func (r *postgresContestRepository) GetContestsDueForStatusUpdate(ctx context.Context, currentTime time.Time) ([]*models.Contest, error) {
	query := `
		SELECT
			id, name, game, map, scheduled_at, entry_fee, prize_pool,
			room_size, total_winners, status, match_status, banner_key, created_at
		FROM contests
		WHERE status = $1 AND scheduled_at <= $2`

	rows, err := r.db.QueryContext(ctx, query, models.ContestStatusUpcoming, currentTime)
	if err != nil {
		return nil, fmt.Errorf("failed to list contests due for status update: %w", err)
	}
	defer rows.Close()

	contests := []*models.Contest{}
	for rows.Next() {
		c := &models.Contest{}
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Game, &c.Map, &c.ScheduledAt, &c.EntryFee, &c.PrizePool,
			&c.RoomSize, &c.TotalWinners, &c.Status, &c.MatchStatus, &c.BannerKey, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contest row: %w", err)
		}
		contests = append(contests, c)
	}
	return contests, rows.Err()
}

func (r *postgresContestRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrContestNotFound)
}

func (r *postgresContestRepository) handleContestError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "contests_name_key" {
				return ErrContestNameConflict
			}
			if pqErr.Constraint == "prize_tiers_pkey" {
				return ErrPrizeTierConflict
			}
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "prize_tiers_contest_id_fkey" {
				return ErrContestNotFound
			}
		}
	}
	return err
}
