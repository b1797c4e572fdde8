package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/playverse/contest-system/models"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamSlotConflict   = errors.New("room slot is already taken")
	ErrTeamContestInvalid = errors.New("team contest conflict or invalid")
	ErrTeamMemberConflict = errors.New("member is already in the contest room")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByContest(ctx context.Context, contestID int) ([]models.Team, error)
	CountByContest(ctx context.Context, contestID int) (int, error)
	Delete(ctx context.Context, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (
			contest_id, slot, p1_member_id, p1_username, p2_member_id, p2_username
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	var p1ID, p1Name, p2ID, p2Name *string
	if team.Player1 != nil {
		p1ID, p1Name = &team.Player1.MemberID, &team.Player1.Username
	}
	if team.Player2 != nil {
		p2ID, p2Name = &team.Player2.MemberID, &team.Player2.Username
	}

	err := executor.QueryRowContext(ctx, query,
		team.ContestID, team.Slot, p1ID, p1Name, p2ID, p2Name,
	).Scan(&team.ID, &team.CreatedAt)

	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT id, contest_id, slot, p1_member_id, p1_username, p2_member_id, p2_username, created_at
		FROM teams
		WHERE id = $1`

	team, err := scanTeam(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by id %d: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByContest(ctx context.Context, contestID int) ([]models.Team, error) {
	query := `
		SELECT id, contest_id, slot, p1_member_id, p1_username, p2_member_id, p2_username, created_at
		FROM teams
		WHERE contest_id = $1
		ORDER BY slot`

	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for contest %d: %w", contestID, err)
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) CountByContest(ctx context.Context, contestID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams WHERE contest_id = $1`, contestID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count teams for contest %d: %w", contestID, err)
	}
	return count, nil
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTeam(row rowScanner) (*models.Team, error) {
	team := &models.Team{}
	var p1ID, p1Name, p2ID, p2Name *string

	if err := row.Scan(
		&team.ID, &team.ContestID, &team.Slot,
		&p1ID, &p1Name, &p2ID, &p2Name, &team.CreatedAt,
	); err != nil {
		return nil, err
	}

	if p1ID != nil && p1Name != nil {
		team.Player1 = &models.Player{MemberID: *p1ID, Username: *p1Name}
	}
	if p2ID != nil && p2Name != nil {
		team.Player2 = &models.Player{MemberID: *p2ID, Username: *p2Name}
	}
	return team, nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "teams_contest_id_slot_key" {
				return ErrTeamSlotConflict
			}
			if pqErr.Constraint == "teams_contest_id_p1_member_id_key" ||
				pqErr.Constraint == "teams_contest_id_p2_member_id_key" {
				return ErrTeamMemberConflict
			}
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "teams_contest_id_fkey" {
				return ErrTeamContestInvalid
			}
		}
	}
	return err
}
