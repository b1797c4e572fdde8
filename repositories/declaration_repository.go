package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/playverse/contest-system/models"
)

var (
	ErrDeclarationNotFound = errors.New("declaration not found")
	// ErrDeclarationExists — структурный сигнал "результаты уже объявлены".
	// Сервис обрабатывает его как идемпотентный исход, а не как ошибку.
	ErrDeclarationExists         = errors.New("results already declared for this contest")
	ErrDeclarationContestInvalid = errors.New("declaration contest conflict or invalid")
)

type DeclarationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, declaration *models.Declaration) error
	GetByContest(ctx context.Context, contestID int) (*models.Declaration, error)
}

type postgresDeclarationRepository struct {
	db *sql.DB
}

func NewPostgresDeclarationRepository(db *sql.DB) DeclarationRepository {
	return &postgresDeclarationRepository{db: db}
}

func (r *postgresDeclarationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresDeclarationRepository) Create(ctx context.Context, exec SQLExecutor, d *models.Declaration) error {
	executor := r.getExecutor(exec)

	winnersJSON, err := json.Marshal(d.Winners)
	if err != nil {
		return fmt.Errorf("failed to marshal declaration winners: %w", err)
	}

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	query := `
		INSERT INTO declarations (id, contest_id, winners, declared_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err = executor.QueryRowContext(ctx, query,
		d.ID, d.ContestID, winnersJSON, d.DeclaredBy,
	).Scan(&d.CreatedAt)

	return r.handleDeclarationError(err)
}

func (r *postgresDeclarationRepository) GetByContest(ctx context.Context, contestID int) (*models.Declaration, error) {
	query := `
		SELECT id, contest_id, winners, declared_by, created_at
		FROM declarations
		WHERE contest_id = $1`

	d := &models.Declaration{}
	var winnersJSON []byte

	err := r.db.QueryRowContext(ctx, query, contestID).Scan(
		&d.ID, &d.ContestID, &winnersJSON, &d.DeclaredBy, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeclarationNotFound
		}
		return nil, fmt.Errorf("failed to scan declaration for contest %d: %w", contestID, err)
	}

	if err := json.Unmarshal(winnersJSON, &d.Winners); err != nil {
		return nil, fmt.Errorf("failed to unmarshal declaration winners for contest %d: %w", contestID, err)
	}
	return d, nil
}

func (r *postgresDeclarationRepository) handleDeclarationError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "declarations_contest_id_key" {
				return ErrDeclarationExists
			}
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "declarations_contest_id_fkey" {
				return ErrDeclarationContestInvalid
			}
		}
	}
	return err
}
