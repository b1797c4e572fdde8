package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/playverse/contest-system/slate"
)

var (
	ErrSlateNotFound       = errors.New("draft slate not found")
	ErrSlateContestInvalid = errors.New("slate contest conflict or invalid")
)

// SlateRepository хранит черновик слейта победителей, один на контест.
// Черновик живёт до успешного объявления результатов.
type SlateRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, s *slate.Slate) error
	GetByContest(ctx context.Context, contestID int) (*slate.Slate, error)
	DeleteByContest(ctx context.Context, exec SQLExecutor, contestID int) error
}

type postgresSlateRepository struct {
	db *sql.DB
}

func NewPostgresSlateRepository(db *sql.DB) SlateRepository {
	return &postgresSlateRepository{db: db}
}

func (r *postgresSlateRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSlateRepository) Upsert(ctx context.Context, exec SQLExecutor, s *slate.Slate) error {
	executor := r.getExecutor(exec)

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal slate: %w", err)
	}

	query := `
		INSERT INTO slates (contest_id, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (contest_id) DO UPDATE SET payload = $2, updated_at = NOW()`

	if _, err := executor.ExecContext(ctx, query, s.ContestID, payload); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "slates_contest_id_fkey" {
				return ErrSlateContestInvalid
			}
		}
		return fmt.Errorf("failed to upsert slate for contest %d: %w", s.ContestID, err)
	}
	return nil
}

func (r *postgresSlateRepository) GetByContest(ctx context.Context, contestID int) (*slate.Slate, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM slates WHERE contest_id = $1`, contestID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlateNotFound
		}
		return nil, fmt.Errorf("failed to scan slate for contest %d: %w", contestID, err)
	}

	s := &slate.Slate{}
	if err := json.Unmarshal(payload, s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slate for contest %d: %w", contestID, err)
	}
	return s, nil
}

func (r *postgresSlateRepository) DeleteByContest(ctx context.Context, exec SQLExecutor, contestID int) error {
	executor := r.getExecutor(exec)
	// Отсутствие черновика не является ошибкой: слейт мог ни разу не сохраняться.
	if _, err := executor.ExecContext(ctx, `DELETE FROM slates WHERE contest_id = $1`, contestID); err != nil {
		return fmt.Errorf("failed to delete slate for contest %d: %w", contestID, err)
	}
	return nil
}
