package models

import (
	"time"

	"github.com/google/uuid"
)

// DeclaredWinner — одна завершённая строка объявленных результатов:
// место, команда и оба игрока, занявшие его.
type DeclaredWinner struct {
	Rank    int      `json:"rank"`
	TeamID  int      `json:"team_id"`
	Prize   int      `json:"prize"`
	Players []Player `json:"players"`
}

// Declaration — принятый и неизменяемый результат контеста.
// Создаётся ровно один раз на контест (уникальность по contest_id в БД).
type Declaration struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	ContestID  int              `json:"contest_id" db:"contest_id"`
	Winners    []DeclaredWinner `json:"winners" db:"-"`
	DeclaredBy int              `json:"declared_by" db:"declared_by"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}
