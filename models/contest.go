package models

import "time"

// ContestStatus представляет статусы контеста, соответствующие ENUM в БД.
type ContestStatus string

const (
	ContestStatusUpcoming  ContestStatus = "upcoming"
	ContestStatusLive      ContestStatus = "live"
	ContestStatusCompleted ContestStatus = "completed"
	ContestStatusCanceled  ContestStatus = "canceled"
)

// MatchStatus отражает состояние объявления результатов контеста.
type MatchStatus string

const (
	MatchStatusUndeclared MatchStatus = "undeclared"
	MatchStatusDeclared   MatchStatus = "declared"
)

// PrizeTier описывает один призовой уровень контеста.
// Amount вычисляется из призового фонда и не хранится в БД.
type PrizeTier struct {
	Rank    int `json:"rank" db:"rank"`
	Percent int `json:"percent" db:"percent"`
	Amount  int `json:"amount" db:"-"`
}

// Contest представляет duo-контест.
type Contest struct {
	ID           int           `json:"id" db:"id"`
	Name         string        `json:"name" db:"name"`
	Game         string        `json:"game" db:"game"`
	Map          *string       `json:"map,omitempty" db:"map"`
	ScheduledAt  time.Time     `json:"scheduled_at" db:"scheduled_at"`
	EntryFee     int           `json:"entry_fee" db:"entry_fee"`
	PrizePool    int           `json:"prize_pool" db:"prize_pool"`
	RoomSize     int           `json:"room_size" db:"room_size"`
	TotalWinners int           `json:"total_winners" db:"total_winners"`
	Status       ContestStatus `json:"status" db:"status"`
	MatchStatus  MatchStatus   `json:"match_status" db:"match_status"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	BannerKey    *string       `json:"-" db:"banner_key"`
	BannerURL    *string       `json:"banner_url,omitempty" db:"-"`

	// Опциональные связанные сущности (не мапятся напрямую)
	PrizeTiers  []PrizeTier  `json:"prize_tiers,omitempty" db:"-"`
	Teams       []Team       `json:"teams,omitempty" db:"-"`
	Declaration *Declaration `json:"declaration,omitempty" db:"-"`
}

// PrizeAmount возвращает сумму приза для ранга, исходя из процентов уровня.
func (c *Contest) PrizeAmount(rank int) int {
	for _, tier := range c.PrizeTiers {
		if tier.Rank == rank {
			return c.PrizePool * tier.Percent / 100
		}
	}
	return 0
}
