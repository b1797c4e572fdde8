package models

import "time"

// Player — участник, занимающий один из двух слотов команды.
type Player struct {
	MemberID string `json:"member_id"`
	Username string `json:"username"`
}

// Team представляет duo-команду, занявшую слот в комнате контеста.
// Второй слот может быть пустым, если команда зашла неполной.
type Team struct {
	ID        int       `json:"id" db:"id"`
	ContestID int       `json:"contest_id" db:"contest_id"`
	Slot      int       `json:"slot" db:"slot"`
	Player1   *Player   `json:"player1,omitempty" db:"-"`
	Player2   *Player   `json:"player2,omitempty" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Players возвращает занятые слоты команды в порядке их номеров.
func (t *Team) Players() []Player {
	players := make([]Player, 0, 2)
	if t.Player1 != nil {
		players = append(players, *t.Player1)
	}
	if t.Player2 != nil {
		players = append(players, *t.Player2)
	}
	return players
}
