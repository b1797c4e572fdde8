// contest-system/slate/slate.go
package slate

import (
	"fmt"

	"github.com/playverse/contest-system/models"
)

// PlayerRef is one of the two player positions of a rank slot. The member id
// may be empty when the operator typed a name without picking a candidate;
// such a position does not count towards a filled slot.
type PlayerRef struct {
	MemberID string `json:"member_id"`
	Username string `json:"username"`
}

func (p PlayerRef) Assigned() bool {
	return p.MemberID != ""
}

// Slot is one rank of the winner slate. The prize amount is fixed from the
// contest prize tiers when the slate is built and never edited afterwards.
type Slot struct {
	Rank    int          `json:"rank"`
	Prize   int          `json:"prize"`
	Players [2]PlayerRef `json:"players"`
}

// Filled reports whether both player positions have a selected member.
func (s Slot) Filled() bool {
	return s.Players[0].Assigned() && s.Players[1].Assigned()
}

// Slate is the working winner assignment for a contest: one slot per prize
// tier, mutated by the operator until the results are declared.
type Slate struct {
	ContestID int    `json:"contest_id"`
	Slots     []Slot `json:"slots"`
}

// New builds an empty slate from the contest prize tiers, one slot per rank.
func New(contestID, prizePool int, tiers []models.PrizeTier) *Slate {
	slots := make([]Slot, 0, len(tiers))
	for _, tier := range tiers {
		slots = append(slots, Slot{
			Rank:  tier.Rank,
			Prize: prizePool * tier.Percent / 100,
		})
	}
	return &Slate{ContestID: contestID, Slots: slots}
}

// Slot returns the slot for the given rank, or nil if the rank is not part
// of the slate.
func (s *Slate) Slot(rank int) *Slot {
	for i := range s.Slots {
		if s.Slots[i].Rank == rank {
			return &s.Slots[i]
		}
	}
	return nil
}

// FilledSlots returns the slots with both players selected, in rank order.
func (s *Slate) FilledSlots() []Slot {
	filled := make([]Slot, 0, len(s.Slots))
	for _, slot := range s.Slots {
		if slot.Filled() {
			filled = append(filled, slot)
		}
	}
	return filled
}

// Assign puts a directory player into the given rank and position (1 or 2).
func (s *Slate) Assign(rank, position int, p Player) error {
	slot := s.Slot(rank)
	if slot == nil {
		return fmt.Errorf("rank %d is not part of the slate", rank)
	}
	if position != 1 && position != 2 {
		return fmt.Errorf("invalid slot position %d", position)
	}
	slot.Players[position-1] = PlayerRef{MemberID: p.MemberID, Username: p.Username}
	return nil
}

// SetFreeText stores a typed username without a member selection. The slot
// stays incomplete until a real candidate is assigned.
func (s *Slate) SetFreeText(rank, position int, username string) error {
	slot := s.Slot(rank)
	if slot == nil {
		return fmt.Errorf("rank %d is not part of the slate", rank)
	}
	if position != 1 && position != 2 {
		return fmt.Errorf("invalid slot position %d", position)
	}
	slot.Players[position-1] = PlayerRef{Username: username}
	return nil
}

// Winners serializes the filled slots into declared winners. Incomplete slots
// are silently dropped; validation has already guaranteed there is at least
// one filled slot and that every filled pair shares a team.
func (s *Slate) Winners(d Directory) ([]models.DeclaredWinner, error) {
	filled := s.FilledSlots()
	winners := make([]models.DeclaredWinner, 0, len(filled))
	for _, slot := range filled {
		teamID, ok := d.TeamOf(slot.Players[0].MemberID)
		if !ok {
			return nil, fmt.Errorf("rank %d: %w", slot.Rank, ErrUnknownPlayer)
		}
		winners = append(winners, models.DeclaredWinner{
			Rank:   slot.Rank,
			TeamID: teamID,
			Prize:  slot.Prize,
			Players: []models.Player{
				{MemberID: slot.Players[0].MemberID, Username: slot.Players[0].Username},
				{MemberID: slot.Players[1].MemberID, Username: slot.Players[1].Username},
			},
		})
	}
	return winners, nil
}
