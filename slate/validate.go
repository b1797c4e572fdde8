// contest-system/slate/validate.go
package slate

import (
	"errors"
	"fmt"
)

var (
	ErrNoFilledSlot    = errors.New("at least one complete winning team must be declared")
	ErrDuplicatePlayer = errors.New("duplicate players are not allowed")
	ErrTeamMismatch    = errors.New("both players must be from the same team")
	ErrUnknownPlayer   = errors.New("player is not on the contest roster")
)

// Validate checks the slate against the declaration invariants. The check
// order is also the error precedence: the first violated rule is reported.
func Validate(s *Slate, d Directory) error {
	filled := s.FilledSlots()
	if len(filled) == 0 {
		return ErrNoFilledSlot
	}

	seen := make(map[string]bool)
	for _, slot := range filled {
		for _, ref := range slot.Players {
			if seen[ref.MemberID] {
				return ErrDuplicatePlayer
			}
			seen[ref.MemberID] = true
		}
	}

	for _, slot := range filled {
		team1, ok1 := d.TeamOf(slot.Players[0].MemberID)
		team2, ok2 := d.TeamOf(slot.Players[1].MemberID)
		if !ok1 || !ok2 {
			return fmt.Errorf("rank %d: %w", slot.Rank, ErrUnknownPlayer)
		}
		if team1 != team2 {
			return fmt.Errorf("rank %d: %w", slot.Rank, ErrTeamMismatch)
		}
	}

	return nil
}
