// contest-system/slate/directory.go
package slate

import (
	"strings"

	"github.com/playverse/contest-system/models"
)

// The dropdown in the admin panel shows at most this many candidates.
const maxCandidates = 10

// Player is a roster entry flattened out of its team, annotated with the
// team it belongs to.
type Player struct {
	MemberID string `json:"member_id"`
	Username string `json:"username"`
	TeamID   int    `json:"team_id"`
}

// Directory is the searchable list of every player joined into a contest.
// Order is roster order (team slot, then position inside the team) and is
// preserved by every lookup.
type Directory struct {
	players  []Player
	byMember map[string]Player
}

// Flatten builds the directory from the contest roster.
func Flatten(teams []models.Team) Directory {
	d := Directory{byMember: make(map[string]Player)}
	for _, team := range teams {
		for _, member := range team.Players() {
			p := Player{
				MemberID: member.MemberID,
				Username: member.Username,
				TeamID:   team.ID,
			}
			d.players = append(d.players, p)
			d.byMember[p.MemberID] = p
		}
	}
	return d
}

// Players returns every directory entry in roster order.
func (d Directory) Players() []Player {
	return d.players
}

// Lookup finds a player by member id.
func (d Directory) Lookup(memberID string) (Player, bool) {
	p, ok := d.byMember[memberID]
	return p, ok
}

// TeamOf returns the team a member belongs to.
func (d Directory) TeamOf(memberID string) (int, bool) {
	p, ok := d.byMember[memberID]
	if !ok {
		return 0, false
	}
	return p.TeamID, true
}

// EligibleCandidates returns the players that may be put into the given rank
// and position, given the current state of the slate:
//
//  1. position 2 is restricted to the team already picked in position 1 of
//     the same rank, so a cross-team pair cannot be typed in;
//  2. members assigned at any other rank are excluded, as is the occupant of
//     the other position of the same rank (a player cannot partner themselves);
//     the current position's own occupant stays eligible for a re-pick;
//  3. the remaining candidates are filtered by a case-insensitive username
//     prefix;
//  4. the list is capped at maxCandidates entries, directory order preserved.
func (d Directory) EligibleCandidates(s *Slate, rank, position int, query string) []Player {
	teamFilter := 0
	if position == 2 {
		if slot := s.Slot(rank); slot != nil && slot.Players[0].Assigned() {
			if teamID, ok := d.TeamOf(slot.Players[0].MemberID); ok {
				teamFilter = teamID
			}
		}
	}

	assigned := make(map[string]bool)
	for _, slot := range s.Slots {
		if slot.Rank == rank {
			continue
		}
		for _, ref := range slot.Players {
			if ref.Assigned() {
				assigned[ref.MemberID] = true
			}
		}
	}
	if slot := s.Slot(rank); slot != nil {
		if ref := slot.Players[2-position]; ref.Assigned() {
			assigned[ref.MemberID] = true
		}
	}

	prefix := strings.ToLower(query)
	candidates := make([]Player, 0, maxCandidates)
	for _, p := range d.players {
		if teamFilter != 0 && p.TeamID != teamFilter {
			continue
		}
		if assigned[p.MemberID] {
			continue
		}
		if prefix != "" && !strings.HasPrefix(strings.ToLower(p.Username), prefix) {
			continue
		}
		candidates = append(candidates, p)
		if len(candidates) == maxCandidates {
			break
		}
	}
	return candidates
}
