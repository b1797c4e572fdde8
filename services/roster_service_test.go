package services

import (
	"context"
	"testing"

	"github.com/playverse/contest-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRosterFixture(roomSize int) (*fakeContestRepo, *fakeTeamRepo, RosterService, *models.Contest) {
	contestRepo := newFakeContestRepo()
	contest := contestRepo.put(&models.Contest{
		Name:     "open room",
		RoomSize: roomSize,
		Status:   models.ContestStatusUpcoming,
	}, nil)
	teamRepo := newFakeTeamRepo()
	return contestRepo, teamRepo, NewRosterService(teamRepo, contestRepo), contest
}

func TestAddTeam_AssignsNextFreeSlot(t *testing.T) {
	_, _, svc, contest := newRosterFixture(4)

	first, err := svc.AddTeam(context.Background(), contest.ID, JoinTeamInput{
		Player1: &models.Player{MemberID: "m-alice", Username: "alice"},
		Player2: &models.Player{MemberID: "m-bob", Username: "bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Slot)

	second, err := svc.AddTeam(context.Background(), contest.ID, JoinTeamInput{
		Player1: &models.Player{MemberID: "m-carol", Username: "carol"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Slot)
	// Неполная команда допустима.
	assert.Nil(t, second.Player2)
}

func TestAddTeam_RequiresAtLeastOnePlayer(t *testing.T) {
	_, _, svc, contest := newRosterFixture(4)

	_, err := svc.AddTeam(context.Background(), contest.ID, JoinTeamInput{Slot: 1})
	assert.ErrorIs(t, err, ErrTeamPlayerRequired)
}

func TestAddTeam_RoomFull(t *testing.T) {
	_, _, svc, contest := newRosterFixture(2)

	for i, name := range []string{"alice", "carol"} {
		_, err := svc.AddTeam(context.Background(), contest.ID, JoinTeamInput{
			Player1: &models.Player{MemberID: "m-" + name, Username: name},
		})
		require.NoError(t, err, "team %d", i+1)
	}

	_, err := svc.AddTeam(context.Background(), contest.ID, JoinTeamInput{
		Player1: &models.Player{MemberID: "m-erin", Username: "erin"},
	})
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestAddTeam_OnlyUpcomingContestsAreJoinable(t *testing.T) {
	contestRepo, _, svc, contest := newRosterFixture(4)
	contestRepo.contests[contest.ID].Status = models.ContestStatusLive

	_, err := svc.AddTeam(context.Background(), contest.ID, JoinTeamInput{
		Player1: &models.Player{MemberID: "m-alice", Username: "alice"},
	})
	assert.ErrorIs(t, err, ErrContestNotJoinable)
}

func TestAddTeam_SlotConflict(t *testing.T) {
	_, _, svc, contest := newRosterFixture(4)

	_, err := svc.AddTeam(context.Background(), contest.ID, JoinTeamInput{
		Slot:    1,
		Player1: &models.Player{MemberID: "m-alice", Username: "alice"},
	})
	require.NoError(t, err)

	_, err = svc.AddTeam(context.Background(), contest.ID, JoinTeamInput{
		Slot:    1,
		Player1: &models.Player{MemberID: "m-carol", Username: "carol"},
	})
	assert.ErrorIs(t, err, ErrRoomSlotConflict)
}

func TestPlayerDirectory_FlattensRosterInOrder(t *testing.T) {
	contestRepo := newFakeContestRepo()
	contest := contestRepo.put(&models.Contest{Name: "c", Status: models.ContestStatusLive}, nil)
	teamRepo := newFakeTeamRepo(
		testDuo(1, contest.ID, 1, "alice", "bob"),
		testDuo(2, contest.ID, 2, "carol", "dave"),
	)
	svc := NewRosterService(teamRepo, contestRepo)

	directory, err := svc.PlayerDirectory(context.Background(), contest.ID)
	require.NoError(t, err)
	players := directory.Players()
	require.Len(t, players, 4)
	assert.Equal(t, "alice", players[0].Username)
	assert.Equal(t, "dave", players[3].Username)

	teamID, ok := directory.TeamOf("m-carol")
	require.True(t, ok)
	assert.Equal(t, 2, teamID)
}

func TestRemoveTeam(t *testing.T) {
	contestRepo := newFakeContestRepo()
	contest := contestRepo.put(&models.Contest{Name: "c"}, nil)
	teamRepo := newFakeTeamRepo(testDuo(1, contest.ID, 1, "alice", "bob"))
	svc := NewRosterService(teamRepo, contestRepo)

	require.NoError(t, svc.RemoveTeam(context.Background(), 1))
	assert.ErrorIs(t, svc.RemoveTeam(context.Background(), 1), ErrTeamNotFound)
}

func TestListRoster_ContestNotFound(t *testing.T) {
	_, _, svc, _ := newRosterFixture(4)

	_, err := svc.ListRoster(context.Background(), 999)
	assert.ErrorIs(t, err, ErrContestNotFound)
}
