// contest-system/slate/slate_test.go
package slate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/playverse/contest-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func duo(id, slot int, p1, p2 string) models.Team {
	return models.Team{
		ID:      id,
		Slot:    slot,
		Player1: &models.Player{MemberID: "m-" + p1, Username: p1},
		Player2: &models.Player{MemberID: "m-" + p2, Username: p2},
	}
}

// Четыре duo-команды: стандартный ростер для большинства тестов.
func testRoster() []models.Team {
	return []models.Team{
		duo(1, 1, "alice", "bob"),
		duo(2, 2, "carol", "dave"),
		duo(3, 3, "erin", "frank"),
		duo(4, 4, "grace", "heidi"),
	}
}

func testTiers() []models.PrizeTier {
	return []models.PrizeTier{
		{Rank: 1, Percent: 50},
		{Rank: 2, Percent: 30},
		{Rank: 3, Percent: 20},
	}
}

func TestNew_BuildsSlotFromEachTier(t *testing.T) {
	s := New(7, 1000, testTiers())

	require.Len(t, s.Slots, 3)
	assert.Equal(t, 7, s.ContestID)
	assert.Equal(t, 500, s.Slots[0].Prize)
	assert.Equal(t, 300, s.Slots[1].Prize)
	assert.Equal(t, 200, s.Slots[2].Prize)
	for _, slot := range s.Slots {
		assert.False(t, slot.Filled(), "new slate must start empty")
	}
}

func TestSlot_UnknownRankIsNil(t *testing.T) {
	s := New(1, 100, testTiers())

	assert.NotNil(t, s.Slot(2))
	assert.Nil(t, s.Slot(4))
	assert.Nil(t, s.Slot(0))
}

func TestAssign_RejectsBadRankAndPosition(t *testing.T) {
	s := New(1, 100, testTiers())
	p := Player{MemberID: "m-alice", Username: "alice", TeamID: 1}

	assert.Error(t, s.Assign(9, 1, p))
	assert.Error(t, s.Assign(1, 0, p))
	assert.Error(t, s.Assign(1, 3, p))
	assert.NoError(t, s.Assign(1, 1, p))
}

func TestSetFreeText_DoesNotFillSlot(t *testing.T) {
	d := Flatten(testRoster())
	s := New(1, 100, testTiers())

	alice, ok := d.Lookup("m-alice")
	require.True(t, ok)
	require.NoError(t, s.Assign(1, 1, alice))
	require.NoError(t, s.SetFreeText(1, 2, "bob"))

	// Напечатанное имя без выбора кандидата не делает слот заполненным.
	assert.False(t, s.Slot(1).Filled())
	assert.Empty(t, s.FilledSlots())
	assert.ErrorIs(t, Validate(s, d), ErrNoFilledSlot)
}

func TestFlatten_PreservesRosterOrder(t *testing.T) {
	d := Flatten(testRoster())

	players := d.Players()
	require.Len(t, players, 8)
	order := make([]string, 0, len(players))
	for _, p := range players {
		order = append(order, p.Username)
	}
	assert.Equal(t, []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi"}, order)

	teamID, ok := d.TeamOf("m-dave")
	require.True(t, ok)
	assert.Equal(t, 2, teamID)

	_, ok = d.TeamOf("m-mallory")
	assert.False(t, ok)
}

func TestFlatten_SkipsEmptySecondSlot(t *testing.T) {
	solo := models.Team{ID: 5, Slot: 1, Player1: &models.Player{MemberID: "m-ivan", Username: "ivan"}}
	d := Flatten([]models.Team{solo})

	require.Len(t, d.Players(), 1)
	assert.Equal(t, "ivan", d.Players()[0].Username)
}

func TestEligibleCandidates_PrefixIsCaseInsensitive(t *testing.T) {
	d := Flatten(testRoster())
	s := New(1, 100, testTiers())

	for _, query := range []string{"al", "AL", "Al"} {
		got := d.EligibleCandidates(s, 1, 1, query)
		require.Len(t, got, 1, "query %q", query)
		assert.Equal(t, "alice", got[0].Username)
	}

	assert.Empty(t, d.EligibleCandidates(s, 1, 1, "zzz"))
	// Пустой запрос возвращает всех.
	assert.Len(t, d.EligibleCandidates(s, 1, 1, ""), 8)
}

func TestEligibleCandidates_SecondPositionRestrictedToTeammates(t *testing.T) {
	d := Flatten(testRoster())
	s := New(1, 100, testTiers())

	alice, ok := d.Lookup("m-alice")
	require.True(t, ok)
	require.NoError(t, s.Assign(1, 1, alice))

	// Вторая позиция того же ранга ограничена командой первой позиции,
	// а сам занявший первую позицию игрок из списка исключён.
	got := d.EligibleCandidates(s, 1, 2, "")
	usernames := make([]string, 0, len(got))
	for _, p := range got {
		usernames = append(usernames, p.Username)
	}
	assert.Equal(t, []string{"bob"}, usernames)

	// Игрок другой команды не находится даже точным префиксом.
	assert.Empty(t, d.EligibleCandidates(s, 1, 2, "carol"))

	// Первая позиция другого ранга остаётся без командного фильтра.
	assert.Len(t, d.EligibleCandidates(s, 2, 1, ""), 7)
}

func TestEligibleCandidates_PartnerSlotShowsOnlyTeammate(t *testing.T) {
	d := Flatten(testRoster())
	s := New(1, 100, testTiers())

	alice, _ := d.Lookup("m-alice")
	bob, _ := d.Lookup("m-bob")
	carol, _ := d.Lookup("m-carol")
	require.NoError(t, s.Assign(1, 1, alice))
	require.NoError(t, s.Assign(1, 2, bob))
	require.NoError(t, s.Assign(2, 1, carol))

	// Когда первая позиция второго ранга занята, во второй позиции остаётся
	// ровно один кандидат: напарник по команде.
	got := d.EligibleCandidates(s, 2, 2, "")
	require.Len(t, got, 1)
	assert.Equal(t, "dave", got[0].Username)
}

func TestEligibleCandidates_ExcludesMembersAssignedAtOtherRanks(t *testing.T) {
	d := Flatten(testRoster())
	s := New(1, 100, testTiers())

	alice, _ := d.Lookup("m-alice")
	bob, _ := d.Lookup("m-bob")
	require.NoError(t, s.Assign(1, 1, alice))
	require.NoError(t, s.Assign(1, 2, bob))

	got := d.EligibleCandidates(s, 2, 1, "")
	for _, p := range got {
		assert.NotEqual(t, "m-alice", p.MemberID)
		assert.NotEqual(t, "m-bob", p.MemberID)
	}
	assert.Len(t, got, 6)

	// Занявший свою же позицию игрок остаётся доступным для перевыбора,
	// но напарник по тому же рангу исключён.
	got = d.EligibleCandidates(s, 1, 1, "")
	assert.Len(t, got, 7)
	assert.Equal(t, "alice", got[0].Username)
	for _, p := range got {
		assert.NotEqual(t, "m-bob", p.MemberID)
	}
}

func TestEligibleCandidates_CappedAtTen(t *testing.T) {
	teams := make([]models.Team, 0, 8)
	for i := 0; i < 8; i++ {
		p1 := fmt.Sprintf("player%02d", i*2)
		p2 := fmt.Sprintf("player%02d", i*2+1)
		teams = append(teams, duo(i+1, i+1, p1, p2))
	}
	d := Flatten(teams)
	s := New(1, 100, testTiers())

	got := d.EligibleCandidates(s, 1, 1, "player")
	require.Len(t, got, maxCandidates)
	// Первые десять в порядке ростера.
	assert.Equal(t, "player00", got[0].Username)
	assert.Equal(t, "player09", got[9].Username)
}

func TestValidate_RequiresAtLeastOneFilledSlot(t *testing.T) {
	d := Flatten(testRoster())
	s := New(1, 100, testTiers())

	assert.ErrorIs(t, Validate(s, d), ErrNoFilledSlot)

	// Наполовину заполненный слот не считается.
	alice, _ := d.Lookup("m-alice")
	require.NoError(t, s.Assign(1, 1, alice))
	assert.ErrorIs(t, Validate(s, d), ErrNoFilledSlot)
}

func TestValidate_DuplicateBeatsTeamMismatch(t *testing.T) {
	d := Flatten(testRoster())
	s := New(1, 100, testTiers())

	alice, _ := d.Lookup("m-alice")
	carol, _ := d.Lookup("m-carol")
	// Ранг 1 — кросс-командная пара, ранг 2 — повтор alice.
	require.NoError(t, s.Assign(1, 1, alice))
	require.NoError(t, s.Assign(1, 2, carol))
	require.NoError(t, s.Assign(2, 1, alice))
	bob, _ := d.Lookup("m-bob")
	require.NoError(t, s.Assign(2, 2, bob))

	// Дубликат проверяется раньше командного несоответствия.
	assert.ErrorIs(t, Validate(s, d), ErrDuplicatePlayer)
}

func TestValidate_TeamMismatchReportsRank(t *testing.T) {
	d := Flatten(testRoster())
	s := New(1, 100, testTiers())

	alice, _ := d.Lookup("m-alice")
	bob, _ := d.Lookup("m-bob")
	erin, _ := d.Lookup("m-erin")
	dave, _ := d.Lookup("m-dave")
	require.NoError(t, s.Assign(1, 1, alice))
	require.NoError(t, s.Assign(1, 2, bob))
	require.NoError(t, s.Assign(2, 1, erin))
	require.NoError(t, s.Assign(2, 2, dave))

	err := Validate(s, d)
	require.ErrorIs(t, err, ErrTeamMismatch)
	assert.Contains(t, err.Error(), "rank 2")
}

func TestValidate_UnknownPlayer(t *testing.T) {
	d := Flatten(testRoster())
	s := New(1, 100, testTiers())

	alice, _ := d.Lookup("m-alice")
	require.NoError(t, s.Assign(1, 1, alice))
	// Назначение игрока, которого нет в ростере (например, команда была
	// удалена после сохранения черновика).
	require.NoError(t, s.Assign(1, 2, Player{MemberID: "m-ghost", Username: "ghost", TeamID: 99}))

	assert.ErrorIs(t, Validate(s, d), ErrUnknownPlayer)
}

func TestValidate_AcceptsPartialSlate(t *testing.T) {
	d := Flatten(testRoster())
	s := New(1, 1000, testTiers())

	// Заполнен только второй ранг — это валидная декларация.
	carol, _ := d.Lookup("m-carol")
	dave, _ := d.Lookup("m-dave")
	require.NoError(t, s.Assign(2, 1, carol))
	require.NoError(t, s.Assign(2, 2, dave))

	require.NoError(t, Validate(s, d))

	winners, err := s.Winners(d)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Equal(t, 2, winners[0].Rank)
	assert.Equal(t, 2, winners[0].TeamID)
	assert.Equal(t, 300, winners[0].Prize)
	require.Len(t, winners[0].Players, 2)
	assert.Equal(t, "carol", winners[0].Players[0].Username)
	assert.Equal(t, "dave", winners[0].Players[1].Username)
}

func TestWinners_FullSlate(t *testing.T) {
	d := Flatten(testRoster())
	s := New(1, 1000, testTiers())

	pairs := [][2]string{{"m-alice", "m-bob"}, {"m-carol", "m-dave"}, {"m-erin", "m-frank"}}
	for i, pair := range pairs {
		p1, _ := d.Lookup(pair[0])
		p2, _ := d.Lookup(pair[1])
		require.NoError(t, s.Assign(i+1, 1, p1))
		require.NoError(t, s.Assign(i+1, 2, p2))
	}

	require.NoError(t, Validate(s, d))
	winners, err := s.Winners(d)
	require.NoError(t, err)
	require.Len(t, winners, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{winners[0].Rank, winners[1].Rank, winners[2].Rank})
	assert.Equal(t, []int{500, 300, 200}, []int{winners[0].Prize, winners[1].Prize, winners[2].Prize})
	assert.Equal(t, []int{1, 2, 3}, []int{winners[0].TeamID, winners[1].TeamID, winners[2].TeamID})
}

func TestWinners_UnknownFirstPlayer(t *testing.T) {
	d := Flatten(testRoster())
	s := New(1, 1000, testTiers())

	require.NoError(t, s.Assign(1, 1, Player{MemberID: "m-ghost", Username: "ghost"}))
	bob, _ := d.Lookup("m-bob")
	require.NoError(t, s.Assign(1, 2, bob))

	_, err := s.Winners(d)
	assert.True(t, errors.Is(err, ErrUnknownPlayer))
}
