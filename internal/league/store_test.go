package league_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/poolhouse/scoretable/internal/database"
	"github.com/poolhouse/scoretable/internal/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (league.Store, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	store := league.New(db)
	return store, dbTeardown
}

func newTestMatch() *league.Match {
	return &league.Match{
		ID:             uuid.NewString(),
		LeagueID:       "league-1",
		HomeTeamID:     "team-home",
		AwayTeamID:     "team-away",
		GameType:       league.GameTypeEightBall,
		HomeGamesToWin: 10,
		HomeGamesToTie: 9,
		AwayGamesToWin: 10,
		AwayGamesToTie: 9,
	}
}

func TestCreateAndGetMatch(t *testing.T) {
	store, teardown := setupTestDB(t)
	defer teardown()

	m := newTestMatch()
	require.NoError(t, store.CreateMatch(m))

	got, err := store.GetMatch(m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, league.ResultPending, got.MatchResult)
	assert.Nil(t, got.HomeVerifiedBy)
	assert.Nil(t, got.AwayVerifiedBy)
	assert.False(t, got.TiebreakerStarted)
}

func TestGetMatchNotFound(t *testing.T) {
	store, teardown := setupTestDB(t)
	defer teardown()

	_, err := store.GetMatch("missing")
	assert.ErrorIs(t, err, league.ErrNotFound)
}

func lockTestLineups(t *testing.T, store league.Store, m *league.Match) ([]league.LineupSlot, []league.LineupSlot) {
	t.Helper()

	home := make([]league.LineupSlot, 0, 5)
	away := make([]league.LineupSlot, 0, 5)
	for i := 1; i <= 5; i++ {
		home = append(home, league.LineupSlot{Position: i, PlayerID: uuid.NewString(), Handicap: i})
		away = append(away, league.LineupSlot{Position: i, PlayerID: uuid.NewString(), Handicap: i})
	}
	require.NoError(t, store.LockLineup(m.ID, m.HomeTeamID, home))
	require.NoError(t, store.LockLineup(m.ID, m.AwayTeamID, away))
	return home, away
}

func TestLockLineupRejectsRelock(t *testing.T) {
	store, teardown := setupTestDB(t)
	defer teardown()

	m := newTestMatch()
	require.NoError(t, store.CreateMatch(m))
	lockTestLineups(t, store, m)

	err := store.LockLineup(m.ID, m.HomeTeamID, []league.LineupSlot{{Position: 1, PlayerID: "p"}})
	assert.ErrorIs(t, err, league.ErrLineupLocked)
}

func TestCreateAndGetGames(t *testing.T) {
	store, teardown := setupTestDB(t)
	defer teardown()

	m := newTestMatch()
	require.NoError(t, store.CreateMatch(m))
	home, away := lockTestLineups(t, store, m)

	games, err := league.BuildRegulationGames(m, home, away)
	require.NoError(t, err)
	require.Len(t, games, 18)
	require.NoError(t, store.CreateGames(games))

	stored, err := store.GetGames(m.ID)
	require.NoError(t, err)
	require.Len(t, stored, 18)

	first := stored[0]
	assert.Equal(t, 1, first.GameNumber)
	assert.Equal(t, league.StateEmpty, first.State())
	assert.Equal(t, home[0].PlayerID, *first.HomePlayerID)
	assert.Equal(t, away[0].PlayerID, *first.AwayPlayerID)
	assert.Equal(t, league.ActionBreaks, *first.HomeAction)
	assert.Equal(t, league.ActionRacks, *first.AwayAction)
	assert.False(t, first.IsTiebreaker)

	// Break alternates each game.
	second := stored[1]
	assert.Equal(t, league.ActionRacks, *second.HomeAction)
	assert.Equal(t, league.ActionBreaks, *second.AwayAction)

	// Lineups rotate: game 6 gets position 1 again.
	sixth := stored[5]
	assert.Equal(t, home[0].PlayerID, *sixth.HomePlayerID)
}

func TestNineBallRegulationCount(t *testing.T) {
	m := newTestMatch()
	m.GameType = league.GameTypeNineBall

	home := []league.LineupSlot{{Position: 1, PlayerID: "h1"}}
	away := []league.LineupSlot{{Position: 1, PlayerID: "a1"}}
	games, err := league.BuildRegulationGames(m, home, away)
	require.NoError(t, err)
	assert.Len(t, games, 25)
}

func TestBuildTiebreakerGames(t *testing.T) {
	m := newTestMatch()
	home := []league.LineupSlot{
		{Position: 1, PlayerID: "h1"}, {Position: 2, PlayerID: "h2"}, {Position: 3, PlayerID: "h3"},
	}
	away := []league.LineupSlot{
		{Position: 1, PlayerID: "a1"}, {Position: 2, PlayerID: "a2"}, {Position: 3, PlayerID: "a3"},
	}

	games, err := league.BuildTiebreakerGames(m, home, away)
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, 19, games[0].GameNumber)
	assert.Equal(t, 21, games[2].GameNumber)
	for i, g := range games {
		assert.True(t, g.IsTiebreaker)
		assert.Equal(t, home[i].PlayerID, *g.HomePlayerID)
		assert.Equal(t, away[i].PlayerID, *g.AwayPlayerID)
	}
}

func TestApplyGameUpdate(t *testing.T) {
	store, teardown := setupTestDB(t)
	defer teardown()

	m := newTestMatch()
	require.NoError(t, store.CreateMatch(m))
	home, away := lockTestLineups(t, store, m)
	games, err := league.BuildRegulationGames(m, home, away)
	require.NoError(t, err)
	require.NoError(t, store.CreateGames(games))

	winner := m.HomeTeamID
	winnerPlayer := home[0].PlayerID
	member := "member-home"

	updated, err := store.ApplyGameUpdate(m.ID, 1, 0, league.GameUpdate{
		WinnerTeamID:    &winner,
		WinnerPlayerID:  &winnerPlayer,
		ConfirmedByHome: &member,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Version)
	assert.Equal(t, winner, *updated.WinnerTeamID)
	assert.Equal(t, member, *updated.ConfirmedByHome)
	assert.Nil(t, updated.ConfirmedByAway)
	assert.Equal(t, league.StateProposed, updated.State())

	t.Run("stale version conflicts", func(t *testing.T) {
		_, err := store.ApplyGameUpdate(m.ID, 1, 0, league.GameUpdate{})
		assert.ErrorIs(t, err, league.ErrVersionConflict)
	})

	t.Run("missing game is not found", func(t *testing.T) {
		_, err := store.ApplyGameUpdate(m.ID, 99, 0, league.GameUpdate{})
		assert.ErrorIs(t, err, league.ErrNotFound)
	})

	t.Run("empty update clears every agreement field atomically", func(t *testing.T) {
		cleared, err := store.ApplyGameUpdate(m.ID, 1, 1, league.GameUpdate{})
		require.NoError(t, err)
		assert.Nil(t, cleared.WinnerTeamID)
		assert.Nil(t, cleared.WinnerPlayerID)
		assert.False(t, cleared.BreakAndRun)
		assert.False(t, cleared.GoldenBreak)
		assert.Nil(t, cleared.ConfirmedByHome)
		assert.Nil(t, cleared.ConfirmedByAway)
		assert.Nil(t, cleared.ConfirmedAt)
		assert.Nil(t, cleared.VacateRequestedBy)
		assert.Equal(t, league.StateEmpty, cleared.State())
	})
}

func TestSetAndClearVerification(t *testing.T) {
	store, teardown := setupTestDB(t)
	defer teardown()

	m := newTestMatch()
	require.NoError(t, store.CreateMatch(m))

	updated, err := store.SetVerification(m.ID, league.SideHome, "captain-home")
	require.NoError(t, err)
	require.NotNil(t, updated.HomeVerifiedBy)
	assert.Equal(t, "captain-home", *updated.HomeVerifiedBy)
	assert.Nil(t, updated.AwayVerifiedBy)

	updated, err = store.SetVerification(m.ID, league.SideAway, "captain-away")
	require.NoError(t, err)
	require.NotNil(t, updated.AwayVerifiedBy)

	require.NoError(t, store.SetMatchResult(m.ID, league.ResultHomeWin))
	got, err := store.GetMatch(m.ID)
	require.NoError(t, err)
	assert.Equal(t, league.ResultHomeWin, got.MatchResult)

	require.NoError(t, store.ClearVerification(m.ID))
	got, err = store.GetMatch(m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.HomeVerifiedBy)
	assert.Nil(t, got.AwayVerifiedBy)
	assert.Equal(t, league.ResultPending, got.MatchResult)
}

func TestWinsFor(t *testing.T) {
	team := "team-home"
	other := "team-away"
	member := "m"
	games := []*league.Game{
		{GameNumber: 1, WinnerTeamID: &team, ConfirmedByHome: &member, ConfirmedByAway: &member},
		{GameNumber: 2, WinnerTeamID: &team, ConfirmedByHome: &member}, // proposed only
		{GameNumber: 3, WinnerTeamID: &other, ConfirmedByHome: &member, ConfirmedByAway: &member},
		{GameNumber: 19, IsTiebreaker: true, WinnerTeamID: &team, ConfirmedByHome: &member, ConfirmedByAway: &member},
	}

	assert.Equal(t, 2, league.WinsFor(games, team, false))
	assert.Equal(t, 1, league.WinsFor(games, team, true))
	assert.Equal(t, 1, league.WinsFor(games, other, false))
}

func TestUpsertAndGetPlayers(t *testing.T) {
	store, teardown := setupTestDB(t)
	defer teardown()

	players := []league.PlayerInfo{
		{ID: "p1", Name: "Player One", TeamID: "team-home", SkillLevel: 4},
		{ID: "p2", Name: "Player Two", TeamID: "team-away", SkillLevel: 6},
	}
	require.NoError(t, store.UpsertPlayers(players))

	got, err := store.GetPlayers([]string{"p1", "p2"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Upsert overwrites in place.
	players[0].SkillLevel = 5
	require.NoError(t, store.UpsertPlayers(players[:1]))
	got, err = store.GetPlayers([]string{"p1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].SkillLevel)

	t.Run("returns empty slice for empty id slice", func(t *testing.T) {
		got, err := store.GetPlayers(nil)
		require.NoError(t, err)
		assert.Len(t, got, 0)
	})
}
