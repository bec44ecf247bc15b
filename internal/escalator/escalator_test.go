package escalator_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poolhouse/scoretable/internal/database"
	"github.com/poolhouse/scoretable/internal/escalator"
	"github.com/poolhouse/scoretable/internal/feed"
	"github.com/poolhouse/scoretable/internal/league"
	"github.com/poolhouse/scoretable/internal/metrics"
	"github.com/poolhouse/scoretable/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	escalator *escalator.Escalator
	store     league.Store
	feed      *feed.MockNotifier
	notifier  *notifier.Mock
	metrics   *metrics.MockMetrics
	match     *league.Match
	teardown  func()
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	store := league.New(db)
	feedMock := feed.NewMock()
	notifMock := notifier.NewMock()
	metricsMock := metrics.NewMock()

	match := &league.Match{
		ID:             uuid.NewString(),
		LeagueID:       "league-1",
		HomeTeamID:     "team-home",
		AwayTeamID:     "team-away",
		GameType:       league.GameTypeEightBall,
		HomeGamesToWin: 10,
		HomeGamesToTie: 10,
		AwayGamesToWin: 10,
		AwayGamesToTie: 10,
	}
	require.NoError(t, store.CreateMatch(match))

	var home, away []league.LineupSlot
	for i := 1; i <= 5; i++ {
		home = append(home, league.LineupSlot{Position: i, PlayerID: "h" + uuid.NewString()})
		away = append(away, league.LineupSlot{Position: i, PlayerID: "a" + uuid.NewString()})
	}
	require.NoError(t, store.LockLineup(match.ID, match.HomeTeamID, home))
	require.NoError(t, store.LockLineup(match.ID, match.AwayTeamID, away))

	games, err := league.BuildRegulationGames(match, home, away)
	require.NoError(t, err)
	require.NoError(t, store.CreateGames(games))

	return &fixture{
		escalator: escalator.New(store, feedMock, notifMock, metricsMock),
		store:     store,
		feed:      feedMock,
		notifier:  notifMock,
		metrics:   metricsMock,
		match:     match,
		teardown:  dbTeardown,
	}
}

// finalizeGame writes a both-sides-confirmed result directly through the store.
func finalizeGame(t *testing.T, store league.Store, matchID string, gameNumber int, winnerTeam string) {
	t.Helper()

	g, err := store.GetGame(matchID, gameNumber)
	require.NoError(t, err)

	winnerPlayer := "winner-player"
	if winnerTeam == "team-home" && g.HomePlayerID != nil {
		winnerPlayer = *g.HomePlayerID
	} else if g.AwayPlayerID != nil {
		winnerPlayer = *g.AwayPlayerID
	}
	homeMember := "member-home"
	awayMember := "member-away"
	now := time.Now().Unix()

	_, err = store.ApplyGameUpdate(matchID, gameNumber, g.Version, league.GameUpdate{
		WinnerTeamID:    &winnerTeam,
		WinnerPlayerID:  &winnerPlayer,
		ConfirmedByHome: &homeMember,
		ConfirmedByAway: &awayMember,
		ConfirmedAt:     &now,
	})
	require.NoError(t, err)
}

// splitRegulation finalizes games 1-18 into a 9-9 deadlock.
func splitRegulation(t *testing.T, f *fixture) {
	t.Helper()
	for n := 1; n <= 18; n++ {
		winner := f.match.HomeTeamID
		if n%2 == 0 {
			winner = f.match.AwayTeamID
		}
		finalizeGame(t, f.store, f.match.ID, n, winner)
	}
}

func TestDeadlockCreatesTiebreakerGames(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	splitRegulation(t, f)

	entered, err := f.escalator.Evaluate(f.match.ID, false)
	require.NoError(t, err)
	assert.True(t, entered)

	games, err := f.store.GetGames(f.match.ID)
	require.NoError(t, err)
	require.Len(t, games, 21)

	homeLineup, err := f.store.GetLineup(f.match.ID, f.match.HomeTeamID)
	require.NoError(t, err)

	for i, g := range games[18:] {
		assert.Equal(t, 19+i, g.GameNumber)
		assert.True(t, g.IsTiebreaker)
		assert.Equal(t, league.StateEmpty, g.State())
		// Players come straight from locked lineup positions 1-3.
		assert.Equal(t, homeLineup[i].PlayerID, *g.HomePlayerID)
	}

	m, err := f.store.GetMatch(f.match.ID)
	require.NoError(t, err)
	assert.True(t, m.TiebreakerStarted)
	assert.Equal(t, 1, f.metrics.TiebreakersStartedCount)
	assert.Len(t, f.notifier.TiebreakerCalls, 1)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	splitRegulation(t, f)

	entered, err := f.escalator.Evaluate(f.match.ID, false)
	require.NoError(t, err)
	require.True(t, entered)

	entered, err = f.escalator.Evaluate(f.match.ID, false)
	require.NoError(t, err)
	assert.False(t, entered, "a started tiebreaker must not be created twice")

	games, err := f.store.GetGames(f.match.ID)
	require.NoError(t, err)
	assert.Len(t, games, 21)
}

func TestNoEscalationBeforeRegulationEnds(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	for n := 1; n <= 17; n++ {
		finalizeGame(t, f.store, f.match.ID, n, f.match.HomeTeamID)
	}

	entered, err := f.escalator.Evaluate(f.match.ID, false)
	require.NoError(t, err)
	assert.False(t, entered)
}

func TestNoEscalationWhenThresholdReached(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	// Home takes 10, away takes 8: threshold reached, no deadlock.
	for n := 1; n <= 18; n++ {
		winner := f.match.HomeTeamID
		if n > 10 {
			winner = f.match.AwayTeamID
		}
		finalizeGame(t, f.store, f.match.ID, n, winner)
	}

	entered, err := f.escalator.Evaluate(f.match.ID, false)
	require.NoError(t, err)
	assert.False(t, entered)
}

func TestNoEscalationOnSanctionedTie(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	// Thresholds that make 9-9 a tie rather than a deadlock.
	m2 := &league.Match{
		ID: uuid.NewString(), LeagueID: "league-1",
		HomeTeamID: "team-home", AwayTeamID: "team-away",
		GameType:       league.GameTypeEightBall,
		HomeGamesToWin: 10, HomeGamesToTie: 9,
		AwayGamesToWin: 10, AwayGamesToTie: 9,
	}
	require.NoError(t, f.store.CreateMatch(m2))
	var home, away []league.LineupSlot
	for i := 1; i <= 3; i++ {
		home = append(home, league.LineupSlot{Position: i, PlayerID: "h2"})
		away = append(away, league.LineupSlot{Position: i, PlayerID: "a2"})
	}
	require.NoError(t, f.store.LockLineup(m2.ID, m2.HomeTeamID, home))
	require.NoError(t, f.store.LockLineup(m2.ID, m2.AwayTeamID, away))
	games, err := league.BuildRegulationGames(m2, home, away)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateGames(games))

	for n := 1; n <= 18; n++ {
		winner := m2.HomeTeamID
		if n%2 == 0 {
			winner = m2.AwayTeamID
		}
		finalizeGame(t, f.store, m2.ID, n, winner)
	}

	entered, err := f.escalator.Evaluate(m2.ID, false)
	require.NoError(t, err)
	assert.False(t, entered, "a sanctioned tie is not a deadlock")
}

func TestPhaseCompleteAfterTwoTiebreakerWins(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	splitRegulation(t, f)
	entered, err := f.escalator.Evaluate(f.match.ID, false)
	require.NoError(t, err)
	require.True(t, entered)

	done, err := f.escalator.PhaseComplete(f.match.ID)
	require.NoError(t, err)
	assert.False(t, done)

	finalizeGame(t, f.store, f.match.ID, 19, f.match.AwayTeamID)
	done, err = f.escalator.PhaseComplete(f.match.ID)
	require.NoError(t, err)
	assert.False(t, done)

	finalizeGame(t, f.store, f.match.ID, 20, f.match.AwayTeamID)
	done, err = f.escalator.PhaseComplete(f.match.ID)
	require.NoError(t, err)
	assert.True(t, done, "two tiebreaker wins end the phase")

	// Game 21 stays empty and unused.
	g21, err := f.store.GetGame(f.match.ID, 21)
	require.NoError(t, err)
	assert.Equal(t, league.StateEmpty, g21.State())
}
