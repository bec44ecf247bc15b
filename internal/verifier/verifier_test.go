package verifier_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poolhouse/scoretable/internal/database"
	"github.com/poolhouse/scoretable/internal/feed"
	"github.com/poolhouse/scoretable/internal/league"
	"github.com/poolhouse/scoretable/internal/metrics"
	"github.com/poolhouse/scoretable/internal/notifier"
	"github.com/poolhouse/scoretable/internal/pubsub"
	"github.com/poolhouse/scoretable/internal/scoring"
	"github.com/poolhouse/scoretable/internal/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	verifier *verifier.Verifier
	store    league.Store
	feed     *feed.MockNotifier
	notifier *notifier.Mock
	metrics  *metrics.MockMetrics
	pubsub   *pubsub.MockPubSubClient
	match    *league.Match
	homeSess scoring.Session
	awaySess scoring.Session
	teardown func()
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	store := league.New(db)
	feedMock := feed.NewMock()
	notifMock := notifier.NewMock()
	metricsMock := metrics.NewMock()
	pubsubMock := pubsub.NewMock("test-project")

	match := &league.Match{
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
		verifier: verifier.New(store, feedMock, notifMock, metricsMock, pubsubMock),
		store:    store,
		feed:     feedMock,
		notifier: notifMock,
		metrics:  metricsMock,
		pubsub:   pubsubMock,
		match:    match,
		homeSess: scoring.Session{MemberID: "member-home", TeamID: "team-home"},
		awaySess: scoring.Session{MemberID: "member-away", TeamID: "team-away"},
		teardown: dbTeardown,
	}
}

func finalizeGame(t *testing.T, store league.Store, matchID string, gameNumber int, winnerTeam string) {
	t.Helper()

	g, err := store.GetGame(matchID, gameNumber)
	require.NoError(t, err)

	winnerPlayer := "winner-player"
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

// homeTakesTen finalizes regulation with home on 10 wins and away on 8.
func homeTakesTen(t *testing.T, f *fixture) {
	t.Helper()
	for n := 1; n <= 18; n++ {
		winner := f.match.HomeTeamID
		if n > 10 {
			winner = f.match.AwayTeamID
		}
		finalizeGame(t, f.store, f.match.ID, n, winner)
	}
}

func TestSingleVerificationIsNotTerminal(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	homeTakesTen(t, f)

	m, err := f.verifier.Verify(f.homeSess, f.match.ID, false)
	require.NoError(t, err)

	require.NotNil(t, m.HomeVerifiedBy)
	assert.Equal(t, "member-home", *m.HomeVerifiedBy)
	assert.Nil(t, m.AwayVerifiedBy)
	assert.Equal(t, league.ResultPending, m.MatchResult)
	assert.Equal(t, 0, f.metrics.MatchesFinalizedCount)
	assert.Empty(t, f.pubsub.SendMessageCalls)
	assert.Empty(t, f.notifier.ResultCalls)
}

func TestBothVerificationsFinalizeTheMatch(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	homeTakesTen(t, f)

	_, err := f.verifier.Verify(f.homeSess, f.match.ID, false)
	require.NoError(t, err)
	m, err := f.verifier.Verify(f.awaySess, f.match.ID, false)
	require.NoError(t, err)

	assert.Equal(t, league.ResultHomeWin, m.MatchResult)
	require.NotNil(t, m.HomeVerifiedBy)
	require.NotNil(t, m.AwayVerifiedBy)
	assert.Equal(t, 1, f.metrics.MatchesFinalizedCount)

	var sawFinalized bool
	for _, ev := range f.feed.Events() {
		if ev.Type == feed.EventMatchFinalized {
			sawFinalized = true
		}
	}
	assert.True(t, sawFinalized, "terminal write must publish a match_finalized event")

	require.Len(t, f.pubsub.SendMessageCalls, 1)
	call := f.pubsub.SendMessageCalls[0]
	assert.Equal(t, pubsub.EventMatchFinalized, call.Topic)
	payload, ok := call.Data.(pubsub.FinalizedMatch)
	require.True(t, ok)
	assert.Equal(t, f.match.ID, payload.MatchID)
	assert.Equal(t, "home_win", payload.Result)
	assert.Equal(t, 10, payload.HomeWins)
	assert.Equal(t, 8, payload.AwayWins)
	assert.False(t, payload.WentToTiebreak)
	assert.Equal(t, "member-home", payload.HomeVerifiedBy)
	assert.Equal(t, "member-away", payload.AwayVerifiedBy)

	require.Len(t, f.notifier.ResultCalls, 1)
	assert.Equal(t, 10, f.notifier.ResultCalls[0].HomeWins)
}

func TestVerifyRejectedWhileUndecided(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	// Only nine finalized games: no threshold reached.
	for n := 1; n <= 9; n++ {
		finalizeGame(t, f.store, f.match.ID, n, f.match.HomeTeamID)
	}

	_, err := f.verifier.Verify(f.homeSess, f.match.ID, false)
	var ruleErr *scoring.RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, scoring.KindInvalidTransition, ruleErr.Kind)
}

func TestSameSideCannotVerifyTwice(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	homeTakesTen(t, f)

	_, err := f.verifier.Verify(f.homeSess, f.match.ID, false)
	require.NoError(t, err)

	_, err = f.verifier.Verify(f.homeSess, f.match.ID, false)
	var ruleErr *scoring.RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, scoring.KindInvalidTransition, ruleErr.Kind)
}

func TestNonParticipantCannotVerify(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	homeTakesTen(t, f)

	outsider := scoring.Session{MemberID: "member-x", TeamID: "team-elsewhere"}
	_, err := f.verifier.Verify(outsider, f.match.ID, false)
	var ruleErr *scoring.RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, scoring.KindIdentityViolation, ruleErr.Kind)
}

func TestVerifyRejectedOnFinalizedMatch(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	homeTakesTen(t, f)

	_, err := f.verifier.Verify(f.homeSess, f.match.ID, false)
	require.NoError(t, err)
	_, err = f.verifier.Verify(f.awaySess, f.match.ID, false)
	require.NoError(t, err)

	_, err = f.verifier.Verify(f.awaySess, f.match.ID, false)
	var ruleErr *scoring.RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, scoring.KindInvalidTransition, ruleErr.Kind)
}

func TestDryRunRecordsNothing(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	homeTakesTen(t, f)

	m, err := f.verifier.Verify(f.homeSess, f.match.ID, true)
	require.NoError(t, err)
	assert.Nil(t, m.HomeVerifiedBy)

	stored, err := f.store.GetMatch(f.match.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.HomeVerifiedBy)
	assert.Equal(t, league.ResultPending, stored.MatchResult)
}

func TestTieOutcome(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	// 9-9 with tie thresholds at 9 is a sanctioned tie.
	for n := 1; n <= 18; n++ {
		winner := f.match.HomeTeamID
		if n%2 == 0 {
			winner = f.match.AwayTeamID
		}
		finalizeGame(t, f.store, f.match.ID, n, winner)
	}

	o, err := f.verifier.ComputeOutcome(f.match.ID)
	require.NoError(t, err)
	assert.True(t, o.Decided)
	assert.Equal(t, league.ResultTie, o.Result)

	_, err = f.verifier.Verify(f.homeSess, f.match.ID, false)
	require.NoError(t, err)
	m, err := f.verifier.Verify(f.awaySess, f.match.ID, false)
	require.NoError(t, err)
	assert.Equal(t, league.ResultTie, m.MatchResult)
}

func TestTiebreakerOutcome(t *testing.T) {
	f := setup(t)
	defer f.teardown()

	// Win thresholds at 10 and tie thresholds pushed out of reach: 9-9 is a
	// deadlock, so the match is decided by the tiebreaker phase.
	m2 := &league.Match{
		ID: uuid.NewString(), LeagueID: "league-1",
		HomeTeamID: "team-home", AwayTeamID: "team-away",
		GameType:       league.GameTypeEightBall,
		HomeGamesToWin: 10, HomeGamesToTie: 10,
		AwayGamesToWin: 10, AwayGamesToTie: 10,
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

	tiebreakers, err := league.BuildTiebreakerGames(m2, home, away)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateGames(tiebreakers))
	require.NoError(t, f.store.SetTiebreakerStarted(m2.ID))

	o, err := f.verifier.ComputeOutcome(m2.ID)
	require.NoError(t, err)
	assert.False(t, o.Decided, "tiebreaker in progress is not a decided outcome")

	finalizeGame(t, f.store, m2.ID, 19, m2.AwayTeamID)
	finalizeGame(t, f.store, m2.ID, 20, m2.AwayTeamID)

	_, err = f.verifier.Verify(f.homeSess, m2.ID, false)
	require.NoError(t, err)
	final, err := f.verifier.Verify(f.awaySess, m2.ID, false)
	require.NoError(t, err)
	assert.Equal(t, league.ResultAwayWin, final.MatchResult)

	require.Len(t, f.pubsub.SendMessageCalls, 1)
	payload := f.pubsub.SendMessageCalls[0].Data.(pubsub.FinalizedMatch)
	assert.True(t, payload.WentToTiebreak)
}
