package verifier

import (
	"github.com/charmbracelet/log"
	"github.com/poolhouse/scoretable/internal/feed"
	"github.com/poolhouse/scoretable/internal/league"
	"github.com/poolhouse/scoretable/internal/metrics"
	"github.com/poolhouse/scoretable/internal/notifier"
	"github.com/poolhouse/scoretable/internal/pubsub"
	"github.com/poolhouse/scoretable/internal/scoring"
)

// Verifier handles the two-party match sign-off. Each side independently
// verifies the computed outcome; the match becomes terminal only when both
// markers are present, and the terminal write fans out to the feed, pubsub
// and the notifier.
type Verifier struct {
	store    league.Store
	feed     feed.Notifier
	notifier notifier.Notifier
	metrics  metrics.Metrics
	pubsub   pubsub.PubSubClient
}

// New creates a new Verifier.
func New(store league.Store, feedN feed.Notifier, notif notifier.Notifier, metricsSvc metrics.Metrics, pubsubClient pubsub.PubSubClient) *Verifier {
	return &Verifier{
		store:    store,
		feed:     feedN,
		notifier: notif,
		metrics:  metricsSvc,
		pubsub:   pubsubClient,
	}
}

// Outcome is the computed aggregate state of a match, derived entirely from
// its finalized games and thresholds.
type Outcome struct {
	Result   league.MatchResult `json:"result"`
	HomeWins int                `json:"home_wins"`
	AwayWins int                `json:"away_wins"`
	Decided  bool               `json:"decided"`
}

// ComputeOutcome derives the match outcome from the game records alone. The
// stored match_result column is never an input; it only ever mirrors what
// this derivation produced at sign-off time.
func (v *Verifier) ComputeOutcome(matchID string) (*Outcome, error) {
	match, err := v.store.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	games, err := v.store.GetGames(matchID)
	if err != nil {
		return nil, err
	}
	return computeOutcome(match, games), nil
}

func computeOutcome(match *league.Match, games []*league.Game) *Outcome {
	o := &Outcome{
		Result:   league.ResultPending,
		HomeWins: league.WinsFor(games, match.HomeTeamID, false),
		AwayWins: league.WinsFor(games, match.AwayTeamID, false),
	}

	if match.TiebreakerStarted {
		homeTB := league.WinsFor(games, match.HomeTeamID, true)
		awayTB := league.WinsFor(games, match.AwayTeamID, true)
		switch {
		case homeTB >= league.TiebreakerWinsNeeded:
			o.Result, o.Decided = league.ResultHomeWin, true
		case awayTB >= league.TiebreakerWinsNeeded:
			o.Result, o.Decided = league.ResultAwayWin, true
		}
		return o
	}

	switch {
	case o.HomeWins >= match.HomeGamesToWin:
		o.Result, o.Decided = league.ResultHomeWin, true
	case o.AwayWins >= match.AwayGamesToWin:
		o.Result, o.Decided = league.ResultAwayWin, true
	case o.HomeWins >= match.HomeGamesToTie && o.AwayWins >= match.AwayGamesToTie:
		if allRegulationFinalized(match, games) {
			o.Result, o.Decided = league.ResultTie, true
		}
	}
	return o
}

func allRegulationFinalized(match *league.Match, games []*league.Game) bool {
	finalized := 0
	for _, g := range games {
		if !g.IsTiebreaker && g.State() == league.StateFinalized {
			finalized++
		}
	}
	return finalized >= league.RegulationGames(match.GameType)
}

// Verify records one side's sign-off on the match outcome. The first call
// leaves the match non-terminal; the second, from the opposing side, makes
// it terminal and publishes the finalized result.
func (v *Verifier) Verify(sess scoring.Session, matchID string, dryRun bool) (*league.Match, error) {
	if sess.MemberID == "" || sess.TeamID == "" {
		return nil, scoring.IdentityViolation("a member and team identity is required to verify a match")
	}

	match, err := v.store.GetMatch(matchID)
	if err != nil {
		return nil, err
	}

	side := match.SideOf(sess.TeamID)
	if side == "" {
		return nil, scoring.IdentityViolation("team %s is not a participant in this match", sess.TeamID)
	}
	if sess.Side != "" && sess.Side != side {
		return nil, scoring.IdentityViolation("session side %q does not match team assignment %q", sess.Side, side)
	}
	if match.MatchResult != league.ResultPending {
		return nil, scoring.InvalidTransition("match %s is already finalized as %s", matchID, match.MatchResult)
	}
	if side == league.SideHome && match.HomeVerifiedBy != nil {
		return nil, scoring.InvalidTransition("the home side has already verified this match")
	}
	if side == league.SideAway && match.AwayVerifiedBy != nil {
		return nil, scoring.InvalidTransition("the away side has already verified this match")
	}

	games, err := v.store.GetGames(matchID)
	if err != nil {
		return nil, err
	}
	outcome := computeOutcome(match, games)
	if !outcome.Decided {
		return nil, scoring.InvalidTransition("match %s has no decided outcome yet (%d-%d)", matchID, outcome.HomeWins, outcome.AwayWins)
	}

	if dryRun {
		log.Info("[Dry Run] Would record match verification",
			"matchID", matchID, "side", side, "result", outcome.Result)
		return match, nil
	}

	updated, err := v.store.SetVerification(matchID, side, sess.MemberID)
	if err != nil {
		return nil, err
	}
	log.Info("Match verification recorded", "matchID", matchID, "side", side, "memberID", sess.MemberID)
	v.feed.Publish(feed.Event{Type: feed.EventMatchUpdated, MatchID: matchID, Match: updated})

	if updated.HomeVerifiedBy == nil || updated.AwayVerifiedBy == nil {
		return updated, nil
	}
	return v.finalize(updated, outcome)
}

// finalize performs the terminal write and the fan-out. The stored result is
// written exactly once; all downstream consumers read from the events.
func (v *Verifier) finalize(match *league.Match, outcome *Outcome) (*league.Match, error) {
	if err := v.store.SetMatchResult(match.ID, outcome.Result); err != nil {
		return nil, err
	}
	final, err := v.store.GetMatch(match.ID)
	if err != nil {
		return nil, err
	}

	v.metrics.IncMatchesFinalized()
	v.feed.Publish(feed.Event{Type: feed.EventMatchFinalized, MatchID: final.ID, Match: final})
	log.Info("Match finalized", "matchID", final.ID, "result", final.MatchResult,
		"homeWins", outcome.HomeWins, "awayWins", outcome.AwayWins)

	payload := pubsub.FinalizedMatch{
		MatchID:        final.ID,
		LeagueID:       final.LeagueID,
		HomeTeamID:     final.HomeTeamID,
		AwayTeamID:     final.AwayTeamID,
		Result:         string(final.MatchResult),
		HomeWins:       outcome.HomeWins,
		AwayWins:       outcome.AwayWins,
		WentToTiebreak: final.TiebreakerStarted,
	}
	if final.HomeVerifiedBy != nil {
		payload.HomeVerifiedBy = *final.HomeVerifiedBy
	}
	if final.AwayVerifiedBy != nil {
		payload.AwayVerifiedBy = *final.AwayVerifiedBy
	}
	if err := v.pubsub.SendMessage(pubsub.EventMatchFinalized, payload); err != nil {
		// Standings ingestion retries from its own side; the sign-off stands.
		log.Error("Failed to publish finalized match", "error", err, "matchID", final.ID)
	}
	if err := v.notifier.SendResultNotification(final, outcome.HomeWins, outcome.AwayWins, false); err != nil {
		log.Error("Failed to send result notification", "error", err, "matchID", final.ID)
	}
	return final, nil
}
