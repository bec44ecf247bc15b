package escalator

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/poolhouse/scoretable/internal/feed"
	"github.com/poolhouse/scoretable/internal/league"
	"github.com/poolhouse/scoretable/internal/metrics"
	"github.com/poolhouse/scoretable/internal/notifier"
)

// Escalator decides when regulation play has deadlocked and spawns the
// tiebreaker phase. Tiebreaker games use the same per-game state machine;
// only creation and win-counting differ.
type Escalator struct {
	store    league.Store
	feed     feed.Notifier
	notifier notifier.Notifier
	metrics  metrics.Metrics
}

// New creates a new Escalator.
func New(store league.Store, feedN feed.Notifier, notif notifier.Notifier, metricsSvc metrics.Metrics) *Escalator {
	return &Escalator{
		store:    store,
		feed:     feedN,
		notifier: notif,
		metrics:  metricsSvc,
	}
}

// Evaluate checks a match for the regulation deadlock and, if found,
// materializes the tiebreaker games. Safe to call after every finalization;
// it does nothing unless all regulation games are finalized, neither side
// has reached its win threshold, and no tiebreaker exists yet.
func (e *Escalator) Evaluate(matchID string, dryRun bool) (bool, error) {
	match, err := e.store.GetMatch(matchID)
	if err != nil {
		return false, err
	}
	if match.TiebreakerStarted {
		return false, nil
	}

	games, err := e.store.GetGames(matchID)
	if err != nil {
		return false, err
	}

	regulation := league.RegulationGames(match.GameType)
	finalized := 0
	for _, g := range games {
		if !g.IsTiebreaker && g.State() == league.StateFinalized {
			finalized++
		}
	}
	if finalized < regulation {
		return false, nil
	}

	homeWins := league.WinsFor(games, match.HomeTeamID, false)
	awayWins := league.WinsFor(games, match.AwayTeamID, false)
	if homeWins >= match.HomeGamesToWin || awayWins >= match.AwayGamesToWin {
		// Not a deadlock; the match-end verifier takes over.
		return false, nil
	}
	if homeWins >= match.HomeGamesToTie && awayWins >= match.AwayGamesToTie {
		// A sanctioned tie under the supplied thresholds, not a deadlock.
		return false, nil
	}

	log.Info("Regulation deadlock detected, entering tiebreaker",
		"matchID", matchID, "homeWins", homeWins, "awayWins", awayWins)

	if dryRun {
		log.Info("[Dry Run] Would create tiebreaker games", "matchID", matchID)
		return true, nil
	}

	home, err := e.store.GetLineup(matchID, match.HomeTeamID)
	if err != nil {
		return false, err
	}
	away, err := e.store.GetLineup(matchID, match.AwayTeamID)
	if err != nil {
		return false, err
	}

	tiebreakers, err := league.BuildTiebreakerGames(match, home, away)
	if err != nil {
		return false, fmt.Errorf("failed to build tiebreaker games: %w", err)
	}
	if err := e.store.CreateGames(tiebreakers); err != nil {
		return false, fmt.Errorf("failed to create tiebreaker games: %w", err)
	}
	if err := e.store.SetTiebreakerStarted(matchID); err != nil {
		return false, err
	}

	e.metrics.IncTiebreakersStarted()
	e.feed.Publish(feed.Event{Type: feed.EventTiebreakerStarted, MatchID: matchID, Match: match})
	for _, g := range tiebreakers {
		e.feed.Publish(feed.Event{Type: feed.EventGameCreated, MatchID: matchID, GameNumber: g.GameNumber, Game: g})
	}

	if err := e.notifier.SendTiebreakerNotification(match, false); err != nil {
		// The notification is best-effort; the phase itself is committed.
		log.Error("Failed to send tiebreaker notification", "error", err, "matchID", matchID)
	}
	return true, nil
}

// PhaseComplete reports whether a side has reached the tiebreaker win
// threshold. Remaining tiebreaker slots stay Empty and unused.
func (e *Escalator) PhaseComplete(matchID string) (bool, error) {
	match, err := e.store.GetMatch(matchID)
	if err != nil {
		return false, err
	}
	if !match.TiebreakerStarted {
		return false, nil
	}

	games, err := e.store.GetGames(matchID)
	if err != nil {
		return false, err
	}
	homeTB := league.WinsFor(games, match.HomeTeamID, true)
	awayTB := league.WinsFor(games, match.AwayTeamID, true)
	return homeTB >= league.TiebreakerWinsNeeded || awayTB >= league.TiebreakerWinsNeeded, nil
}
