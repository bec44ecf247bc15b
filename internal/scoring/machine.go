package scoring

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/poolhouse/scoretable/internal/feed"
	"github.com/poolhouse/scoretable/internal/league"
	"github.com/poolhouse/scoretable/internal/metrics"
)

// Machine is the per-game confirmation state machine. Every entry point
// validates the transition and the caller's identity, performs one
// version-checked write, and returns the canonical post-write game.
type Machine struct {
	store   league.Store
	feed    feed.Notifier
	metrics metrics.Metrics
}

// New creates a new Machine.
func New(store league.Store, notifier feed.Notifier, metricsSvc metrics.Metrics) *Machine {
	return &Machine{
		store:   store,
		feed:    notifier,
		metrics: metricsSvc,
	}
}

// load fetches the match and game and resolves the caller's side. All
// identity checks happen at the data layer, not merely in the UI.
func (m *Machine) load(sess Session, matchID string, gameNumber int) (*league.Match, *league.Game, league.Side, error) {
	if sess.MemberID == "" || sess.TeamID == "" {
		return nil, nil, "", IdentityViolation("a member and team identity is required for every scoring action")
	}

	match, err := m.store.GetMatch(matchID)
	if err != nil {
		return nil, nil, "", err
	}

	side := match.SideOf(sess.TeamID)
	if side == "" {
		return nil, nil, "", IdentityViolation("team %s is not a participant in this match", sess.TeamID)
	}
	if sess.Side != "" && sess.Side != side {
		return nil, nil, "", IdentityViolation("session side %q does not match team assignment %q", sess.Side, side)
	}

	game, err := m.store.GetGame(matchID, gameNumber)
	if err != nil {
		return nil, nil, "", err
	}
	return match, game, side, nil
}

// apply performs the compare-and-set write. On a lost race it refetches the
// canonical row and returns it inside the write-conflict error so the caller
// re-renders from authoritative state.
func (m *Machine) apply(g *league.Game, u league.GameUpdate, ev feed.EventType) (*league.Game, error) {
	start := time.Now()
	updated, err := m.store.ApplyGameUpdate(g.MatchID, g.GameNumber, g.Version, u)
	if err != nil {
		if errors.Is(err, league.ErrVersionConflict) {
			m.metrics.IncWriteConflicts()
			canonical, getErr := m.store.GetGame(g.MatchID, g.GameNumber)
			if getErr != nil {
				return nil, getErr
			}
			return nil, &RuleError{
				Kind:    KindWriteConflict,
				Message: "the game changed while you were looking at it; review the latest state",
				Game:    canonical,
			}
		}
		return nil, err
	}
	m.metrics.ObserveTransitionDuration(time.Since(start).Seconds())
	m.feed.Publish(feed.Event{
		Type:       ev,
		MatchID:    updated.MatchID,
		GameNumber: updated.GameNumber,
		Game:       updated,
	})
	return updated, nil
}

// confirmationFor returns the confirmation field value for one side.
func confirmationFor(g *league.Game, side league.Side) *string {
	if side == league.SideHome {
		return g.ConfirmedByHome
	}
	return g.ConfirmedByAway
}

// Propose records one side's claimed result for a game. Valid from Empty, or
// from Proposed when the same side re-submits its own pending proposal.
func (m *Machine) Propose(sess Session, matchID string, gameNumber int, p Proposal) (*league.Game, error) {
	if p.BreakAndRun && p.GoldenBreak {
		return nil, ConstraintViolation("break-and-run and golden-break are mutually exclusive")
	}
	if p.WinnerTeamID == "" || p.WinnerPlayerID == "" {
		return nil, ConstraintViolation("a proposal needs both a winning team and a winning player")
	}

	match, game, side, err := m.load(sess, matchID, gameNumber)
	if err != nil {
		return nil, err
	}
	if match.SideOf(p.WinnerTeamID) == "" {
		return nil, ConstraintViolation("team %s is not playing in this match", p.WinnerTeamID)
	}

	switch game.State() {
	case league.StateEmpty:
		// First proposal for this game.
	case league.StateProposed:
		if confirmationFor(game, side) == nil {
			return nil, InvalidTransition("the other side already proposed a result for game %d; confirm or deny it instead", gameNumber)
		}
		// Idempotent overwrite of our own pending proposal.
	case league.StateFinalized:
		return nil, InvalidTransition("game %d is finalized; request a vacate to change the result", gameNumber)
	case league.StateVacatePending:
		return nil, InvalidTransition("game %d has a pending vacate request; resolve it first", gameNumber)
	}

	u := league.GameUpdate{
		WinnerTeamID:   &p.WinnerTeamID,
		WinnerPlayerID: &p.WinnerPlayerID,
		BreakAndRun:    p.BreakAndRun,
		GoldenBreak:    p.GoldenBreak,
	}
	// The proposer confirms its own claim; the opposing field stays null
	// until the other side acts.
	if side == league.SideHome {
		u.ConfirmedByHome = &sess.MemberID
	} else {
		u.ConfirmedByAway = &sess.MemberID
	}

	updated, err := m.apply(game, u, feed.EventGameUpdated)
	if err != nil {
		return nil, err
	}
	m.metrics.IncProposals()
	log.Info("Game result proposed", "matchID", matchID, "game", gameNumber, "side", side, "winner", p.WinnerTeamID)
	return updated, nil
}

// Confirm is the opposing side's agreement with a pending proposal. Once both
// confirmation fields are set the game is finalized.
func (m *Machine) Confirm(sess Session, matchID string, gameNumber int) (*league.Game, error) {
	_, game, side, err := m.load(sess, matchID, gameNumber)
	if err != nil {
		return nil, err
	}

	switch game.State() {
	case league.StateEmpty:
		return nil, InvalidTransition("game %d has no proposed result to confirm", gameNumber)
	case league.StateFinalized:
		return nil, InvalidTransition("game %d is already finalized", gameNumber)
	case league.StateVacatePending:
		return nil, InvalidTransition("game %d has a pending vacate request", gameNumber)
	}

	if confirmationFor(game, side) != nil {
		return nil, IdentityViolation("a side cannot confirm its own proposal")
	}

	now := time.Now().Unix()
	u := league.GameUpdate{
		WinnerTeamID:   game.WinnerTeamID,
		WinnerPlayerID: game.WinnerPlayerID,
		BreakAndRun:    game.BreakAndRun,
		GoldenBreak:    game.GoldenBreak,
		ConfirmedAt:    &now,
	}
	if side == league.SideHome {
		u.ConfirmedByHome = &sess.MemberID
		u.ConfirmedByAway = game.ConfirmedByAway
	} else {
		u.ConfirmedByHome = game.ConfirmedByHome
		u.ConfirmedByAway = &sess.MemberID
	}

	updated, err := m.apply(game, u, feed.EventGameUpdated)
	if err != nil {
		return nil, err
	}
	m.metrics.IncConfirmations()
	m.metrics.IncGamesFinalized()
	log.Info("Game result confirmed", "matchID", matchID, "game", gameNumber, "side", side)
	return updated, nil
}

// Deny rejects a pending proposal outright and resets the game to Empty.
// Only the side that did not originate the proposal may deny.
func (m *Machine) Deny(sess Session, matchID string, gameNumber int) (*league.Game, error) {
	_, game, side, err := m.load(sess, matchID, gameNumber)
	if err != nil {
		return nil, err
	}

	if game.State() != league.StateProposed {
		return nil, InvalidTransition("game %d has no pending proposal to deny", gameNumber)
	}
	if confirmationFor(game, side) != nil {
		return nil, IdentityViolation("the proposing side cannot deny its own proposal")
	}

	// Full reset: winner, modifiers and both confirmation fields in one write.
	updated, err := m.apply(game, league.GameUpdate{}, feed.EventGameUpdated)
	if err != nil {
		return nil, err
	}
	m.metrics.IncDenials()
	log.Info("Game proposal denied", "matchID", matchID, "game", gameNumber, "side", side)
	return updated, nil
}

// RequestVacate asks to void an already-finalized result. The request records
// the requesting side; the opposing side must accept or deny it.
func (m *Machine) RequestVacate(sess Session, matchID string, gameNumber int) (*league.Game, error) {
	_, game, side, err := m.load(sess, matchID, gameNumber)
	if err != nil {
		return nil, err
	}

	if game.State() != league.StateFinalized {
		return nil, InvalidTransition("only a finalized game can be vacated; game %d is %s", gameNumber, game.State())
	}

	u := updateFrom(game)
	u.VacateRequestedBy = &sess.TeamID

	updated, err := m.apply(game, u, feed.EventGameUpdated)
	if err != nil {
		return nil, err
	}
	m.metrics.IncVacateRequests()
	log.Info("Vacate requested", "matchID", matchID, "game", gameNumber, "side", side)
	return updated, nil
}

// AcceptVacate clears the game back to Empty: winner, modifiers, both
// confirmations and the vacate flag in one atomic write. If the match had
// already been verified, the verification markers and aggregate result are
// reset as well.
func (m *Machine) AcceptVacate(sess Session, matchID string, gameNumber int) (*league.Game, error) {
	match, game, side, err := m.load(sess, matchID, gameNumber)
	if err != nil {
		return nil, err
	}

	if game.State() != league.StateVacatePending {
		return nil, InvalidTransition("game %d has no pending vacate request", gameNumber)
	}
	if *game.VacateRequestedBy == sess.TeamID {
		return nil, IdentityViolation("a side cannot accept its own vacate request")
	}

	updated, err := m.apply(game, league.GameUpdate{}, feed.EventGameUpdated)
	if err != nil {
		return nil, err
	}

	// Vacating a game un-satisfies the aggregate threshold, so any match
	// sign-off that was in flight no longer holds.
	if match.HomeVerifiedBy != nil || match.AwayVerifiedBy != nil || match.MatchResult != league.ResultPending {
		if err := m.store.ClearVerification(matchID); err != nil {
			return nil, err
		}
		refreshed, err := m.store.GetMatch(matchID)
		if err != nil {
			return nil, err
		}
		m.feed.Publish(feed.Event{Type: feed.EventMatchUpdated, MatchID: matchID, Match: refreshed})
	}

	log.Info("Vacate accepted, game cleared", "matchID", matchID, "game", gameNumber, "side", side)
	return updated, nil
}

// DenyVacate keeps the finalized result and clears only the vacate flag.
func (m *Machine) DenyVacate(sess Session, matchID string, gameNumber int) (*league.Game, error) {
	_, game, side, err := m.load(sess, matchID, gameNumber)
	if err != nil {
		return nil, err
	}

	if game.State() != league.StateVacatePending {
		return nil, InvalidTransition("game %d has no pending vacate request", gameNumber)
	}
	if *game.VacateRequestedBy == sess.TeamID {
		return nil, IdentityViolation("a side cannot deny its own vacate request")
	}

	u := updateFrom(game)
	u.VacateRequestedBy = nil

	updated, err := m.apply(game, u, feed.EventGameUpdated)
	if err != nil {
		return nil, err
	}
	log.Info("Vacate denied, result stands", "matchID", matchID, "game", gameNumber, "side", side)
	return updated, nil
}

// updateFrom copies a game's current agreement fields into an update, for
// transitions that change only part of the row.
func updateFrom(g *league.Game) league.GameUpdate {
	return league.GameUpdate{
		WinnerTeamID:      g.WinnerTeamID,
		WinnerPlayerID:    g.WinnerPlayerID,
		BreakAndRun:       g.BreakAndRun,
		GoldenBreak:       g.GoldenBreak,
		ConfirmedByHome:   g.ConfirmedByHome,
		ConfirmedByAway:   g.ConfirmedByAway,
		ConfirmedAt:       g.ConfirmedAt,
		VacateRequestedBy: g.VacateRequestedBy,
	}
}
