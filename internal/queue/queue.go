package queue

import (
	"github.com/charmbracelet/log"
	"github.com/poolhouse/scoretable/internal/league"
	"github.com/poolhouse/scoretable/internal/scoring"
)

// New creates a Queue. With autoConfirm set, Sync bypasses the queue and
// confirms pending proposals immediately; used by casual configurations
// where the opposing side is trusted.
func New(store league.Store, confirmer Confirmer, autoConfirm bool) *Queue {
	return &Queue{
		store:       store,
		confirmer:   confirmer,
		autoConfirm: autoConfirm,
		pending:     make(map[string][]Prompt),
	}
}

func key(matchID string, side league.Side) string {
	return matchID + "/" + string(side)
}

// Sync rebuilds the client's pending prompts from the persisted game rows.
// A game counts as pending when it is Proposed and this side has not yet
// confirmed. Prompts already queued keep their FIFO position; newly proposed
// games append in game-number order. A previously dismissed prompt whose game
// is still Proposed re-surfaces here.
func (q *Queue) Sync(sess scoring.Session, matchID string) ([]Prompt, error) {
	match, err := q.store.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	side := match.SideOf(sess.TeamID)
	if side == "" {
		return nil, scoring.IdentityViolation("team %s is not a participant in this match", sess.TeamID)
	}

	games, err := q.store.GetGames(matchID)
	if err != nil {
		return nil, err
	}

	pendingGames := make(map[int]*league.Game)
	var order []int
	for _, g := range games {
		if g.State() != league.StateProposed {
			continue
		}
		confirmed := g.ConfirmedByHome
		if side == league.SideAway {
			confirmed = g.ConfirmedByAway
		}
		if confirmed != nil {
			// Our own proposal; the other side decides.
			continue
		}
		pendingGames[g.GameNumber] = g
		order = append(order, g.GameNumber)
	}

	if q.autoConfirm {
		for _, n := range order {
			if _, err := q.confirmer.Confirm(sess, matchID, n); err != nil {
				log.Error("Auto-confirm failed", "matchID", matchID, "game", n, "error", err)
			}
		}
		return nil, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	k := key(matchID, side)
	var next []Prompt
	seen := make(map[int]bool)
	for _, p := range q.pending[k] {
		if _, still := pendingGames[p.GameNumber]; still {
			next = append(next, p)
			seen[p.GameNumber] = true
		}
	}
	for _, n := range order {
		if !seen[n] {
			next = append(next, q.promptFor(pendingGames[n]))
		}
	}
	q.pending[k] = next

	out := make([]Prompt, len(next))
	copy(out, next)
	return out, nil
}

// Next returns the single prompt a client should display, preserving FIFO
// order. The second return is false when nothing is pending.
func (q *Queue) Next(sess scoring.Session, matchID string, side league.Side) (Prompt, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.pending[key(matchID, side)]
	if len(list) == 0 {
		return Prompt{}, false
	}
	return list[0], true
}

// Dismiss drops a prompt without touching the game, which stays Proposed.
// The prompt re-surfaces on the next Sync if the game is still pending.
func (q *Queue) Dismiss(sess scoring.Session, matchID string, side league.Side, gameNumber int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	k := key(matchID, side)
	list := q.pending[k]
	for i, p := range list {
		if p.GameNumber == gameNumber {
			q.pending[k] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// promptFor builds the display payload for a pending game, resolving the
// proposed winner's display name from the roster mirror.
func (q *Queue) promptFor(g *league.Game) Prompt {
	p := Prompt{
		MatchID:     g.MatchID,
		GameNumber:  g.GameNumber,
		BreakAndRun: g.BreakAndRun,
		GoldenBreak: g.GoldenBreak,
	}
	if g.WinnerPlayerID == nil {
		return p
	}
	p.WinnerName = *g.WinnerPlayerID
	if players, err := q.store.GetPlayers([]string{*g.WinnerPlayerID}); err == nil && len(players) == 1 {
		p.WinnerName = players[0].Name
	}
	return p
}
