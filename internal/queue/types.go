package queue

import (
	"sync"

	"github.com/poolhouse/scoretable/internal/league"
	"github.com/poolhouse/scoretable/internal/scoring"
)

// Prompt is one pending confirmation decision surfaced to a client. It
// carries everything the dialog renders; the underlying game row stays
// untouched until the client acts through the state machine.
type Prompt struct {
	MatchID     string `json:"match_id"`
	GameNumber  int    `json:"game_number"`
	WinnerName  string `json:"winner_name"`
	BreakAndRun bool   `json:"break_and_run"`
	GoldenBreak bool   `json:"golden_break"`
}

// Confirmer is the slice of the state machine the auto-confirm mode needs.
type Confirmer interface {
	Confirm(sess scoring.Session, matchID string, gameNumber int) (*league.Game, error)
}

// Queue serializes pending confirmation prompts per client so only one
// decision is presented at a time.
type Queue struct {
	store     league.Store
	confirmer Confirmer

	mu          sync.Mutex
	pending     map[string][]Prompt
	autoConfirm bool
}
