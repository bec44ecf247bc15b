package scoring

import (
	"fmt"

	"github.com/poolhouse/scoretable/internal/league"
)

// Session is the explicit identity capability passed into every state-machine
// entry point. It comes from the session collaborator; the machine never
// pulls identity from ambient state.
type Session struct {
	MemberID string      `json:"member_id"`
	TeamID   string      `json:"team_id"`
	Side     league.Side `json:"side"`
}

// Proposal is one side's claimed result for a game.
type Proposal struct {
	WinnerTeamID   string `json:"winner_team_id"`
	WinnerPlayerID string `json:"winner_player_id"`
	BreakAndRun    bool   `json:"break_and_run"`
	GoldenBreak    bool   `json:"golden_break"`
}

// Kind classifies protocol rejections so the UI can distinguish "nothing
// happened because it's already done" from "your action was rejected".
type Kind string

const (
	KindInvalidTransition   Kind = "invalid_transition"
	KindIdentityViolation   Kind = "identity_violation"
	KindConstraintViolation Kind = "constraint_violation"
	KindWriteConflict       Kind = "write_conflict"
)

// RuleError is a structured protocol rejection: kind plus human message.
// For write conflicts, Game carries the canonical post-conflict row so the
// client can re-render instead of retrying blindly.
type RuleError struct {
	Kind    Kind
	Message string
	Game    *league.Game
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// InvalidTransition builds a rejection for an action attempted from a state
// that does not permit it.
func InvalidTransition(format string, args ...any) *RuleError {
	return &RuleError{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

// IdentityViolation builds a rejection for an actor attempting an action
// reserved for the other side.
func IdentityViolation(format string, args ...any) *RuleError {
	return &RuleError{Kind: KindIdentityViolation, Message: fmt.Sprintf(format, args...)}
}

// ConstraintViolation builds a rejection for a write that would break a data
// invariant.
func ConstraintViolation(format string, args ...any) *RuleError {
	return &RuleError{Kind: KindConstraintViolation, Message: fmt.Sprintf(format, args...)}
}
