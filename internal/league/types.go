package league

import (
	"database/sql"
	"sync"
)

// store handles all database operations for match scoring.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Side identifies which half of a match an actor belongs to.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// GameAction is the break/rack assignment for one side of a game.
type GameAction string

const (
	ActionBreaks GameAction = "breaks"
	ActionRacks  GameAction = "racks"
)

// GameType determines the number of regulation games in a match.
type GameType string

const (
	GameTypeEightBall GameType = "eight_ball"
	GameTypeNineBall  GameType = "nine_ball"
)

// MatchResult is the aggregate outcome of a match.
type MatchResult string

const (
	ResultPending MatchResult = "pending"
	ResultHomeWin MatchResult = "home_win"
	ResultAwayWin MatchResult = "away_win"
	ResultTie     MatchResult = "tie"
)

// GameState is derived from a game's agreement fields, never stored.
type GameState string

const (
	StateEmpty         GameState = "empty"
	StateProposed      GameState = "proposed"
	StateFinalized     GameState = "finalized"
	StateVacatePending GameState = "vacate_pending"
)

const (
	// TiebreakerGames is the maximum number of tiebreaker games materialized
	// when regulation play ends in a deadlock.
	TiebreakerGames = 3
	// TiebreakerWinsNeeded ends the tiebreaker phase for the side that reaches it.
	TiebreakerWinsNeeded = 2
)

// RegulationGames returns the fixed game count for a format.
func RegulationGames(t GameType) int {
	if t == GameTypeNineBall {
		return 25
	}
	return 18
}

// Game is one row per game number within a match.
type Game struct {
	ID                string      `json:"id"`
	MatchID           string      `json:"match_id"`
	GameNumber        int         `json:"game_number"`
	HomePlayerID      *string     `json:"home_player_id"`
	AwayPlayerID      *string     `json:"away_player_id"`
	HomePosition      *int        `json:"home_position"`
	AwayPosition      *int        `json:"away_position"`
	HomeAction        *GameAction `json:"home_action"`
	AwayAction        *GameAction `json:"away_action"`
	WinnerTeamID      *string     `json:"winner_team_id"`
	WinnerPlayerID    *string     `json:"winner_player_id"`
	BreakAndRun       bool        `json:"break_and_run"`
	GoldenBreak       bool        `json:"golden_break"`
	ConfirmedByHome   *string     `json:"confirmed_by_home"`
	ConfirmedByAway   *string     `json:"confirmed_by_away"`
	ConfirmedAt       *int64      `json:"confirmed_at"`
	VacateRequestedBy *string     `json:"vacate_requested_by"`
	IsTiebreaker      bool        `json:"is_tiebreaker"`
	Version           int64       `json:"version"`
	CreatedAt         int64       `json:"created_at"`
	UpdatedAt         int64       `json:"updated_at"`
}

// State derives the confirmation state from the agreement fields.
func (g *Game) State() GameState {
	switch {
	case g.VacateRequestedBy != nil:
		return StateVacatePending
	case g.ConfirmedByHome != nil && g.ConfirmedByAway != nil:
		return StateFinalized
	case g.WinnerTeamID != nil:
		return StateProposed
	default:
		return StateEmpty
	}
}

// Match owns the per-match aggregate: thresholds, result and the two
// independent verification markers.
type Match struct {
	ID                string      `json:"id"`
	LeagueID          string      `json:"league_id"`
	HomeTeamID        string      `json:"home_team_id"`
	AwayTeamID        string      `json:"away_team_id"`
	GameType          GameType    `json:"game_type"`
	HomeGamesToWin    int         `json:"home_games_to_win"`
	HomeGamesToTie    int         `json:"home_games_to_tie"`
	AwayGamesToWin    int         `json:"away_games_to_win"`
	AwayGamesToTie    int         `json:"away_games_to_tie"`
	MatchResult       MatchResult `json:"match_result"`
	HomeVerifiedBy    *string     `json:"home_verified_by"`
	AwayVerifiedBy    *string     `json:"away_verified_by"`
	TiebreakerStarted bool        `json:"tiebreaker_started"`
	CreatedAt         int64       `json:"created_at"`
	UpdatedAt         int64       `json:"updated_at"`
}

// SideOf maps a team to its side of the match, or "" for non-participants.
func (m *Match) SideOf(teamID string) Side {
	switch teamID {
	case m.HomeTeamID:
		return SideHome
	case m.AwayTeamID:
		return SideAway
	default:
		return ""
	}
}

// TeamFor is the inverse of SideOf.
func (m *Match) TeamFor(side Side) string {
	if side == SideHome {
		return m.HomeTeamID
	}
	return m.AwayTeamID
}

// LineupSlot is one position of a side's locked lineup. Read-only input to
// the scoring subsystem once locked.
type LineupSlot struct {
	MatchID  string `json:"match_id"`
	TeamID   string `json:"team_id"`
	Position int    `json:"position"`
	PlayerID string `json:"player_id"`
	Handicap int    `json:"handicap"`
	Locked   bool   `json:"locked"`
}

// PlayerInfo is the roster mirror consumed from the lineup collaborator.
type PlayerInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TeamID     string `json:"team_id"`
	SkillLevel int    `json:"skill_level"`
}

// GameUpdate is the full set of mutable agreement fields for a game. Every
// write replaces all of them in one statement, so clears are atomic by
// construction.
type GameUpdate struct {
	WinnerTeamID      *string
	WinnerPlayerID    *string
	BreakAndRun       bool
	GoldenBreak       bool
	ConfirmedByHome   *string
	ConfirmedByAway   *string
	ConfirmedAt       *int64
	VacateRequestedBy *string
}
