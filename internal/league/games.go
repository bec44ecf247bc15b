package league

import (
	"fmt"

	"github.com/google/uuid"
)

// BuildRegulationGames materializes the fixed regulation sequence for a match
// from both locked lineups. Players rotate through lineup positions in game
// number order; the break alternates starting with the home side.
func BuildRegulationGames(m *Match, home, away []LineupSlot) ([]*Game, error) {
	if len(home) == 0 || len(away) == 0 {
		return nil, fmt.Errorf("both lineups must be locked before games are created")
	}

	count := RegulationGames(m.GameType)
	games := make([]*Game, 0, count)
	for n := 1; n <= count; n++ {
		games = append(games, buildGame(m, n, false,
			home[(n-1)%len(home)], away[(n-1)%len(away)]))
	}
	return games, nil
}

// BuildTiebreakerGames materializes the tiebreaker slots at the next game
// number range. Players come straight from the locked lineups by fixed
// position mapping; there is no new lineup round.
func BuildTiebreakerGames(m *Match, home, away []LineupSlot) ([]*Game, error) {
	if len(home) < TiebreakerGames || len(away) < TiebreakerGames {
		return nil, fmt.Errorf("lineups too short for tiebreaker: need %d positions", TiebreakerGames)
	}

	base := RegulationGames(m.GameType)
	games := make([]*Game, 0, TiebreakerGames)
	for i := 0; i < TiebreakerGames; i++ {
		g := buildGame(m, base+i+1, true, home[i], away[i])
		games = append(games, g)
	}
	return games, nil
}

func buildGame(m *Match, number int, tiebreaker bool, home, away LineupSlot) *Game {
	homeBreaks := number%2 == 1
	homeAction, awayAction := ActionBreaks, ActionRacks
	if !homeBreaks {
		homeAction, awayAction = ActionRacks, ActionBreaks
	}
	homePos, awayPos := home.Position, away.Position
	return &Game{
		ID:           uuid.NewString(),
		MatchID:      m.ID,
		GameNumber:   number,
		HomePlayerID: &home.PlayerID,
		AwayPlayerID: &away.PlayerID,
		HomePosition: &homePos,
		AwayPosition: &awayPos,
		HomeAction:   &homeAction,
		AwayAction:   &awayAction,
		IsTiebreaker: tiebreaker,
	}
}

// WinsFor counts finalized games won by a team, optionally restricted to
// tiebreaker games.
func WinsFor(games []*Game, teamID string, tiebreakerOnly bool) int {
	wins := 0
	for _, g := range games {
		if tiebreakerOnly && !g.IsTiebreaker {
			continue
		}
		if g.State() != StateFinalized {
			continue
		}
		if g.WinnerTeamID != nil && *g.WinnerTeamID == teamID {
			wins++
		}
	}
	return wins
}
