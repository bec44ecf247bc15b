package league

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a new Store.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

// CreateMatch inserts a new match with pending result and no verification
// markers. Thresholds are precomputed by the handicap collaborator and stored
// as-is.
func (s *store) CreateMatch(m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	m.MatchResult = ResultPending
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO matches (id, league_id, home_team_id, away_team_id, game_type,
			home_games_to_win, home_games_to_tie, away_games_to_win, away_games_to_tie,
			match_result, tiebreaker_started, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		m.ID, m.LeagueID, m.HomeTeamID, m.AwayTeamID, m.GameType,
		m.HomeGamesToWin, m.HomeGamesToTie, m.AwayGamesToWin, m.AwayGamesToTie,
		m.MatchResult, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

func (s *store) GetMatch(matchID string) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, league_id, home_team_id, away_team_id, game_type,
			home_games_to_win, home_games_to_tie, away_games_to_win, away_games_to_tie,
			match_result, home_verified_by, away_verified_by, tiebreaker_started,
			created_at, updated_at
		FROM matches WHERE id = ?`, matchID)
	return scanMatch(row)
}

func (s *store) ListMatches() ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, league_id, home_team_id, away_team_id, game_type,
			home_games_to_win, home_games_to_tie, away_games_to_win, away_games_to_tie,
			match_result, home_verified_by, away_verified_by, tiebreaker_started,
			created_at, updated_at
		FROM matches ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			log.Error("Failed to scan match row", "error", err)
			continue
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func scanMatch(scanner interface{ Scan(...any) error }) (*Match, error) {
	var m Match
	var homeVerified, awayVerified sql.NullString
	var tiebreaker int

	err := scanner.Scan(
		&m.ID, &m.LeagueID, &m.HomeTeamID, &m.AwayTeamID, &m.GameType,
		&m.HomeGamesToWin, &m.HomeGamesToTie, &m.AwayGamesToWin, &m.AwayGamesToTie,
		&m.MatchResult, &homeVerified, &awayVerified, &tiebreaker,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if homeVerified.Valid {
		m.HomeVerifiedBy = &homeVerified.String
	}
	if awayVerified.Valid {
		m.AwayVerifiedBy = &awayVerified.String
	}
	m.TiebreakerStarted = tiebreaker != 0
	return &m, nil
}

// CreateGames inserts a batch of empty games in one transaction. Used when a
// lineup locks (regulation games) and when the tiebreaker phase starts.
func (s *store) CreateGames(games []*Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO match_games (id, match_id, game_number, home_player_id, away_player_id,
			home_position, away_position, home_action, away_action,
			break_and_run, golden_break, is_tiebreaker, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, 0, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, g := range games {
		g.CreatedAt = now
		g.UpdatedAt = now
		tb := 0
		if g.IsTiebreaker {
			tb = 1
		}
		_, err := stmt.Exec(g.ID, g.MatchID, g.GameNumber, g.HomePlayerID, g.AwayPlayerID,
			g.HomePosition, g.AwayPosition, g.HomeAction, g.AwayAction, tb, g.CreatedAt, g.UpdatedAt)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert game %d: %w", g.GameNumber, err)
		}
	}
	return tx.Commit()
}

const gameColumns = `id, match_id, game_number, home_player_id, away_player_id,
	home_position, away_position, home_action, away_action,
	winner_team_id, winner_player_id, break_and_run, golden_break,
	confirmed_by_home, confirmed_by_away, confirmed_at, vacate_requested_by,
	is_tiebreaker, version, created_at, updated_at`

func (s *store) GetGame(matchID string, gameNumber int) (*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT `+gameColumns+` FROM match_games WHERE match_id = ? AND game_number = ?`,
		matchID, gameNumber)
	return scanGame(row)
}

func (s *store) GetGames(matchID string) ([]*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT `+gameColumns+` FROM match_games WHERE match_id = ? ORDER BY game_number`,
		matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			log.Error("Failed to scan game row", "error", err)
			continue
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func scanGame(scanner interface{ Scan(...any) error }) (*Game, error) {
	var g Game
	var homePlayer, awayPlayer, homeAction, awayAction sql.NullString
	var winnerTeam, winnerPlayer, confirmedHome, confirmedAway, vacatedBy sql.NullString
	var homePos, awayPos, confirmedAt sql.NullInt64
	var bnr, gb, tb int

	err := scanner.Scan(
		&g.ID, &g.MatchID, &g.GameNumber, &homePlayer, &awayPlayer,
		&homePos, &awayPos, &homeAction, &awayAction,
		&winnerTeam, &winnerPlayer, &bnr, &gb,
		&confirmedHome, &confirmedAway, &confirmedAt, &vacatedBy,
		&tb, &g.Version, &g.CreatedAt, &g.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if homePlayer.Valid {
		g.HomePlayerID = &homePlayer.String
	}
	if awayPlayer.Valid {
		g.AwayPlayerID = &awayPlayer.String
	}
	if homePos.Valid {
		p := int(homePos.Int64)
		g.HomePosition = &p
	}
	if awayPos.Valid {
		p := int(awayPos.Int64)
		g.AwayPosition = &p
	}
	if homeAction.Valid {
		a := GameAction(homeAction.String)
		g.HomeAction = &a
	}
	if awayAction.Valid {
		a := GameAction(awayAction.String)
		g.AwayAction = &a
	}
	if winnerTeam.Valid {
		g.WinnerTeamID = &winnerTeam.String
	}
	if winnerPlayer.Valid {
		g.WinnerPlayerID = &winnerPlayer.String
	}
	if confirmedHome.Valid {
		g.ConfirmedByHome = &confirmedHome.String
	}
	if confirmedAway.Valid {
		g.ConfirmedByAway = &confirmedAway.String
	}
	if confirmedAt.Valid {
		g.ConfirmedAt = &confirmedAt.Int64
	}
	if vacatedBy.Valid {
		g.VacateRequestedBy = &vacatedBy.String
	}
	g.BreakAndRun = bnr != 0
	g.GoldenBreak = gb != 0
	g.IsTiebreaker = tb != 0
	return &g, nil
}

// ApplyGameUpdate writes all agreement fields in a single compare-and-set
// statement keyed on the row version, then reads back the canonical row
// inside the same transaction. A lost race returns ErrVersionConflict so the
// caller can refetch and re-evaluate instead of blindly retrying.
func (s *store) ApplyGameUpdate(matchID string, gameNumber int, expectedVersion int64, u GameUpdate) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}

	bnr, gb := 0, 0
	if u.BreakAndRun {
		bnr = 1
	}
	if u.GoldenBreak {
		gb = 1
	}

	res, err := tx.Exec(`
		UPDATE match_games SET
			winner_team_id = ?, winner_player_id = ?,
			break_and_run = ?, golden_break = ?,
			confirmed_by_home = ?, confirmed_by_away = ?, confirmed_at = ?,
			vacate_requested_by = ?,
			version = version + 1, updated_at = ?
		WHERE match_id = ? AND game_number = ? AND version = ?`,
		u.WinnerTeamID, u.WinnerPlayerID, bnr, gb,
		u.ConfirmedByHome, u.ConfirmedByAway, u.ConfirmedAt,
		u.VacateRequestedBy, time.Now().Unix(),
		matchID, gameNumber, expectedVersion,
	)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if affected == 0 {
		// Distinguish a stale version from a missing row.
		var exists int
		err := tx.QueryRow(
			`SELECT COUNT(1) FROM match_games WHERE match_id = ? AND game_number = ?`,
			matchID, gameNumber).Scan(&exists)
		tx.Rollback()
		if err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrVersionConflict
	}

	row := tx.QueryRow(
		`SELECT `+gameColumns+` FROM match_games WHERE match_id = ? AND game_number = ?`,
		matchID, gameNumber)
	game, err := scanGame(row)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return game, nil
}

// SetVerification records one side's match sign-off and returns the updated
// match. Setting the same side twice is an idempotent overwrite.
func (s *store) SetVerification(matchID string, side Side, memberID string) (*Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	column := "home_verified_by"
	if side == SideAway {
		column = "away_verified_by"
	}
	res, err := s.db.Exec(
		`UPDATE matches SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		memberID, time.Now().Unix(), matchID)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}

	row := s.db.QueryRow(`
		SELECT id, league_id, home_team_id, away_team_id, game_type,
			home_games_to_win, home_games_to_tie, away_games_to_win, away_games_to_tie,
			match_result, home_verified_by, away_verified_by, tiebreaker_started,
			created_at, updated_at
		FROM matches WHERE id = ?`, matchID)
	return scanMatch(row)
}

// ClearVerification resets both markers and the aggregate result. Called when
// a finalized game is vacated after match verification began.
func (s *store) ClearVerification(matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE matches SET home_verified_by = NULL, away_verified_by = NULL,
			match_result = ?, updated_at = ? WHERE id = ?`,
		ResultPending, time.Now().Unix(), matchID)
	return err
}

func (s *store) SetMatchResult(matchID string, result MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`UPDATE matches SET match_result = ?, updated_at = ? WHERE id = ?`,
		result, time.Now().Unix(), matchID)
	return err
}

func (s *store) SetTiebreakerStarted(matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`UPDATE matches SET tiebreaker_started = 1, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), matchID)
	return err
}

// LockLineup writes one side's lineup and marks it locked. A locked lineup
// is read-only from then on.
func (s *store) LockLineup(matchID, teamID string, slots []LineupSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	var locked int
	err = tx.QueryRow(
		`SELECT COUNT(1) FROM match_lineups WHERE match_id = ? AND team_id = ? AND locked = 1`,
		matchID, teamID).Scan(&locked)
	if err != nil {
		tx.Rollback()
		return err
	}
	if locked > 0 {
		tx.Rollback()
		return ErrLineupLocked
	}

	if _, err := tx.Exec(
		`DELETE FROM match_lineups WHERE match_id = ? AND team_id = ?`,
		matchID, teamID); err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO match_lineups (match_id, team_id, position, player_id, handicap, locked)
		VALUES (?, ?, ?, ?, ?, 1)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, slot := range slots {
		if _, err := stmt.Exec(matchID, teamID, slot.Position, slot.PlayerID, slot.Handicap); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert lineup slot %d: %w", slot.Position, err)
		}
	}
	return tx.Commit()
}

func (s *store) GetLineup(matchID, teamID string) ([]LineupSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT match_id, team_id, position, player_id, handicap, locked
		FROM match_lineups WHERE match_id = ? AND team_id = ? ORDER BY position`,
		matchID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []LineupSlot
	for rows.Next() {
		var slot LineupSlot
		var locked int
		if err := rows.Scan(&slot.MatchID, &slot.TeamID, &slot.Position, &slot.PlayerID, &slot.Handicap, &locked); err != nil {
			return nil, err
		}
		slot.Locked = locked != 0
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *store) UpsertPlayers(players []PlayerInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO players (id, name, team_id, skill_level) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			team_id = excluded.team_id,
			skill_level = excluded.skill_level;`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range players {
		if _, err := stmt.Exec(p.ID, p.Name, p.TeamID, p.SkillLevel); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *store) GetPlayers(playerIDs []string) ([]PlayerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(playerIDs) == 0 {
		return []PlayerInfo{}, nil
	}

	query := `SELECT id, name, team_id, skill_level FROM players WHERE id IN (?` +
		strings.Repeat(",?", len(playerIDs)-1) + `)`

	args := make([]any, len(playerIDs))
	for i, id := range playerIDs {
		args[i] = id
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []PlayerInfo{}
	for rows.Next() {
		var p PlayerInfo
		if err := rows.Scan(&p.ID, &p.Name, &p.TeamID, &p.SkillLevel); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *store) GetAllPlayers() ([]PlayerInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, name, team_id, skill_level FROM players ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []PlayerInfo{}
	for rows.Next() {
		var p PlayerInfo
		if err := rows.Scan(&p.ID, &p.Name, &p.TeamID, &p.SkillLevel); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Clear wipes all tables. Test and tooling helper.
func (s *store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"match_games", "match_lineups", "matches", "players", "metrics"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			log.Error("Failed to clear table", "table", table, "error", err)
		}
	}
}
