package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/poolhouse/scoretable/internal/database"
	"github.com/poolhouse/scoretable/internal/league"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := map[string]string{
		"DB_NAME": "scoretable.db",
	}
	if v, ok := os.LookupEnv("DB_NAME"); ok {
		config["DB_NAME"] = v
	}
	config["TURSO_PRIMARY_URL"] = os.Getenv("TURSO_PRIMARY_URL")
	config["TURSO_AUTH_TOKEN"] = os.Getenv("TURSO_AUTH_TOKEN")
	return config
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	db, teardown, err := database.InitDB(cfg["DB_NAME"], cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	store := league.New(db)
	startTime := time.Now()

	// Two five-player rosters.
	var players []league.PlayerInfo
	var homeSlots, awaySlots []league.LineupSlot
	for i := 1; i <= 5; i++ {
		homeID := fmt.Sprintf("seed-home-%d", i)
		awayID := fmt.Sprintf("seed-away-%d", i)
		players = append(players,
			league.PlayerInfo{ID: homeID, Name: fmt.Sprintf("Home Player %d", i), TeamID: "seed-team-home", SkillLevel: 3 + i%3},
			league.PlayerInfo{ID: awayID, Name: fmt.Sprintf("Away Player %d", i), TeamID: "seed-team-away", SkillLevel: 3 + (i+1)%3},
		)
		homeSlots = append(homeSlots, league.LineupSlot{Position: i, PlayerID: homeID, Handicap: 3 + i%3})
		awaySlots = append(awaySlots, league.LineupSlot{Position: i, PlayerID: awayID, Handicap: 3 + (i+1)%3})
	}
	if err := store.UpsertPlayers(players); err != nil {
		log.Fatalf("Failed to seed players: %s", err)
	}
	log.Info("Seeded players", "count", len(players))

	match := &league.Match{
		ID:             uuid.NewString(),
		LeagueID:       "seed-league",
		HomeTeamID:     "seed-team-home",
		AwayTeamID:     "seed-team-away",
		GameType:       league.GameTypeEightBall,
		HomeGamesToWin: 10, HomeGamesToTie: 9,
		AwayGamesToWin: 10, AwayGamesToTie: 9,
		MatchResult: league.ResultPending,
	}
	if err := store.CreateMatch(match); err != nil {
		log.Fatalf("Failed to seed match: %s", err)
	}
	if err := store.LockLineup(match.ID, match.HomeTeamID, homeSlots); err != nil {
		log.Fatalf("Failed to lock home lineup: %s", err)
	}
	if err := store.LockLineup(match.ID, match.AwayTeamID, awaySlots); err != nil {
		log.Fatalf("Failed to lock away lineup: %s", err)
	}

	games, err := league.BuildRegulationGames(match, homeSlots, awaySlots)
	if err != nil {
		log.Fatalf("Failed to build regulation games: %s", err)
	}
	if err := store.CreateGames(games); err != nil {
		log.Fatalf("Failed to seed games: %s", err)
	}

	log.Info("Seeded demo match", "matchID", match.ID, "games", len(games), "duration", time.Since(startTime))
}
