package league

import "errors"

var (
	// ErrNotFound is returned when a match, game or lineup does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when a game write loses a compare-and-set
	// race. The caller must refetch the canonical row and re-evaluate.
	ErrVersionConflict = errors.New("game version conflict")
	// ErrLineupLocked is returned when writing a lineup that is already locked.
	ErrLineupLocked = errors.New("lineup is locked")
)

// Store defines the interface for the game record store.
type Store interface {
	CreateMatch(m *Match) error
	GetMatch(matchID string) (*Match, error)
	ListMatches() ([]*Match, error)

	CreateGames(games []*Game) error
	GetGame(matchID string, gameNumber int) (*Game, error)
	GetGames(matchID string) ([]*Game, error)
	// ApplyGameUpdate performs a version-checked transactional write of all
	// agreement fields and returns the canonical post-write row.
	ApplyGameUpdate(matchID string, gameNumber int, expectedVersion int64, u GameUpdate) (*Game, error)

	SetVerification(matchID string, side Side, memberID string) (*Match, error)
	ClearVerification(matchID string) error
	SetMatchResult(matchID string, result MatchResult) error
	SetTiebreakerStarted(matchID string) error

	LockLineup(matchID, teamID string, slots []LineupSlot) error
	GetLineup(matchID, teamID string) ([]LineupSlot, error)

	UpsertPlayers(players []PlayerInfo) error
	GetPlayers(playerIDs []string) ([]PlayerInfo, error)
	GetAllPlayers() ([]PlayerInfo, error)

	Clear()
}
