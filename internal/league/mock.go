package league

import "sync"

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	CreateMatchFunc          func(m *Match) error
	GetMatchFunc             func(matchID string) (*Match, error)
	ListMatchesFunc          func() ([]*Match, error)
	CreateGamesFunc          func(games []*Game) error
	GetGameFunc              func(matchID string, gameNumber int) (*Game, error)
	GetGamesFunc             func(matchID string) ([]*Game, error)
	ApplyGameUpdateFunc      func(matchID string, gameNumber int, expectedVersion int64, u GameUpdate) (*Game, error)
	SetVerificationFunc      func(matchID string, side Side, memberID string) (*Match, error)
	ClearVerificationFunc    func(matchID string) error
	SetMatchResultFunc       func(matchID string, result MatchResult) error
	SetTiebreakerStartedFunc func(matchID string) error
	LockLineupFunc           func(matchID, teamID string, slots []LineupSlot) error
	GetLineupFunc            func(matchID, teamID string) ([]LineupSlot, error)
	UpsertPlayersFunc        func(players []PlayerInfo) error
	GetPlayersFunc           func(playerIDs []string) ([]PlayerInfo, error)
	GetAllPlayersFunc        func() ([]PlayerInfo, error)

	// Call records
	CreateGamesCalls     [][]*Game
	ApplyGameUpdateCalls []ApplyGameUpdateCall
	SetVerificationCalls []SetVerificationCall
	SetMatchResultCalls  []SetMatchResultCall
	ClearVerificationCalls []string
	SetTiebreakerStartedCalls []string
}

// ApplyGameUpdateCall holds the arguments for a call to ApplyGameUpdate.
type ApplyGameUpdateCall struct {
	MatchID         string
	GameNumber      int
	ExpectedVersion int64
	Update          GameUpdate
}

// SetVerificationCall holds the arguments for a call to SetVerification.
type SetVerificationCall struct {
	MatchID  string
	Side     Side
	MemberID string
}

// SetMatchResultCall holds the arguments for a call to SetMatchResult.
type SetMatchResultCall struct {
	MatchID string
	Result  MatchResult
}

// NewMock creates a new mock Store.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateGamesCalls = nil
	m.ApplyGameUpdateCalls = nil
	m.SetVerificationCalls = nil
	m.SetMatchResultCalls = nil
	m.ClearVerificationCalls = nil
	m.SetTiebreakerStartedCalls = nil
}

func (m *MockStore) CreateMatch(match *Match) error {
	if m.CreateMatchFunc != nil {
		return m.CreateMatchFunc(match)
	}
	return nil
}

func (m *MockStore) GetMatch(matchID string) (*Match, error) {
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(matchID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) ListMatches() ([]*Match, error) {
	if m.ListMatchesFunc != nil {
		return m.ListMatchesFunc()
	}
	return nil, nil
}

func (m *MockStore) CreateGames(games []*Game) error {
	m.mu.Lock()
	m.CreateGamesCalls = append(m.CreateGamesCalls, games)
	m.mu.Unlock()
	if m.CreateGamesFunc != nil {
		return m.CreateGamesFunc(games)
	}
	return nil
}

func (m *MockStore) GetGame(matchID string, gameNumber int) (*Game, error) {
	if m.GetGameFunc != nil {
		return m.GetGameFunc(matchID, gameNumber)
	}
	return nil, ErrNotFound
}

func (m *MockStore) GetGames(matchID string) ([]*Game, error) {
	if m.GetGamesFunc != nil {
		return m.GetGamesFunc(matchID)
	}
	return nil, nil
}

func (m *MockStore) ApplyGameUpdate(matchID string, gameNumber int, expectedVersion int64, u GameUpdate) (*Game, error) {
	m.mu.Lock()
	m.ApplyGameUpdateCalls = append(m.ApplyGameUpdateCalls, ApplyGameUpdateCall{
		MatchID: matchID, GameNumber: gameNumber, ExpectedVersion: expectedVersion, Update: u,
	})
	m.mu.Unlock()
	if m.ApplyGameUpdateFunc != nil {
		return m.ApplyGameUpdateFunc(matchID, gameNumber, expectedVersion, u)
	}
	return nil, ErrNotFound
}

func (m *MockStore) SetVerification(matchID string, side Side, memberID string) (*Match, error) {
	m.mu.Lock()
	m.SetVerificationCalls = append(m.SetVerificationCalls, SetVerificationCall{MatchID: matchID, Side: side, MemberID: memberID})
	m.mu.Unlock()
	if m.SetVerificationFunc != nil {
		return m.SetVerificationFunc(matchID, side, memberID)
	}
	return nil, ErrNotFound
}

func (m *MockStore) ClearVerification(matchID string) error {
	m.mu.Lock()
	m.ClearVerificationCalls = append(m.ClearVerificationCalls, matchID)
	m.mu.Unlock()
	if m.ClearVerificationFunc != nil {
		return m.ClearVerificationFunc(matchID)
	}
	return nil
}

func (m *MockStore) SetMatchResult(matchID string, result MatchResult) error {
	m.mu.Lock()
	m.SetMatchResultCalls = append(m.SetMatchResultCalls, SetMatchResultCall{MatchID: matchID, Result: result})
	m.mu.Unlock()
	if m.SetMatchResultFunc != nil {
		return m.SetMatchResultFunc(matchID, result)
	}
	return nil
}

func (m *MockStore) SetTiebreakerStarted(matchID string) error {
	m.mu.Lock()
	m.SetTiebreakerStartedCalls = append(m.SetTiebreakerStartedCalls, matchID)
	m.mu.Unlock()
	if m.SetTiebreakerStartedFunc != nil {
		return m.SetTiebreakerStartedFunc(matchID)
	}
	return nil
}

func (m *MockStore) LockLineup(matchID, teamID string, slots []LineupSlot) error {
	if m.LockLineupFunc != nil {
		return m.LockLineupFunc(matchID, teamID, slots)
	}
	return nil
}

func (m *MockStore) GetLineup(matchID, teamID string) ([]LineupSlot, error) {
	if m.GetLineupFunc != nil {
		return m.GetLineupFunc(matchID, teamID)
	}
	return nil, nil
}

func (m *MockStore) UpsertPlayers(players []PlayerInfo) error {
	if m.UpsertPlayersFunc != nil {
		return m.UpsertPlayersFunc(players)
	}
	return nil
}

func (m *MockStore) GetPlayers(playerIDs []string) ([]PlayerInfo, error) {
	if m.GetPlayersFunc != nil {
		return m.GetPlayersFunc(playerIDs)
	}
	return []PlayerInfo{}, nil
}

func (m *MockStore) GetAllPlayers() ([]PlayerInfo, error) {
	if m.GetAllPlayersFunc != nil {
		return m.GetAllPlayersFunc()
	}
	return []PlayerInfo{}, nil
}

func (m *MockStore) Clear() {}
