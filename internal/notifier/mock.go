package notifier

import (
	"sync"

	"github.com/poolhouse/scoretable/internal/league"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	SendResultNotificationFunc     func(match *league.Match, homeWins, awayWins int, dryRun bool) error
	SendTiebreakerNotificationFunc func(match *league.Match, dryRun bool) error

	// Call records
	ResultCalls []ResultCall
	TiebreakerCalls []*league.Match
}

// ResultCall holds the arguments for a call to SendResultNotification.
type ResultCall struct {
	Match    *league.Match
	HomeWins int
	AwayWins int
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResultCalls = nil
	m.TiebreakerCalls = nil
}

func (m *Mock) SendResultNotification(match *league.Match, homeWins, awayWins int, dryRun bool) error {
	m.mu.Lock()
	m.ResultCalls = append(m.ResultCalls, ResultCall{Match: match, HomeWins: homeWins, AwayWins: awayWins})
	m.mu.Unlock()
	if m.SendResultNotificationFunc != nil {
		return m.SendResultNotificationFunc(match, homeWins, awayWins, dryRun)
	}
	return nil
}

func (m *Mock) SendTiebreakerNotification(match *league.Match, dryRun bool) error {
	m.mu.Lock()
	m.TiebreakerCalls = append(m.TiebreakerCalls, match)
	m.mu.Unlock()
	if m.SendTiebreakerNotificationFunc != nil {
		return m.SendTiebreakerNotificationFunc(match, dryRun)
	}
	return nil
}
