package metrics

import "sync"

// MockMetrics is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type MockMetrics struct {
	mu sync.Mutex

	ProposalsCount          int
	ConfirmationsCount      int
	DenialsCount            int
	VacateRequestsCount     int
	GamesFinalizedCount     int
	WriteConflictsCount     int
	TiebreakersStartedCount int
	MatchesFinalizedCount   int
	FeedEventsCount         int
	NotifSentCount          int
	NotifFailedCount        int
	TransitionDurations     []float64
	StartupTime             float64
}

// NewMock creates a new mock Metrics.
func NewMock() *MockMetrics {
	return &MockMetrics{}
}

func (m *MockMetrics) IncProposals()          { m.mu.Lock(); m.ProposalsCount++; m.mu.Unlock() }
func (m *MockMetrics) IncConfirmations()      { m.mu.Lock(); m.ConfirmationsCount++; m.mu.Unlock() }
func (m *MockMetrics) IncDenials()            { m.mu.Lock(); m.DenialsCount++; m.mu.Unlock() }
func (m *MockMetrics) IncVacateRequests()     { m.mu.Lock(); m.VacateRequestsCount++; m.mu.Unlock() }
func (m *MockMetrics) IncGamesFinalized()     { m.mu.Lock(); m.GamesFinalizedCount++; m.mu.Unlock() }
func (m *MockMetrics) IncWriteConflicts()     { m.mu.Lock(); m.WriteConflictsCount++; m.mu.Unlock() }
func (m *MockMetrics) IncTiebreakersStarted() { m.mu.Lock(); m.TiebreakersStartedCount++; m.mu.Unlock() }
func (m *MockMetrics) IncMatchesFinalized()   { m.mu.Lock(); m.MatchesFinalizedCount++; m.mu.Unlock() }
func (m *MockMetrics) IncFeedEvents()         { m.mu.Lock(); m.FeedEventsCount++; m.mu.Unlock() }
func (m *MockMetrics) IncNotifSent()          { m.mu.Lock(); m.NotifSentCount++; m.mu.Unlock() }
func (m *MockMetrics) IncNotifFailed()        { m.mu.Lock(); m.NotifFailedCount++; m.mu.Unlock() }

func (m *MockMetrics) ObserveTransitionDuration(seconds float64) {
	m.mu.Lock()
	m.TransitionDurations = append(m.TransitionDurations, seconds)
	m.mu.Unlock()
}

func (m *MockMetrics) SetStartupTime(seconds float64) {
	m.mu.Lock()
	m.StartupTime = seconds
	m.mu.Unlock()
}
