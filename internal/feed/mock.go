package feed

import "sync"

// MockNotifier is a mock implementation of Notifier for testing.
// It is safe for concurrent use.
type MockNotifier struct {
	mu sync.Mutex

	PublishFunc func(ev Event)

	// Call records
	Published []Event
}

// NewMock creates a new mock Notifier.
func NewMock() *MockNotifier {
	return &MockNotifier{}
}

// Reset clears all call records.
func (m *MockNotifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = nil
}

func (m *MockNotifier) Publish(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, ev)
	if m.PublishFunc != nil {
		m.PublishFunc(ev)
	}
}

func (m *MockNotifier) Subscribe(matchID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)
	return ch, func() { close(ch) }
}

// Events returns a copy of the published events.
func (m *MockNotifier) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.Published))
	copy(out, m.Published)
	return out
}
