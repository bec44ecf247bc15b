package feed

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/poolhouse/scoretable/internal/metrics"
)

const subscriberBuffer = 16

// Hub is an in-process fan-out of match mutations. Sends never block: a
// subscriber that falls behind misses events and is expected to re-sync from
// the store, which is the single source of truth anyway.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[chan Event]struct{}
	metrics metrics.Metrics
}

var _ Notifier = (*Hub)(nil)

// NewHub creates a new Hub.
func NewHub(metricsSvc metrics.Metrics) *Hub {
	return &Hub{
		subs:    make(map[string]map[chan Event]struct{}),
		metrics: metricsSvc,
	}
}

// Subscribe registers interest in all Game/Match mutations for one match.
// The returned cancel func must be called exactly once.
func (h *Hub) Subscribe(matchID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[matchID] == nil {
		h.subs[matchID] = make(map[chan Event]struct{})
	}
	h.subs[matchID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[matchID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, matchID)
			}
		}
		h.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the event's match.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := h.subs[ev.MatchID]
	if len(subs) == 0 {
		return
	}
	if h.metrics != nil {
		h.metrics.IncFeedEvents()
	}
	for ch := range subs {
		select {
		case ch <- ev:
		default:
			log.Warn("Dropping feed event for slow subscriber", "matchID", ev.MatchID, "type", ev.Type)
		}
	}
}
