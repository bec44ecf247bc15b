package feed

import "github.com/poolhouse/scoretable/internal/league"

// EventType identifies the kind of mutation carried by a feed event.
type EventType string

const (
	EventGameCreated       EventType = "game_created"
	EventGameUpdated       EventType = "game_updated"
	EventMatchUpdated      EventType = "match_updated"
	EventMatchFinalized    EventType = "match_finalized"
	EventTiebreakerStarted EventType = "tiebreaker_started"
)

// Event is a single Game or Match mutation pushed to subscribed clients.
type Event struct {
	Type       EventType     `json:"type"`
	MatchID    string        `json:"match_id"`
	GameNumber int           `json:"game_number,omitempty"`
	Game       *league.Game  `json:"game,omitempty"`
	Match      *league.Match `json:"match,omitempty"`
}

// Notifier pushes game-table mutations to both clients so their local views
// converge. Transport is an implementation choice; the in-process hub plus
// the websocket endpoint is ours.
type Notifier interface {
	Publish(ev Event)
	Subscribe(matchID string) (<-chan Event, func())
}
