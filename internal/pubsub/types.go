package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	// EventMatchFinalized carries a fully verified match outcome to
	// standings and reporting consumers.
	EventMatchFinalized EventType = "match-finalized"
)

// FinalizedMatch is the payload published when both sides have verified the
// match. Consumers rebuild standings from it without reading our tables.
type FinalizedMatch struct {
	MatchID        string `msgpack:"match_id"`
	LeagueID       string `msgpack:"league_id"`
	HomeTeamID     string `msgpack:"home_team_id"`
	AwayTeamID     string `msgpack:"away_team_id"`
	Result         string `msgpack:"result"`
	HomeWins       int    `msgpack:"home_wins"`
	AwayWins       int    `msgpack:"away_wins"`
	WentToTiebreak bool   `msgpack:"went_to_tiebreak"`
	HomeVerifiedBy string `msgpack:"home_verified_by"`
	AwayVerifiedBy string `msgpack:"away_verified_by"`
}
