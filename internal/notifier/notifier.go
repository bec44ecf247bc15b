package notifier

import "github.com/poolhouse/scoretable/internal/league"

// Notifier defines a high-level interface for announcing scoring milestones.
// This decouples the rest of the application from the specific notification
// provider (e.g., Slack).
type Notifier interface {
	// SendResultNotification announces a fully verified match outcome.
	SendResultNotification(match *league.Match, homeWins, awayWins int, dryRun bool) error
	// SendTiebreakerNotification announces that regulation ended in a
	// deadlock and tiebreaker games were created.
	SendTiebreakerNotification(match *league.Match, dryRun bool) error
}
