package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	Proposals          prometheus.Counter
	Confirmations      prometheus.Counter
	Denials            prometheus.Counter
	VacateRequests     prometheus.Counter
	GamesFinalized     prometheus.Counter
	WriteConflicts     prometheus.Counter
	TiebreakersStarted prometheus.Counter
	MatchesFinalized   prometheus.Counter
	FeedEvents         prometheus.Counter
	NotifSent          prometheus.Counter
	NotifFailed        prometheus.Counter
	TransitionDuration prometheus.Histogram
	StartupTimeSeconds prometheus.Gauge
}
