package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncProposals()
	IncConfirmations()
	IncDenials()
	IncVacateRequests()
	IncGamesFinalized()
	IncWriteConflicts()
	IncTiebreakersStarted()
	IncMatchesFinalized()
	IncFeedEvents()
	IncNotifSent()
	IncNotifFailed()
	ObserveTransitionDuration(seconds float64)
	SetStartupTime(seconds float64)
}

// MetricsStore persists coarse counters in the database so they survive
// restarts, independent of the Prometheus scrape lifecycle.
type MetricsStore interface {
	Increment(key string)
	GetAll() (map[string]int, error)
}
