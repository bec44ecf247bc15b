package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Proposals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoretable_game_proposals_total",
			Help: "The total number of game result proposals.",
		}),
		Confirmations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoretable_game_confirmations_total",
			Help: "The total number of game result confirmations.",
		}),
		Denials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoretable_game_denials_total",
			Help: "The total number of denied game result proposals.",
		}),
		VacateRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoretable_vacate_requests_total",
			Help: "The total number of vacate requests on finalized games.",
		}),
		GamesFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoretable_games_finalized_total",
			Help: "The total number of games finalized by both sides.",
		}),
		WriteConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoretable_write_conflicts_total",
			Help: "The total number of stale-state write conflicts on game rows.",
		}),
		TiebreakersStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoretable_tiebreakers_started_total",
			Help: "The total number of matches escalated to a tiebreaker phase.",
		}),
		MatchesFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoretable_matches_finalized_total",
			Help: "The total number of matches verified by both sides.",
		}),
		FeedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoretable_feed_events_total",
			Help: "The total number of change-feed events published to subscribers.",
		}),
		NotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoretable_notifications_sent_total",
			Help: "The total number of notifications successfully sent.",
		}),
		NotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scoretable_notifications_failed_total",
			Help: "The total number of notifications that failed to send.",
		}),
		TransitionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoretable_transition_duration_seconds",
			Help:    "The duration of individual game state transitions.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scoretable_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.Proposals,
		s.Confirmations,
		s.Denials,
		s.VacateRequests,
		s.GamesFinalized,
		s.WriteConflicts,
		s.TiebreakersStarted,
		s.MatchesFinalized,
		s.FeedEvents,
		s.NotifSent,
		s.NotifFailed,
		s.TransitionDuration,
		s.StartupTimeSeconds,
	)
	return s
}

func (s *Service) IncProposals()          { s.Proposals.Inc() }
func (s *Service) IncConfirmations()      { s.Confirmations.Inc() }
func (s *Service) IncDenials()            { s.Denials.Inc() }
func (s *Service) IncVacateRequests()     { s.VacateRequests.Inc() }
func (s *Service) IncGamesFinalized()     { s.GamesFinalized.Inc() }
func (s *Service) IncWriteConflicts()     { s.WriteConflicts.Inc() }
func (s *Service) IncTiebreakersStarted() { s.TiebreakersStarted.Inc() }
func (s *Service) IncMatchesFinalized()   { s.MatchesFinalized.Inc() }
func (s *Service) IncFeedEvents()         { s.FeedEvents.Inc() }
func (s *Service) IncNotifSent()          { s.NotifSent.Inc() }
func (s *Service) IncNotifFailed()        { s.NotifFailed.Inc() }

func (s *Service) ObserveTransitionDuration(seconds float64) {
	s.TransitionDuration.Observe(seconds)
}

func (s *Service) SetStartupTime(seconds float64) {
	s.StartupTimeSeconds.Set(seconds)
}
