package http

import (
	"net/http"

	"github.com/poolhouse/scoretable/internal/config"
	"github.com/poolhouse/scoretable/internal/escalator"
	"github.com/poolhouse/scoretable/internal/feed"
	"github.com/poolhouse/scoretable/internal/league"
	"github.com/poolhouse/scoretable/internal/metrics"
	"github.com/poolhouse/scoretable/internal/queue"
	"github.com/poolhouse/scoretable/internal/scoring"
	"github.com/poolhouse/scoretable/internal/verifier"
)

func NewServer(store league.Store, machine *scoring.Machine, q *queue.Queue, esc *escalator.Escalator, ver *verifier.Verifier, feedN feed.Notifier, metricsSvc metrics.Metrics, metricsStore metrics.MetricsStore, metricsHandler http.Handler, cfg config.Config) *Server {
	server := &Server{
		Store:          store,
		Machine:        machine,
		Queue:          q,
		Escalator:      esc,
		Verifier:       ver,
		Feed:           feedN,
		Metrics:        metricsSvc,
		MetricsStore:   metricsStore,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("POST /clear", Chain(s.ClearStoreHandler(), paramsMiddleware))
	s.Router.Handle("GET /stats", Chain(s.StatsHandler(), paramsMiddleware))

	s.Router.Handle("GET /players", Chain(s.ListPlayersHandler(), paramsMiddleware))
	s.Router.Handle("POST /players", Chain(s.UpsertPlayersHandler(), paramsMiddleware))

	s.Router.Handle("GET /matches", Chain(s.ListMatchesHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches", Chain(s.CreateMatchHandler(), paramsMiddleware))
	s.Router.Handle("GET /matches/{matchID}", Chain(s.GetMatchHandler(), paramsMiddleware))
	s.Router.Handle("GET /matches/{matchID}/outcome", Chain(s.OutcomeHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{matchID}/lineup", Chain(s.LockLineupHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{matchID}/verify", Chain(s.VerifyHandler(), paramsMiddleware))

	s.Router.Handle("GET /matches/{matchID}/games", Chain(s.ListGamesHandler(), paramsMiddleware))
	s.Router.Handle("GET /matches/{matchID}/games/{gameNumber}", Chain(s.GetGameHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{matchID}/games/{gameNumber}/propose", Chain(s.ProposeHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{matchID}/games/{gameNumber}/confirm", Chain(s.ConfirmHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{matchID}/games/{gameNumber}/deny", Chain(s.DenyHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{matchID}/games/{gameNumber}/vacate", Chain(s.RequestVacateHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{matchID}/games/{gameNumber}/vacate/accept", Chain(s.AcceptVacateHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{matchID}/games/{gameNumber}/vacate/deny", Chain(s.DenyVacateHandler(), paramsMiddleware))

	s.Router.Handle("GET /matches/{matchID}/prompts", Chain(s.PromptsHandler(), paramsMiddleware))
	s.Router.Handle("POST /matches/{matchID}/prompts/{gameNumber}/dismiss", Chain(s.DismissPromptHandler(), paramsMiddleware))
	s.Router.Handle("GET /matches/{matchID}/feed", s.FeedHandler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
