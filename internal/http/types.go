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

type Server struct {
	Store          league.Store
	Machine        *scoring.Machine
	Queue          *queue.Queue
	Escalator      *escalator.Escalator
	Verifier       *verifier.Verifier
	Feed           feed.Notifier
	Metrics        metrics.Metrics
	MetricsStore   metrics.MetricsStore
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         *http.ServeMux
}
