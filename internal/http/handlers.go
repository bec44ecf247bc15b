package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/poolhouse/scoretable/internal/feed"
	"github.com/poolhouse/scoretable/internal/league"
	"github.com/poolhouse/scoretable/internal/metrics"
	"github.com/poolhouse/scoretable/internal/queue"
	"github.com/poolhouse/scoretable/internal/scoring"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) ClearStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Received request to clear entire store")
		s.Store.Clear()
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Store cleared!")
		log.Info("Store cleared successfully")
	}
}

// StatsHandler serves the durable counters, which survive restarts unlike
// the Prometheus registry.
func (s *Server) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.MetricsStore.GetAll()
		if err != nil {
			http.Error(w, "Failed to get stats", http.StatusInternalServerError)
			log.Error("Failed to get stats from store", "error", err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) ListPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Store.GetAllPlayers()
		if err != nil {
			http.Error(w, "Failed to get players", http.StatusInternalServerError)
			log.Error("Failed to get players from store", "error", err)
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

// UpsertPlayersHandler ingests the roster mirror from the lineup collaborator.
func (s *Server) UpsertPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var players []league.PlayerInfo
		if err := json.NewDecoder(r.Body).Decode(&players); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if err := s.Store.UpsertPlayers(players); err != nil {
			http.Error(w, "Failed to save players", http.StatusInternalServerError)
			log.Error("Failed to upsert players", "error", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Upserted %d players", len(players))
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := s.Store.ListMatches()
		if err != nil {
			http.Error(w, "Failed to get matches", http.StatusInternalServerError)
			log.Error("Failed to get matches from store", "error", err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

// CreateMatchHandler registers a match with the thresholds supplied by the
// handicap calculator. This subsystem never recomputes them.
func (s *Server) CreateMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var match league.Match
		if err := json.NewDecoder(r.Body).Decode(&match); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if match.HomeTeamID == "" || match.AwayTeamID == "" || match.HomeTeamID == match.AwayTeamID {
			http.Error(w, "A match needs two distinct teams", http.StatusBadRequest)
			return
		}
		if match.ID == "" {
			match.ID = uuid.NewString()
		}
		if match.LeagueID == "" {
			match.LeagueID = s.Cfg.LeagueID
		}
		if match.GameType == "" {
			match.GameType = league.GameTypeEightBall
		}
		match.MatchResult = league.ResultPending

		if err := s.Store.CreateMatch(&match); err != nil {
			http.Error(w, "Failed to create match", http.StatusInternalServerError)
			log.Error("Failed to create match", "error", err)
			return
		}
		log.Info("Match created", "matchID", match.ID, "gameType", match.GameType)
		writeJSON(w, http.StatusCreated, &match)
	}
}

func (s *Server) GetMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match, err := s.Store.GetMatch(r.PathValue("matchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
	}
}

// OutcomeHandler reports the derived aggregate outcome without writing
// anything; clients render the verification dialog from it.
func (s *Server) OutcomeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcome, err := s.Verifier.ComputeOutcome(r.PathValue("matchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, outcome)
	}
}

type lockLineupRequest struct {
	TeamID string              `json:"team_id"`
	Slots  []league.LineupSlot `json:"slots"`
}

// LockLineupHandler locks one side's lineup. Once both sides are locked the
// full regulation game sequence is materialized in one shot.
func (s *Server) LockLineupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.PathValue("matchID")
		var req lockLineupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		match, err := s.Store.GetMatch(matchID)
		if err != nil {
			writeError(w, err)
			return
		}
		if match.SideOf(req.TeamID) == "" {
			http.Error(w, "Team is not a participant in this match", http.StatusForbidden)
			return
		}

		if err := s.Store.LockLineup(matchID, req.TeamID, req.Slots); err != nil {
			writeError(w, err)
			return
		}
		log.Info("Lineup locked", "matchID", matchID, "teamID", req.TeamID, "slots", len(req.Slots))

		home, err := s.Store.GetLineup(matchID, match.HomeTeamID)
		if err != nil {
			writeError(w, err)
			return
		}
		away, err := s.Store.GetLineup(matchID, match.AwayTeamID)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(home) == 0 || len(away) == 0 {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "Lineup locked, waiting for the other side")
			return
		}

		existing, err := s.Store.GetGames(matchID)
		if err != nil {
			writeError(w, err)
			return
		}
		if len(existing) > 0 {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "Lineup locked")
			return
		}

		games, err := league.BuildRegulationGames(match, home, away)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if err := s.Store.CreateGames(games); err != nil {
			http.Error(w, "Failed to create games", http.StatusInternalServerError)
			log.Error("Failed to create regulation games", "error", err, "matchID", matchID)
			return
		}
		for _, g := range games {
			s.Feed.Publish(feed.Event{Type: feed.EventGameCreated, MatchID: matchID, GameNumber: g.GameNumber, Game: g})
		}
		log.Info("Regulation games created", "matchID", matchID, "count", len(games))
		writeJSON(w, http.StatusCreated, games)
	}
}

func (s *Server) ListGamesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := s.Store.GetGames(r.PathValue("matchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func (s *Server) GetGameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID, gameNumber, err := gamePath(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		game, err := s.Store.GetGame(matchID, gameNumber)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, game)
	}
}

func (s *Server) ProposeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID, gameNumber, err := gamePath(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var proposal scoring.Proposal
		if err := json.NewDecoder(r.Body).Decode(&proposal); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		game, err := s.Machine.Propose(sessionFrom(r), matchID, gameNumber, proposal)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, game)
	}
}

func (s *Server) ConfirmHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID, gameNumber, err := gamePath(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		game, err := s.Machine.Confirm(sessionFrom(r), matchID, gameNumber)
		if err != nil {
			writeError(w, err)
			return
		}
		s.MetricsStore.Increment(metrics.KeyGamesFinalized)

		// A finalization can complete regulation play; check for a deadlock.
		if _, err := s.Escalator.Evaluate(matchID, isDryRunFromContext(r)); err != nil {
			log.Error("Tiebreaker evaluation failed", "error", err, "matchID", matchID)
		}
		writeJSON(w, http.StatusOK, game)
	}
}

func (s *Server) DenyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID, gameNumber, err := gamePath(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		game, err := s.Machine.Deny(sessionFrom(r), matchID, gameNumber)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, game)
	}
}

func (s *Server) RequestVacateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID, gameNumber, err := gamePath(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		game, err := s.Machine.RequestVacate(sessionFrom(r), matchID, gameNumber)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, game)
	}
}

func (s *Server) AcceptVacateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID, gameNumber, err := gamePath(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		game, err := s.Machine.AcceptVacate(sessionFrom(r), matchID, gameNumber)
		if err != nil {
			writeError(w, err)
			return
		}
		s.MetricsStore.Increment(metrics.KeyGamesVacated)
		writeJSON(w, http.StatusOK, game)
	}
}

func (s *Server) DenyVacateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID, gameNumber, err := gamePath(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		game, err := s.Machine.DenyVacate(sessionFrom(r), matchID, gameNumber)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, game)
	}
}

func (s *Server) VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match, err := s.Verifier.Verify(sessionFrom(r), r.PathValue("matchID"), isDryRunFromContext(r))
		if err != nil {
			writeError(w, err)
			return
		}
		if match.MatchResult != league.ResultPending {
			s.MetricsStore.Increment(metrics.KeyMatchesFinalized)
		}
		writeJSON(w, http.StatusOK, match)
	}
}

// PromptsHandler syncs and returns the caller's pending confirmation prompts.
func (s *Server) PromptsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prompts, err := s.Queue.Sync(sessionFrom(r), r.PathValue("matchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if prompts == nil {
			prompts = []queue.Prompt{}
		}
		writeJSON(w, http.StatusOK, prompts)
	}
}

func (s *Server) DismissPromptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID, gameNumber, err := gamePath(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sess := sessionFrom(r)
		match, err := s.Store.GetMatch(matchID)
		if err != nil {
			writeError(w, err)
			return
		}
		side := match.SideOf(sess.TeamID)
		if side == "" {
			http.Error(w, "Team is not a participant in this match", http.StatusForbidden)
			return
		}
		s.Queue.Dismiss(sess, matchID, side, gameNumber)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Dismissed")
	}
}

// FeedHandler upgrades to a websocket and streams game and match mutations
// for one match.
func (s *Server) FeedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed.ServeWS(s.Feed, r.PathValue("matchID"), w, r)
	}
}

func gamePath(r *http.Request) (string, int, error) {
	gameNumber, err := strconv.Atoi(r.PathValue("gameNumber"))
	if err != nil || gameNumber < 1 {
		return "", 0, fmt.Errorf("invalid game number %q", r.PathValue("gameNumber"))
	}
	return r.PathValue("matchID"), gameNumber, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

// ruleErrorResponse is the wire shape for protocol rejections. For write
// conflicts, game carries the canonical row so the client re-renders from
// authoritative state instead of retrying blindly.
type ruleErrorResponse struct {
	Kind    scoring.Kind `json:"kind"`
	Message string       `json:"message"`
	Game    *league.Game `json:"game,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	var ruleErr *scoring.RuleError
	if errors.As(err, &ruleErr) {
		status := http.StatusConflict
		switch ruleErr.Kind {
		case scoring.KindIdentityViolation:
			status = http.StatusForbidden
		case scoring.KindConstraintViolation:
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, ruleErrorResponse{Kind: ruleErr.Kind, Message: ruleErr.Message, Game: ruleErr.Game})
		return
	}
	switch {
	case errors.Is(err, league.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, league.ErrLineupLocked):
		http.Error(w, "Lineup is already locked", http.StatusConflict)
	default:
		log.Error("Request failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
