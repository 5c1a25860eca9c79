/*
 * file: handlers.go
 * package: handlers
 * description:
 *     HTTP and WebSocket entry points: upgrading inbound connections into
 *     match sessions, and serving the archival stats endpoints the static
 *     frontend (out of scope here) would otherwise poll.
 */

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/juan10024/bombrelay-server/internal/core/ports"
	"github.com/juan10024/bombrelay-server/internal/match"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// IntakeHandler upgrades inbound connections and hands each off to its own
// match session, wired to a single coordinator's join-request intake.
type IntakeHandler struct {
	joinRequests chan<- match.JoinRequest
	log          *logrus.Entry
}

// NewIntakeHandler constructs an IntakeHandler bound to one coordinator.
func NewIntakeHandler(joinRequests chan<- match.JoinRequest, log *logrus.Entry) *IntakeHandler {
	return &IntakeHandler{joinRequests: joinRequests, log: log}
}

// Join upgrades the request to a WebSocket and runs its session to
// completion on its own goroutine.
func (h *IntakeHandler) Join(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	go match.Serve(conn, h.joinRequests, h.log)
}

// StatsHandler serves the archival stats HTTP endpoints.
type StatsHandler struct {
	repo ports.HistoryRepository
	log  *logrus.Entry
}

// NewStatsHandler constructs a StatsHandler backed by repo.
func NewStatsHandler(repo ports.HistoryRepository, log *logrus.Entry) *StatsHandler {
	return &StatsHandler{repo: repo, log: log}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// GetRanking returns the all-time ranking aggregated across archived matches.
func (h *StatsHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.repo.GetRanking(50)
	if err != nil {
		h.log.WithError(err).Error("failed to get ranking")
		respondWithError(w, http.StatusInternalServerError, "could not retrieve ranking")
		return
	}
	respondWithJSON(w, http.StatusOK, ranking)
}

// GetGeneralStats returns archive-wide totals.
func (h *StatsHandler) GetGeneralStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetGeneralStats()
	if err != nil {
		h.log.WithError(err).Error("failed to get general stats")
		respondWithError(w, http.StatusInternalServerError, "could not retrieve statistics")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// GetMatchHistory returns one archived match by id.
func (h *StatsHandler) GetMatchHistory(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchID"]
	if matchID == "" {
		respondWithError(w, http.StatusBadRequest, "match id is required")
		return
	}
	record, err := h.repo.GetMatchByID(matchID)
	if err != nil {
		h.log.WithError(err).WithField("match_id", matchID).Error("failed to get match history")
		respondWithError(w, http.StatusInternalServerError, "could not retrieve match history")
		return
	}
	if record == nil {
		respondWithError(w, http.StatusNotFound, "match not found")
		return
	}
	respondWithJSON(w, http.StatusOK, record)
}
