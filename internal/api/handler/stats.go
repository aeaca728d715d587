package handler

import (
	"net/http"

	"github.com/mcoot/match3duel/internal/api/response"
	"github.com/mcoot/match3duel/internal/metrics"
	"github.com/mcoot/match3duel/internal/services/rating"
)

// StatsHandler reports live server activity
type StatsHandler struct {
	sources metrics.Sources
	ratings *rating.Service
}

func NewStatsHandler(sources metrics.Sources, ratings *rating.Service) *StatsHandler {
	return &StatsHandler{
		sources: sources,
		ratings: ratings,
	}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.ratings.ProfileCount(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.Stats{
		ConnectedPlayers: h.sources.ConnectedPlayers(),
		QueuedPlayers:    h.sources.QueuedPlayers(),
		ActiveSessions:   h.sources.ActiveSessions(),
		TotalProfiles:    profiles,
	})
}
