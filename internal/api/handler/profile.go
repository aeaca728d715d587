package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/match3duel/internal/api/request"
	"github.com/mcoot/match3duel/internal/api/response"
	"github.com/mcoot/match3duel/internal/services/rating"
)

// ProfileHandler handles profile and leaderboard endpoints
type ProfileHandler struct {
	ratings *rating.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(ratings *rating.Service) *ProfileHandler {
	return &ProfileHandler{
		ratings: ratings,
	}
}

// Get handles GET /api/v1/profiles/{username}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	profile, err := h.ratings.ProfileByUsername(r.Context(), username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(profile))
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *ProfileHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := request.Limit(r, rating.MaxLeaderboardLimit)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	entries, err := h.ratings.Leaderboard(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(entries))
}
