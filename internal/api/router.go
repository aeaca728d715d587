package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/match3duel/internal/api/apierr"
	"github.com/mcoot/match3duel/internal/api/handler"
	"github.com/mcoot/match3duel/internal/api/middleware"
	"github.com/mcoot/match3duel/internal/api/response"
	"github.com/mcoot/match3duel/internal/metrics"
	"github.com/mcoot/match3duel/internal/services/rating"
)

// DefaultStoreTimeout bounds each request's storage calls
const DefaultStoreTimeout = 5 * time.Second

const apiPrefix = "/api/v1"

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	RatingService *rating.Service
	Sources       metrics.Sources

	// StoreTimeout defaults to DefaultStoreTimeout
	StoreTimeout time.Duration
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	storeTimeout := cfg.StoreTimeout
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}

	// Create handlers
	profileHandler := handler.NewProfileHandler(cfg.RatingService)
	statsHandler := handler.NewStatsHandler(cfg.Sources, cfg.RatingService)

	// Routes hang off the root router with full paths so a known path with
	// the wrong method reaches MethodNotAllowedHandler
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.StoreDeadline(storeTimeout))
	r.NotFoundHandler = http.HandlerFunc(routeNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	r.HandleFunc(apiPrefix+"/leaderboard", profileHandler.Leaderboard).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/profiles/{username}", profileHandler.Get).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/stats", statsHandler.Get).Methods(http.MethodGet)
	r.HandleFunc(apiPrefix+"/health", healthHandler).Methods(http.MethodGet)

	return r
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	handler.WriteError(w, apierr.NewRouteNotFoundError())
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	handler.WriteError(w, apierr.NewMethodNotAllowedError())
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
