package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/match3duel/internal/middleware"
)

// RouterConfig holds configuration for the realtime router
type RouterConfig struct {
	Logger  *slog.Logger
	Gateway http.Handler
	Metrics http.Handler
}

// NewRouter serves the player websocket endpoint and the metrics scrape
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler))
	r.Use(middleware.Logging(cfg.Logger))

	r.Handle("/ws", cfg.Gateway).Methods(http.MethodGet)
	r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)

	return r
}
