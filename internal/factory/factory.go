package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/match3duel/internal/api"
	"github.com/mcoot/match3duel/internal/dependencies/clock"
	"github.com/mcoot/match3duel/internal/dependencies/random"
	"github.com/mcoot/match3duel/internal/metrics"
	"github.com/mcoot/match3duel/internal/services/matchmaking"
	"github.com/mcoot/match3duel/internal/services/rating"
	"github.com/mcoot/match3duel/internal/services/registry"
	"github.com/mcoot/match3duel/internal/services/relay"
	"github.com/mcoot/match3duel/internal/services/session"
	"github.com/mcoot/match3duel/internal/storage"
	"github.com/mcoot/match3duel/internal/storage/memory"
	redisstorage "github.com/mcoot/match3duel/internal/storage/redis"
	sqlitestorage "github.com/mcoot/match3duel/internal/storage/sqlite"
	"github.com/mcoot/match3duel/internal/web"
	"github.com/mcoot/match3duel/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeSQLite = "sqlite"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	RatingService *rating.Service
	Registry      *registry.Registry
	Queue         *matchmaking.Queue
	Directory     *session.Directory
	Controller    *relay.Controller
	Gateway       *ws.Gateway
	Metrics       *metrics.Metrics

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "sqlite" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// SQLiteConfig holds the database location (optional for "sqlite")
	// If nil, sqlitestorage.DefaultConfig() is used
	SQLiteConfig *sqlitestorage.Config
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SessionConfig controls match timing (optional)
	// If zero value, defaults to session.DefaultConfig()
	SessionConfig session.Config
	// GatewayConfig bounds websocket connections (optional)
	// If zero value, defaults to ws.DefaultConfig()
	GatewayConfig ws.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sessionCfg := cfg.SessionConfig
	if sessionCfg.Duration == 0 {
		sessionCfg = session.DefaultConfig()
	}
	gatewayCfg := cfg.GatewayConfig
	if gatewayCfg.ReadLimit == 0 {
		gatewayCfg = ws.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), sessionCfg, gatewayCfg, logger), nil
}

// newStorage creates the backend selected by cfg.StorageType
func newStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeSQLite:
		sqliteCfg := sqlitestorage.DefaultConfig()
		if cfg.SQLiteConfig != nil {
			sqliteCfg = *cfg.SQLiteConfig
		}
		store, err := sqlitestorage.New(ctx, sqliteCfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'sqlite' or 'redis'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, sessionCfg session.Config, gatewayCfg ws.Config, logger *slog.Logger) *App {
	m := metrics.New()
	ratingService := rating.New(store, clk, rnd, logger)
	reg := registry.New(logger)
	queue := matchmaking.New(reg, logger)
	directory := session.NewDirectory()
	controller := relay.NewController(reg, queue, directory, ratingService, clk, rnd, m, sessionCfg, logger)
	gateway := ws.New(controller, ratingService, m, gatewayCfg, logger)

	app := &App{
		Storage:       store,
		Clock:         clk,
		Random:        rnd,
		RatingService: ratingService,
		Registry:      reg,
		Queue:         queue,
		Directory:     directory,
		Controller:    controller,
		Gateway:       gateway,
		Metrics:       m,
		logger:        logger,
	}
	m.Observe(app.Sources())
	return app
}

// Sources reports the live sizes of the registry, queue and directory
func (a *App) Sources() metrics.Sources {
	return metrics.Sources{
		ConnectedPlayers: a.Registry.Count,
		QueuedPlayers:    a.Queue.Len,
		ActiveSessions:   a.Directory.CountActive,
	}
}

// Handler combines the REST API with the websocket and metrics endpoints
func (a *App) Handler() http.Handler {
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:        a.logger,
		RatingService: a.RatingService,
		Sources:       a.Sources(),
	})
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:  a.logger,
		Gateway: a.Gateway,
		Metrics: a.Metrics.Handler(),
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)
	return mux
}

// Close ends every connection and session, then releases storage
func (a *App) Close() error {
	a.Gateway.Close()
	a.Controller.Close()
	return a.Storage.Close()
}
