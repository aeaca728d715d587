package relay

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/match3duel/internal/dependencies/clock"
	"github.com/mcoot/match3duel/internal/dependencies/random"
	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/protocol"
	"github.com/mcoot/match3duel/internal/services/matchmaking"
	"github.com/mcoot/match3duel/internal/services/rating"
	"github.com/mcoot/match3duel/internal/services/registry"
	"github.com/mcoot/match3duel/internal/services/session"
)

// Error texts sent to clients
const (
	msgAlreadyInMatch     = "already in a match"
	msgLeaderboardFailure = "could not load leaderboard"
)

// Controller routes authenticated players' messages to the queue, their
// session or the rating service, and forms sessions from queued pairs
type Controller struct {
	registry  *registry.Registry
	queue     *matchmaking.Queue
	directory *session.Directory
	ratings   *rating.Service
	clock     clock.Clock
	random    random.Random
	observer  session.Observer
	cfg       session.Config
	logger    *slog.Logger

	// sessions run their timers under baseCtx rather than the context of
	// the connection whose JoinQueue happened to complete the pair
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewController creates a controller and installs it as the queue's pair
// callback
func NewController(
	registry *registry.Registry,
	queue *matchmaking.Queue,
	directory *session.Directory,
	ratings *rating.Service,
	clock clock.Clock,
	random random.Random,
	observer session.Observer,
	cfg session.Config,
	logger *slog.Logger,
) *Controller {
	baseCtx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		registry:  registry,
		queue:     queue,
		directory: directory,
		ratings:   ratings,
		clock:     clock,
		random:    random,
		observer:  observer,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "relay")),
		baseCtx:   baseCtx,
		cancel:    cancel,
	}
	queue.OnPair(c.Pair)
	return c
}

// Close stops every running session timer
func (c *Controller) Close() {
	c.cancel()
}

// Connect registers a freshly authenticated connection. If the player was
// already connected elsewhere, that older connection's queue entry and
// session are cleaned up first.
func (c *Controller) Connect(ctx context.Context, id model.PlayerID, sink registry.Sink) *registry.Conn {
	if _, ok := c.registry.Get(id); ok {
		c.logger.Info("player reconnected, dropping previous connection state",
			slog.String("player_id", string(id)),
		)
		c.release(id)
	}
	return c.registry.Add(id, sink)
}

// Disconnect runs the cleanup for a closed connection. It does nothing if
// conn has already been replaced by a newer login.
func (c *Controller) Disconnect(ctx context.Context, conn *registry.Conn) {
	if !c.registry.RemoveConn(conn) {
		c.logger.Debug("replaced connection closed", slog.String("player_id", string(conn.ID())))
		return
	}
	c.release(conn.ID())
	c.logger.Info("player disconnected", slog.String("player_id", string(conn.ID())))
}

// release removes id from the queue and ends its session, telling the
// opponent it disconnected
func (c *Controller) release(id model.PlayerID) {
	c.queue.RemoveIfPresent(id)
	if sess, ok := c.directory.SessionFor(id); ok {
		if err := sess.Disconnect(id); err != nil {
			c.logger.Debug("session disconnect failed",
				slog.String("player_id", string(id)),
				slog.String("error", err.Error()),
			)
		}
	}
	c.directory.Unregister(id)
}

// Pair forms a session from two players taken off the queue. If either has
// gone, the other goes back to the head of the queue.
func (c *Controller) Pair(ctx context.Context, a, b model.PlayerID) {
	connA, okA := c.registry.Get(a)
	connB, okB := c.registry.Get(b)
	switch {
	case !okA && !okB:
		return
	case !okA:
		c.requeue(ctx, b)
		return
	case !okB:
		c.requeue(ctx, a)
		return
	}

	id := model.SessionID(c.random.NewID())
	sess := session.New(id, connA, connB, c.ratings, c.clock, c.observer, c.cfg, c.logger)

	// Register before Start so the players' first in-game messages resolve
	if err := c.directory.Register(sess); err != nil {
		c.logger.Warn("failed to register session",
			slog.String("session_id", string(id)),
			slog.String("error", err.Error()),
		)
		c.unpair(ctx, connA, connB)
		return
	}

	// A partner that disconnected after the lookup above may have been
	// released before the session was registered
	if !connA.Alive() || !connB.Alive() {
		for _, conn := range []*registry.Conn{connA, connB} {
			if current, ok := c.directory.SessionFor(conn.ID()); ok && current == sess {
				c.directory.Unregister(conn.ID())
			}
		}
		for _, conn := range []*registry.Conn{connA, connB} {
			if conn.Alive() {
				c.requeue(ctx, conn.ID())
			}
		}
		return
	}

	if err := sess.Start(c.baseCtx); err != nil {
		level := slog.LevelError
		if errors.Is(err, model.ErrSessionTerminated) {
			level = slog.LevelInfo
		}
		c.logger.Log(ctx, level, "failed to start session",
			slog.String("session_id", string(id)),
			slog.String("error", err.Error()),
		)
	}
}

// unpair handles a pair that could not be registered because one side is
// still in a live session. That side is told so and the other side goes
// back to the head of the queue.
func (c *Controller) unpair(ctx context.Context, conns ...*registry.Conn) {
	for _, conn := range conns {
		if sess, ok := c.directory.SessionFor(conn.ID()); ok && sess.State() != session.StateTerminated {
			conn.Send(protocol.Error{Message: msgAlreadyInMatch})
			continue
		}
		if conn.Alive() {
			c.requeue(ctx, conn.ID())
		}
	}
}

func (c *Controller) requeue(ctx context.Context, id model.PlayerID) {
	c.logger.Info("pair partner unavailable, requeueing", slog.String("player_id", string(id)))
	c.queue.Requeue(ctx, id)
}

// HandlerFor returns the message handler for one authenticated connection.
// Once conn is replaced or closed the handler ignores everything.
func (c *Controller) HandlerFor(conn *registry.Conn) protocol.ClientHandler {
	return &playerHandler{c: c, conn: conn, id: conn.ID()}
}

type playerHandler struct {
	c    *Controller
	conn *registry.Conn
	id   model.PlayerID
}

// Ensure playerHandler handles every client message
var _ protocol.ClientHandler = (*playerHandler)(nil)

// stale reports whether the handler's connection is no longer the player's
// registered one
func (h *playerHandler) stale(kind string) bool {
	if h.conn.Alive() {
		return false
	}
	h.c.logger.Debug("message from replaced connection ignored",
		slog.String("player_id", string(h.id)),
		slog.String("message_type", kind),
	)
	return true
}

func (h *playerHandler) send(msg protocol.ServerMessage) {
	h.conn.Send(msg)
}

// withSession runs fn against the player's session, ignoring the message if
// there is none. Rejections from the session are logged and dropped.
func (h *playerHandler) withSession(kind string, fn func(*session.Session) error) {
	if h.stale(kind) {
		return
	}
	sess, err := h.c.directory.Lookup(h.id)
	if err != nil {
		h.c.logger.Debug("message outside a session ignored",
			slog.String("player_id", string(h.id)),
			slog.String("message_type", kind),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := fn(sess); err != nil {
		h.c.logger.Debug("message rejected by session",
			slog.String("player_id", string(h.id)),
			slog.String("session_id", string(sess.ID())),
			slog.String("message_type", kind),
			slog.String("error", err.Error()),
		)
	}
}

func (h *playerHandler) OnLogin(ctx context.Context, msg protocol.Login) {
	h.c.logger.Debug("login after authentication ignored", slog.String("player_id", string(h.id)))
}

func (h *playerHandler) OnJoinQueue(ctx context.Context, msg protocol.JoinQueue) {
	if h.stale(msg.Kind()) {
		return
	}
	if sess, ok := h.c.directory.SessionFor(h.id); ok {
		switch sess.State() {
		case session.StateAwaitingStart, session.StateActive:
			h.send(protocol.Error{Message: msgAlreadyInMatch})
			return
		case session.StateOver, session.StateRematchPending:
			// Looking for a new opponent abandons the finished match
			_ = sess.Leave(h.id)
		}
		h.c.directory.Unregister(h.id)
	}
	h.c.queue.Enqueue(ctx, h.id)
}

func (h *playerHandler) OnSwapGems(ctx context.Context, msg protocol.SwapGems) {
	h.withSession(msg.Kind(), func(s *session.Session) error { return s.RelaySwap(h.id, msg) })
}

func (h *playerHandler) OnReportScore(ctx context.Context, msg protocol.ReportScore) {
	h.withSession(msg.Kind(), func(s *session.Session) error { return s.ReportScore(h.id, msg.Score) })
}

func (h *playerHandler) OnSendGarbage(ctx context.Context, msg protocol.SendGarbage) {
	h.withSession(msg.Kind(), func(s *session.Session) error { return s.RelayGarbage(h.id, msg) })
}

func (h *playerHandler) OnActivateSpecial(ctx context.Context, msg protocol.ActivateSpecial) {
	h.withSession(msg.Kind(), func(s *session.Session) error { return s.RelaySpecial(h.id, msg) })
}

func (h *playerHandler) OnActivateBooster(ctx context.Context, msg protocol.ActivateBooster) {
	h.withSession(msg.Kind(), func(s *session.Session) error { return s.RelayBooster(h.id, msg) })
}

func (h *playerHandler) OnRequestRematch(ctx context.Context, msg protocol.RequestRematch) {
	h.withSession(msg.Kind(), func(s *session.Session) error { return s.RequestRematch(h.id) })
}

func (h *playerHandler) OnLeaveGame(ctx context.Context, msg protocol.LeaveGame) {
	if h.stale(msg.Kind()) {
		return
	}
	if h.c.queue.RemoveIfPresent(h.id) {
		h.c.logger.Info("player left queue", slog.String("player_id", string(h.id)))
	}
	h.withSession(msg.Kind(), func(s *session.Session) error { return s.Leave(h.id) })
	h.c.directory.Unregister(h.id)
}

func (h *playerHandler) OnFetchLeaderboard(ctx context.Context, msg protocol.FetchLeaderboard) {
	if h.stale(msg.Kind()) {
		return
	}
	entries, err := h.c.ratings.Leaderboard(ctx, rating.DefaultLeaderboardLimit)
	if err != nil {
		h.c.logger.Error("failed to load leaderboard",
			slog.String("player_id", string(h.id)),
			slog.String("error", err.Error()),
		)
		h.send(protocol.Error{Message: msgLeaderboardFailure})
		return
	}

	rows := make([]protocol.LeaderboardRow, len(entries))
	for i, e := range entries {
		rows[i] = protocol.LeaderboardRow{Username: e.Username, Elo: e.Rating}
	}
	h.send(protocol.LeaderboardData{Players: rows})
}
