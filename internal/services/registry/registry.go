package registry

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/protocol"
)

// Sink accepts outbound messages for one connection. Deliver must not block
// on the network; the gateway's outbox queues and writes asynchronously.
type Sink interface {
	Deliver(msg protocol.ServerMessage) error
}

// Conn is the server-side handle for one authenticated player connection
type Conn struct {
	id     model.PlayerID
	sink   Sink
	alive  atomic.Bool
	logger *slog.Logger
}

func newConn(id model.PlayerID, sink Sink, logger *slog.Logger) *Conn {
	c := &Conn{id: id, sink: sink, logger: logger}
	c.alive.Store(true)
	return c
}

func (c *Conn) ID() model.PlayerID {
	return c.id
}

// Alive reports whether the handle is still the registered one for its player
func (c *Conn) Alive() bool {
	return c.alive.Load()
}

// Send enqueues msg for the player. It is fire-and-forget: a dead handle or
// a closed outbox is logged at debug level and otherwise ignored, and the
// gateway discovers the broken connection on its own.
func (c *Conn) Send(msg protocol.ServerMessage) {
	if !c.alive.Load() {
		c.logger.Debug("send to dead connection dropped",
			slog.String("player_id", string(c.id)),
			slog.String("message_type", msg.Kind()),
		)
		return
	}
	if err := c.sink.Deliver(msg); err != nil {
		c.logger.Debug("send failed",
			slog.String("player_id", string(c.id)),
			slog.String("message_type", msg.Kind()),
			slog.String("error", err.Error()),
		)
	}
}

// Registry maps player ids to their live connection
type Registry struct {
	mu     sync.RWMutex
	conns  map[model.PlayerID]*Conn
	logger *slog.Logger
}

// New creates an empty registry
func New(logger *slog.Logger) *Registry {
	return &Registry{
		conns:  make(map[model.PlayerID]*Conn),
		logger: logger.With(slog.String("component", "registry")),
	}
}

// Add registers sink as the connection for id and sends it Connected.
// A handle previously registered for id is replaced and marked dead.
func (r *Registry) Add(id model.PlayerID, sink Sink) *Conn {
	conn := newConn(id, sink, r.logger)

	r.mu.Lock()
	if stale, ok := r.conns[id]; ok {
		stale.alive.Store(false)
		r.logger.Info("replacing stale connection", slog.String("player_id", string(id)))
	}
	r.conns[id] = conn
	r.mu.Unlock()

	conn.Send(protocol.Connected{PlayerID: string(id)})
	return conn
}

// Remove unregisters id. It is a no-op when id is not registered.
func (r *Registry) Remove(id model.PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.conns[id]; ok {
		conn.alive.Store(false)
		delete(r.conns, id)
	}
}

// RemoveConn unregisters conn only if it is still the registered handle for
// its player, so a late cleanup cannot evict a newer connection
func (r *Registry) RemoveConn(conn *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.conns[conn.id]
	conn.alive.Store(false)
	if !ok || current != conn {
		return false
	}
	delete(r.conns, conn.id)
	return true
}

func (r *Registry) Get(id model.PlayerID) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// Send delivers msg to id, failing with ErrPlayerNotConnected when id has
// no registered connection
func (r *Registry) Send(id model.PlayerID, msg protocol.ServerMessage) error {
	conn, ok := r.Get(id)
	if !ok {
		return model.ErrPlayerNotConnected
	}
	conn.Send(msg)
	return nil
}

// Count returns the number of registered connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
