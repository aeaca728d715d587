package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/match3duel/internal/protocol"
	"github.com/mcoot/match3duel/internal/services/registry"
)

// client is one authenticated connection. The read pump dispatches frames to
// the relay controller; the write pump is the only writer to the socket.
type client struct {
	gateway *Gateway
	socket  *websocket.Conn
	out     *Outbox
	conn    *registry.Conn
	logger  *slog.Logger

	cleanup sync.Once
}

// run blocks until either pump stops, then releases the player
func (c *client) run(ctx context.Context) {
	defer c.close(ctx)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return c.readPump(groupCtx) })
	group.Go(func() error { return c.writePump(groupCtx) })

	err := group.Wait()
	if websocket.IsUnexpectedCloseError(errors.Unwrap(err), websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Warn("connection closed unexpectedly", slog.String("error", err.Error()))
		return
	}
	c.logger.Debug("connection closed", slog.Any("cause", err))
}

// close runs disconnect cleanup exactly once
func (c *client) close(ctx context.Context) {
	c.cleanup.Do(func() {
		c.out.Close()
		c.gateway.controller.Disconnect(context.WithoutCancel(ctx), c.conn)
	})
}

func (c *client) readPump(ctx context.Context) error {
	handler := c.gateway.controller.HandlerFor(c.conn)
	for {
		frameType, data, err := c.socket.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if frameType != websocket.TextMessage {
			c.drop(errors.New("not a text frame"))
			continue
		}

		msg, err := protocol.DecodeClient(data)
		if err != nil {
			c.drop(err)
			continue
		}
		c.gateway.metrics.MessagesProcessed.WithLabelValues(msg.Kind()).Inc()
		msg.Dispatch(ctx, handler)
	}
}

// writePump drains the outbox onto the socket. Closing the socket on the way
// out unblocks the read pump.
func (c *client) writePump(ctx context.Context) error {
	defer c.socket.Close()
	for {
		msg, err := c.out.Next(ctx)
		if err != nil {
			c.gateway.writeClose(c.socket)
			return err
		}
		if err := c.gateway.write(c.socket, msg); err != nil {
			return fmt.Errorf("write %s: %w", msg.Kind(), err)
		}
	}
}

func (c *client) drop(err error) {
	c.gateway.metrics.MessagesDropped.Inc()
	c.logger.Debug("dropping client frame", slog.String("error", err.Error()))
}
