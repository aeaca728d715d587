package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/match3duel/internal/protocol"
)

const closeGrace = time.Second

// GameClient speaks the realtime protocol over a single websocket
type GameClient struct {
	conn *websocket.Conn
}

// DialGame opens a websocket to the server's realtime endpoint
func DialGame(ctx context.Context, wsURL string) (*GameClient, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", wsURL, err)
	}
	return &GameClient{conn: conn}, nil
}

// Login sends the handshake and waits for the server's verdict
func (g *GameClient) Login(ctx context.Context, username string) (protocol.AuthAccepted, error) {
	if err := g.Send(protocol.Login{Username: username}); err != nil {
		return protocol.AuthAccepted{}, err
	}

	msg, err := g.Next(ctx)
	if err != nil {
		return protocol.AuthAccepted{}, err
	}
	switch m := msg.(type) {
	case protocol.AuthAccepted:
		return m, nil
	case protocol.AuthRejected:
		return protocol.AuthAccepted{}, fmt.Errorf("login rejected: %s", m.Reason)
	default:
		return protocol.AuthAccepted{}, fmt.Errorf("unexpected %s during login", msg.Kind())
	}
}

// Send writes one client message
func (g *GameClient) Send(msg protocol.ClientMessage) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}
	if err := g.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", msg.Kind(), err)
	}
	return nil
}

// Next blocks until the server sends a message. Cancelling ctx closes the
// connection, since gorilla reads cannot be interrupted any other way.
func (g *GameClient) Next(ctx context.Context) (protocol.ServerMessage, error) {
	stop := context.AfterFunc(ctx, func() { _ = g.conn.Close() })
	defer stop()

	_, data, err := g.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read: %w", err)
	}
	return protocol.DecodeServer(data)
}

// Close says goodbye with a normal close frame and releases the socket
func (g *GameClient) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = g.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	return g.conn.Close()
}
