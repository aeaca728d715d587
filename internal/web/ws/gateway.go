// Package ws accepts player websocket connections, runs the login handshake
// and bridges each authenticated connection to the relay controller.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/match3duel/internal/metrics"
	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/protocol"
	"github.com/mcoot/match3duel/internal/services/relay"
)

// Rejection reasons sent in AuthRejected
const (
	reasonEmptyUsername  = "Username must not be empty"
	reasonExpectedLogin  = "Expected Login message first"
	reasonInvalidMessage = "Invalid message format"
	reasonDatabase       = "Database error: "
)

// ProfileSource resolves a login username to a stored profile
type ProfileSource interface {
	GetOrCreateProfile(ctx context.Context, username string) (*model.Profile, error)
}

// rejectedError is a handshake failure the client is told about
type rejectedError struct {
	reason string
}

func (e *rejectedError) Error() string {
	return "login rejected: " + e.reason
}

// Gateway is the http.Handler behind /ws
type Gateway struct {
	controller *relay.Controller
	profiles   ProfileSource
	metrics    *metrics.Metrics
	upgrader   websocket.Upgrader
	cfg        Config
	logger     *slog.Logger

	// cancelling ctx ends every open connection
	ctx    context.Context
	cancel context.CancelFunc
}

func New(controller *relay.Controller, profiles ProfileSource, m *metrics.Metrics, cfg Config, logger *slog.Logger) *Gateway {
	ctx, cancel := context.WithCancel(context.Background())
	return &Gateway{
		controller: controller,
		profiles:   profiles,
		metrics:    m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients connect from anywhere
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		cfg:    cfg,
		logger: logger.With(slog.String("component", "ws-gateway")),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Close ends every open connection. Their disconnect cleanup still runs.
func (g *Gateway) Close() {
	g.cancel()
}

// ServeHTTP upgrades the request and serves the connection until either side
// closes it
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		g.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer socket.Close()

	g.metrics.TotalConnections.Inc()
	socket.SetReadLimit(g.cfg.ReadLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(g.ctx, cancel)
	defer stop()

	profile, err := g.authenticate(ctx, socket)
	if err != nil {
		g.reject(socket, err)
		return
	}
	g.metrics.LoginAccepted()

	logger := g.logger.With(slog.String("player_id", string(profile.ID)))
	accepted := protocol.AuthAccepted{
		PlayerID: string(profile.ID),
		Username: profile.Username,
		Elo:      profile.Rating,
		Wins:     profile.Wins,
		Losses:   profile.Losses,
		Bricks:   profile.Bricks,
		Gold:     profile.Gold,
	}
	if err := g.write(socket, accepted); err != nil {
		logger.Debug("failed to write auth accepted", slog.String("error", err.Error()))
		return
	}
	logger.Info("player logged in", slog.String("username", profile.Username))

	out := NewOutbox()
	c := &client{
		gateway: g,
		socket:  socket,
		out:     out,
		conn:    g.controller.Connect(ctx, profile.ID, out),
		logger:  logger,
	}
	c.run(ctx)
}

// authenticate waits for the Login frame and resolves its profile
func (g *Gateway) authenticate(ctx context.Context, socket *websocket.Conn) (*model.Profile, error) {
	if err := socket.SetReadDeadline(time.Now().Add(g.cfg.HandshakeTimeout)); err != nil {
		return nil, err
	}
	frameType, data, err := socket.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read login: %w", err)
	}
	if err := socket.SetReadDeadline(time.Time{}); err != nil {
		return nil, err
	}

	if frameType != websocket.TextMessage {
		return nil, &rejectedError{reason: reasonInvalidMessage}
	}
	msg, err := protocol.DecodeClient(data)
	if err != nil {
		return nil, &rejectedError{reason: reasonInvalidMessage}
	}
	login, ok := msg.(protocol.Login)
	if !ok {
		return nil, &rejectedError{reason: reasonExpectedLogin}
	}

	username := strings.TrimSpace(login.Username)
	if username == "" {
		return nil, &rejectedError{reason: reasonEmptyUsername}
	}

	profile, err := g.profiles.GetOrCreateProfile(ctx, username)
	if err != nil {
		g.logger.Error("failed to load profile",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, &rejectedError{reason: reasonDatabase + err.Error()}
	}
	return profile, nil
}

// reject tells the client why its login failed, if it is still listening
func (g *Gateway) reject(socket *websocket.Conn, err error) {
	var rejected *rejectedError
	if !errors.As(err, &rejected) {
		g.logger.Debug("connection closed before login", slog.String("error", err.Error()))
		return
	}

	g.metrics.LoginRejected()
	g.logger.Info("login rejected", slog.String("reason", rejected.reason))
	if err := g.write(socket, protocol.AuthRejected{Reason: rejected.reason}); err != nil {
		g.logger.Debug("failed to write auth rejected", slog.String("error", err.Error()))
		return
	}
	g.writeClose(socket)
}

// write sends one message as a text frame
func (g *Gateway) write(socket *websocket.Conn, msg protocol.ServerMessage) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	if err := socket.SetWriteDeadline(time.Now().Add(g.cfg.WriteWait)); err != nil {
		return err
	}
	return socket.WriteMessage(websocket.TextMessage, data)
}

func (g *Gateway) writeClose(socket *websocket.Conn) {
	closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = socket.WriteControl(websocket.CloseMessage, closing, time.Now().Add(g.cfg.WriteWait))
}
