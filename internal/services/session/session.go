package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/match3duel/internal/dependencies/clock"
	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/protocol"
	"github.com/mcoot/match3duel/internal/services/rating"
)

// State is the lifecycle position of a session
type State string

const (
	StateAwaitingStart  State = "awaiting_start"
	StateActive         State = "active"
	StateOver           State = "over"
	StateRematchPending State = "rematch_pending"
	StateTerminated     State = "terminated"
)

// Peer is one participant's outbound channel
type Peer interface {
	ID() model.PlayerID
	Send(msg protocol.ServerMessage)
}

// ResultRecorder persists the outcome of a finished round
type ResultRecorder interface {
	RecordMatchResult(ctx context.Context, winnerID, loserID model.PlayerID, tie bool) (rating.MatchOutcome, error)
}

// Observer is told about round and session lifecycle events
type Observer interface {
	RoundStarted()
	RoundFinished(tie bool)
	SessionEnded(reason string)
}

type nopObserver struct{}

func (nopObserver) RoundStarted()       {}
func (nopObserver) RoundFinished(bool)  {}
func (nopObserver) SessionEnded(string) {}

// Session is one match between two players, including any rematches.
// All state is guarded by mu; messages are handed to peers while holding it
// so each peer sees events in the order they happened.
type Session struct {
	id        model.SessionID
	players   [2]Peer
	createdAt time.Time

	cfg      Config
	clock    clock.Clock
	results  ResultRecorder
	observer Observer
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	round       int
	scores      [2]uint32
	votes       [2]bool
	baseCtx     context.Context
	cancelRound context.CancelFunc
	timers      sync.WaitGroup
}

// New creates a session awaiting Start. Player a is always slot 0.
func New(
	id model.SessionID,
	a, b Peer,
	results ResultRecorder,
	clk clock.Clock,
	observer Observer,
	cfg Config,
	logger *slog.Logger,
) *Session {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultConfig().Duration
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if cfg.RatingTimeout <= 0 {
		cfg.RatingTimeout = DefaultConfig().RatingTimeout
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Session{
		id:        id,
		players:   [2]Peer{a, b},
		createdAt: clk.Now(),
		cfg:       cfg,
		clock:     clk,
		results:   results,
		observer:  observer,
		logger: logger.With(
			slog.String("component", "session"),
			slog.String("session_id", string(id)),
		),
		state: StateAwaitingStart,
	}
}

// Start announces the match to both players and starts the first round.
// ctx bounds every round's timer for the life of the session.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateAwaitingStart:
	case StateTerminated:
		return model.ErrSessionTerminated
	default:
		return model.ErrSessionStarted
	}
	s.baseCtx = ctx

	a, b := s.players[0], s.players[1]
	a.Send(protocol.MatchFound{GameID: string(s.id), OpponentID: string(b.ID())})
	b.Send(protocol.MatchFound{GameID: string(s.id), OpponentID: string(a.ID())})
	s.broadcastLocked(protocol.GameStarted{GameID: string(s.id)})

	s.beginRoundLocked()
	s.logger.Info("session started",
		slog.String("player_a", string(a.ID())),
		slog.String("player_b", string(b.ID())),
	)
	return nil
}

// beginRoundLocked moves to Active and launches the timer for a new round.
// The ticker is created here, not in the worker, so a round's first tick can
// never be missed.
func (s *Session) beginRoundLocked() {
	s.state = StateActive
	s.round++

	if s.cancelRound != nil {
		s.cancelRound()
	}
	roundCtx, cancel := context.WithCancel(s.baseCtx)
	s.cancelRound = cancel
	ticker := s.clock.NewTicker(s.cfg.TickInterval)

	s.timers.Add(1)
	go s.runTimer(roundCtx, s.round, ticker)
	s.observer.RoundStarted()
}

func (s *Session) runTimer(ctx context.Context, round int, ticker clock.Ticker) {
	defer s.timers.Done()
	defer ticker.Stop()

	for i := 0; i < s.cfg.Duration; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}

		s.mu.Lock()
		if s.state != StateActive || s.round != round {
			s.mu.Unlock()
			return
		}
		s.broadcastLocked(protocol.TimeUpdate{SecondsRemaining: s.cfg.Duration - i - 1})
		s.mu.Unlock()
	}

	s.finishRound(ctx, round)
}

// finishRound ends an expired round: announce the outcome, then record it
func (s *Session) finishRound(ctx context.Context, round int) {
	s.mu.Lock()
	if s.state != StateActive || s.round != round {
		s.mu.Unlock()
		return
	}
	s.state = StateOver
	a, b := s.players[0], s.players[1]
	scores := s.scores
	outcomeA := model.DecideOutcome(scores[0], scores[1])
	a.Send(protocol.GameOver{Winner: string(outcomeA)})
	b.Send(protocol.GameOver{Winner: string(outcomeA.Opposite())})
	s.mu.Unlock()

	tie := outcomeA == model.OutcomeTie
	s.observer.RoundFinished(tie)
	s.logger.Info("round over",
		slog.Int("round", round),
		slog.Int("score_a", int(scores[0])),
		slog.Int("score_b", int(scores[1])),
		slog.String("outcome_a", string(outcomeA)),
	)

	winner, loser := a, b
	if outcomeA == model.OutcomeLoss {
		winner, loser = b, a
	}

	// Shutdown cancels ctx; the result is still worth recording
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RatingTimeout)
	defer cancel()
	outcome, err := s.results.RecordMatchResult(rctx, winner.ID(), loser.ID(), tie)
	if err != nil {
		s.logger.Error("failed to record match result",
			slog.Int("round", round),
			slog.String("error", err.Error()),
		)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		profile, delta, ok := outcome.For(p.ID())
		if !ok {
			continue
		}
		p.Send(protocol.MatchResult{
			NewElo:    profile.Rating,
			EloChange: delta,
			Wins:      profile.Wins,
			Losses:    profile.Losses,
			Bricks:    profile.Bricks,
			Gold:      profile.Gold,
		})
	}
}

func (s *Session) broadcastLocked(msg protocol.ServerMessage) {
	s.players[0].Send(msg)
	s.players[1].Send(msg)
}

func (s *Session) slot(id model.PlayerID) (int, error) {
	switch id {
	case s.players[0].ID():
		return 0, nil
	case s.players[1].ID():
		return 1, nil
	default:
		return -1, model.ErrPlayerNotInGame
	}
}

// relay forwards msg from one player to the other while the round is live
func (s *Session) relay(from model.PlayerID, msg protocol.ServerMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.slot(from)
	if err != nil {
		return err
	}
	if s.state == StateTerminated {
		return model.ErrSessionTerminated
	}
	if s.state != StateActive {
		return model.ErrSessionNotActive
	}
	s.players[1-idx].Send(msg)
	return nil
}

func (s *Session) RelaySwap(from model.PlayerID, m protocol.SwapGems) error {
	return s.relay(from, protocol.OpponentSwap{Row1: m.Row1, Col1: m.Col1, Row2: m.Row2, Col2: m.Col2})
}

func (s *Session) RelayGarbage(from model.PlayerID, m protocol.SendGarbage) error {
	return s.relay(from, protocol.ReceiveGarbage{Amount: m.Amount})
}

func (s *Session) RelaySpecial(from model.PlayerID, m protocol.ActivateSpecial) error {
	return s.relay(from, protocol.OpponentActivatedSpecial{Row: m.Row, Col: m.Col})
}

func (s *Session) RelayBooster(from model.PlayerID, m protocol.ActivateBooster) error {
	return s.relay(from, protocol.OpponentActivatedBooster{BoosterID: m.BoosterID})
}

// ReportScore records the sender's latest score and tells both players the
// pair from their own point of view
func (s *Session) ReportScore(from model.PlayerID, score uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.slot(from)
	if err != nil {
		return err
	}
	if s.state == StateTerminated {
		return model.ErrSessionTerminated
	}
	if s.state != StateActive {
		return model.ErrSessionNotActive
	}
	s.scores[idx] = score
	s.players[0].Send(protocol.ScoreUpdate{PlayerScore: s.scores[0], OpponentScore: s.scores[1]})
	s.players[1].Send(protocol.ScoreUpdate{PlayerScore: s.scores[1], OpponentScore: s.scores[0]})
	return nil
}

// RequestRematch casts from's vote. The first vote notifies the opponent;
// the second resets scores and starts a new round in this same session.
func (s *Session) RequestRematch(from model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.slot(from)
	if err != nil {
		return err
	}
	switch s.state {
	case StateOver, StateRematchPending:
	case StateTerminated:
		return model.ErrSessionTerminated
	default:
		return model.ErrRematchNotAllowed
	}
	if s.votes[idx] {
		return nil
	}
	s.votes[idx] = true

	if !s.votes[1-idx] {
		s.state = StateRematchPending
		s.players[1-idx].Send(protocol.OpponentRequestedRematch{})
		return nil
	}

	s.votes = [2]bool{}
	s.scores = [2]uint32{}
	s.broadcastLocked(protocol.RematchAccepted{})
	s.beginRoundLocked()
	s.logger.Info("rematch started", slog.Int("round", s.round))
	return nil
}

// Leave ends the session because from chose to quit
func (s *Session) Leave(from model.PlayerID) error {
	return s.terminate(from, protocol.OpponentLeft{}, "left")
}

// Disconnect ends the session because from's connection closed
func (s *Session) Disconnect(from model.PlayerID) error {
	return s.terminate(from, protocol.OpponentDisconnected{}, "disconnected")
}

func (s *Session) terminate(from model.PlayerID, notice protocol.ServerMessage, reason string) error {
	s.mu.Lock()
	idx, err := s.slot(from)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.state == StateTerminated {
		s.mu.Unlock()
		return nil
	}
	s.state = StateTerminated
	if s.cancelRound != nil {
		s.cancelRound()
	}
	s.players[1-idx].Send(notice)
	s.mu.Unlock()

	s.observer.SessionEnded(reason)
	s.logger.Info("session terminated",
		slog.String("player_id", string(from)),
		slog.String("reason", reason),
	)
	return nil
}

// Wait blocks until every timer worker started so far has returned
func (s *Session) Wait() {
	s.timers.Wait()
}

func (s *Session) ID() model.SessionID {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active reports whether a round is currently being played
func (s *Session) Active() bool {
	return s.State() == StateActive
}

func (s *Session) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

// Scores returns player a's and player b's last reported scores
func (s *Session) Scores() (a, b uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[0], s.scores[1]
}

// Votes returns whether player a and player b have asked for a rematch
func (s *Session) Votes() (a, b bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.votes[0], s.votes[1]
}

func (s *Session) Players() (a, b model.PlayerID) {
	return s.players[0].ID(), s.players[1].ID()
}

// Opponent returns the other participant of id
func (s *Session) Opponent(id model.PlayerID) (model.PlayerID, bool) {
	switch id {
	case s.players[0].ID():
		return s.players[1].ID(), true
	case s.players[1].ID():
		return s.players[0].ID(), true
	default:
		return "", false
	}
}
