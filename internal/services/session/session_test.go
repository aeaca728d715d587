package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/match3duel/internal/dependencies/mocks"
	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/protocol"
	"github.com/mcoot/match3duel/internal/services/rating"
	"github.com/mcoot/match3duel/internal/services/registry"
	"github.com/mcoot/match3duel/internal/storage/memory"
	"github.com/mcoot/match3duel/internal/testutil"
)

type failingRecorder struct{}

func (failingRecorder) RecordMatchResult(context.Context, model.PlayerID, model.PlayerID, bool) (rating.MatchOutcome, error) {
	return rating.MatchOutcome{}, errors.New("database unavailable")
}

type countingObserver struct {
	started, finished, ended int
}

func (o *countingObserver) RoundStarted()       { o.started++ }
func (o *countingObserver) RoundFinished(bool)  { o.finished++ }
func (o *countingObserver) SessionEnded(string) { o.ended++ }

type SessionSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	ratings  *rating.Service
	registry *registry.Registry
	sinkA    *testutil.RecordingSink
	sinkB    *testutil.RecordingSink
	observer *countingObserver
	session  *Session
	cfg      Config
	ctx      context.Context
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.ratings = rating.New(memory.New(), s.clock, s.random, logger)

	s.random.QueueID("p-a", "p-b")
	_, err := s.ratings.GetOrCreateProfile(s.ctx, "alice")
	s.Require().NoError(err)
	_, err = s.ratings.GetOrCreateProfile(s.ctx, "bob")
	s.Require().NoError(err)

	s.registry = registry.New(logger)
	s.sinkA = testutil.NewRecordingSink()
	s.sinkB = testutil.NewRecordingSink()
	s.observer = &countingObserver{}
	s.cfg = Config{Duration: 3, TickInterval: time.Second, RatingTimeout: time.Second}
	s.session = s.newSession(s.ratings)
}

func (s *SessionSuite) TearDownTest() {
	_ = s.session.Disconnect("p-a")
	s.session.Wait()
}

func (s *SessionSuite) newSession(results ResultRecorder) *Session {
	a := s.registry.Add("p-a", s.sinkA)
	b := s.registry.Add("p-b", s.sinkB)
	s.sinkA.Reset()
	s.sinkB.Reset()
	return New("game-1", a, b, results, s.clock, s.observer, s.cfg, testutil.NopLogger())
}

func (s *SessionSuite) start() {
	s.Require().NoError(s.session.Start(s.ctx))
	s.sinkA.Reset()
	s.sinkB.Reset()
}

// tickAll plays out a whole round and waits for the timer worker to finish
func (s *SessionSuite) tickAll() {
	for i := 0; i < s.cfg.Duration; i++ {
		s.clock.Tick(time.Second)
	}
	s.session.Wait()
}

func (s *SessionSuite) eventuallyKinds(sink *testutil.RecordingSink, kinds ...string) {
	s.Eventually(func() bool {
		got := sink.Kinds()
		if len(got) != len(kinds) {
			return false
		}
		for i := range got {
			if got[i] != kinds[i] {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond, "want %v, got %v", kinds, sink.Kinds())
}

// Start tests

func (s *SessionSuite) TestStartAnnouncesMatch() {
	s.Require().NoError(s.session.Start(s.ctx))

	s.Equal([]protocol.ServerMessage{
		protocol.MatchFound{GameID: "game-1", OpponentID: "p-b"},
		protocol.GameStarted{GameID: "game-1"},
	}, s.sinkA.Messages())
	s.Equal([]protocol.ServerMessage{
		protocol.MatchFound{GameID: "game-1", OpponentID: "p-a"},
		protocol.GameStarted{GameID: "game-1"},
	}, s.sinkB.Messages())

	s.Equal(StateActive, s.session.State())
	s.True(s.session.Active())
	s.Equal(1, s.session.Round())
	s.Equal(1, s.clock.ActiveTickers())
	s.Equal(1, s.observer.started)
}

func (s *SessionSuite) TestStartTwiceFails() {
	s.start()
	s.ErrorIs(s.session.Start(s.ctx), model.ErrSessionStarted)
}

func (s *SessionSuite) TestAccessors() {
	a, b := s.session.Players()
	s.Equal(model.PlayerID("p-a"), a)
	s.Equal(model.PlayerID("p-b"), b)
	s.Equal(model.SessionID("game-1"), s.session.ID())
	s.Equal(s.clock.Now(), s.session.CreatedAt())
	s.Equal(StateAwaitingStart, s.session.State())

	opp, ok := s.session.Opponent("p-a")
	s.True(ok)
	s.Equal(model.PlayerID("p-b"), opp)
	_, ok = s.session.Opponent("p-x")
	s.False(ok)
}

// Timer tests

func (s *SessionSuite) TestTickSendsTimeUpdate() {
	s.start()

	s.clock.Tick(time.Second)

	s.eventuallyKinds(s.sinkA, protocol.KindTimeUpdate)
	s.eventuallyKinds(s.sinkB, protocol.KindTimeUpdate)
	s.Equal(protocol.TimeUpdate{SecondsRemaining: 2}, s.sinkA.Last())
}

func (s *SessionSuite) TestRoundEndsWithWinner() {
	s.start()
	s.Require().NoError(s.session.ReportScore("p-a", 1200))
	s.Require().NoError(s.session.ReportScore("p-b", 500))
	s.sinkA.Reset()
	s.sinkB.Reset()

	s.tickAll()

	s.Equal([]protocol.ServerMessage{
		protocol.TimeUpdate{SecondsRemaining: 2},
		protocol.TimeUpdate{SecondsRemaining: 1},
		protocol.TimeUpdate{SecondsRemaining: 0},
		protocol.GameOver{Winner: "Win"},
		protocol.MatchResult{NewElo: 1016, EloChange: 16, Wins: 1, Losses: 0, Bricks: 100, Gold: 10},
	}, s.sinkA.Messages())
	s.Equal(protocol.GameOver{Winner: "Loss"}, s.sinkB.OfKind(protocol.KindGameOver)[0])
	s.Equal(protocol.MatchResult{NewElo: 984, EloChange: -16, Wins: 0, Losses: 1, Bricks: 25, Gold: 0}, s.sinkB.Last())

	s.Equal(StateOver, s.session.State())
	s.Equal(0, s.clock.ActiveTickers())
	s.Equal(1, s.observer.finished)
}

func (s *SessionSuite) TestRoundEndsWithLossForA() {
	s.start()
	s.Require().NoError(s.session.ReportScore("p-b", 10))

	s.tickAll()

	s.Equal(protocol.GameOver{Winner: "Loss"}, s.sinkA.OfKind(protocol.KindGameOver)[0])
	s.Equal(protocol.GameOver{Winner: "Win"}, s.sinkB.OfKind(protocol.KindGameOver)[0])

	bob, err := s.ratings.Profile(s.ctx, "p-b")
	s.Require().NoError(err)
	s.Equal(1016, bob.Rating)
}

func (s *SessionSuite) TestRoundEndsInTie() {
	s.start()
	s.Require().NoError(s.session.ReportScore("p-a", 700))
	s.Require().NoError(s.session.ReportScore("p-b", 700))

	s.tickAll()

	for _, sink := range []*testutil.RecordingSink{s.sinkA, s.sinkB} {
		s.Equal(protocol.GameOver{Winner: "Tie"}, sink.OfKind(protocol.KindGameOver)[0])
		s.Equal(protocol.MatchResult{NewElo: 1000, EloChange: 0, Bricks: 50, Gold: 5}, sink.Last())
	}
}

func (s *SessionSuite) TestRatingFailureSendsNoResult() {
	s.session = s.newSession(failingRecorder{})
	s.start()

	s.tickAll()

	s.Equal(protocol.GameOver{Winner: "Tie"}, s.sinkA.Last())
	s.Empty(s.sinkB.OfKind(protocol.KindMatchResult))
	s.Equal(StateOver, s.session.State())
}

// Score and relay tests

func (s *SessionSuite) TestScoreUpdateFromEachPerspective() {
	s.start()

	s.Require().NoError(s.session.ReportScore("p-a", 500))
	s.Equal(protocol.ScoreUpdate{PlayerScore: 500, OpponentScore: 0}, s.sinkA.Last())
	s.Equal(protocol.ScoreUpdate{PlayerScore: 0, OpponentScore: 500}, s.sinkB.Last())

	s.Require().NoError(s.session.ReportScore("p-b", 1200))
	s.Equal(protocol.ScoreUpdate{PlayerScore: 500, OpponentScore: 1200}, s.sinkA.Last())
	s.Equal(protocol.ScoreUpdate{PlayerScore: 1200, OpponentScore: 500}, s.sinkB.Last())

	a, b := s.session.Scores()
	s.Equal(uint32(500), a)
	s.Equal(uint32(1200), b)
}

func (s *SessionSuite) TestScoreIsLastWriteWins() {
	s.start()
	s.Require().NoError(s.session.ReportScore("p-a", 900))
	s.Require().NoError(s.session.ReportScore("p-a", 300))

	a, _ := s.session.Scores()
	s.Equal(uint32(300), a)
}

func (s *SessionSuite) TestRelaysReachOnlyOpponent() {
	s.start()

	s.Require().NoError(s.session.RelaySwap("p-a", protocol.SwapGems{Row1: 1, Col1: 2, Row2: 1, Col2: 3}))
	s.Require().NoError(s.session.RelayGarbage("p-a", protocol.SendGarbage{Amount: 3}))
	s.Require().NoError(s.session.RelaySpecial("p-b", protocol.ActivateSpecial{Row: 4, Col: 5}))
	s.Require().NoError(s.session.RelayBooster("p-b", protocol.ActivateBooster{BoosterID: 2}))

	s.Equal([]protocol.ServerMessage{
		protocol.OpponentSwap{Row1: 1, Col1: 2, Row2: 1, Col2: 3},
		protocol.ReceiveGarbage{Amount: 3},
	}, s.sinkB.Messages())
	s.Equal([]protocol.ServerMessage{
		protocol.OpponentActivatedSpecial{Row: 4, Col: 5},
		protocol.OpponentActivatedBooster{BoosterID: 2},
	}, s.sinkA.Messages())
}

func (s *SessionSuite) TestRelayRequiresActiveRound() {
	s.ErrorIs(s.session.RelaySwap("p-a", protocol.SwapGems{}), model.ErrSessionNotActive)

	s.start()
	s.tickAll()
	s.sinkB.Reset()

	s.ErrorIs(s.session.RelayGarbage("p-a", protocol.SendGarbage{Amount: 1}), model.ErrSessionNotActive)
	s.ErrorIs(s.session.ReportScore("p-a", 10), model.ErrSessionNotActive)
	s.Empty(s.sinkB.Messages())
}

func (s *SessionSuite) TestStrangerIsRejected() {
	s.start()
	s.ErrorIs(s.session.ReportScore("p-x", 10), model.ErrPlayerNotInGame)
	s.ErrorIs(s.session.RelaySwap("p-x", protocol.SwapGems{}), model.ErrPlayerNotInGame)
	s.ErrorIs(s.session.Leave("p-x"), model.ErrPlayerNotInGame)
}

// Rematch tests

func (s *SessionSuite) TestRematchNeedsBothVotes() {
	s.start()
	s.Require().NoError(s.session.ReportScore("p-a", 100))
	s.tickAll()
	s.sinkA.Reset()
	s.sinkB.Reset()

	s.Require().NoError(s.session.RequestRematch("p-a"))
	s.Equal(StateRematchPending, s.session.State())
	s.Equal([]protocol.ServerMessage{protocol.OpponentRequestedRematch{}}, s.sinkB.Messages())
	s.Empty(s.sinkA.Messages())

	// Voting twice changes nothing
	s.Require().NoError(s.session.RequestRematch("p-a"))
	s.Len(s.sinkB.Messages(), 1)
	va, vb := s.session.Votes()
	s.True(va)
	s.False(vb)

	s.Require().NoError(s.session.RequestRematch("p-b"))
	s.Equal(StateActive, s.session.State())
	s.Equal(2, s.session.Round())
	s.Equal(model.SessionID("game-1"), s.session.ID())
	s.Equal(protocol.RematchAccepted{}, s.sinkA.Last())
	s.Equal(protocol.RematchAccepted{}, s.sinkB.Last())

	a, b := s.session.Scores()
	s.Zero(a)
	s.Zero(b)
	va, vb = s.session.Votes()
	s.False(va)
	s.False(vb)
	s.Equal(1, s.clock.ActiveTickers())
	s.Equal(2, s.observer.started)
}

func (s *SessionSuite) TestRematchRoundRunsToCompletion() {
	s.start()
	s.tickAll()
	s.Require().NoError(s.session.RequestRematch("p-b"))
	s.Require().NoError(s.session.RequestRematch("p-a"))
	s.sinkA.Reset()

	s.tickAll()

	s.Len(s.sinkA.OfKind(protocol.KindTimeUpdate), s.cfg.Duration)
	s.Len(s.sinkA.OfKind(protocol.KindGameOver), 1)
	s.Equal(StateOver, s.session.State())
}

func (s *SessionSuite) TestRematchWhileActiveRejected() {
	s.start()
	s.ErrorIs(s.session.RequestRematch("p-a"), model.ErrRematchNotAllowed)
	s.Empty(s.sinkB.Messages())
}

// Leave and disconnect tests

func (s *SessionSuite) TestDisconnectNotifiesOpponentAndStopsTimer() {
	s.start()
	s.clock.Tick(time.Second)
	s.eventuallyKinds(s.sinkB, protocol.KindTimeUpdate)

	s.Require().NoError(s.session.Disconnect("p-a"))
	s.Equal(StateTerminated, s.session.State())
	s.Equal(protocol.OpponentDisconnected{}, s.sinkB.Last())

	s.session.Wait()
	s.Equal(0, s.clock.ActiveTickers())
	s.Equal(0, s.clock.Tick(time.Second))
	s.Len(s.sinkB.OfKind(protocol.KindTimeUpdate), 1)
	s.Empty(s.sinkB.OfKind(protocol.KindGameOver))
}

func (s *SessionSuite) TestDisconnectIsIdempotent() {
	s.start()

	s.Require().NoError(s.session.Disconnect("p-a"))
	s.Require().NoError(s.session.Disconnect("p-a"))
	s.Require().NoError(s.session.Disconnect("p-b"))

	s.Len(s.sinkB.Messages(), 1)
	s.Empty(s.sinkA.Messages())
	s.Equal(1, s.observer.ended)
}

func (s *SessionSuite) TestLeaveAfterGameOver() {
	s.start()
	s.tickAll()

	s.Require().NoError(s.session.Leave("p-b"))
	s.Equal(protocol.OpponentLeft{}, s.sinkA.Last())
	s.ErrorIs(s.session.RequestRematch("p-a"), model.ErrSessionTerminated)
}

func (s *SessionSuite) TestTerminatedSessionRejectsEverything() {
	s.start()
	s.Require().NoError(s.session.Disconnect("p-a"))
	s.sinkA.Reset()
	s.sinkB.Reset()

	s.ErrorIs(s.session.Start(s.ctx), model.ErrSessionTerminated)
	s.ErrorIs(s.session.RelaySwap("p-b", protocol.SwapGems{}), model.ErrSessionTerminated)
	s.ErrorIs(s.session.ReportScore("p-b", 10), model.ErrSessionTerminated)
	s.ErrorIs(s.session.RequestRematch("p-b"), model.ErrSessionTerminated)
	s.Empty(s.sinkA.Messages())
	s.Empty(s.sinkB.Messages())
}

func (s *SessionSuite) TestLeaveWhileRematchPending() {
	s.start()
	s.tickAll()
	s.Require().NoError(s.session.RequestRematch("p-a"))

	s.Require().NoError(s.session.Leave("p-a"))
	s.Equal(StateTerminated, s.session.State())
	s.Equal(protocol.OpponentLeft{}, s.sinkB.Last())
}

func (s *SessionSuite) TestCancelledContextStopsTimer() {
	ctx, cancel := context.WithCancel(s.ctx)
	s.Require().NoError(s.session.Start(ctx))

	cancel()
	s.session.Wait()
	s.Equal(0, s.clock.ActiveTickers())
}
