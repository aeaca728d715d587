package registry

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/protocol"
	"github.com/mcoot/match3duel/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = New(testutil.NopLogger())
}

func (s *RegistrySuite) TestAddSendsConnected() {
	sink := testutil.NewRecordingSink()
	conn := s.registry.Add("p-1", sink)

	s.True(conn.Alive())
	s.Equal([]protocol.ServerMessage{protocol.Connected{PlayerID: "p-1"}}, sink.Messages())
	s.Equal(1, s.registry.Count())
}

func (s *RegistrySuite) TestAddReplacesStaleHandle() {
	oldSink := testutil.NewRecordingSink()
	old := s.registry.Add("p-1", oldSink)
	newSink := testutil.NewRecordingSink()
	current := s.registry.Add("p-1", newSink)

	s.False(old.Alive())
	s.True(current.Alive())
	s.Equal(1, s.registry.Count())

	got, ok := s.registry.Get("p-1")
	s.Require().True(ok)
	s.Same(current, got)

	// The stale handle no longer reaches its sink
	old.Send(protocol.OpponentLeft{})
	s.Len(oldSink.Messages(), 1)
}

func (s *RegistrySuite) TestSendToRegistered() {
	sink := testutil.NewRecordingSink()
	s.registry.Add("p-1", sink)

	s.NoError(s.registry.Send("p-1", protocol.Queued{Position: 1}))
	s.Equal(protocol.Queued{Position: 1}, sink.Last())
}

func (s *RegistrySuite) TestSendToUnknown() {
	s.ErrorIs(s.registry.Send("ghost", protocol.Queued{Position: 1}), model.ErrPlayerNotConnected)
}

func (s *RegistrySuite) TestSendAfterRemoveConnFails() {
	sink := testutil.NewRecordingSink()
	conn := s.registry.Add("p-1", sink)
	s.Require().True(s.registry.RemoveConn(conn))

	s.ErrorIs(s.registry.Send("p-1", protocol.OpponentLeft{}), model.ErrPlayerNotConnected)
	s.Len(sink.Messages(), 1)
}

func (s *RegistrySuite) TestSendToClosedSinkIsSwallowed() {
	sink := testutil.NewRecordingSink()
	conn := s.registry.Add("p-1", sink)
	sink.Close()

	s.NotPanics(func() { conn.Send(protocol.OpponentLeft{}) })
	s.NoError(s.registry.Send("p-1", protocol.OpponentLeft{}))
}

func (s *RegistrySuite) TestRemoveIsIdempotent() {
	conn := s.registry.Add("p-1", testutil.NewRecordingSink())

	s.registry.Remove("p-1")
	s.registry.Remove("p-1")

	s.False(conn.Alive())
	s.Equal(0, s.registry.Count())
	_, ok := s.registry.Get("p-1")
	s.False(ok)
}

func (s *RegistrySuite) TestRemoveConnIgnoresReplacedHandle() {
	old := s.registry.Add("p-1", testutil.NewRecordingSink())
	current := s.registry.Add("p-1", testutil.NewRecordingSink())

	s.False(s.registry.RemoveConn(old))
	got, ok := s.registry.Get("p-1")
	s.Require().True(ok)
	s.Same(current, got)

	s.True(s.registry.RemoveConn(current))
	s.Equal(0, s.registry.Count())
}
