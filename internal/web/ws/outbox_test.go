package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/match3duel/internal/protocol"
)

type OutboxSuite struct {
	suite.Suite
	outbox *Outbox
	ctx    context.Context
}

func TestOutboxSuite(t *testing.T) {
	suite.Run(t, new(OutboxSuite))
}

func (s *OutboxSuite) SetupTest() {
	s.outbox = NewOutbox()
	s.ctx = context.Background()
}

func (s *OutboxSuite) TestNextReturnsInDeliveryOrder() {
	for i := 1; i <= 3; i++ {
		s.Require().NoError(s.outbox.Deliver(protocol.Queued{Position: i}))
	}
	s.Equal(3, s.outbox.Len())

	for i := 1; i <= 3; i++ {
		msg, err := s.outbox.Next(s.ctx)
		s.Require().NoError(err)
		s.Equal(protocol.Queued{Position: i}, msg)
	}
	s.Equal(0, s.outbox.Len())
}

func (s *OutboxSuite) TestNextWaitsForDelivery() {
	got := make(chan protocol.ServerMessage, 1)
	go func() {
		msg, err := s.outbox.Next(s.ctx)
		if err == nil {
			got <- msg
		}
	}()

	s.Require().NoError(s.outbox.Deliver(protocol.RematchAccepted{}))
	select {
	case msg := <-got:
		s.Equal(protocol.RematchAccepted{}, msg)
	case <-time.After(2 * time.Second):
		s.Fail("Next did not return after Deliver")
	}
}

func (s *OutboxSuite) TestNextStopsOnContextCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.outbox.Next(ctx)
	s.ErrorIs(err, context.Canceled)
}

func (s *OutboxSuite) TestDeliverAfterCloseFails() {
	s.outbox.Close()
	s.ErrorIs(s.outbox.Deliver(protocol.OpponentLeft{}), ErrOutboxClosed)
}

func (s *OutboxSuite) TestCloseDrainsQueuedMessagesFirst() {
	s.Require().NoError(s.outbox.Deliver(protocol.OpponentLeft{}))
	s.outbox.Close()

	msg, err := s.outbox.Next(s.ctx)
	s.Require().NoError(err)
	s.Equal(protocol.OpponentLeft{}, msg)

	_, err = s.outbox.Next(s.ctx)
	s.ErrorIs(err, ErrOutboxClosed)
}

func (s *OutboxSuite) TestCloseWakesWaitingWriter() {
	done := make(chan error, 1)
	go func() {
		_, err := s.outbox.Next(s.ctx)
		done <- err
	}()

	s.outbox.Close()
	select {
	case err := <-done:
		s.ErrorIs(err, ErrOutboxClosed)
	case <-time.After(2 * time.Second):
		s.Fail("Next did not return after Close")
	}
}
