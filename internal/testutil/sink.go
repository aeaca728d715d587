package testutil

import (
	"errors"
	"sync"

	"github.com/mcoot/match3duel/internal/protocol"
)

// ErrSinkClosed is returned by RecordingSink.Deliver after Close
var ErrSinkClosed = errors.New("sink closed")

// RecordingSink captures every delivered message in order
type RecordingSink struct {
	mu       sync.Mutex
	messages []protocol.ServerMessage
	closed   bool
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) Deliver(msg protocol.ServerMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.messages = append(s.messages, msg)
	return nil
}

// Close makes further deliveries fail
func (s *RecordingSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Messages returns a copy of everything delivered so far
func (s *RecordingSink) Messages() []protocol.ServerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.ServerMessage(nil), s.messages...)
}

// Kinds returns the kinds of everything delivered so far
func (s *RecordingSink) Kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]string, len(s.messages))
	for i, m := range s.messages {
		kinds[i] = m.Kind()
	}
	return kinds
}

// Last returns the most recent message, or nil
func (s *RecordingSink) Last() protocol.ServerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return nil
	}
	return s.messages[len(s.messages)-1]
}

// OfKind returns every delivered message with the given kind
func (s *RecordingSink) OfKind(kind string) []protocol.ServerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []protocol.ServerMessage
	for _, m := range s.messages {
		if m.Kind() == kind {
			out = append(out, m)
		}
	}
	return out
}

// Reset forgets everything delivered so far
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
