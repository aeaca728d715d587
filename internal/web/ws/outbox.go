package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/gammazero/deque"

	"github.com/mcoot/match3duel/internal/protocol"
	"github.com/mcoot/match3duel/internal/services/registry"
)

// ErrOutboxClosed is returned by Deliver once the connection has gone
var ErrOutboxClosed = errors.New("outbox closed")

// Outbox is the per-connection FIFO of messages waiting to be written.
// Any goroutine may Deliver; a single writer drains it with Next.
type Outbox struct {
	mu     sync.Mutex
	queue  deque.Deque[protocol.ServerMessage]
	closed bool

	// wake holds at most one pending signal for the writer
	wake chan struct{}
}

var _ registry.Sink = (*Outbox)(nil)

func NewOutbox() *Outbox {
	return &Outbox{wake: make(chan struct{}, 1)}
}

// Deliver appends msg. It never blocks on the socket.
func (o *Outbox) Deliver(msg protocol.ServerMessage) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrOutboxClosed
	}
	o.queue.PushBack(msg)
	o.mu.Unlock()

	o.signal()
	return nil
}

// Next blocks until a message is available, the outbox is closed and
// drained, or ctx is done
func (o *Outbox) Next(ctx context.Context) (protocol.ServerMessage, error) {
	for {
		o.mu.Lock()
		if o.queue.Len() > 0 {
			msg := o.queue.PopFront()
			o.mu.Unlock()
			return msg, nil
		}
		closed := o.closed
		o.mu.Unlock()

		if closed {
			return nil, ErrOutboxClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-o.wake:
		}
	}
}

// Close rejects further deliveries. Messages already queued can still be
// taken with Next.
func (o *Outbox) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.signal()
}

// Len reports how many messages are waiting
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queue.Len()
}

func (o *Outbox) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}
