package matchmaking

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gammazero/deque"

	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/protocol"
)

// Notifier delivers a message to a connected player
type Notifier interface {
	Send(id model.PlayerID, msg protocol.ServerMessage) error
}

// PairFunc receives the two oldest waiting players, oldest first.
// It runs on the enqueuing goroutine after the queue lock is released.
type PairFunc func(ctx context.Context, a, b model.PlayerID)

// Queue is the FIFO of players waiting for an opponent
type Queue struct {
	mu      sync.Mutex
	waiting deque.Deque[model.PlayerID]
	members map[model.PlayerID]struct{}
	onPair  PairFunc

	notifier Notifier
	logger   *slog.Logger
}

// New creates an empty queue
func New(notifier Notifier, logger *slog.Logger) *Queue {
	return &Queue{
		members:  make(map[model.PlayerID]struct{}),
		notifier: notifier,
		logger:   logger.With(slog.String("component", "matchmaking")),
	}
}

// OnPair sets the callback invoked for every pair taken off the queue
func (q *Queue) OnPair(f PairFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onPair = f
}

// Enqueue appends id and tells it its 1-based position. If two or more
// players are waiting, the two oldest are removed and handed to the pair
// callback. Enqueueing a player already waiting does nothing.
func (q *Queue) Enqueue(ctx context.Context, id model.PlayerID) {
	q.mu.Lock()
	if _, ok := q.members[id]; ok {
		q.mu.Unlock()
		return
	}
	q.waiting.PushBack(id)
	q.members[id] = struct{}{}
	position := q.waiting.Len()

	var a, b model.PlayerID
	paired := false
	if q.waiting.Len() >= 2 {
		a = q.waiting.PopFront()
		b = q.waiting.PopFront()
		delete(q.members, a)
		delete(q.members, b)
		paired = true
	}
	onPair := q.onPair
	q.mu.Unlock()

	q.logger.Debug("player queued", slog.String("player_id", string(id)), slog.Int("position", position))
	q.notify(id, protocol.Queued{Position: position})

	if paired {
		q.logger.Info("players paired",
			slog.String("player_a", string(a)),
			slog.String("player_b", string(b)),
		)
		if onPair != nil {
			onPair(ctx, a, b)
		}
	}
}

// Requeue puts id back at the head of the queue, used when its partner
// vanished before a session could be formed. If another player is waiting
// the two are paired straight away.
func (q *Queue) Requeue(ctx context.Context, id model.PlayerID) {
	q.mu.Lock()
	if _, ok := q.members[id]; ok {
		q.mu.Unlock()
		return
	}
	q.waiting.PushFront(id)
	q.members[id] = struct{}{}

	var a, b model.PlayerID
	paired := false
	if q.waiting.Len() >= 2 {
		a = q.waiting.PopFront()
		b = q.waiting.PopFront()
		delete(q.members, a)
		delete(q.members, b)
		paired = true
	}
	onPair := q.onPair
	q.mu.Unlock()

	if paired && onPair != nil {
		onPair(ctx, a, b)
		return
	}
	q.notify(id, protocol.Queued{Position: 1})
}

func (q *Queue) notify(id model.PlayerID, msg protocol.ServerMessage) {
	if err := q.notifier.Send(id, msg); err != nil {
		q.logger.Debug("queue notification dropped",
			slog.String("player_id", string(id)),
			slog.String("error", err.Error()),
		)
	}
}

// RemoveIfPresent drops id from the queue and reports whether it was waiting
func (q *Queue) RemoveIfPresent(id model.PlayerID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.members[id]; !ok {
		return false
	}
	delete(q.members, id)
	if i := q.waiting.Index(func(p model.PlayerID) bool { return p == id }); i >= 0 {
		q.waiting.Remove(i)
	}
	return true
}

// Position returns the 1-based position of id, or 0 if it is not waiting
func (q *Queue) Position(id model.PlayerID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiting.Index(func(p model.PlayerID) bool { return p == id }) + 1
}

// Len returns the number of waiting players
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiting.Len()
}
