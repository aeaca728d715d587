package session

import (
	"sync"

	"github.com/mcoot/match3duel/internal/model"
)

// Directory maps players to the session they are in
type Directory struct {
	mu       sync.RWMutex
	sessions map[model.SessionID]*Session
	byPlayer map[model.PlayerID]model.SessionID
}

// NewDirectory creates an empty directory
func NewDirectory() *Directory {
	return &Directory{
		sessions: make(map[model.SessionID]*Session),
		byPlayer: make(map[model.PlayerID]model.SessionID),
	}
}

// Register maps both of s's players to s. It fails if either player is
// still mapped to a session that has not terminated.
//
// Session locks are never taken while d.mu is held. Terminated is final, so
// the write only re-checks that the players still map to the sessions whose
// states were checked, and retries otherwise.
func (d *Directory) Register(s *Session) error {
	a, b := s.Players()
	ids := []model.PlayerID{a, b}

	for {
		d.mu.RLock()
		seen := make(map[model.PlayerID]*Session, len(ids))
		for _, id := range ids {
			if current, ok := d.lookupLocked(id); ok {
				seen[id] = current
			}
		}
		d.mu.RUnlock()

		for _, current := range seen {
			if current.State() != StateTerminated {
				return model.ErrAlreadyInSession
			}
		}

		d.mu.Lock()
		if !d.unchangedLocked(ids, seen) {
			d.mu.Unlock()
			continue
		}
		for _, id := range ids {
			d.unmapLocked(id)
			d.byPlayer[id] = s.ID()
		}
		d.sessions[s.ID()] = s
		d.mu.Unlock()
		return nil
	}
}

// SessionFor returns the session id is mapped to
func (d *Directory) SessionFor(id model.PlayerID) (*Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lookupLocked(id)
}

// Lookup is SessionFor with ErrSessionNotFound for an unmapped player
func (d *Directory) Lookup(id model.PlayerID) (*Session, error) {
	s, ok := d.SessionFor(id)
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s, nil
}

// Unregister removes id's mapping. The session itself is forgotten once no
// player maps to it.
func (d *Directory) Unregister(id model.PlayerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unmapLocked(id)
}

// Len returns the number of sessions still referenced by a player
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

// CountActive returns how many sessions are mid-round
func (d *Directory) CountActive() int {
	d.mu.RLock()
	sessions := make([]*Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		sessions = append(sessions, s)
	}
	d.mu.RUnlock()

	n := 0
	for _, s := range sessions {
		if s.Active() {
			n++
		}
	}
	return n
}

// unchangedLocked reports whether every id still maps to the session seen
// for it, or to none if none was seen
func (d *Directory) unchangedLocked(ids []model.PlayerID, seen map[model.PlayerID]*Session) bool {
	for _, id := range ids {
		if current, _ := d.lookupLocked(id); current != seen[id] {
			return false
		}
	}
	return true
}

func (d *Directory) lookupLocked(id model.PlayerID) (*Session, bool) {
	sid, ok := d.byPlayer[id]
	if !ok {
		return nil, false
	}
	s, ok := d.sessions[sid]
	return s, ok
}

func (d *Directory) unmapLocked(id model.PlayerID) {
	sid, ok := d.byPlayer[id]
	if !ok {
		return
	}
	delete(d.byPlayer, id)

	s, ok := d.sessions[sid]
	if !ok {
		return
	}
	a, b := s.Players()
	if d.byPlayer[a] == sid || d.byPlayer[b] == sid {
		return
	}
	delete(d.sessions, sid)
}
