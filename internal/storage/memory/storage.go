package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	profiles      map[model.PlayerID]*model.Profile
	usernameIndex map[string]model.PlayerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		profiles:      make(map[model.PlayerID]*model.Profile),
		usernameIndex: make(map[string]model.PlayerID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) InsertProfileIfAbsent(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.usernameIndex[p.Username]; ok {
		return s.profiles[id].Clone(), nil
	}
	stored := p.Clone()
	s.profiles[stored.ID] = stored
	s.usernameIndex[stored.Username] = stored.ID
	return stored.Clone(), nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (s *Storage) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return s.profiles[id].Clone(), nil
}

func (s *Storage) UpdatePair(ctx context.Context, idA, idB model.PlayerID, fn storage.PairUpdateFunc) error {
	if idA == idB {
		return model.ErrSamePlayer
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	storedA, ok := s.profiles[idA]
	if !ok {
		return model.ErrProfileNotFound
	}
	storedB, ok := s.profiles[idB]
	if !ok {
		return model.ErrProfileNotFound
	}

	// Work on copies so a failing fn leaves nothing behind
	a, b := storedA.Clone(), storedB.Clone()
	if err := fn(a, b); err != nil {
		return err
	}
	s.profiles[idA] = a
	s.profiles[idB] = b
	return nil
}

func (s *Storage) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	s.mu.RLock()
	entries := make([]model.LeaderboardEntry, 0, len(s.profiles))
	for _, p := range s.profiles {
		entries = append(entries, model.LeaderboardEntry{
			Username: p.Username,
			Rating:   p.Rating,
			Wins:     p.Wins,
			Losses:   p.Losses,
		})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Rating != entries[j].Rating {
			return entries[i].Rating > entries[j].Rating
		}
		return entries[i].Username < entries[j].Username
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Storage) CountProfiles(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles), nil
}

// Close is a no-op for the in-memory store
func (s *Storage) Close() error {
	return nil
}
