// Package storagetest holds a behavioural test suite shared by every
// storage.Storage implementation.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/storage"
)

// Suite runs the common storage contract against the store built by
// NewStorage. Backend packages run it with suite.Run.
type Suite struct {
	suite.Suite

	NewStorage func(t *testing.T) storage.Storage

	Storage storage.Storage
	Ctx     context.Context
	Now     time.Time
}

func (s *Suite) SetupTest() {
	s.Storage = s.NewStorage(s.T())
	s.Ctx = context.Background()
	s.Now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

func (s *Suite) insert(id, username string, rating int) *model.Profile {
	p := model.NewProfile(model.PlayerID(id), username, s.Now)
	p.Rating = rating
	stored, err := s.Storage.InsertProfileIfAbsent(s.Ctx, p)
	s.Require().NoError(err)
	return stored
}

// Insert tests

func (s *Suite) TestInsertProfileCreatesDefaults() {
	stored, err := s.Storage.InsertProfileIfAbsent(s.Ctx, model.NewProfile("p-1", "alice", s.Now))
	s.Require().NoError(err)

	s.Equal(model.PlayerID("p-1"), stored.ID)
	s.Equal("alice", stored.Username)
	s.Equal(model.DefaultRating, stored.Rating)
	s.Zero(stored.Wins)
	s.Zero(stored.Losses)
	s.Zero(stored.Bricks)
	s.Zero(stored.Gold)
	s.True(s.Now.Equal(stored.CreatedAt))
}

func (s *Suite) TestInsertProfileKeepsExisting() {
	first := s.insert("p-1", "alice", 1000)

	second, err := s.Storage.InsertProfileIfAbsent(s.Ctx, model.NewProfile("p-2", "alice", s.Now))
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	_, err = s.Storage.GetProfile(s.Ctx, "p-2")
	s.ErrorIs(err, model.ErrProfileNotFound)

	count, err := s.Storage.CountProfiles(s.Ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

// Lookup tests

func (s *Suite) TestGetProfile() {
	s.insert("p-1", "alice", 1000)

	p, err := s.Storage.GetProfile(s.Ctx, "p-1")
	s.Require().NoError(err)
	s.Equal("alice", p.Username)
}

func (s *Suite) TestGetProfileNotFound() {
	_, err := s.Storage.GetProfile(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *Suite) TestGetProfileByUsername() {
	s.insert("p-1", "alice", 1000)

	p, err := s.Storage.GetProfileByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p-1"), p.ID)
}

func (s *Suite) TestGetProfileByUsernameNotFound() {
	_, err := s.Storage.GetProfileByUsername(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

// UpdatePair tests

func (s *Suite) TestUpdatePairPersistsBoth() {
	s.insert("p-1", "alice", 1000)
	s.insert("p-2", "bob", 1000)

	err := s.Storage.UpdatePair(s.Ctx, "p-1", "p-2", func(a, b *model.Profile) error {
		a.Rating += 16
		a.Wins++
		a.Bricks += 100
		a.Gold += 10
		b.Rating -= 16
		b.Losses++
		b.Bricks += 25
		return nil
	})
	s.Require().NoError(err)

	a, err := s.Storage.GetProfile(s.Ctx, "p-1")
	s.Require().NoError(err)
	s.Equal(1016, a.Rating)
	s.Equal(1, a.Wins)
	s.Equal(100, a.Bricks)
	s.Equal(10, a.Gold)

	b, err := s.Storage.GetProfile(s.Ctx, "p-2")
	s.Require().NoError(err)
	s.Equal(984, b.Rating)
	s.Equal(1, b.Losses)
	s.Equal(25, b.Bricks)
}

func (s *Suite) TestUpdatePairFnErrorWritesNothing() {
	s.insert("p-1", "alice", 1000)
	s.insert("p-2", "bob", 1000)

	boom := fmt.Errorf("boom")
	err := s.Storage.UpdatePair(s.Ctx, "p-1", "p-2", func(a, b *model.Profile) error {
		a.Rating = 5000
		return boom
	})
	s.ErrorIs(err, boom)

	a, err := s.Storage.GetProfile(s.Ctx, "p-1")
	s.Require().NoError(err)
	s.Equal(1000, a.Rating)
}

func (s *Suite) TestUpdatePairMissingProfile() {
	s.insert("p-1", "alice", 1000)

	err := s.Storage.UpdatePair(s.Ctx, "p-1", "ghost", func(a, b *model.Profile) error { return nil })
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *Suite) TestUpdatePairSamePlayer() {
	s.insert("p-1", "alice", 1000)

	err := s.Storage.UpdatePair(s.Ctx, "p-1", "p-1", func(a, b *model.Profile) error { return nil })
	s.ErrorIs(err, model.ErrSamePlayer)
}

func (s *Suite) TestUpdatePairMovesLeaderboard() {
	s.insert("p-1", "alice", 1000)
	s.insert("p-2", "bob", 1010)

	err := s.Storage.UpdatePair(s.Ctx, "p-1", "p-2", func(a, b *model.Profile) error {
		a.Rating = 1020
		b.Rating = 990
		return nil
	})
	s.Require().NoError(err)

	entries, err := s.Storage.Leaderboard(s.Ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("alice", entries[0].Username)
	s.Equal(1020, entries[0].Rating)
}

// Leaderboard tests

func (s *Suite) TestLeaderboardOrdering() {
	s.insert("p-1", "carol", 1000)
	s.insert("p-2", "alice", 1200)
	s.insert("p-3", "bob", 1000)
	s.insert("p-4", "dave", 900)

	entries, err := s.Storage.Leaderboard(s.Ctx, 10)
	s.Require().NoError(err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Username)
	}
	s.Equal([]string{"alice", "bob", "carol", "dave"}, names)
}

func (s *Suite) TestLeaderboardLimit() {
	for i := 0; i < 5; i++ {
		s.insert(fmt.Sprintf("p-%d", i), fmt.Sprintf("player%d", i), 1000+i)
	}

	entries, err := s.Storage.Leaderboard(s.Ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal("player4", entries[0].Username)
	s.Equal(1004, entries[0].Rating)
}

func (s *Suite) TestLeaderboardEmpty() {
	entries, err := s.Storage.Leaderboard(s.Ctx, 10)
	s.Require().NoError(err)
	s.Empty(entries)
}
