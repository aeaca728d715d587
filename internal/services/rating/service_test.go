package rating

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/match3duel/internal/dependencies/mocks"
	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/storage/memory"
	"github.com/mcoot/match3duel/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) createProfile(id, username string) *model.Profile {
	s.random.QueueID(id)
	p, err := s.service.GetOrCreateProfile(s.ctx, username)
	s.Require().NoError(err)
	return p
}

// GetOrCreateProfile tests

func (s *ServiceSuite) TestFirstLoginCreatesDefaultProfile() {
	p := s.createProfile("p-1", "alice")

	s.Equal(model.PlayerID("p-1"), p.ID)
	s.Equal("alice", p.Username)
	s.Equal(1000, p.Rating)
	s.Zero(p.Wins)
	s.Zero(p.Losses)
	s.Zero(p.Bricks)
	s.Zero(p.Gold)
}

func (s *ServiceSuite) TestSecondLoginReturnsSameProfile() {
	first := s.createProfile("p-1", "alice")
	s.random.QueueID("p-unused")

	second, err := s.service.GetOrCreateProfile(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
}

func (s *ServiceSuite) TestEmptyUsernameRejected() {
	_, err := s.service.GetOrCreateProfile(s.ctx, "")
	s.ErrorIs(err, model.ErrInvalidUsername)
}

func (s *ServiceSuite) TestConcurrentFirstLoginsCreateOneProfile() {
	var wg sync.WaitGroup
	ids := make([]model.PlayerID, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := s.service.GetOrCreateProfile(s.ctx, "alice")
			s.NoError(err)
			if p != nil {
				ids[i] = p.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		s.Equal(ids[0], id)
	}
	count, err := s.service.ProfileCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

// RecordMatchResult tests

func (s *ServiceSuite) TestDecisiveResult() {
	s.createProfile("p-1", "alice")
	s.createProfile("p-2", "bob")

	outcome, err := s.service.RecordMatchResult(s.ctx, "p-1", "p-2", false)
	s.Require().NoError(err)

	s.Equal(16, outcome.WinnerDelta)
	s.Equal(-16, outcome.LoserDelta)

	s.Equal(1016, outcome.Winner.Rating)
	s.Equal(1, outcome.Winner.Wins)
	s.Equal(0, outcome.Winner.Losses)
	s.Equal(100, outcome.Winner.Bricks)
	s.Equal(10, outcome.Winner.Gold)

	s.Equal(984, outcome.Loser.Rating)
	s.Equal(0, outcome.Loser.Wins)
	s.Equal(1, outcome.Loser.Losses)
	s.Equal(25, outcome.Loser.Bricks)
	s.Equal(0, outcome.Loser.Gold)
}

func (s *ServiceSuite) TestDecisiveResultIsPersisted() {
	s.createProfile("p-1", "alice")
	s.createProfile("p-2", "bob")

	_, err := s.service.RecordMatchResult(s.ctx, "p-1", "p-2", false)
	s.Require().NoError(err)

	alice, err := s.service.Profile(s.ctx, "p-1")
	s.Require().NoError(err)
	s.Equal(1016, alice.Rating)
	s.Equal(s.clock.Now(), alice.UpdatedAt)

	bob, err := s.service.ProfileByUsername(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(984, bob.Rating)
}

func (s *ServiceSuite) TestTieResult() {
	s.createProfile("p-1", "alice")
	s.createProfile("p-2", "bob")

	outcome, err := s.service.RecordMatchResult(s.ctx, "p-1", "p-2", true)
	s.Require().NoError(err)

	for _, p := range []*model.Profile{outcome.Winner, outcome.Loser} {
		s.Equal(1000, p.Rating)
		s.Equal(0, p.Wins)
		s.Equal(0, p.Losses)
		s.Equal(50, p.Bricks)
		s.Equal(5, p.Gold)
	}
	s.Zero(outcome.WinnerDelta)
	s.Zero(outcome.LoserDelta)
	s.True(outcome.Tie)
}

func (s *ServiceSuite) TestRewardsAccumulate() {
	s.createProfile("p-1", "alice")
	s.createProfile("p-2", "bob")

	_, err := s.service.RecordMatchResult(s.ctx, "p-1", "p-2", false)
	s.Require().NoError(err)
	outcome, err := s.service.RecordMatchResult(s.ctx, "p-2", "p-1", false)
	s.Require().NoError(err)

	bob, delta, ok := outcome.For("p-2")
	s.Require().True(ok)
	s.Equal(125, bob.Bricks)
	s.Equal(10, bob.Gold)
	s.Equal(1, bob.Wins)
	s.Equal(1, bob.Losses)
	s.Equal(bob.Rating-984, delta)
}

func (s *ServiceSuite) TestOutcomeForUnknownPlayer() {
	s.createProfile("p-1", "alice")
	s.createProfile("p-2", "bob")

	outcome, err := s.service.RecordMatchResult(s.ctx, "p-1", "p-2", false)
	s.Require().NoError(err)

	_, _, ok := outcome.For("p-3")
	s.False(ok)
}

func (s *ServiceSuite) TestRecordMatchResultMissingProfile() {
	s.createProfile("p-1", "alice")

	_, err := s.service.RecordMatchResult(s.ctx, "p-1", "ghost", false)
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *ServiceSuite) TestRecordMatchResultSamePlayer() {
	s.createProfile("p-1", "alice")

	_, err := s.service.RecordMatchResult(s.ctx, "p-1", "p-1", false)
	s.ErrorIs(err, model.ErrSamePlayer)
}

// Leaderboard tests

func (s *ServiceSuite) TestLeaderboardDefaultsToTen() {
	for i := 0; i < 12; i++ {
		s.random.QueueID(string(rune('a'+i)) + "-id")
		_, err := s.service.GetOrCreateProfile(s.ctx, string(rune('a'+i))+"-player")
		s.Require().NoError(err)
	}

	entries, err := s.service.Leaderboard(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(entries, DefaultLeaderboardLimit)
}

func (s *ServiceSuite) TestLeaderboardRanksWinnerFirst() {
	s.createProfile("p-1", "alice")
	s.createProfile("p-2", "bob")
	_, err := s.service.RecordMatchResult(s.ctx, "p-2", "p-1", false)
	s.Require().NoError(err)

	entries, err := s.service.Leaderboard(s.ctx, 5)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("bob", entries[0].Username)
	s.Equal(1016, entries[0].Rating)
	s.Equal(1, entries[0].Wins)
	s.Equal("alice", entries[1].Username)
}
