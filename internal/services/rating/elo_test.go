package rating

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type EloSuite struct {
	suite.Suite
}

func TestEloSuite(t *testing.T) {
	suite.Run(t, new(EloSuite))
}

func (s *EloSuite) TestExpectedScoreEvenMatch() {
	s.InDelta(0.5, ExpectedScore(1000, 1000), 1e-9)
}

func (s *EloSuite) TestExpectedScoresSumToOne() {
	s.InDelta(1.0, ExpectedScore(1350, 1100)+ExpectedScore(1100, 1350), 1e-9)
}

func (s *EloSuite) TestEvenMatchDecisive() {
	w, l := EloDeltas(1000, 1000, false)
	s.Equal(16, w)
	s.Equal(-16, l)
}

func (s *EloSuite) TestEvenMatchTie() {
	w, l := EloDeltas(1000, 1000, true)
	s.Equal(0, w)
	s.Equal(0, l)
}

func (s *EloSuite) TestFavouriteWins() {
	w, l := EloDeltas(1200, 1000, false)
	s.Equal(8, w)
	s.Equal(-8, l)
}

func (s *EloSuite) TestUnderdogWins() {
	w, l := EloDeltas(1000, 1200, false)
	s.Equal(24, w)
	s.Equal(-24, l)
}

func (s *EloSuite) TestUnevenTieMovesTowardsEachOther() {
	higher, lower := EloDeltas(1200, 1000, true)
	s.Equal(-8, higher)
	s.Equal(8, lower)
}

func (s *EloSuite) TestRewards() {
	w, l := Rewards(false)
	s.Equal(Reward{Bricks: 100, Gold: 10}, w)
	s.Equal(Reward{Bricks: 25, Gold: 0}, l)

	a, b := Rewards(true)
	s.Equal(Reward{Bricks: 50, Gold: 5}, a)
	s.Equal(a, b)
}
