package rating

import "math"

// KFactor is the maximum rating change a single match can produce
const KFactor = 32.0

// Reward is the currency granted to one player at the end of a match
type Reward struct {
	Bricks int
	Gold   int
}

var (
	WinReward  = Reward{Bricks: 100, Gold: 10}
	LossReward = Reward{Bricks: 25, Gold: 0}
	TieReward  = Reward{Bricks: 50, Gold: 5}
)

// ExpectedScore is the logistic probability that a player rated rating
// beats one rated opponent
func ExpectedScore(rating, opponent int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(opponent-rating)/400.0))
}

// EloDeltas returns the rounded rating changes for both sides of a match.
// For a tie the argument order does not matter beyond which delta is which.
func EloDeltas(winnerRating, loserRating int, tie bool) (winnerDelta, loserDelta int) {
	score := 1.0
	if tie {
		score = 0.5
	}
	winnerExpected := ExpectedScore(winnerRating, loserRating)
	loserExpected := 1.0 - winnerExpected

	winnerDelta = int(math.Round(KFactor * (score - winnerExpected)))
	loserDelta = int(math.Round(KFactor * ((1.0 - score) - loserExpected)))
	return winnerDelta, loserDelta
}

// Rewards returns the currency for the winner and loser (or both sides of a tie)
func Rewards(tie bool) (winner, loser Reward) {
	if tie {
		return TieReward, TieReward
	}
	return WinReward, LossReward
}
