package model

// SessionID uniquely identifies a game session (kept across rematches)
type SessionID string

// Outcome is one player's view of how a match ended
type Outcome string

const (
	OutcomeWin  Outcome = "Win"
	OutcomeLoss Outcome = "Loss"
	OutcomeTie  Outcome = "Tie"
)

// Opposite returns the complementary outcome for the other player
func (o Outcome) Opposite() Outcome {
	switch o {
	case OutcomeWin:
		return OutcomeLoss
	case OutcomeLoss:
		return OutcomeWin
	default:
		return OutcomeTie
	}
}

// DecideOutcome compares a score pair and returns the outcome for the first player
func DecideOutcome(mine, theirs uint32) Outcome {
	switch {
	case mine > theirs:
		return OutcomeWin
	case mine < theirs:
		return OutcomeLoss
	default:
		return OutcomeTie
	}
}

// LeaderboardEntry is one row of the rating leaderboard
type LeaderboardEntry struct {
	Username string
	Rating   int
	Wins     int
	Losses   int
}
