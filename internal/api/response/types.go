package response

import (
	"time"

	"github.com/mcoot/match3duel/internal/model"
)

// Health is the body of the health check
type Health struct {
	Status string `json:"status"`
}

// Profile represents a player profile in API responses
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Bricks    int       `json:"bricks"`
	Gold      int       `json:"gold"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileFromModel converts a model.Profile to a response Profile
func ProfileFromModel(p *model.Profile) Profile {
	return Profile{
		ID:        string(p.ID),
		Username:  p.Username,
		Rating:    p.Rating,
		Wins:      p.Wins,
		Losses:    p.Losses,
		Bricks:    p.Bricks,
		Gold:      p.Gold,
		CreatedAt: p.CreatedAt,
	}
}

// LeaderboardEntry is one ranked player
type LeaderboardEntry struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
}

// Leaderboard lists players by rating, highest first
type Leaderboard struct {
	Players []LeaderboardEntry `json:"players"`
}

// LeaderboardFromModel converts ranked model entries
func LeaderboardFromModel(entries []model.LeaderboardEntry) Leaderboard {
	players := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		players[i] = LeaderboardEntry{
			Username: e.Username,
			Rating:   e.Rating,
			Wins:     e.Wins,
			Losses:   e.Losses,
		}
	}
	return Leaderboard{Players: players}
}

// Stats is a snapshot of live server activity
type Stats struct {
	ConnectedPlayers int `json:"connected_players"`
	QueuedPlayers    int `json:"queued_players"`
	ActiveSessions   int `json:"active_sessions"`
	TotalProfiles    int `json:"total_profiles"`
}
