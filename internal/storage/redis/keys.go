package redis

import (
	"fmt"

	"github.com/mcoot/match3duel/internal/model"
)

// Key prefix for all match3duel data
const keyPrefix = "m3duel"

// profileKey returns the Redis key for a Profile
func profileKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// leaderboardKey returns the Redis key for the rating ZSET.
// Members are usernames scored by negated rating, so an ascending range
// yields rating descending with ties broken by username ascending.
func leaderboardKey() string {
	return fmt.Sprintf("%s:leaderboard", keyPrefix)
}
