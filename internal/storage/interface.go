package storage

import (
	"context"

	"github.com/mcoot/match3duel/internal/model"
)

// PairUpdateFunc mutates two profiles loaded inside one transaction.
// Implementations may call it more than once when a transaction is retried,
// so it must derive its changes only from its arguments.
type PairUpdateFunc func(a, b *model.Profile) error

// Storage defines the interface for profile persistence
type Storage interface {
	// InsertProfileIfAbsent stores p unless a profile with the same username
	// already exists, and returns whichever profile is now stored for it.
	InsertProfileIfAbsent(ctx context.Context, p *model.Profile) (*model.Profile, error)

	GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error)

	// UpdatePair loads both profiles, applies fn and writes both back
	// atomically. Nothing is written if fn returns an error.
	UpdatePair(ctx context.Context, idA, idB model.PlayerID, fn PairUpdateFunc) error

	// Leaderboard returns up to limit profiles ordered by rating descending,
	// then username ascending
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)

	// CountProfiles returns the number of stored profiles
	CountProfiles(ctx context.Context) (int, error)

	Close() error
}
