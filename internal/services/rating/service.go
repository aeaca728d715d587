package rating

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/mcoot/match3duel/internal/dependencies/clock"
	"github.com/mcoot/match3duel/internal/dependencies/random"
	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/storage"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// MatchOutcome is the persisted result of one finished match
type MatchOutcome struct {
	Winner      *model.Profile
	Loser       *model.Profile
	WinnerDelta int
	LoserDelta  int
	Tie         bool
}

// For returns the updated profile and rating change for one participant
func (o MatchOutcome) For(id model.PlayerID) (*model.Profile, int, bool) {
	switch {
	case o.Winner != nil && o.Winner.ID == id:
		return o.Winner, o.WinnerDelta, true
	case o.Loser != nil && o.Loser.ID == id:
		return o.Loser, o.LoserDelta, true
	default:
		return nil, 0, false
	}
}

// Service owns player profiles: lookup, creation and match result accounting
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	creating singleflight.Group
}

// New creates a new rating service
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "rating")),
	}
}

// GetOrCreateProfile returns the profile for username, creating it with
// default rating and zero stats on first login. Concurrent first logins for
// one username produce exactly one profile.
func (s *Service) GetOrCreateProfile(ctx context.Context, username string) (*model.Profile, error) {
	if username == "" {
		return nil, model.ErrInvalidUsername
	}

	v, err, _ := s.creating.Do(username, func() (any, error) {
		existing, err := s.storage.GetProfileByUsername(ctx, username)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, model.ErrProfileNotFound) {
			return nil, err
		}

		candidate := model.NewProfile(model.PlayerID(s.random.NewID()), username, s.clock.Now())
		stored, err := s.storage.InsertProfileIfAbsent(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if stored.ID == candidate.ID {
			s.logger.Info("profile created",
				slog.String("player_id", string(stored.ID)),
				slog.String("username", username),
			)
		}
		return stored, nil
	})
	if err != nil {
		return nil, fmt.Errorf("get or create profile %q: %w", username, err)
	}
	// Callers sharing a flight must not share the pointer
	return v.(*model.Profile).Clone(), nil
}

// RecordMatchResult applies rating and currency changes to both players in
// one storage transaction. For a tie the order of ids is irrelevant.
func (s *Service) RecordMatchResult(ctx context.Context, winnerID, loserID model.PlayerID, tie bool) (MatchOutcome, error) {
	if winnerID == loserID {
		return MatchOutcome{}, model.ErrSamePlayer
	}

	var outcome MatchOutcome
	err := s.storage.UpdatePair(ctx, winnerID, loserID, func(winner, loser *model.Profile) error {
		winnerDelta, loserDelta := EloDeltas(winner.Rating, loser.Rating, tie)
		winnerReward, loserReward := Rewards(tie)
		now := s.clock.Now()

		winner.Rating += winnerDelta
		winner.Bricks += winnerReward.Bricks
		winner.Gold += winnerReward.Gold
		winner.UpdatedAt = now

		loser.Rating += loserDelta
		loser.Bricks += loserReward.Bricks
		loser.Gold += loserReward.Gold
		loser.UpdatedAt = now

		if !tie {
			winner.Wins++
			loser.Losses++
		}

		outcome = MatchOutcome{
			Winner:      winner.Clone(),
			Loser:       loser.Clone(),
			WinnerDelta: winnerDelta,
			LoserDelta:  loserDelta,
			Tie:         tie,
		}
		return nil
	})
	if err != nil {
		return MatchOutcome{}, fmt.Errorf("record match result: %w", err)
	}

	s.logger.Info("match result recorded",
		slog.String("winner_id", string(winnerID)),
		slog.String("loser_id", string(loserID)),
		slog.Bool("tie", tie),
		slog.Int("winner_delta", outcome.WinnerDelta),
		slog.Int("loser_delta", outcome.LoserDelta),
	)
	return outcome, nil
}

// Leaderboard returns the top players by rating. A non-positive limit means
// DefaultLeaderboardLimit.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	return s.storage.Leaderboard(ctx, limit)
}

// Profile looks up a profile by player id
func (s *Service) Profile(ctx context.Context, id model.PlayerID) (*model.Profile, error) {
	return s.storage.GetProfile(ctx, id)
}

// ProfileByUsername looks up a profile by login name
func (s *Service) ProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return s.storage.GetProfileByUsername(ctx, username)
}

// ProfileCount returns how many profiles exist
func (s *Service) ProfileCount(ctx context.Context) (int, error) {
	return s.storage.CountProfiles(ctx)
}
