package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/storage"
)

// ErrTxRetriesExhausted is returned when a watched transaction keeps
// conflicting with concurrent writers
var ErrTxRetriesExhausted = errors.New("redis transaction retries exhausted")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func loadProfile(ctx context.Context, g getter, id model.PlayerID) (*model.Profile, error) {
	data, err := g.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var p model.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func leaderboardMember(p *model.Profile) redis.Z {
	return redis.Z{Score: -float64(p.Rating), Member: p.Username}
}

// watch runs fn in an optimistic WATCH/MULTI transaction, retrying when a
// watched key is modified before EXEC
func (s *Storage) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	retries := s.cfg.MaxTxRetries
	if retries <= 0 {
		retries = DefaultConfig().MaxTxRetries
	}
	for i := 0; i < retries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrTxRetriesExhausted
}

func (s *Storage) InsertProfileIfAbsent(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	idxKey := usernameIndexKey(p.Username)
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	var result *model.Profile
	err = s.watch(ctx, func(tx *redis.Tx) error {
		existingID, err := tx.Get(ctx, idxKey).Result()
		if err == nil {
			result, err = loadProfile(ctx, tx, model.PlayerID(existingID))
			return err
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetNX(ctx, idxKey, string(p.ID), 0)
			pipe.Set(ctx, profileKey(p.ID), data, 0)
			pipe.ZAdd(ctx, leaderboardKey(), leaderboardMember(p))
			return nil
		})
		if err != nil {
			return err
		}
		result = p.Clone()
		return nil
	}, idxKey)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error) {
	return loadProfile(ctx, s.client, id)
}

func (s *Storage) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	// Look up player ID from username index
	id, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}
	return loadProfile(ctx, s.client, model.PlayerID(id))
}

func (s *Storage) UpdatePair(ctx context.Context, idA, idB model.PlayerID, fn storage.PairUpdateFunc) error {
	if idA == idB {
		return model.ErrSamePlayer
	}
	keyA, keyB := profileKey(idA), profileKey(idB)

	return s.watch(ctx, func(tx *redis.Tx) error {
		a, err := loadProfile(ctx, tx, idA)
		if err != nil {
			return err
		}
		b, err := loadProfile(ctx, tx, idB)
		if err != nil {
			return err
		}

		if err := fn(a, b); err != nil {
			return err
		}

		dataA, err := json.Marshal(a)
		if err != nil {
			return err
		}
		dataB, err := json.Marshal(b)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keyA, dataA, 0)
			pipe.Set(ctx, keyB, dataB, 0)
			pipe.ZAdd(ctx, leaderboardKey(), leaderboardMember(a), leaderboardMember(b))
			return nil
		})
		return err
	}, keyA, keyB)
}

func (s *Storage) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	usernames, err := s.client.ZRange(ctx, leaderboardKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(usernames) == 0 {
		return []model.LeaderboardEntry{}, nil
	}

	idxKeys := make([]string, len(usernames))
	for i, u := range usernames {
		idxKeys[i] = usernameIndexKey(u)
	}
	ids, err := s.client.MGet(ctx, idxKeys...).Result()
	if err != nil {
		return nil, err
	}

	profileKeys := make([]string, 0, len(ids))
	for _, id := range ids {
		if str, ok := id.(string); ok {
			profileKeys = append(profileKeys, profileKey(model.PlayerID(str)))
		}
	}
	if len(profileKeys) == 0 {
		return []model.LeaderboardEntry{}, nil
	}
	raw, err := s.client.MGet(ctx, profileKeys...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(raw))
	for _, v := range raw {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var p model.Profile
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			return nil, fmt.Errorf("decode leaderboard profile: %w", err)
		}
		entries = append(entries, model.LeaderboardEntry{
			Username: p.Username,
			Rating:   p.Rating,
			Wins:     p.Wins,
			Losses:   p.Losses,
		})
	}
	return entries, nil
}

func (s *Storage) CountProfiles(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, leaderboardKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
