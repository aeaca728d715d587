package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mcoot/match3duel/internal/model"
	"github.com/mcoot/match3duel/internal/storage"
)

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// New opens (creating if missing) the database at cfg.Path and applies
// pending migrations
func New(ctx context.Context, cfg Config) (*Storage, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	// Writers take the lock at BEGIN so two rating updates cannot deadlock
	// upgrading from a shared lock
	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Close closes the underlying database
func (s *Storage) Close() error {
	return s.db.Close()
}

const profileColumns = `id, username, rating, wins, losses, bricks, gold, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.ID, &p.Username, &p.Rating, &p.Wins, &p.Losses, &p.Bricks, &p.Gold, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Storage) InsertProfileIfAbsent(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO NOTHING`,
		p.ID, p.Username, p.Rating, p.Wins, p.Losses, p.Bricks, p.Gold, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	return s.GetProfileByUsername(ctx, p.Username)
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error) {
	return scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id=?`, id))
}

func (s *Storage) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username=?`, username))
}

func (s *Storage) UpdatePair(ctx context.Context, idA, idB model.PlayerID, fn storage.PairUpdateFunc) error {
	if idA == idB {
		return model.ErrSamePlayer
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	a, err := scanProfile(tx.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id=?`, idA))
	if err != nil {
		return err
	}
	b, err := scanProfile(tx.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id=?`, idB))
	if err != nil {
		return err
	}

	if err := fn(a, b); err != nil {
		return err
	}

	for _, p := range []*model.Profile{a, b} {
		_, err := tx.ExecContext(ctx, `
			UPDATE profiles
			SET rating=?, wins=?, losses=?, bricks=?, gold=?, updated_at=?
			WHERE id=?`,
			p.Rating, p.Wins, p.Losses, p.Bricks, p.Gold, p.UpdatedAt, p.ID,
		)
		if err != nil {
			return fmt.Errorf("update profile %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, rating, wins, losses
		FROM profiles
		ORDER BY rating DESC, username ASC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.LeaderboardEntry, 0)
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Rating, &e.Wins, &e.Losses); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Storage) CountProfiles(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM profiles`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
