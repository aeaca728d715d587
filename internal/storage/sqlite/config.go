package sqlite

import "time"

// Config holds SQLite file and connection settings
type Config struct {
	// Path is the database file; parent directories are created on open
	Path string

	// BusyTimeout is how long a statement waits on a locked database
	BusyTimeout time.Duration
}

// DefaultConfig returns sensible defaults for SQLite configuration
func DefaultConfig() Config {
	return Config{
		Path:        "match3.db",
		BusyTimeout: 5 * time.Second,
	}
}
