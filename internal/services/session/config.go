package session

import "time"

// Config controls match timing
type Config struct {
	// Duration is the number of ticks in one round
	Duration int

	// TickInterval is the wall time between ticks
	TickInterval time.Duration

	// RatingTimeout bounds the rating update at game over
	RatingTimeout time.Duration
}

// DefaultConfig returns a 90 second round ticking once a second
func DefaultConfig() Config {
	return Config{
		Duration:      90,
		TickInterval:  time.Second,
		RatingTimeout: 5 * time.Second,
	}
}
