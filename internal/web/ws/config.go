package ws

import "time"

// Config bounds a single websocket connection
type Config struct {
	// HandshakeTimeout is how long a client has to send its Login frame
	HandshakeTimeout time.Duration

	// WriteWait is the deadline for writing one frame
	WriteWait time.Duration

	// ReadLimit is the largest frame accepted from a client, in bytes
	ReadLimit int64
}

func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 30 * time.Second,
		WriteWait:        10 * time.Second,
		ReadLimit:        4096,
	}
}
