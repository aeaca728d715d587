package model

import "errors"

// Common errors used across the application
var (
	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidUsername = errors.New("invalid username")
	ErrSamePlayer      = errors.New("winner and loser must be different players")

	// Session errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrAlreadyInSession  = errors.New("player is already in a session")
	ErrPlayerNotInGame   = errors.New("player is not part of this session")
	ErrSessionStarted    = errors.New("session already started")
	ErrSessionNotActive  = errors.New("session is not active")
	ErrRematchNotAllowed = errors.New("rematch is only possible after game over")
	ErrSessionTerminated = errors.New("session has ended")

	// Connection errors
	ErrPlayerNotConnected = errors.New("player not connected")
)
