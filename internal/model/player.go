package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// DefaultRating is the rating assigned to a freshly created profile
const DefaultRating = 1000

// Profile is a player's durable identity and rating record
type Profile struct {
	ID        PlayerID  `json:"id"`
	Username  string    `json:"username"` // login username (unique, immutable)
	Rating    int       `json:"rating"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Bricks    int       `json:"bricks"` // primary currency
	Gold      int       `json:"gold"`   // premium currency
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProfile returns a profile with default rating and zero stats
func NewProfile(id PlayerID, username string, now time.Time) *Profile {
	return &Profile{
		ID:        id,
		Username:  username,
		Rating:    DefaultRating,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that is safe to hand out of a store
func (p *Profile) Clone() *Profile {
	c := *p
	return &c
}
