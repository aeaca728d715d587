package protocol

import (
	"encoding/json"
	"fmt"
)

// Server message kinds
const (
	KindAuthAccepted             = "AuthAccepted"
	KindAuthRejected             = "AuthRejected"
	KindConnected                = "Connected"
	KindQueued                   = "Queued"
	KindMatchFound               = "MatchFound"
	KindGameStarted              = "GameStarted"
	KindOpponentSwap             = "OpponentSwap"
	KindScoreUpdate              = "ScoreUpdate"
	KindTimeUpdate               = "TimeUpdate"
	KindReceiveGarbage           = "ReceiveGarbage"
	KindOpponentActivatedSpecial = "OpponentActivatedSpecial"
	KindOpponentActivatedBooster = "OpponentActivatedBooster"
	KindGameOver                 = "GameOver"
	KindMatchResult              = "MatchResult"
	KindOpponentRequestedRematch = "OpponentRequestedRematch"
	KindRematchAccepted          = "RematchAccepted"
	KindOpponentLeft             = "OpponentLeft"
	KindOpponentDisconnected     = "OpponentDisconnected"
	KindError                    = "Error"
	KindLeaderboardData          = "LeaderboardData"
)

// ServerMessage is the closed set of messages the server sends
type ServerMessage interface {
	Kind() string
	isServerMessage()
}

type AuthAccepted struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Elo      int    `json:"elo"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Bricks   int    `json:"bricks"`
	Gold     int    `json:"gold"`
}

type AuthRejected struct {
	Reason string `json:"reason"`
}

type Connected struct {
	PlayerID string `json:"player_id"`
}

type Queued struct {
	Position int `json:"position"`
}

type MatchFound struct {
	GameID     string `json:"game_id"`
	OpponentID string `json:"opponent_id"`
}

type GameStarted struct {
	GameID string `json:"game_id"`
}

type OpponentSwap struct {
	Row1 uint `json:"row1"`
	Col1 uint `json:"col1"`
	Row2 uint `json:"row2"`
	Col2 uint `json:"col2"`
}

// ScoreUpdate is always addressed from the recipient's point of view
type ScoreUpdate struct {
	PlayerScore   uint32 `json:"player_score"`
	OpponentScore uint32 `json:"opponent_score"`
}

type TimeUpdate struct {
	SecondsRemaining int `json:"seconds_remaining"`
}

type ReceiveGarbage struct {
	Amount uint8 `json:"amount"`
}

type OpponentActivatedSpecial struct {
	Row uint `json:"row"`
	Col uint `json:"col"`
}

type OpponentActivatedBooster struct {
	BoosterID uint8 `json:"booster_id"`
}

// GameOver names the outcome for the recipient: "Win", "Loss" or "Tie"
type GameOver struct {
	Winner string `json:"winner"`
}

type MatchResult struct {
	NewElo    int `json:"new_elo"`
	EloChange int `json:"elo_change"`
	Wins      int `json:"wins"`
	Losses    int `json:"losses"`
	Bricks    int `json:"bricks"`
	Gold      int `json:"gold"`
}

type OpponentRequestedRematch struct{}

type RematchAccepted struct{}

type OpponentLeft struct{}

type OpponentDisconnected struct{}

type Error struct {
	Message string `json:"message"`
}

// LeaderboardRow is encoded as a two element array: [username, elo]
type LeaderboardRow struct {
	Username string
	Elo      int
}

func (r LeaderboardRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Username, r.Elo})
}

func (r *LeaderboardRow) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("leaderboard row: expected 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &r.Username); err != nil {
		return fmt.Errorf("leaderboard row username: %w", err)
	}
	if err := json.Unmarshal(raw[1], &r.Elo); err != nil {
		return fmt.Errorf("leaderboard row elo: %w", err)
	}
	return nil
}

type LeaderboardData struct {
	Players []LeaderboardRow `json:"players"`
}

func (AuthAccepted) Kind() string             { return KindAuthAccepted }
func (AuthRejected) Kind() string             { return KindAuthRejected }
func (Connected) Kind() string                { return KindConnected }
func (Queued) Kind() string                   { return KindQueued }
func (MatchFound) Kind() string               { return KindMatchFound }
func (GameStarted) Kind() string              { return KindGameStarted }
func (OpponentSwap) Kind() string             { return KindOpponentSwap }
func (ScoreUpdate) Kind() string              { return KindScoreUpdate }
func (TimeUpdate) Kind() string               { return KindTimeUpdate }
func (ReceiveGarbage) Kind() string           { return KindReceiveGarbage }
func (OpponentActivatedSpecial) Kind() string { return KindOpponentActivatedSpecial }
func (OpponentActivatedBooster) Kind() string { return KindOpponentActivatedBooster }
func (GameOver) Kind() string                 { return KindGameOver }
func (MatchResult) Kind() string              { return KindMatchResult }
func (OpponentRequestedRematch) Kind() string { return KindOpponentRequestedRematch }
func (RematchAccepted) Kind() string          { return KindRematchAccepted }
func (OpponentLeft) Kind() string             { return KindOpponentLeft }
func (OpponentDisconnected) Kind() string     { return KindOpponentDisconnected }
func (Error) Kind() string                    { return KindError }
func (LeaderboardData) Kind() string          { return KindLeaderboardData }

func (AuthAccepted) isServerMessage()             {}
func (AuthRejected) isServerMessage()             {}
func (Connected) isServerMessage()                {}
func (Queued) isServerMessage()                   {}
func (MatchFound) isServerMessage()               {}
func (GameStarted) isServerMessage()              {}
func (OpponentSwap) isServerMessage()             {}
func (ScoreUpdate) isServerMessage()              {}
func (TimeUpdate) isServerMessage()               {}
func (ReceiveGarbage) isServerMessage()           {}
func (OpponentActivatedSpecial) isServerMessage() {}
func (OpponentActivatedBooster) isServerMessage() {}
func (GameOver) isServerMessage()                 {}
func (MatchResult) isServerMessage()              {}
func (OpponentRequestedRematch) isServerMessage() {}
func (RematchAccepted) isServerMessage()          {}
func (OpponentLeft) isServerMessage()             {}
func (OpponentDisconnected) isServerMessage()     {}
func (Error) isServerMessage()                    {}
func (LeaderboardData) isServerMessage()          {}

var serverDecoders = map[string]func([]byte) (ServerMessage, error){
	KindAuthAccepted:             decodeAs[ServerMessage, AuthAccepted],
	KindAuthRejected:             decodeAs[ServerMessage, AuthRejected],
	KindConnected:                decodeAs[ServerMessage, Connected],
	KindQueued:                   decodeAs[ServerMessage, Queued],
	KindMatchFound:               decodeAs[ServerMessage, MatchFound],
	KindGameStarted:              decodeAs[ServerMessage, GameStarted],
	KindOpponentSwap:             decodeAs[ServerMessage, OpponentSwap],
	KindScoreUpdate:              decodeAs[ServerMessage, ScoreUpdate],
	KindTimeUpdate:               decodeAs[ServerMessage, TimeUpdate],
	KindReceiveGarbage:           decodeAs[ServerMessage, ReceiveGarbage],
	KindOpponentActivatedSpecial: decodeAs[ServerMessage, OpponentActivatedSpecial],
	KindOpponentActivatedBooster: decodeAs[ServerMessage, OpponentActivatedBooster],
	KindGameOver:                 decodeAs[ServerMessage, GameOver],
	KindMatchResult:              decodeAs[ServerMessage, MatchResult],
	KindOpponentRequestedRematch: decodeAs[ServerMessage, OpponentRequestedRematch],
	KindRematchAccepted:          decodeAs[ServerMessage, RematchAccepted],
	KindOpponentLeft:             decodeAs[ServerMessage, OpponentLeft],
	KindOpponentDisconnected:     decodeAs[ServerMessage, OpponentDisconnected],
	KindError:                    decodeAs[ServerMessage, Error],
	KindLeaderboardData:          decodeAs[ServerMessage, LeaderboardData],
}
