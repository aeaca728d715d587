package protocol

import "context"

// Client message kinds as they appear in the "type" field on the wire
const (
	KindLogin            = "Login"
	KindJoinQueue        = "JoinQueue"
	KindSwapGems         = "SwapGems"
	KindReportScore      = "ScoreUpdate"
	KindSendGarbage      = "SendGarbage"
	KindActivateSpecial  = "ActivateSpecial"
	KindActivateBooster  = "ActivateBooster"
	KindRequestRematch   = "RequestRematch"
	KindLeaveGame        = "LeaveGame"
	KindFetchLeaderboard = "FetchLeaderboard"
)

// ClientMessage is the closed set of messages a client may send.
// The set is sealed by the unexported method; every kind is routed through
// Dispatch so adding a kind means adding a ClientHandler method, which breaks
// every handler that has not implemented it yet.
type ClientMessage interface {
	Kind() string
	Dispatch(ctx context.Context, h ClientHandler)
	isClientMessage()
}

// ClientHandler receives one call per decoded client message
type ClientHandler interface {
	OnLogin(ctx context.Context, msg Login)
	OnJoinQueue(ctx context.Context, msg JoinQueue)
	OnSwapGems(ctx context.Context, msg SwapGems)
	OnReportScore(ctx context.Context, msg ReportScore)
	OnSendGarbage(ctx context.Context, msg SendGarbage)
	OnActivateSpecial(ctx context.Context, msg ActivateSpecial)
	OnActivateBooster(ctx context.Context, msg ActivateBooster)
	OnRequestRematch(ctx context.Context, msg RequestRematch)
	OnLeaveGame(ctx context.Context, msg LeaveGame)
	OnFetchLeaderboard(ctx context.Context, msg FetchLeaderboard)
}

// Login is the handshake message; it must be the first frame on a connection
type Login struct {
	Username string `json:"username"`
}

// JoinQueue asks to be paired with the next waiting player
type JoinQueue struct{}

// SwapGems reports a swap on the sender's board, relayed verbatim
type SwapGems struct {
	Row1 uint `json:"row1"`
	Col1 uint `json:"col1"`
	Row2 uint `json:"row2"`
	Col2 uint `json:"col2"`
}

// ReportScore carries the sender's current score (trusted as received)
type ReportScore struct {
	Score uint32 `json:"score"`
}

// SendGarbage pushes garbage rows onto the opponent's board
type SendGarbage struct {
	Amount uint8 `json:"amount"`
}

// ActivateSpecial reports a special gem activation at a board cell
type ActivateSpecial struct {
	Row uint `json:"row"`
	Col uint `json:"col"`
}

// ActivateBooster reports a booster activation by booster identifier
type ActivateBooster struct {
	BoosterID uint8 `json:"booster_id"`
}

// RequestRematch casts the sender's rematch vote after game over
type RequestRematch struct{}

// LeaveGame ends the sender's current session
type LeaveGame struct{}

// FetchLeaderboard asks for the top rated players
type FetchLeaderboard struct{}

func (Login) Kind() string            { return KindLogin }
func (JoinQueue) Kind() string        { return KindJoinQueue }
func (SwapGems) Kind() string         { return KindSwapGems }
func (ReportScore) Kind() string      { return KindReportScore }
func (SendGarbage) Kind() string      { return KindSendGarbage }
func (ActivateSpecial) Kind() string  { return KindActivateSpecial }
func (ActivateBooster) Kind() string  { return KindActivateBooster }
func (RequestRematch) Kind() string   { return KindRequestRematch }
func (LeaveGame) Kind() string        { return KindLeaveGame }
func (FetchLeaderboard) Kind() string { return KindFetchLeaderboard }

func (m Login) Dispatch(ctx context.Context, h ClientHandler)           { h.OnLogin(ctx, m) }
func (m JoinQueue) Dispatch(ctx context.Context, h ClientHandler)       { h.OnJoinQueue(ctx, m) }
func (m SwapGems) Dispatch(ctx context.Context, h ClientHandler)        { h.OnSwapGems(ctx, m) }
func (m ReportScore) Dispatch(ctx context.Context, h ClientHandler)     { h.OnReportScore(ctx, m) }
func (m SendGarbage) Dispatch(ctx context.Context, h ClientHandler)     { h.OnSendGarbage(ctx, m) }
func (m ActivateSpecial) Dispatch(ctx context.Context, h ClientHandler) { h.OnActivateSpecial(ctx, m) }
func (m ActivateBooster) Dispatch(ctx context.Context, h ClientHandler) { h.OnActivateBooster(ctx, m) }
func (m RequestRematch) Dispatch(ctx context.Context, h ClientHandler)  { h.OnRequestRematch(ctx, m) }
func (m LeaveGame) Dispatch(ctx context.Context, h ClientHandler)       { h.OnLeaveGame(ctx, m) }
func (m FetchLeaderboard) Dispatch(ctx context.Context, h ClientHandler) {
	h.OnFetchLeaderboard(ctx, m)
}

func (Login) isClientMessage()            {}
func (JoinQueue) isClientMessage()        {}
func (SwapGems) isClientMessage()         {}
func (ReportScore) isClientMessage()      {}
func (SendGarbage) isClientMessage()      {}
func (ActivateSpecial) isClientMessage()  {}
func (ActivateBooster) isClientMessage()  {}
func (RequestRematch) isClientMessage()   {}
func (LeaveGame) isClientMessage()        {}
func (FetchLeaderboard) isClientMessage() {}

var clientDecoders = map[string]func([]byte) (ClientMessage, error){
	KindLogin:            decodeAs[ClientMessage, Login],
	KindJoinQueue:        decodeAs[ClientMessage, JoinQueue],
	KindSwapGems:         decodeAs[ClientMessage, SwapGems],
	KindReportScore:      decodeAs[ClientMessage, ReportScore],
	KindSendGarbage:      decodeAs[ClientMessage, SendGarbage],
	KindActivateSpecial:  decodeAs[ClientMessage, ActivateSpecial],
	KindActivateBooster:  decodeAs[ClientMessage, ActivateBooster],
	KindRequestRematch:   decodeAs[ClientMessage, RequestRematch],
	KindLeaveGame:        decodeAs[ClientMessage, LeaveGame],
	KindFetchLeaderboard: decodeAs[ClientMessage, FetchLeaderboard],
}
