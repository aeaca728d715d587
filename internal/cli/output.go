package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mcoot/match3duel/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// Event prints one server message. JSON output is one wire frame per line so
// it can be piped into other tools.
func (o *Output) Event(msg protocol.ServerMessage) {
	if o.format == "json" {
		data, err := protocol.Encode(msg)
		if err != nil {
			o.PrintError(err)
			return
		}
		fmt.Println(string(data))
		return
	}
	fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), describeEvent(msg))
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Profile:
		o.printProfile(v)
	case Leaderboard:
		o.printLeaderboard(v)
	case Stats:
		o.printStats(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Profile response type (matches API)
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Bricks    int       `json:"bricks"`
	Gold      int       `json:"gold"`
	CreatedAt time.Time `json:"created_at"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
}

// Leaderboard response type
type Leaderboard struct {
	Players []LeaderboardEntry `json:"players"`
}

// Stats response type
type Stats struct {
	ConnectedPlayers int `json:"connected_players"`
	QueuedPlayers    int `json:"queued_players"`
	ActiveSessions   int `json:"active_sessions"`
	TotalProfiles    int `json:"total_profiles"`
}

// HealthResult response type. Realtime is filled in by the CLI, not the API.
type HealthResult struct {
	Status   string `json:"status"`
	Realtime string `json:"realtime,omitempty"`
}

func (o *Output) printProfile(p Profile) {
	fmt.Printf("Player: %s (%s)\n", p.Username, p.ID)
	fmt.Printf("Rating: %d\n", p.Rating)
	fmt.Printf("Record: %d won, %d lost\n", p.Wins, p.Losses)
	fmt.Printf("Bricks: %d\n", p.Bricks)
	fmt.Printf("Gold: %d\n", p.Gold)
}

func (o *Output) printLeaderboard(l Leaderboard) {
	if len(l.Players) == 0 {
		fmt.Println("No players yet")
		return
	}

	width := len("Player")
	for _, p := range l.Players {
		width = max(width, len(p.Username))
	}

	fmt.Printf("%4s  %-*s  %6s  %s\n", "Rank", width, "Player", "Rating", "W-L")
	fmt.Println(strings.Repeat("-", width+24))
	for i, p := range l.Players {
		fmt.Printf("%4d  %-*s  %6d  %d-%d\n", i+1, width, p.Username, p.Rating, p.Wins, p.Losses)
	}
}

func (o *Output) printStats(s Stats) {
	fmt.Printf("Connected players: %d\n", s.ConnectedPlayers)
	fmt.Printf("Queued players: %d\n", s.QueuedPlayers)
	fmt.Printf("Active sessions: %d\n", s.ActiveSessions)
	fmt.Printf("Total profiles: %d\n", s.TotalProfiles)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	if h.Realtime != "" {
		fmt.Printf("Realtime: %s\n", h.Realtime)
	}
}

// describeEvent renders a server message as a one-line summary
func describeEvent(msg protocol.ServerMessage) string {
	switch m := msg.(type) {
	case protocol.AuthAccepted:
		return fmt.Sprintf("Logged in as %s (%s), rating %d", m.Username, m.PlayerID, m.Elo)
	case protocol.Connected:
		return "Connected"
	case protocol.Queued:
		return fmt.Sprintf("Waiting for an opponent (position %d)", m.Position)
	case protocol.MatchFound:
		return fmt.Sprintf("Matched against %s in game %s", m.OpponentID, m.GameID)
	case protocol.GameStarted:
		return "Game started"
	case protocol.ScoreUpdate:
		return fmt.Sprintf("Score %d - %d", m.PlayerScore, m.OpponentScore)
	case protocol.TimeUpdate:
		return fmt.Sprintf("%ds remaining", m.SecondsRemaining)
	case protocol.OpponentSwap:
		return fmt.Sprintf("Opponent swapped (%d,%d) with (%d,%d)", m.Row1, m.Col1, m.Row2, m.Col2)
	case protocol.ReceiveGarbage:
		return fmt.Sprintf("Received %d garbage", m.Amount)
	case protocol.OpponentActivatedSpecial:
		return fmt.Sprintf("Opponent activated a special at (%d,%d)", m.Row, m.Col)
	case protocol.OpponentActivatedBooster:
		return fmt.Sprintf("Opponent activated booster %d", m.BoosterID)
	case protocol.GameOver:
		return "Game over: " + m.Winner
	case protocol.MatchResult:
		return fmt.Sprintf("Rating %d (%+d), record %d-%d, bricks %d, gold %d",
			m.NewElo, m.EloChange, m.Wins, m.Losses, m.Bricks, m.Gold)
	case protocol.OpponentRequestedRematch:
		return "Opponent wants a rematch"
	case protocol.RematchAccepted:
		return "Rematch accepted"
	case protocol.OpponentLeft:
		return "Opponent left"
	case protocol.OpponentDisconnected:
		return "Opponent disconnected"
	case protocol.Error:
		return "Server error: " + m.Message
	default:
		return msg.Kind()
	}
}
