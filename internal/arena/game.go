package arena

import (
	"time"

	"github.com/ChizhovVadim/takmatch/internal/domain"
	"github.com/ChizhovVadim/takmatch/internal/schedule"
	"github.com/ChizhovVadim/takmatch/pkg/tak"
)

// PlayedMove is a move with the mover's search summary.
type PlayedMove struct {
	Move    tak.Move
	Comment string
}

// GameRecord is a finished (or abandoned) game.
type GameRecord struct {
	Entry    schedule.Entry
	White    string
	Black    string
	StartTPS string
	FinalTPS string
	Moves    []PlayedMove
	Result   tak.Result
	// Fault describes the engine failure that decided the game, if any.
	Fault    string
	Started  time.Time
	Finished time.Time
}

// Score returns the points of engine id in this game.
func (g *GameRecord) Score(id domain.EngineID) float64 {
	if g.Entry.White == id {
		return g.Result.Score(tak.White)
	}
	return g.Result.Score(tak.Black)
}

// GameState is a snapshot of a game in progress, published after every ply.
type GameState struct {
	Slot      int           `json:"slot"`
	Game      int           `json:"game"`
	White     string        `json:"white"`
	Black     string        `json:"black"`
	TPS       string        `json:"tps"`
	Moves     []string      `json:"moves"`
	WhiteTime time.Duration `json:"whiteTimeNs"`
	BlackTime time.Duration `json:"blackTimeNs"`
	Result    string        `json:"result"`
	Finished  bool          `json:"finished"`
}

// Watcher receives live game updates. Update is called from worker
// goroutines concurrently.
type Watcher interface {
	Update(state GameState)
}

// Sink stores finished games. Record is called from a single goroutine in
// completion order.
type Sink interface {
	Record(game *GameRecord) error
}
