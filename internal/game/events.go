package game

import (
	"context"
	"time"
)

// Update is emitted once per successful state change. Views holds one filtered
// projection per participant; Public carries no dice and is safe for anyone.
// Version increases strictly with every update of the same game.
type Update struct {
	GameID  string
	Version uint64
	Status  Status
	Views   map[string]View
	Public  View
}

// Publisher receives updates for fan-out. It is called after the game's lock is
// released, so it may read from the game, but it must not block for long.
type Publisher interface {
	Publish(Update)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Update)

// Publish implements Publisher.
func (f PublisherFunc) Publish(u Update) { f(u) }

// Result is the terminal outcome of a game.
type Result struct {
	GameID     string           `json:"gameId"`
	Status     Status           `json:"status"`
	Winner     string           `json:"winnerId,omitempty"`
	Rounds     int              `json:"rounds"`
	Moves      int              `json:"moves"`
	Reason     string           `json:"reason,omitempty"`
	Players    []PlayerSnapshot `json:"players"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
}

// Recorder persists moves and results for history. Errors are logged by the
// engine and never affect play.
type Recorder interface {
	RecordMove(ctx context.Context, gameID string, move Move) error
	RecordResult(ctx context.Context, result Result) error
}
