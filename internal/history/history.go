// Package history persists the moves and outcomes of games so they can be
// replayed after the fact. Stores implement game.Recorder and are handed to
// games through game.WithRecorder.
package history

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/lox/liarsdice/internal/game"
)

// ErrNotFound is returned by Load for a game with no recorded history.
var ErrNotFound = fmt.Errorf("history %w", game.ErrNotFound)

// Record is everything stored about one game.
type Record struct {
	GameID string       `json:"gameId"`
	Moves  []game.Move  `json:"moves"`
	Result *game.Result `json:"result,omitempty"`
}

// Store is a game.Recorder that can also read back what it recorded.
type Store interface {
	game.Recorder
	Load(ctx context.Context, gameID string) (Record, error)
	Close() error
}

// Open creates the store selected by cfg.
func Open(cfg Config, logger *log.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case DriverNone:
		return Nop{}, nil
	case DriverFile:
		store, err = NewFileStore(cfg.Path)
	case DriverSQLite:
		store, err = OpenSQLite(cfg.Path)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("History store opened", "driver", cfg.Driver, "path", cfg.Path)
	if cfg.QueueSize > 0 {
		return NewAsync(store, cfg.QueueSize, logger), nil
	}
	return store, nil
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordMove(context.Context, string, game.Move) error { return nil }
func (Nop) RecordResult(context.Context, game.Result) error     { return nil }
func (Nop) Close() error                                        { return nil }

func (Nop) Load(_ context.Context, gameID string) (Record, error) {
	return Record{}, fmt.Errorf("%w: %s", ErrNotFound, gameID)
}

// insertMove adds m to moves in sequence order, ignoring a move that is already
// present.
func insertMove(moves []game.Move, m game.Move) []game.Move {
	i, found := slices.BinarySearchFunc(moves, m.Seq, func(e game.Move, seq int) int {
		return e.Seq - seq
	})
	if found {
		return moves
	}
	return slices.Insert(moves, i, m)
}
