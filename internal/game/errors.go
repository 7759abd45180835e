package game

import "errors"

// Error kinds returned by the engine. Callers match them with errors.Is; the
// wrapped message carries the detail.
var (
	// ErrPermission is returned when the caller lacks authority, e.g. a
	// non-owner trying to start the game.
	ErrPermission = errors.New("permission denied")

	// ErrNotEnoughPlayers is returned when a game is started with fewer than
	// MinPlayers participants.
	ErrNotEnoughPlayers = errors.New("not enough players")

	// ErrWrongTurn is returned when an action comes from a player who is not
	// the current player, or when the game is not in progress.
	ErrWrongTurn = errors.New("not your turn")

	// ErrInvalidAction is returned for malformed or rule-violating actions.
	ErrInvalidAction = errors.New("invalid action")

	// ErrNotFound is returned for unknown game or player references.
	ErrNotFound = errors.New("not found")
)
