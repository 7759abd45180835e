package game

import (
	"fmt"

	"github.com/lox/liarsdice/internal/dice"
)

const (
	// MinPlayers is the fewest participants a game can start with.
	MinPlayers = 2
	// DefaultMaxPlayers is the largest table a room can hold.
	DefaultMaxPlayers = 6
	// DefaultStartingDice is the number of dice each player begins with.
	DefaultStartingDice = 5

	// DefaultWildFace is the face that counts toward every bid. Standard Perudo
	// treats ones as wild.
	DefaultWildFace = 1
	// NoWildFace disables wild dice: only the bid face is counted.
	NoWildFace = 0
)

// Rules are the fixed policy points of a game. They are frozen when the game is
// created.
type Rules struct {
	StartingDice int
	WildFace     int
	MaxPlayers   int
}

// DefaultRules returns five dice per player, ones wild, up to six players.
func DefaultRules() Rules {
	return Rules{
		StartingDice: DefaultStartingDice,
		WildFace:     DefaultWildFace,
		MaxPlayers:   DefaultMaxPlayers,
	}
}

// Validate checks the rules are playable.
func (r Rules) Validate() error {
	if r.StartingDice < 1 {
		return fmt.Errorf("starting dice must be positive, got %d", r.StartingDice)
	}
	if r.WildFace != NoWildFace && !dice.ValidFace(r.WildFace) {
		return fmt.Errorf("wild face must be 0 or between %d and %d, got %d", dice.MinFace, dice.MaxFace, r.WildFace)
	}
	if r.MaxPlayers < MinPlayers {
		return fmt.Errorf("max players must be at least %d, got %d", MinPlayers, r.MaxPlayers)
	}
	return nil
}

// Wild reports whether wild dice are in play.
func (r Rules) Wild() bool {
	return r.WildFace != NoWildFace
}

// Tally counts the dice in pool that support a bid on face. Wild dice count
// toward every face except when the bid is on the wild face itself, where they
// are simply matching dice.
func (r Rules) Tally(pool dice.Pool, face int) int {
	n := pool.Count(face)
	if r.Wild() && face != r.WildFace {
		n += pool.Count(r.WildFace)
	}
	return n
}
