package game

import "github.com/lox/liarsdice/internal/dice"

// seat is a player's participation record. It is owned by the Game and never
// handed out; callers see PlayerSnapshot values instead.
type seat struct {
	id       string
	order    int
	dieCount int
	pool     dice.Pool
}

// active is derived from the die count so the two can never disagree.
func (s *seat) active() bool {
	return s.dieCount > 0
}

func (s *seat) loseDie() {
	if s.dieCount == 0 {
		panic("game: player without dice lost a die")
	}
	s.dieCount--
	if s.dieCount == 0 {
		s.pool = dice.Pool{}
	}
}

func (s *seat) snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:        s.id,
		SeatOrder: s.order,
		DieCount:  s.dieCount,
		Active:    s.active(),
		Dice:      s.pool.Faces(),
	}
}

// PlayerSnapshot is an immutable copy of a player's state, including their
// concealed dice. It is meant for the engine's owner (tests, persistence at game
// end); client-facing code must use View.
type PlayerSnapshot struct {
	ID        string `json:"id"`
	SeatOrder int    `json:"seatOrder"`
	DieCount  int    `json:"dieCount"`
	Active    bool   `json:"active"`
	Dice      []int  `json:"dice,omitempty"`
}
