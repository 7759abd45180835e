package game

import (
	"fmt"

	"github.com/lox/liarsdice/internal/dice"
)

// Ledger is the append-only record of bids and the closing challenge for one
// round. It enforces bid ordering but knows nothing about turns.
type Ledger struct {
	round  int
	moves  []Move
	top    *Bid
	closed bool
	stamp  func(*Move)
}

// NewLedger opens the ledger for round. stamp, if non-nil, is called on each
// move before it is appended so the owner can assign sequence numbers and times.
func NewLedger(round int, stamp func(*Move)) *Ledger {
	return &Ledger{round: round, stamp: stamp}
}

// Reset discards every move and opens round.
func (l *Ledger) Reset(round int) {
	l.round = round
	l.moves = nil
	l.top = nil
	l.closed = false
}

// Round returns the round number this ledger belongs to.
func (l *Ledger) Round() int {
	return l.round
}

// RecordBid appends a bid if it strictly outranks the current top bid. The
// opening bid of a round only needs a positive quantity and a valid face.
func (l *Ledger) RecordBid(player string, quantity, face int) (Move, error) {
	if l.closed {
		return Move{}, fmt.Errorf("%w: round %d is closed", ErrInvalidAction, l.round)
	}
	if quantity < 1 {
		return Move{}, fmt.Errorf("%w: bid quantity must be at least 1, got %d", ErrInvalidAction, quantity)
	}
	if !dice.ValidFace(face) {
		return Move{}, fmt.Errorf("%w: bid face value must be between %d and %d, got %d",
			ErrInvalidAction, dice.MinFace, dice.MaxFace, face)
	}

	bid := Bid{Player: player, Quantity: quantity, Face: face}
	if l.top != nil && !bid.Outranks(*l.top) {
		return Move{}, fmt.Errorf("%w: bid %s does not outrank %s", ErrInvalidAction, bid, *l.top)
	}

	m := l.append(Move{Type: MoveBid, Player: player, Bid: bid})
	l.top = &bid
	return m, nil
}

// RecordChallenge appends a challenge against the open bid and closes the round.
// It returns the move, whose Bid is the bid being challenged.
func (l *Ledger) RecordChallenge(player string) (Move, error) {
	if l.closed {
		return Move{}, fmt.Errorf("%w: round %d is already closed", ErrInvalidAction, l.round)
	}
	if l.top == nil {
		return Move{}, fmt.Errorf("%w: there is no bid to challenge", ErrInvalidAction)
	}

	m := l.append(Move{Type: MoveChallenge, Player: player, Bid: *l.top})
	l.closed = true
	return m, nil
}

// settle attaches the resolution to the closing challenge and returns the final move.
func (l *Ledger) settle(res Resolution) Move {
	if !l.closed || len(l.moves) == 0 {
		panic("game: settle called on an open round")
	}
	last := &l.moves[len(l.moves)-1]
	r := res
	last.Resolution = &r
	return *last
}

func (l *Ledger) append(m Move) Move {
	m.Round = l.round
	if l.stamp != nil {
		l.stamp(&m)
	}
	l.moves = append(l.moves, m)
	return m
}

// LastBid returns the current top bid, if any.
func (l *Ledger) LastBid() (Bid, bool) {
	if l.top == nil {
		return Bid{}, false
	}
	return *l.top, true
}

// Open reports whether a bid is standing and no challenge has closed the round.
func (l *Ledger) Open() bool {
	return l.top != nil && !l.closed
}

// Closed reports whether a challenge has ended the round.
func (l *Ledger) Closed() bool {
	return l.closed
}

// Moves returns a copy of the moves recorded this round.
func (l *Ledger) Moves() []Move {
	return append([]Move(nil), l.moves...)
}
