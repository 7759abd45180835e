package game

import (
	"fmt"
	"time"

	"github.com/lox/liarsdice/internal/dice"
)

// Status is the lifecycle state of a game.
type Status int

const (
	Waiting Status = iota
	InProgress
	Finished
	Cancelled
)

var statusNames = [...]string{"WAITING", "IN_PROGRESS", "FINISHED", "CANCELLED"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == Finished || s == Cancelled
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	for i, name := range statusNames {
		if name == string(b) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown game status %q", string(b))
}

// MoveType distinguishes bids from challenges.
type MoveType int

const (
	MoveBid MoveType = iota
	MoveChallenge
)

func (t MoveType) String() string {
	switch t {
	case MoveBid:
		return "BID"
	case MoveChallenge:
		return "CHALLENGE"
	}
	return fmt.Sprintf("MoveType(%d)", int(t))
}

// MarshalText encodes the move type by name.
func (t MoveType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a move type name.
func (t *MoveType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "BID":
		*t = MoveBid
	case "CHALLENGE":
		*t = MoveChallenge
	default:
		return fmt.Errorf("unknown move type %q", string(b))
	}
	return nil
}

// Bid claims that at least Quantity dice showing Face exist across all active pools.
type Bid struct {
	Player   string `json:"playerId"`
	Quantity int    `json:"quantity"`
	Face     int    `json:"faceValue"`
}

// Outranks reports whether b is strictly higher than prev: more dice, or the
// same number of dice on a higher face.
func (b Bid) Outranks(prev Bid) bool {
	if b.Quantity != prev.Quantity {
		return b.Quantity > prev.Quantity
	}
	return b.Face > prev.Face
}

// Next returns the lowest bid that outranks b. The zero Bid is "no bid yet", so
// its Next is the lowest legal opening bid.
func (b Bid) Next() Bid {
	switch {
	case b.Quantity < 1:
		return Bid{Quantity: 1, Face: dice.MinFace}
	case b.Face < dice.MaxFace:
		return Bid{Quantity: b.Quantity, Face: b.Face + 1}
	default:
		return Bid{Quantity: b.Quantity + 1, Face: dice.MinFace}
	}
}

func (b Bid) String() string {
	return fmt.Sprintf("%d %ds", b.Quantity, b.Face)
}

// Resolution is the outcome of a challenge.
type Resolution struct {
	Bid        Bid    `json:"bid"`
	Challenger string `json:"challengerId"`
	Loser      string `json:"loserId"`
	TrueCount  int    `json:"trueCount"`
	BidStood   bool   `json:"bidStood"`
	Eliminated bool   `json:"eliminated"`
}

// Move is one recorded action. Moves are immutable once recorded and are
// ordered by Seq across the whole game.
type Move struct {
	Seq       int       `json:"seq"`
	Round     int       `json:"round"`
	Type      MoveType  `json:"type"`
	Player    string    `json:"playerId"`
	CreatedAt time.Time `json:"createdAt"`

	// Bid is the bid placed, or for a challenge the bid being challenged.
	Bid Bid `json:"bid"`
	// Resolution is set on challenges.
	Resolution *Resolution `json:"resolution,omitempty"`
}

// DisplayText renders the move for a game log.
func (m Move) DisplayText() string {
	switch m.Type {
	case MoveBid:
		return fmt.Sprintf("%s bid %s", m.Player, m.Bid)
	case MoveChallenge:
		text := fmt.Sprintf("%s challenged", m.Player)
		if r := m.Resolution; r != nil {
			text += fmt.Sprintf(": %d found, %s loses a die", r.TrueCount, r.Loser)
			if r.Eliminated {
				text += " and is out"
			}
		}
		return text
	}
	return fmt.Sprintf("%s made a move", m.Player)
}

// Action is what a player submits on their turn.
type Action struct {
	Type     MoveType
	Quantity int
	Face     int
}

// BidAction raises the bid to quantity dice of face.
func BidAction(quantity, face int) Action {
	return Action{Type: MoveBid, Quantity: quantity, Face: face}
}

// ChallengeAction calls the current bid a lie.
func ChallengeAction() Action {
	return Action{Type: MoveChallenge}
}
