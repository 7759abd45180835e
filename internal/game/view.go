package game

import "time"

// View is the projection of a game that one player is allowed to see. Every
// player's seat, die count and active flag are included; dice values appear
// only for the viewer.
type View struct {
	GameID          string       `json:"gameId"`
	Status          Status       `json:"status"`
	CurrentPlayerID string       `json:"currentPlayerId,omitempty"`
	RoundNumber     int          `json:"roundNumber"`
	Players         []PlayerView `json:"players"`
	CurrentBid      *BidView     `json:"currentBid,omitempty"`
	LastMove        *MoveView    `json:"lastMove,omitempty"`
	History         []MoveView   `json:"history"`
	WinnerID        string       `json:"winnerId,omitempty"`
	TotalDice       int          `json:"totalDice"`
	WildFace        int          `json:"wildFace"`
	UpdatedAt       time.Time    `json:"updatedAt"`

	// Viewer is the player this view was built for; empty for the public view.
	Viewer string `json:"viewer,omitempty"`
}

// PlayerView is one player's public state, plus their dice when they are the viewer.
type PlayerView struct {
	ID        string `json:"id"`
	SeatOrder int    `json:"seatOrder"`
	DieCount  int    `json:"dieCount"`
	Active    bool   `json:"active"`
	Dice      []int  `json:"dice,omitempty"`
}

// BidView is the standing bid.
type BidView struct {
	PlayerID  string `json:"playerId"`
	Quantity  int    `json:"quantity"`
	FaceValue int    `json:"faceValue"`
}

// MoveView is a move as shown in a game log.
type MoveView struct {
	Seq         int          `json:"seq"`
	Round       int          `json:"round"`
	PlayerID    string       `json:"playerId"`
	Type        MoveType     `json:"type"`
	Quantity    *int         `json:"quantity,omitempty"`
	FaceValue   *int         `json:"faceValue,omitempty"`
	DisplayText string       `json:"displayText"`
	Outcome     *OutcomeView `json:"outcome,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// OutcomeView is the public part of a challenge resolution: the aggregate count,
// never any individual pool.
type OutcomeView struct {
	LoserID    string `json:"loserId"`
	TrueCount  int    `json:"trueCount"`
	BidStood   bool   `json:"bidStood"`
	Eliminated bool   `json:"eliminated"`
}

// NewMoveView renders a move for display.
func NewMoveView(m Move) MoveView {
	mv := MoveView{
		Seq:         m.Seq,
		Round:       m.Round,
		PlayerID:    m.Player,
		Type:        m.Type,
		DisplayText: m.DisplayText(),
		CreatedAt:   m.CreatedAt,
	}
	if m.Type == MoveBid {
		q, f := m.Bid.Quantity, m.Bid.Face
		mv.Quantity = &q
		mv.FaceValue = &f
	}
	if r := m.Resolution; r != nil {
		mv.Outcome = &OutcomeView{
			LoserID:    r.Loser,
			TrueCount:  r.TrueCount,
			BidStood:   r.BidStood,
			Eliminated: r.Eliminated,
		}
	}
	return mv
}

// Player returns the view of id, if present.
func (v View) Player(id string) (PlayerView, bool) {
	for _, p := range v.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerView{}, false
}

// buildView must be called with at least the read lock held. viewer may be empty.
func (g *Game) buildView(viewer string) View {
	v := View{
		GameID:      g.id,
		Status:      g.status,
		RoundNumber: g.round,
		Players:     make([]PlayerView, 0, len(g.seats)),
		History:     make([]MoveView, 0, len(g.history)),
		WinnerID:    g.winner,
		WildFace:    g.rules.WildFace,
		UpdatedAt:   g.updatedAt,
		Viewer:      viewer,
	}
	if g.current >= 0 {
		v.CurrentPlayerID = g.seats[g.current].id
	}
	for _, s := range g.seats {
		pv := PlayerView{
			ID:        s.id,
			SeatOrder: s.order,
			DieCount:  s.dieCount,
			Active:    s.active(),
		}
		if viewer != "" && s.id == viewer {
			pv.Dice = s.pool.Faces()
		}
		v.TotalDice += s.dieCount
		v.Players = append(v.Players, pv)
	}
	if g.ledger != nil {
		if bid, ok := g.ledger.LastBid(); ok && g.ledger.Open() {
			v.CurrentBid = &BidView{PlayerID: bid.Player, Quantity: bid.Quantity, FaceValue: bid.Face}
		}
	}
	for _, m := range g.history {
		v.History = append(v.History, NewMoveView(m))
	}
	if n := len(v.History); n > 0 {
		last := v.History[n-1]
		v.LastMove = &last
	}
	return v
}
