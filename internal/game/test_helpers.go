package game

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/lox/liarsdice/internal/dice"
)

// TestGameOption configures test game creation
type TestGameOption func(*testGameBuilder)

type testGameBuilder struct {
	id      string
	owner   string
	players []string
	faces   []int
	opts    []Option
}

// WithTestPlayers sets the roster, in seat order. The first player is the owner.
func WithTestPlayers(names ...string) TestGameOption {
	return func(b *testGameBuilder) {
		b.players = names
		b.owner = names[0]
	}
}

// WithDice scripts every roll in the game; faces are dealt seat by seat, round
// by round, and cycle when exhausted.
func WithDice(faces ...int) TestGameOption {
	return func(b *testGameBuilder) { b.faces = faces }
}

// WithOptions passes engine options through.
func WithOptions(opts ...Option) TestGameOption {
	return func(b *testGameBuilder) { b.opts = append(b.opts, opts...) }
}

// NewTestGame creates and starts a game with alice and bob holding scripted dice.
func NewTestGame(opts ...TestGameOption) *Game {
	b := &testGameBuilder{
		id:      "test-game",
		owner:   "alice",
		players: []string{"alice", "bob"},
		faces:   []int{2, 3, 4, 5, 6},
	}
	for _, opt := range opts {
		opt(b)
	}

	gameOpts := append([]Option{
		WithSource(dice.Scripted(b.faces...)),
		WithLogger(log.NewWithOptions(io.Discard, log.Options{})),
	}, b.opts...)

	g := New(b.id, gameOpts...)
	if err := g.Start(b.owner, Roster{Owner: b.owner, Players: b.players}); err != nil {
		panic(err)
	}
	return g
}

// DiceOf returns a player's current dice, or nil if they are unknown.
func (g *Game) DiceOf(player string) []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if i, ok := g.index[player]; ok {
		return g.seats[i].pool.Faces()
	}
	return nil
}
