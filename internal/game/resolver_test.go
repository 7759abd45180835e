package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/liarsdice/internal/dice"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	pools := map[string]dice.Pool{
		"alice": dice.MustOf(4, 4, 2),
		"bob":   dice.MustOf(1, 4, 6),
		"carol": dice.MustOf(5, 5, 3),
	}

	tests := []struct {
		name      string
		rules     Rules
		bid       Bid
		loser     string
		trueCount int
		stood     bool
	}{
		{
			name:      "bid stands with wild ones",
			rules:     DefaultRules(),
			bid:       Bid{Player: "alice", Quantity: 4, Face: 4},
			loser:     "bob",
			trueCount: 4,
			stood:     true,
		},
		{
			name:      "bid one over the count fails",
			rules:     DefaultRules(),
			bid:       Bid{Player: "alice", Quantity: 5, Face: 4},
			loser:     "alice",
			trueCount: 4,
		},
		{
			name:      "no wild face",
			rules:     Rules{StartingDice: 3, WildFace: NoWildFace, MaxPlayers: 6},
			bid:       Bid{Player: "alice", Quantity: 4, Face: 4},
			loser:     "alice",
			trueCount: 3,
		},
		{
			name:      "bid on the wild face",
			rules:     DefaultRules(),
			bid:       Bid{Player: "alice", Quantity: 1, Face: 1},
			loser:     "bob",
			trueCount: 1,
			stood:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.rules, pools, tt.bid, "bob")
			assert.Equal(t, tt.loser, res.Loser)
			assert.Equal(t, tt.trueCount, res.TrueCount)
			assert.Equal(t, tt.stood, res.BidStood)
			assert.Equal(t, "bob", res.Challenger)
			assert.Equal(t, tt.bid, res.Bid)
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	t.Parallel()

	pools := map[string]dice.Pool{
		"alice": dice.MustOf(3, 3, 1, 6, 2),
		"bob":   dice.MustOf(3, 5, 5, 1, 1),
	}
	bid := Bid{Player: "bob", Quantity: 5, Face: 3}
	first := Resolve(DefaultRules(), pools, bid, "alice")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Resolve(DefaultRules(), pools, bid, "alice"))
	}
}

func TestResolvePanicsWithoutDice(t *testing.T) {
	t.Parallel()

	bid := Bid{Player: "alice", Quantity: 1, Face: 2}
	assert.Panics(t, func() { Resolve(DefaultRules(), nil, bid, "bob") })
	assert.Panics(t, func() {
		Resolve(DefaultRules(), map[string]dice.Pool{"alice": dice.MustOf(2)}, bid, "bob")
	})
	assert.Panics(t, func() {
		Resolve(DefaultRules(), map[string]dice.Pool{"bob": dice.MustOf(2)}, bid, "bob")
	})
}
