package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/liarsdice/internal/dice"
)

func TestRulesValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultRules().Validate())

	tests := []struct {
		name  string
		rules Rules
	}{
		{"no dice", Rules{StartingDice: 0, WildFace: 1, MaxPlayers: 6}},
		{"wild face too high", Rules{StartingDice: 5, WildFace: 7, MaxPlayers: 6}},
		{"wild face negative", Rules{StartingDice: 5, WildFace: -1, MaxPlayers: 6}},
		{"table too small", Rules{StartingDice: 5, WildFace: 1, MaxPlayers: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.rules.Validate())
		})
	}

	noWild := DefaultRules()
	noWild.WildFace = NoWildFace
	assert.NoError(t, noWild.Validate())
	assert.False(t, noWild.Wild())
}

func TestTally(t *testing.T) {
	t.Parallel()

	pool := dice.MustOf(1, 4, 4, 1, 6)
	rules := DefaultRules()

	if got := rules.Tally(pool, 4); got != 4 {
		t.Errorf("fours with ones wild: expected 4, got %d", got)
	}
	if got := rules.Tally(pool, 1); got != 2 {
		t.Errorf("bid on the wild face counts only ones: expected 2, got %d", got)
	}
	if got := rules.Tally(pool, 5); got != 2 {
		t.Errorf("fives with ones wild: expected 2, got %d", got)
	}

	rules.WildFace = NoWildFace
	if got := rules.Tally(pool, 4); got != 2 {
		t.Errorf("fours without wilds: expected 2, got %d", got)
	}
}
