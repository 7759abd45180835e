package game

import (
	"fmt"

	"github.com/lox/liarsdice/internal/dice"
)

// Resolve settles a challenge against bid. pools holds every active player's
// concealed dice keyed by player id. The tally follows rules.Tally; if it reaches
// the bid quantity the bid stands and the challenger loses a die, otherwise the
// bidder does. The result depends only on the inputs.
//
// Resolve panics if pools is empty or if the bidder or challenger has no pool:
// settling a challenge without the dice would silently produce a wrong outcome.
func Resolve(rules Rules, pools map[string]dice.Pool, bid Bid, challenger string) Resolution {
	if len(pools) == 0 {
		panic("game: resolve called with no dice")
	}
	if _, ok := pools[bid.Player]; !ok {
		panic(fmt.Sprintf("game: resolve called without the bidder's dice (%q)", bid.Player))
	}
	if _, ok := pools[challenger]; !ok {
		panic(fmt.Sprintf("game: resolve called without the challenger's dice (%q)", challenger))
	}

	count := 0
	for _, pool := range pools {
		count += rules.Tally(pool, bid.Face)
	}

	res := Resolution{
		Bid:        bid,
		Challenger: challenger,
		TrueCount:  count,
		BidStood:   count >= bid.Quantity,
	}
	if res.BidStood {
		res.Loser = challenger
	} else {
		res.Loser = bid.Player
	}
	return res
}
