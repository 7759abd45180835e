// Package game implements the Liar's Dice rules engine.
//
// The main type is Game, a concurrency-safe state machine that owns every
// player's concealed dice, the bid ledger for the current round and the move
// history for the whole match.
//
// # Basic Usage
//
//	g := game.New("g1", game.WithPublisher(hub.Publisher()))
//	err := g.Start("alice", game.Roster{Owner: "alice", Players: []string{"alice", "bob"}})
//	err = g.Apply("alice", game.BidAction(2, 5))
//	err = g.Apply("bob", game.ChallengeAction())
//	view, err := g.ViewFor("alice")
//
// # Deterministic Testing
//
// Dice are rolled from an injected source. Supply a scripted source to decide
// every face up front:
//
//	g := game.New("g1", game.WithSource(dice.Scripted(4, 4, 1, 6, 2, 3, 3, 5, 2, 4)))
//
// or a seeded one to replay a match:
//
//	g := game.New("g1", game.WithSource(randutil.New(42)))
//
// # Architecture
//
// Game delegates to small, separately testable pieces:
//   - Ledger: validates bid ordering and challenges within one round
//   - Resolve: tallies dice across all active pools to settle a challenge
//   - nextActive/openingPlayer: turn rotation in seat order
//   - dice.Pool: a player's concealed faces
//
// All writes (Start, Apply, Cancel) are serialised per game; reads (ViewFor,
// PublicView, History) observe complete snapshots. Different games share no
// mutable state.
package game
