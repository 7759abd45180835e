package bot

import (
	rand "math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/liarsdice/internal/game"
)

func testEstimator(opts ...EstimatorOption) *Estimator {
	return NewEstimator(rand.New(rand.NewPCG(1, 2)), append([]EstimatorOption{WithBluff(0)}, opts...)...)
}

// table builds a two player view where alice holds mine and bob holds the rest.
func table(wild int, total int, mine ...int) game.View {
	return game.View{
		GameID:          "g1",
		Status:          game.InProgress,
		RoundNumber:     1,
		CurrentPlayerID: "alice",
		TotalDice:       total,
		WildFace:        wild,
		Players: []game.PlayerView{
			{ID: "alice", DieCount: len(mine), Active: true, Dice: mine},
			{ID: "bob", SeatOrder: 1, DieCount: total - len(mine), Active: true},
		},
	}
}

func TestAtLeast(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, AtLeast(0, 3, 0.2))
	assert.Equal(t, 1.0, AtLeast(-2, 3, 0.2))
	assert.Equal(t, 0.0, AtLeast(4, 3, 0.9))
	assert.InDelta(t, 0.75, AtLeast(1, 2, 0.5), 1e-9)
	assert.InDelta(t, 0.25, AtLeast(2, 2, 0.5), 1e-9)
	assert.InDelta(t, 131.0/243, AtLeast(2, 5, 1.0/3), 1e-9)
}

func TestEstimatorChallengesImpossibleBid(t *testing.T) {
	t.Parallel()

	v := table(game.NoWildFace, 4, 2, 3)
	v.CurrentBid = &game.BidView{PlayerID: "bob", Quantity: 5, FaceValue: 4}

	d := testEstimator().Decide(v, "alice")
	assert.Equal(t, game.ChallengeAction(), d.Action)
	assert.NotEmpty(t, d.Reason)
}

func TestEstimatorOpensOnStrongFace(t *testing.T) {
	t.Parallel()

	v := table(1, 10, 4, 4, 4, 4, 4)

	d := testEstimator().Decide(v, "alice")
	assert.Equal(t, game.BidAction(7, 4), d.Action)
}

func TestEstimatorConfidenceLimitsClimb(t *testing.T) {
	t.Parallel()

	v := table(1, 10, 4, 4, 4, 4, 4)

	d := testEstimator(WithConfidence(0.8)).Decide(v, "alice")
	assert.Equal(t, game.BidAction(6, 4), d.Action)
}

func TestEstimatorRaises(t *testing.T) {
	t.Parallel()

	v := table(game.NoWildFace, 4, 5, 5)
	v.CurrentBid = &game.BidView{PlayerID: "bob", Quantity: 2, FaceValue: 3}

	d := testEstimator().Decide(v, "alice")
	assert.Equal(t, game.BidAction(2, 5), d.Action)
}

func TestEstimatorBluffStaysLegal(t *testing.T) {
	t.Parallel()

	e := NewEstimator(rand.New(rand.NewPCG(7, 7)), WithBluff(1))
	v := table(game.NoWildFace, 4, 5, 5)
	v.CurrentBid = &game.BidView{PlayerID: "bob", Quantity: 1, FaceValue: 2}
	current := game.Bid{Quantity: 1, Face: 2}

	for range 20 {
		d := e.Decide(v, "alice")
		if d.Action.Type == game.MoveChallenge {
			continue
		}
		raise := game.Bid{Quantity: d.Action.Quantity, Face: d.Action.Face}
		assert.True(t, raise.Outranks(current), "raise %s does not beat %s", raise, current)
	}
}

func TestEstimatorClimbStopsAtTableSize(t *testing.T) {
	t.Parallel()

	v := table(game.NoWildFace, 4, 3, 3)

	// an unclamped zero confidence would accept every raise; the bid still may
	// not exceed the dice that could show the face
	e := &Estimator{rng: rand.New(rand.NewPCG(1, 2)), confidence: 0}
	d := e.Decide(v, "alice")
	assert.Equal(t, game.BidAction(4, 3), d.Action)

	d = testEstimator(WithConfidence(0)).Decide(v, "alice")
	assert.Equal(t, game.MoveBid, d.Action.Type)
	assert.LessOrEqual(t, d.Action.Quantity, 4)
}

func TestWithConfidenceClamps(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, minConfidence, testEstimator(WithConfidence(-1)).confidence, 1e-9)
	assert.InDelta(t, 1.0, testEstimator(WithConfidence(3)).confidence, 1e-9)
	assert.InDelta(t, 0.7, testEstimator(WithConfidence(0.7)).confidence, 1e-9)
}
