// Package bot plays Liar's Dice automatically. A Strategy picks a move from a
// player's view of the game; Runner drives a server connection with it.
package bot

import (
	"fmt"
	"math"
	rand "math/rand/v2"

	"github.com/lox/liarsdice/internal/dice"
	"github.com/lox/liarsdice/internal/game"
)

// Decision is a move plus a short explanation for the logs.
type Decision struct {
	Action game.Action
	Reason string
}

// Strategy chooses the next move for player me. It is only asked when it is
// me's turn in an in-progress game.
type Strategy interface {
	Decide(v game.View, me string) Decision
}

// Estimator treats every die it cannot see as an independent fair roll and
// scores bids by the chance they are true. It challenges when the standing
// bid is more likely false than its best raise is true.
type Estimator struct {
	rng        *rand.Rand
	confidence float64
	bluff      float64
}

// EstimatorOption configures an Estimator.
type EstimatorOption func(*Estimator)

// WithConfidence sets how likely a raise must be before the bot bids more than
// the minimum on the same face. Defaults to 0.5; values outside (0, 1] are
// clamped into it.
func WithConfidence(p float64) EstimatorOption {
	return func(e *Estimator) { e.confidence = min(max(p, minConfidence), 1) }
}

// minConfidence is the lowest usable confidence. At zero every raise qualifies.
const minConfidence = 0.01

// WithBluff sets how often the bot makes a minimal raise on a random face
// instead of its best one. Defaults to 0.1.
func WithBluff(p float64) EstimatorOption {
	return func(e *Estimator) { e.bluff = p }
}

// NewEstimator creates the strategy. rng drives bluffing only.
func NewEstimator(rng *rand.Rand, opts ...EstimatorOption) *Estimator {
	e := &Estimator{rng: rng, confidence: 0.5, bluff: 0.1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// odds is what one player knows when judging bids.
type odds struct {
	mine    dice.Pool
	unknown int
	wild    int
}

func newOdds(v game.View, me string) odds {
	p, _ := v.Player(me)
	mine := dice.MustOf(p.Dice...)
	return odds{mine: mine, unknown: max(v.TotalDice-mine.Len(), 0), wild: v.WildFace}
}

func (o odds) support(face int) int {
	n := o.mine.Count(face)
	if o.wild != game.NoWildFace && face != o.wild {
		n += o.mine.Count(o.wild)
	}
	return n
}

// perDie is the chance one unseen die supports face.
func (o odds) perDie(face int) float64 {
	if o.wild != game.NoWildFace && face != o.wild {
		return 2.0 / dice.Faces
	}
	return 1.0 / dice.Faces
}

func (o odds) likelihood(b game.Bid) float64 {
	return AtLeast(b.Quantity-o.support(b.Face), o.unknown, o.perDie(b.Face))
}

// AtLeast returns the probability of at least k successes in n independent
// trials that each succeed with probability p.
func AtLeast(k, n int, p float64) float64 {
	if k <= 0 {
		return 1
	}
	if k > n {
		return 0
	}
	var sum float64
	for i := k; i <= n; i++ {
		sum += binomial(n, i) * math.Pow(p, float64(i)) * math.Pow(1-p, float64(n-i))
	}
	return math.Min(sum, 1)
}

func binomial(n, k int) float64 {
	if k > n-k {
		k = n - k
	}
	c := 1.0
	for i := 1; i <= k; i++ {
		c = c * float64(n-k+i) / float64(i)
	}
	return c
}

// minimumFor returns the smallest bid on face that outranks current.
func minimumFor(current *game.BidView, face int) game.Bid {
	if current == nil {
		return game.Bid{Quantity: 1, Face: face}
	}
	if face > current.FaceValue {
		return game.Bid{Quantity: current.Quantity, Face: face}
	}
	return game.Bid{Quantity: current.Quantity + 1, Face: face}
}

// Decide implements Strategy.
func (e *Estimator) Decide(v game.View, me string) Decision {
	o := newOdds(v, me)

	var best game.Bid
	bestP := -1.0
	for face := dice.MinFace; face <= dice.MaxFace; face++ {
		b := minimumFor(v.CurrentBid, face)
		if p := o.likelihood(b); p > bestP || (p == bestP && o.support(face) > o.support(best.Face)) {
			best, bestP = b, p
		}
	}

	if cur := v.CurrentBid; cur != nil {
		standing := game.Bid{Quantity: cur.Quantity, Face: cur.FaceValue}
		if pCur := o.likelihood(standing); 1-pCur > bestP {
			return Decision{
				Action: game.ChallengeAction(),
				Reason: fmt.Sprintf("%s holds with p=%.2f, best raise %s only %.2f", standing, pCur, best, bestP),
			}
		}
	}

	if e.bluff > 0 && e.rng.Float64() < e.bluff {
		face := dice.MinFace + e.rng.IntN(dice.Faces)
		b := minimumFor(v.CurrentBid, face)
		return Decision{
			Action: game.BidAction(b.Quantity, b.Face),
			Reason: fmt.Sprintf("bluffing %s with p=%.2f", b, o.likelihood(b)),
		}
	}

	// climb on the chosen face while the bid stays likely and could still be true
	ceiling := o.unknown + o.support(best.Face)
	for best.Quantity < ceiling {
		next := game.Bid{Quantity: best.Quantity + 1, Face: best.Face}
		p := o.likelihood(next)
		if p < e.confidence {
			break
		}
		best, bestP = next, p
	}
	return Decision{
		Action: game.BidAction(best.Quantity, best.Face),
		Reason: fmt.Sprintf("%s holds with p=%.2f", best, bestP),
	}
}
