// Package rating maintains Elo ratings for benchmark agents.
//
// Scores are soft rather than win/lose/draw: the chip margin of a result
// maps through tanh onto [0, 1] in big-blind units, so a narrow win moves
// ratings less than a blowout. The effective K is tempered by pot size and
// annealed as a pair of agents accumulates scored results.
package rating

import "math"

const (
	// DefaultInitial is the rating assigned to an agent on first sight.
	DefaultInitial = 1500
	// DefaultK is the base K factor before tempering.
	DefaultK = 32
)

// marginLambdaBB sets how many big blinds of margin saturate the soft
// score; a +6bb result scores roughly 0.88.
const marginLambdaBB = 6.0

// Table holds the ratings for a set of agents. It is pure in-memory state,
// persistence belongs to the caller. Not safe for concurrent use.
type Table struct {
	initial float64
	k       float64
	ratings map[string]float64
	pairs   map[string]int
}

// NewTable creates a rating table. Unseen agents rate at initial.
func NewTable(initial, k float64) *Table {
	return &Table{
		initial: initial,
		k:       k,
		ratings: make(map[string]float64),
		pairs:   make(map[string]int),
	}
}

// Rating returns the agent's current rating.
func (t *Table) Rating(name string) float64 {
	if r, ok := t.ratings[name]; ok {
		return r
	}
	return t.initial
}

// Seed sets an agent's rating directly, typically when resuming from
// storage.
func (t *Table) Seed(name string, rating float64) {
	t.ratings[name] = rating
}

// Update scores one result between a and b and applies the deltas. chipsA
// is a's net chips over the hands being scored, potSum the chips that went
// through the pot across them and bigBlind the stake.
func (t *Table) Update(a, b string, chipsA, potSum, bigBlind int) (dA, dB float64) {
	ra, rb := t.Rating(a), t.Rating(b)
	ea := Expected(ra, rb)
	eb := 1 - ea

	sa := SoftScore(chipsA, bigBlind)
	sb := 1 - sa

	key := pairKey(a, b)
	kEff := t.k * potScale(potSum, bigBlind) * marginScale(chipsA, bigBlind) * anneal(t.pairs[key])

	dA = kEff * (sa - ea)
	dB = kEff * (sb - eb)
	t.ratings[a] = ra + dA
	t.ratings[b] = rb + dB
	t.pairs[key]++
	return dA, dB
}

// Snapshot returns a copy of all ratings.
func (t *Table) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(t.ratings))
	for name, r := range t.ratings {
		out[name] = r
	}
	return out
}

// Expected is the 400-point logistic expectation for a rating against b.
func Expected(ra, rb float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rb-ra)/400.0))
}

// SoftScore maps a chip margin onto [0, 1]. Zero margin is a draw at 0.5
// and the score saturates as the margin passes a few big blinds.
func SoftScore(chips, bigBlind int) float64 {
	if bigBlind <= 0 {
		return 0.5
	}
	return 0.5 + 0.5*math.Tanh(float64(chips)/(marginLambdaBB*float64(bigBlind)))
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// potScale weights results by action: a 2bb pot is the baseline, walks
// count for less and big pots for more, clamped to [0.5, 3].
func potScale(pot, bb int) float64 {
	if bb <= 0 || pot <= 0 {
		return 1.0
	}
	scale := float64(pot) / (2.0 * float64(bb))
	return clampFloat(scale, 0.5, 3.0)
}

// marginScale boosts K slightly for decisive margins, topping out near
// 1.35 around 8bb.
func marginScale(chips, bb int) float64 {
	if bb <= 0 {
		return 1.0
	}
	m := math.Abs(float64(chips)) / float64(bb)
	return 1.0 + 0.35*math.Tanh(m/8.0)
}

// anneal shrinks K as a pair accumulates scored results, so early games
// move ratings and late games refine them.
func anneal(games int) float64 {
	return 1.0 / (1.0 + 0.01*float64(games))
}

func clampFloat(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
