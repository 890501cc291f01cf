package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/chipbench/chipbench/internal/deck"
)

// queueAgent replays a fixed list of decisions and captures every request
// it receives so tests can assert on the views and legal action sets the
// engine produced.
type queueAgent struct {
	decisions []Decision
	requests  []ActionRequest
}

func queued(decisions ...Decision) *queueAgent {
	return &queueAgent{decisions: decisions}
}

func (a *queueAgent) RequestAction(ctx context.Context, req ActionRequest) (Decision, error) {
	a.requests = append(a.requests, req)
	if len(a.decisions) == 0 {
		return Decision{}, errors.New("decision queue exhausted")
	}
	d := a.decisions[0]
	a.decisions = a.decisions[1:]
	return d, nil
}

// failingAgent always errors, counting how often it was asked.
type failingAgent struct {
	calls int
}

func (a *failingAgent) RequestAction(ctx context.Context, req ActionRequest) (Decision, error) {
	a.calls++
	return Decision{}, errors.New("agent offline")
}

// randomAgent picks uniformly among the legal actions with a uniform
// amount inside the offered bounds. Used for conservation and replay
// sweeps.
type randomAgent struct {
	rng *rand.Rand
}

func (a *randomAgent) RequestAction(ctx context.Context, req ActionRequest) (Decision, error) {
	la := req.Legal[a.rng.IntN(len(req.Legal))]
	d := Decision{Action: la.Action}
	if la.Action == Bet || la.Action == Raise {
		d.Amount = la.Min + a.rng.IntN(la.Max-la.Min+1)
	}
	return d, nil
}

func testConfig() Config {
	return Config{
		Names:      [2]string{"Alice", "Bob"},
		SmallBlind: 50,
		BigBlind:   100,
		Stacks:     [2]int{10000, 10000},
		Button:     0,
	}
}

// stackedDeck builds a deck dealing the given hole cards and board in
// order: two cards to seat 0, two to seat 1, then the board.
func stackedDeck(t *testing.T, hole0, hole1, board string) *deck.Deck {
	t.Helper()
	cards := deck.MustParseCards(hole0)
	cards = append(cards, deck.MustParseCards(hole1)...)
	if board != "" {
		cards = append(cards, deck.MustParseCards(board)...)
	}
	return deck.NewStacked(cards...)
}

func mustPlay(t *testing.T, cfg Config, a0, a1 Agent, opts ...HandOption) *Result {
	t.Helper()
	h, err := NewHand(nil, cfg, [2]Agent{a0, a1}, opts...)
	if err != nil {
		t.Fatalf("NewHand: %v", err)
	}
	res, err := h.Play(context.Background())
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	return res
}
