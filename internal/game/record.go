package game

import (
	"context"

	"github.com/chipbench/chipbench/internal/deck"
)

// SplitPot marks a hand with no net winner.
const SplitPot = -1

// ActionRecord is one voluntary action in a hand's history. Amount is the
// actor's total street commitment after the action, zero for folds and
// checks. Blind posts are forced and never appear as records.
type ActionRecord struct {
	Seat       int    `json:"seat"`
	Street     Street `json:"street"`
	Action     Action `json:"action"`
	Amount     int    `json:"amount,omitempty"`
	AllIn      bool   `json:"all_in,omitempty"`
	Stack      int    `json:"stack"`
	Pot        int    `json:"pot"`
	IsFallback bool   `json:"is_fallback,omitempty"`
	Reasoning  string `json:"reasoning,omitempty"`
}

// Result is the complete, self-describing outcome of one hand. It embeds
// the starting configuration so a stored result can be rendered, audited
// or replayed without outside context.
type Result struct {
	HandID      string         `json:"hand_id"`
	Config      Config         `json:"config"`
	HoleCards   [2][]deck.Card `json:"hole_cards"`
	Board       []deck.Card    `json:"board"`
	Awards      []PotAward     `json:"awards"`
	FinalPot    int            `json:"final_pot"`
	FinalStacks [2]int         `json:"final_stacks"`
	Net         [2]int         `json:"net"`
	Winner      int            `json:"winner"`
	Showdown    bool           `json:"showdown"`
	Actions     []ActionRecord `json:"actions"`
}

// Replay re-runs a recorded hand deterministically: the deck is stacked
// from the recorded cards and every action comes from the recorded
// script. A faithful record reproduces the original result exactly; any
// divergence returns an error.
func Replay(ctx context.Context, r *Result) (*Result, error) {
	cards := make([]deck.Card, 0, 4+len(r.Board))
	cards = append(cards, r.HoleCards[0]...)
	cards = append(cards, r.HoleCards[1]...)
	cards = append(cards, r.Board...)

	h, err := NewHand(nil, r.Config, [2]Agent{},
		WithDeck(deck.NewStacked(cards...)),
		WithScript(r.Actions),
		WithID(r.HandID),
	)
	if err != nil {
		return nil, err
	}
	return h.Play(ctx)
}
