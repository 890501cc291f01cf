package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
)

// ErrExhausted is returned when a deal requests more cards than remain.
// A heads-up hand never needs more than 52 cards, so hitting this mid-hand
// means the orchestrator is defective, not that the game hit bad luck.
var ErrExhausted = errors.New("deck exhausted")

// Deck represents an ordered run of playing cards with a deal cursor
type Deck struct {
	cards []Card
}

// New creates a shuffled 52-card deck. Randomness comes from the supplied
// rng so every shuffle is reproducible from a seed.
func New(rng *rand.Rand) *Deck {
	if rng == nil {
		panic("deck: rng is required")
	}

	d := &Deck{cards: make([]Card, 0, 52)}
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}

	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})

	return d
}

// NewStacked creates a deck dealing exactly the given cards in order.
// Used by tests and by hand replay, where the original deal is known.
func NewStacked(cards ...Card) *Deck {
	stacked := make([]Card, len(cards))
	copy(stacked, cards)
	return &Deck{cards: stacked}
}

// Deal removes and returns the top n cards.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("deal %d cards: %w", n, ErrExhausted)
	}
	if n > len(d.cards) {
		return nil, fmt.Errorf("deal %d cards with %d remaining: %w", n, len(d.cards), ErrExhausted)
	}

	dealt := make([]Card, n)
	copy(dealt, d.cards[:n])
	d.cards = d.cards[n:]
	return dealt, nil
}

// DealOne removes and returns the top card.
func (d *Deck) DealOne() (Card, error) {
	cards, err := d.Deal(1)
	if err != nil {
		return Card{}, err
	}
	return cards[0], nil
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}
