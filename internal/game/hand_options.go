package game

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chipbench/chipbench/internal/deck"
)

// Config fixes the parameters of a single hand. The session layer owns the
// carried-over stacks and passes them in here; nothing else in the engine
// persists across hands.
type Config struct {
	Names      [2]string `json:"names"`
	SmallBlind int       `json:"small_blind"`
	BigBlind   int       `json:"big_blind"`
	Stacks     [2]int    `json:"stacks"`
	Button     int       `json:"button"` // seat of the dealer, who posts the small blind
}

// Validate checks the configuration is playable.
func (c Config) Validate() error {
	if c.SmallBlind < 1 {
		return errors.New("small blind must be at least 1")
	}
	if c.BigBlind < c.SmallBlind {
		return fmt.Errorf("big blind %d below small blind %d", c.BigBlind, c.SmallBlind)
	}
	if c.Button != 0 && c.Button != 1 {
		return fmt.Errorf("button must be seat 0 or 1, got %d", c.Button)
	}
	for seat, stack := range c.Stacks {
		if stack < 1 {
			return fmt.Errorf("seat %d stack must be at least 1, got %d", seat, stack)
		}
	}
	return nil
}

// HandOption customizes hand construction.
type HandOption func(*Hand)

// WithDeck supplies a prepared deck instead of shuffling a fresh one.
// Stacked decks make tests and replays deterministic.
func WithDeck(d *deck.Deck) HandOption {
	return func(h *Hand) {
		h.deck = d
	}
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(logger zerolog.Logger) HandOption {
	return func(h *Hand) {
		h.log = logger
	}
}

// WithID fixes the hand id instead of generating one.
func WithID(id string) HandOption {
	return func(h *Hand) {
		h.id = id
	}
}

// WithScript drives the hand from a recorded action sequence instead of
// prompting agents. Used to replay hands from their action logs.
func WithScript(records []ActionRecord) HandOption {
	return func(h *Hand) {
		h.script = records
		h.scripted = true
	}
}
